// Package domain defines the core domain types and interfaces.
//
// This package contains concept-oriented files (emotion.go, tally.go, session.go, callback.go, etc.)
// with shared types and cross-cutting interfaces. Implementation lives in app and the adapters;
// the only code here is small value-type helpers (parsing, ordering, formatting).
// Prevents circular imports by keeping interfaces on the consumer side.
package domain
