// Package app holds the bot's use cases.
//
// Conversation drives the per-user feedback cycle on top of the consensus
// Ledger; Persistence mirrors the in-memory State into a snapshot store.
// Transport, classifier and storage are reached through domain interfaces only.
package app
