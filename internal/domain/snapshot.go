package domain

import "context"

// SnapshotStore holds the single durable state document. Save replaces the whole
// document; a failed Save must leave the previous document intact.
type SnapshotStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, document []byte) error
}
