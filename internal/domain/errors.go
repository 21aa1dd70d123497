package domain

import "errors"

var (
	ErrUnknownEmotion   = errors.New("unknown emotion")
	ErrUnknownCallback  = errors.New("unknown callback token")
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrNoSession        = errors.New("no pending session")
)
