package domain

import (
	"context"
	"errors"
)

var (
	ErrSnapshotNotFound = errors.New("habit document not found")
	ErrUnauthorized     = errors.New("unauthorized")
)

type SnapshotRepository interface {
	// Load returns the user's whole tracking document, or ErrSnapshotNotFound.
	Load(ctx context.Context, userID string) (*Snapshot, error)

	// Save overwrites the user's document. There is no field-level merge:
	// the last writer wins.
	Save(ctx context.Context, userID string, snapshot *Snapshot) error

	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, userID string) error
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}
