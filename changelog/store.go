package changelog

import "context"

// Token is the optimistic-concurrency value a store hands out on Load and
// expects back on Save. Callers never interpret it. The zero value means the
// document did not exist when it was loaded.
type Token string

// Store persists a single changelog document.
type Store interface {
	// Load returns the current document. A missing document is returned as
	// NewDocument() with an empty token and no error.
	Load(ctx context.Context) (*Document, Token, error)

	// Save writes doc, failing with a *StoreWriteError if the document changed
	// since token was issued. message describes the change.
	Save(ctx context.Context, doc *Document, token Token, message string) error
}
