package sessions

import "context"

// Repo is the persisted key-value store session records live in.
type Repo interface {
	// Get returns the raw record stored under key; found is false when there is none
	Get(ctx context.Context, key string) (data []byte, found bool, err error)

	// Set creates or overwrites the record stored under key
	Set(ctx context.Context, key string, data []byte) error

	// Delete removes the record stored under key. Deleting an absent key is not an error
	Delete(ctx context.Context, key string) error
}
