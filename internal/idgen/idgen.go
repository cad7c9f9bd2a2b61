package idgen

import "github.com/google/uuid"

// NewFunc returns a new globally unique identifier. Tests may stub it.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new globally unique identifier as string.
func New() string { return NewFunc() }

// Short returns the first 8 characters of a new identifier, used for
// temporary file suffixes and job correlation in logs.
func Short() string {
	id := New()
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
