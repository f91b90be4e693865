package core

import "github.com/google/uuid"

// ID identifies a GPU or host resource in logs and registries.
type ID = uuid.UUID

// NewID returns a fresh random identifier.
func NewID() ID {
	return uuid.New()
}

// ShortID is the first block of the identifier, enough to tell resources apart in logs.
func ShortID(id ID) string {
	return id.String()[:8]
}
