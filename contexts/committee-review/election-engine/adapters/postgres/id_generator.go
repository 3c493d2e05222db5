package postgresadapter

import (
	"context"

	"github.com/google/uuid"
)

// UUIDGenerator issues random UUID v4 identifiers for elections and votes.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
