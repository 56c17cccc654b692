package core

import (
	"context"

	"github.com/dkeye/VoiceRelay/internal/domain"
)

//go:generate mockgen -source=verifier.go -destination=mocks/mock_verifier.go -package=mocks

// TokenVerifier turns a signed credential into a verified identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (domain.Identity, error)
}
