package v5client

import (
	"context"

	"github.com/naividh/member-profile-processor/internal/authtoken"
)

// TokenedChallengeResolver adapts Client.LookupChallengeByLegacyID to the
// router's ChallengeResolver interface by fetching a bearer token from the
// shared cache before each lookup.
type TokenedChallengeResolver struct {
	client *Client
	tokens *authtoken.Cache
}

// NewTokenedChallengeResolver returns a resolver that authenticates every
// lookup through tokens.
func NewTokenedChallengeResolver(client *Client, tokens *authtoken.Cache) *TokenedChallengeResolver {
	return &TokenedChallengeResolver{client: client, tokens: tokens}
}

// ResolveChallenge implements router.ChallengeResolver.
func (r *TokenedChallengeResolver) ResolveChallenge(ctx context.Context, legacyID int64) (Challenge, error) {
	token, err := r.tokens.Get(ctx)
	if err != nil {
		return Challenge{}, err
	}
	return r.client.LookupChallengeByLegacyID(ctx, token, legacyID)
}
