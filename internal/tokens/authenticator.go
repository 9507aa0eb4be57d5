package tokens

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/records/internal/errs"
)

// Authenticator turns a bearer token into verified claims.
type Authenticator struct {
	Verifier    Verifier
	Revocations RevocationChecker
}

func NewAuthenticator(v Verifier, rc RevocationChecker) *Authenticator {
	if rc == nil {
		rc = NoRevocation{}
	}
	return &Authenticator{Verifier: v, Revocations: rc}
}

// Authenticate fails with errs.ErrUnauthenticated for bad, expired or revoked
// tokens. A failing revocation store is reported as a plain error.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := a.Verifier.Verify(token)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	revoked, err := a.Revocations.Revoked(ctx, claims)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", errs.ErrUnauthenticated)
	}
	return claims, nil
}
