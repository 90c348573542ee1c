package token

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

const tokenBytes = 16

// Issuer creates per-render one-time tokens bound to a session and verifies
// them at submission time.
type Issuer struct {
	store     Store
	singleUse bool
	logger    zerolog.Logger
}

// NewIssuer constructs an issuer. With singleUse enabled, a successful
// verification consumes the stored token so a captured token cannot prove a
// second render.
func NewIssuer(store Store, singleUse bool, logger zerolog.Logger) *Issuer {
	return &Issuer{
		store:     store,
		singleUse: singleUse,
		logger:    logger.With().Str("component", "token_issuer").Logger(),
	}
}

// Issue generates a fresh token for the session, stores it and returns it for
// embedding in the rendered form.
func (i *Issuer) Issue(ctx context.Context, sessionID string) (string, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	generated := hex.EncodeToString(raw)

	if err := i.store.Save(ctx, sessionID, generated); err != nil {
		return "", err
	}

	i.logger.Debug().Str("session_id", sessionID).Msg("session token issued")
	return generated, nil
}

// Expected returns the currently issued token for the session. The boolean is
// false when no token was issued; store failures are returned as errors.
func (i *Issuer) Expected(ctx context.Context, sessionID string) (string, bool, error) {
	issued, err := i.store.Get(ctx, sessionID)
	if errors.Is(err, ErrNotIssued) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return issued, true, nil
}

// Verify reports whether the supplied token matches the issued one. The
// comparison is constant time. A session with no issued token always fails.
// Under the single-use policy a successful verification deletes the stored
// token.
func (i *Issuer) Verify(ctx context.Context, sessionID, supplied string) (bool, error) {
	issued, ok, err := i.Expected(ctx, sessionID)
	if err != nil || !ok {
		return false, err
	}

	if subtle.ConstantTimeCompare([]byte(issued), []byte(supplied)) != 1 {
		return false, nil
	}

	if i.singleUse {
		if err := i.store.Delete(ctx, sessionID); err != nil {
			i.logger.Warn().Err(err).Str("session_id", sessionID).Msg("failed to consume session token")
		}
	}

	return true, nil
}
