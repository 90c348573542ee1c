package token

import (
	"context"
	"encoding/hex"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestIssueProducesUniqueHexTokens(t *testing.T) {
	issuer := NewIssuer(NewMemoryStore(), false, zerolog.Nop())

	first, err := issuer.Issue(context.Background(), "session-1")
	require.NoError(t, err)
	second, err := issuer.Issue(context.Background(), "session-2")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	raw, err := hex.DecodeString(first)
	require.NoError(t, err)
	require.Len(t, raw, 16)
}

func TestVerifyMatchesIssuedToken(t *testing.T) {
	issuer := NewIssuer(NewMemoryStore(), false, zerolog.Nop())

	issued, err := issuer.Issue(context.Background(), "session-1")
	require.NoError(t, err)

	ok, err := issuer.Verify(context.Background(), "session-1", issued)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = issuer.Verify(context.Background(), "session-1", "forged")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyWithoutIssuedTokenFails(t *testing.T) {
	issuer := NewIssuer(NewMemoryStore(), false, zerolog.Nop())

	ok, err := issuer.Verify(context.Background(), "session-1", "")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyReusableByDefault(t *testing.T) {
	issuer := NewIssuer(NewMemoryStore(), false, zerolog.Nop())

	issued, err := issuer.Issue(context.Background(), "session-1")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		ok, err := issuer.Verify(context.Background(), "session-1", issued)
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestVerifySingleUseConsumesToken(t *testing.T) {
	issuer := NewIssuer(NewMemoryStore(), true, zerolog.Nop())

	issued, err := issuer.Issue(context.Background(), "session-1")
	require.NoError(t, err)

	ok, err := issuer.Verify(context.Background(), "session-1", issued)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = issuer.Verify(context.Background(), "session-1", issued)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestExpectedDistinguishesAbsentFromEmpty(t *testing.T) {
	issuer := NewIssuer(NewMemoryStore(), false, zerolog.Nop())

	_, issued, err := issuer.Expected(context.Background(), "session-1")
	require.NoError(t, err)
	require.False(t, issued)

	generated, err := issuer.Issue(context.Background(), "session-1")
	require.NoError(t, err)

	expected, issued, err := issuer.Expected(context.Background(), "session-1")
	require.NoError(t, err)
	require.True(t, issued)
	require.Equal(t, generated, expected)
}

func TestMemoryStoreConcurrentSessions(t *testing.T) {
	issuer := NewIssuer(NewMemoryStore(), true, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessionID := "session-" + hex.EncodeToString([]byte{byte(i)})

			issued, err := issuer.Issue(context.Background(), sessionID)
			require.NoError(t, err)

			ok, err := issuer.Verify(context.Background(), sessionID, issued)
			require.NoError(t, err)
			require.True(t, ok)
		}(i)
	}
	wg.Wait()
}

func TestRedisStoreRoundTrip(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	store := NewRedisStore(client, time.Minute)

	_, err = store.Get(context.Background(), "session-1")
	require.ErrorIs(t, err, ErrNotIssued)

	require.NoError(t, store.Save(context.Background(), "session-1", "abc123"))

	value, err := store.Get(context.Background(), "session-1")
	require.NoError(t, err)
	require.Equal(t, "abc123", value)

	require.NoError(t, store.Delete(context.Background(), "session-1"))
	_, err = store.Get(context.Background(), "session-1")
	require.ErrorIs(t, err, ErrNotIssued)
}

func TestRedisStoreTokensExpire(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	store := NewRedisStore(client, time.Minute)
	require.NoError(t, store.Save(context.Background(), "session-1", "abc123"))

	server.FastForward(2 * time.Minute)

	_, err = store.Get(context.Background(), "session-1")
	require.ErrorIs(t, err, ErrNotIssued)
}
