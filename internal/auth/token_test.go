package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("super-secret"), time.Hour)

	tok, err := issuer.Issue(42, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := issuer.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, int64(42), claims.UserID)
	require.Equal(t, "alice", claims.Username)
	require.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("secret"), time.Hour)
	// Issue with a negative TTL through a second issuer sharing the secret.
	expired := &TokenIssuer{secret: []byte("secret"), ttl: -time.Minute}

	tok, err := expired.Issue(1, "bob")
	require.NoError(t, err)

	_, err = issuer.Verify(tok)
	require.Error(t, err)
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenIssuer([]byte("right-secret"), time.Hour).Issue(1, "bob")
	require.NoError(t, err)

	_, err = NewTokenIssuer([]byte("wrong-secret"), time.Hour).Verify(tok)
	require.Error(t, err)
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	_, err := NewTokenIssuer([]byte("k"), time.Hour).Verify("not.a.token")
	require.Error(t, err)
}

func TestNewTokenIssuer_DefaultTTL(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("k"), 0)
	tok, err := issuer.Issue(7, "carol")
	require.NoError(t, err)

	claims, err := issuer.Verify(tok)
	require.NoError(t, err)
	// One week, give or take the test run.
	require.WithinDuration(t, time.Now().Add(DefaultTokenTTL), claims.ExpiresAt.Time, time.Minute)
}
