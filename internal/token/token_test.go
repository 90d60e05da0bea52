package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	c := NewCodec("test-secret")

	tok, err := c.Issue("Client@Example.COM", 10*time.Minute)
	require.NoError(t, err)

	email, err := c.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "client@example.com", email)
}

func TestVerifyExpired(t *testing.T) {
	c := NewCodec("test-secret")

	tok, err := c.Issue("client@example.com", -time.Minute)
	require.NoError(t, err)

	_, err = c.Verify(tok)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerifyTamperedPayload(t *testing.T) {
	c := NewCodec("test-secret")

	tok, err := c.Issue("client@example.com", 10*time.Minute)
	require.NoError(t, err)

	// flip one byte of the payload segment
	b := []byte(tok)
	if b[0] == 'A' {
		b[0] = 'B'
	} else {
		b[0] = 'A'
	}

	_, err = c.Verify(string(b))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyTamperedSignature(t *testing.T) {
	c := NewCodec("test-secret")

	tok, err := c.Issue("client@example.com", 10*time.Minute)
	require.NoError(t, err)

	b := []byte(tok)
	last := len(b) - 1
	if b[last] == 'A' {
		b[last] = 'B'
	} else {
		b[last] = 'A'
	}

	_, err = c.Verify(string(b))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyMalformed(t *testing.T) {
	c := NewCodec("test-secret")

	for _, tok := range []string{"", "no-separator", ".", "abc.", ".def", "!!!.!!!"} {
		_, err := c.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalid, "token %q", tok)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := NewCodec("secret-a")
	verifier := NewCodec("secret-b")

	tok, err := issuer.Issue("client@example.com", 10*time.Minute)
	require.NoError(t, err)

	_, err = verifier.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestTokenShape(t *testing.T) {
	c := NewCodec("test-secret")

	tok, err := c.Issue("client@example.com", 10*time.Minute)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 2)
	assert.NotContains(t, parts[0], "=")
	assert.NotContains(t, parts[1], "=")
}
