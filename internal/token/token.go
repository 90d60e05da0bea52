// internal/token/token.go
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalid = errors.New("unsubscribe token is invalid")
	ErrExpired = errors.New("unsubscribe token has expired")
)

// Codec issues and verifies stateless unsubscribe tokens. A token is
// base64url(payload) + "." + base64url(HMAC-SHA256(payload)), so a one-click
// unsubscribe link keeps working without any database lookup, even when the
// recipient row it was minted for is gone.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

type payload struct {
	Email     string `json:"e"`
	ExpiresAt int64  `json:"x"` // epoch millis
}

// Issue returns a signed token for email that verifies until ttl elapses.
func (c *Codec) Issue(email string, ttl time.Duration) (string, error) {
	raw, err := json.Marshal(payload{
		Email:     strings.ToLower(strings.TrimSpace(email)),
		ExpiresAt: time.Now().Add(ttl).UnixMilli(),
	})
	if err != nil {
		return "", err
	}

	encoded := base64.RawURLEncoding.EncodeToString(raw)
	return encoded + "." + c.sign(encoded), nil
}

// Verify checks the signature and expiry and returns the encoded address.
// Malformed, tampered and expired tokens all fail; nothing is looked up.
func (c *Codec) Verify(tok string) (string, error) {
	encoded, sig, ok := strings.Cut(tok, ".")
	if !ok || encoded == "" || sig == "" {
		return "", ErrInvalid
	}

	if !hmac.Equal([]byte(c.sign(encoded)), []byte(sig)) {
		return "", ErrInvalid
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalid
	}

	var p payload
	if err := json.Unmarshal(raw, &p); err != nil || p.Email == "" {
		return "", ErrInvalid
	}
	if time.Now().UnixMilli() > p.ExpiresAt {
		return "", ErrExpired
	}

	return p.Email, nil
}

func (c *Codec) sign(encoded string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
