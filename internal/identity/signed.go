package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"budgetbook/internal/core"
)

// SignedCodec appends an expiry and an HMAC-SHA256 signature to the user id:
// <prefix><userId>.<expiryUnix>.<signature>
type SignedCodec struct {
	prefix string
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSignedCodec(prefix string, secret []byte, ttl time.Duration) *SignedCodec {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedCodec{prefix: prefix, secret: secret, ttl: ttl, now: time.Now}
}

func (c *SignedCodec) Encode(userID string) string {
	payload := userID + "." + strconv.FormatInt(c.now().Add(c.ttl).Unix(), 10)
	return c.prefix + payload + "." + c.sign(payload)
}

func (c *SignedCodec) Decode(credential string) (string, error) {
	if credential == "" {
		return "", core.ErrMissingCredential
	}
	body, ok := strings.CutPrefix(credential, c.prefix)
	if !ok {
		return "", fmt.Errorf("decode credential: %w", core.ErrMalformedCredential)
	}
	sigAt := strings.LastIndex(body, ".")
	if sigAt < 0 {
		return "", fmt.Errorf("decode credential: %w", core.ErrMalformedCredential)
	}
	payload, sig := body[:sigAt], body[sigAt+1:]
	if !hmac.Equal([]byte(sig), []byte(c.sign(payload))) {
		return "", fmt.Errorf("decode credential: bad signature: %w", core.ErrMalformedCredential)
	}
	expAt := strings.LastIndex(payload, ".")
	if expAt <= 0 {
		return "", fmt.Errorf("decode credential: %w", core.ErrMalformedCredential)
	}
	userID := payload[:expAt]
	exp, err := strconv.ParseInt(payload[expAt+1:], 10, 64)
	if err != nil {
		return "", fmt.Errorf("decode credential: %w", core.ErrMalformedCredential)
	}
	if c.now().Unix() >= exp {
		return "", fmt.Errorf("decode credential: %w", core.ErrExpiredCredential)
	}
	return userID, nil
}

func (c *SignedCodec) sign(payload string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
