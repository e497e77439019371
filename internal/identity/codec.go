// Package identity converts between user identifiers and opaque bearer credentials.
package identity

import (
	"fmt"
	"strings"

	"budgetbook/internal/core"
)

// DefaultPrefix is the marker carried by every plain credential.
const DefaultPrefix = "dummy-token-for-"

// Codec issues and verifies bearer credentials.
type Codec interface {
	Encode(userID string) string
	Decode(credential string) (string, error)
}

// PlainCodec embeds the user id verbatim after a fixed prefix.
// It authenticates nothing; anyone can forge a credential for any id.
type PlainCodec struct {
	Prefix string
}

func NewPlainCodec(prefix string) PlainCodec {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return PlainCodec{Prefix: prefix}
}

func (c PlainCodec) prefix() string {
	if c.Prefix == "" {
		return DefaultPrefix
	}
	return c.Prefix
}

func (c PlainCodec) Encode(userID string) string {
	return c.prefix() + userID
}

// Decode returns the exact substring following the prefix.
func (c PlainCodec) Decode(credential string) (string, error) {
	if credential == "" {
		return "", core.ErrMissingCredential
	}
	userID, ok := strings.CutPrefix(credential, c.prefix())
	if !ok || userID == "" {
		return "", fmt.Errorf("decode credential: %w", core.ErrMalformedCredential)
	}
	return userID, nil
}

// FromAuthorizationHeader extracts the user id from an Authorization header.
// A leading "Bearer " (any case) is optional.
func FromAuthorizationHeader(codec Codec, header string) (string, error) {
	credential := strings.TrimSpace(header)
	if credential == "" {
		return "", core.ErrMissingCredential
	}
	if len(credential) >= 6 && strings.EqualFold(credential[:6], "bearer") &&
		(len(credential) == 6 || credential[6] == ' ') {
		credential = strings.TrimSpace(credential[6:])
	}
	if credential == "" {
		return "", core.ErrMissingCredential
	}
	return codec.Decode(credential)
}

// BearerToken renders the Authorization value clients send back.
func BearerToken(codec Codec, userID string) string {
	return "Bearer " + codec.Encode(userID)
}
