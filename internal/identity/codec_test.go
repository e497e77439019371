package identity

import (
	"errors"
	"testing"
	"time"

	"budgetbook/internal/core"
)

func TestPlainCodecRoundTrip(t *testing.T) {
	c := NewPlainCodec("")
	for _, id := range []string{"alice", "a.b.c", "dummy-token-for-bob", "ünïcode", "with space"} {
		got, err := c.Decode(c.Encode(id))
		if err != nil || got != id {
			t.Fatalf("%q round trip: got %q err=%v", id, got, err)
		}
	}
}

func TestPlainCodecDecode(t *testing.T) {
	c := NewPlainCodec("")
	cases := []struct {
		credential string
		want       string
		err        error
	}{
		{"dummy-token-for-alice", "alice", nil},
		{"dummy-token-for-", "", core.ErrMalformedCredential},
		{"token-for-alice", "", core.ErrMalformedCredential},
		{"", "", core.ErrMissingCredential},
	}
	for _, tc := range cases {
		got, err := c.Decode(tc.credential)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("%q: expected %v, got %v", tc.credential, tc.err, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%q: expected %q, got %q (err=%v)", tc.credential, tc.want, got, err)
		}
	}
}

func TestFromAuthorizationHeader(t *testing.T) {
	c := NewPlainCodec("")
	cases := []struct {
		header string
		want   string
		err    error
	}{
		{"Bearer dummy-token-for-alice", "alice", nil},
		{"bearer dummy-token-for-alice", "alice", nil},
		{"dummy-token-for-alice", "alice", nil},
		{"Bearer ", "", core.ErrMissingCredential},
		{"", "", core.ErrMissingCredential},
		{"Bearer nope", "", core.ErrMalformedCredential},
	}
	for _, tc := range cases {
		got, err := FromAuthorizationHeader(c, tc.header)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("%q: expected %v, got %v", tc.header, tc.err, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%q: expected %q, got %q (err=%v)", tc.header, tc.want, got, err)
		}
	}
	if got := BearerToken(c, "bob"); got != "Bearer dummy-token-for-bob" {
		t.Fatalf("unexpected bearer token %q", got)
	}
}

func TestSignedCodec(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := NewSignedCodec("", []byte("secret"), time.Hour)
	c.now = func() time.Time { return now }

	cred := c.Encode("carol.smith")
	got, err := c.Decode(cred)
	if err != nil || got != "carol.smith" {
		t.Fatalf("round trip: got %q err=%v", got, err)
	}

	other := NewSignedCodec("", []byte("other"), time.Hour)
	other.now = c.now
	if _, err := other.Decode(cred); !errors.Is(err, core.ErrMalformedCredential) {
		t.Fatalf("expected signature mismatch to be malformed, got %v", err)
	}

	if _, err := c.Decode(cred + "x"); !errors.Is(err, core.ErrMalformedCredential) {
		t.Fatalf("expected tampered credential to be malformed, got %v", err)
	}

	if _, err := c.Decode(NewPlainCodec("").Encode("carol")); !errors.Is(err, core.ErrMalformedCredential) {
		t.Fatalf("plain credential must not pass signed decoding, got %v", err)
	}

	c.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = c.Decode(cred)
	if !errors.Is(err, core.ErrExpiredCredential) || !errors.Is(err, core.ErrMalformedCredential) {
		t.Fatalf("expected expired credential, got %v", err)
	}
}
