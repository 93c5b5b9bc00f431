// Package nfc derives the opaque tokens written to attendee badges.
package nfc

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/skip2/go-qrcode"
)

const (
	// TokenLength is the number of base64url characters kept from the MAC.
	TokenLength = 16

	domain = "nfc:v1:"
)

var ErrNoSecret = errors.New("nfc secret is not configured")

// Generate returns the badge token for profileID. The same secret and
// profile always produce the same token.
func Generate(secret []byte, profileID string) (string, error) {
	if len(secret) == 0 {
		return "", ErrNoSecret
	}
	if profileID == "" {
		return "", errors.New("profile id is required")
	}

	h := hmac.New(sha256.New, secret)
	h.Write([]byte(domain + profileID))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))[:TokenLength], nil
}

// Verify reports whether token belongs to profileID.
func Verify(secret []byte, profileID, token string) bool {
	expected, err := Generate(secret, profileID)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(token))
}

// QRCode renders token as a PNG of size x size pixels.
func QRCode(token string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(token, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}
