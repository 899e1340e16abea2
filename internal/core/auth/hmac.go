package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// ParseAPIKey extracts key_id and random_data from the API key format.
// Format: mp-v1-<key_id>-<random_data> (102 chars total).
// Returns ErrInvalidKeyFormat if format doesn't match.
func ParseAPIKey(key string) (keyID, randomData string, err error) {
	parts := strings.Split(key, "-")
	if len(parts) != 4 || parts[0] != "mp" || parts[1] != "v1" {
		return "", "", ErrInvalidKeyFormat
	}

	keyID = parts[2]
	randomData = parts[3]

	// key_id is a UUID without hyphens, random_data is 256 bits
	if len(keyID) != 32 || len(randomData) != 64 {
		return "", "", ErrInvalidKeyFormat
	}
	for _, c := range keyID + randomData {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return "", "", ErrInvalidKeyFormat
		}
	}

	return keyID, randomData, nil
}

// FormatAPIKey constructs an API key from components.
func FormatAPIKey(keyID, randomData string) string {
	return fmt.Sprintf("mp-v1-%s-%s", keyID, randomData)
}

// GenerateAPIKey returns a new API key bound to keyID.
func GenerateAPIKey(keyID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return FormatAPIKey(keyID, hex.EncodeToString(buf)), nil
}

// ComputeSignature computes the HMAC-SHA256 of an upload. The signed message
// is "<api key>\n<unix seconds>\n<body>", so a signature cannot be replayed
// under another key or timestamp.
func ComputeSignature(secret []byte, apiKey string, unixSeconds int64, body []byte) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(apiKey))
	h.Write([]byte{'\n'})
	h.Write([]byte(strconv.FormatInt(unixSeconds, 10)))
	h.Write([]byte{'\n'})
	h.Write(body)
	return h.Sum(nil)
}

// VerifyHMAC compares signatures in constant time.
func VerifyHMAC(expected, computed []byte) bool {
	return hmac.Equal(expected, computed)
}
