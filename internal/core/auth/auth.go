// Package auth signs commerce uploads with HMAC-SHA256 and verifies them on
// the collector side.
package auth

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// HTTP header names carrying upload credentials. gRPC uses the lowercase
// forms as metadata keys.
const (
	HeaderKey       = "X-MP-Key"
	HeaderTimestamp = "X-MP-Timestamp"
	HeaderSignature = "X-MP-Signature"
)

// contextKey is a typed key for context values to avoid collisions.
type contextKey string

// keyIDKey is the context key for the verified key ID.
const keyIDKey = contextKey("key_id")

// Credentials are the three values attached to a signed upload.
type Credentials struct {
	APIKey    string
	Timestamp string
	Signature string
}

// Signer produces Credentials for upload bodies.
type Signer struct {
	apiKey string
	secret []byte
	now    func() time.Time
}

// NewSigner validates that apiKey is well formed and bound to keyID, the ID
// of secret.
func NewSigner(apiKey, keyID string, secret []byte) (*Signer, error) {
	id, _, err := ParseAPIKey(apiKey)
	if err != nil {
		return nil, err
	}
	if id != keyID {
		return nil, fmt.Errorf("%w: api key is bound to %s, secret to %s", ErrUnknownKey, id, keyID)
	}
	if len(secret) == 0 {
		return nil, errors.New("signing secret is empty")
	}
	return &Signer{apiKey: apiKey, secret: secret, now: time.Now}, nil
}

// Sign returns credentials for body at the current time.
func (s *Signer) Sign(body []byte) Credentials {
	ts := s.now().Unix()
	return Credentials{
		APIKey:    s.apiKey,
		Timestamp: strconv.FormatInt(ts, 10),
		Signature: hex.EncodeToString(ComputeSignature(s.secret, s.apiKey, ts, body)),
	}
}

// Verifier checks signed uploads against a set of secrets keyed by key ID.
type Verifier struct {
	secrets map[string][]byte
	maxSkew time.Duration
	now     func() time.Time
}

// NewVerifier creates a verifier. Requests whose timestamp differs from the
// local clock by more than maxSkew are rejected.
func NewVerifier(secrets map[string][]byte, maxSkew time.Duration) *Verifier {
	return &Verifier{secrets: secrets, maxSkew: maxSkew, now: time.Now}
}

// Verify authenticates body and returns the key ID that signed it.
func (v *Verifier) Verify(c Credentials, body []byte) (string, error) {
	if c.APIKey == "" {
		return "", ErrMissingKey
	}
	keyID, _, err := ParseAPIKey(c.APIKey)
	if err != nil {
		return "", err
	}
	secret, ok := v.secrets[keyID]
	if !ok {
		return "", ErrUnknownKey
	}

	ts, err := strconv.ParseInt(c.Timestamp, 10, 64)
	if err != nil {
		return "", ErrStaleTimestamp
	}
	if skew := v.now().Sub(time.Unix(ts, 0)).Abs(); skew > v.maxSkew {
		return "", ErrStaleTimestamp
	}

	sig, err := hex.DecodeString(c.Signature)
	if err != nil {
		return "", ErrInvalidSignature
	}
	if !VerifyHMAC(sig, ComputeSignature(secret, c.APIKey, ts, body)) {
		return "", ErrInvalidSignature
	}
	return keyID, nil
}

// AppendToOutgoingContext attaches credentials as gRPC metadata.
func AppendToOutgoingContext(ctx context.Context, c Credentials) context.Context {
	return metadata.AppendToOutgoingContext(ctx,
		"x-mp-key", c.APIKey,
		"x-mp-timestamp", c.Timestamp,
		"x-mp-signature", c.Signature,
	)
}

// healthPrefix is the method prefix of the standard gRPC health service,
// which is served without credentials.
const healthPrefix = "/grpc.health.v1.Health/"

// UnaryInterceptor returns a gRPC interceptor that authenticates requests.
// canonical renders the request message to the exact bytes the client signed.
func (v *Verifier) UnaryInterceptor(canonical func(req any) ([]byte, error)) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if strings.HasPrefix(info.FullMethod, healthPrefix) {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		body, err := canonical(req)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}

		keyID, err := v.Verify(Credentials{
			APIKey:    first(md.Get("x-mp-key")),
			Timestamp: first(md.Get("x-mp-timestamp")),
			Signature: first(md.Get("x-mp-signature")),
		}, body)
		if err != nil {
			if errors.Is(err, ErrInvalidSignature) || errors.Is(err, ErrStaleTimestamp) {
				return nil, status.Error(codes.PermissionDenied, err.Error())
			}
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}

		return handler(context.WithValue(ctx, keyIDKey, keyID), req)
	}
}

// KeyIDFromContext extracts the verified key ID from context.
// Returns empty string if not found.
func KeyIDFromContext(ctx context.Context) string {
	if keyID, ok := ctx.Value(keyIDKey).(string); ok {
		return keyID
	}
	return ""
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
