package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/adrikim-mp/mparticle-web-sdk/internal/core/auth"
	"github.com/adrikim-mp/mparticle-web-sdk/internal/ecommerce"
)

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 512

// HTTPUploader POSTs canonical JSON to a collector URL.
type HTTPUploader struct {
	url    string
	client *http.Client
	signer *auth.Signer
	logger *zap.Logger
}

// NewHTTPUploader creates an uploader. signer may be nil for unauthenticated
// collectors.
func NewHTTPUploader(url string, timeout time.Duration, signer *auth.Signer, logger *zap.Logger) *HTTPUploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPUploader{
		url:    url,
		client: &http.Client{Timeout: timeout},
		signer: signer,
		logger: logger,
	}
}

// Upload implements ecommerce.Transport.
func (u *HTTPUploader) Upload(ctx context.Context, event *ecommerce.WireEvent) error {
	body, err := CanonicalJSON(event)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if u.signer != nil {
		creds := u.signer.Sign(body)
		req.Header.Set(auth.HeaderKey, creds.APIKey)
		req.Header.Set(auth.HeaderTimestamp, creds.Timestamp)
		req.Header.Set(auth.HeaderSignature, creds.Signature)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload event %s: %w", event.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("upload event %s: collector returned %d: %s", event.ID, resp.StatusCode, bytes.TrimSpace(msg))
	}

	u.logger.Debug("Uploaded commerce event",
		zap.String("id", string(event.ID)),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)))
	return nil
}
