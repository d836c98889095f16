package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	// Upload timeout per attempt, generous for multi-minute MP4s.
	uploadTimeout = 180 * time.Second

	maxRetries     = 4
	baseRetryDelay = 1 * time.Second
	maxRetryDelay  = 30 * time.Second
)

// UploadError reports a failed upload after all retries. The encoded
// file stays on disk so the render is not lost with it.
type UploadError struct {
	Pathname string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload of %s: %v", e.Pathname, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// BlobStore uploads finished videos to a Vercel-Blob-compatible store.
type BlobStore struct {
	baseURL string
	token   string
	client  *http.Client
}

func New(baseURL, token string) *BlobStore {
	return &BlobStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client: &http.Client{
			Timeout: uploadTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type blobPutResponse struct {
	URL string `json:"url"`
}

// Upload puts data at pathname with retries and exponential backoff,
// returning the public URL of the stored object.
func (s *BlobStore) Upload(ctx context.Context, pathname string, data []byte, contentType string) (string, error) {
	url := fmt.Sprintf("%s/%s", s.baseURL, pathname)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryDelay(attempt)
			log.Printf("[Storage] Upload retry %d/%d for %s (waiting %v)...", attempt, maxRetries, pathname, delay)

			select {
			case <-ctx.Done():
				return "", &UploadError{Pathname: pathname, Err: fmt.Errorf("upload cancelled: %w", ctx.Err())}
			case <-time.After(delay):
			}
		}

		uploadCtx, cancel := context.WithTimeout(ctx, uploadTimeout)

		req, err := http.NewRequestWithContext(uploadCtx, "PUT", url, bytes.NewReader(data))
		if err != nil {
			cancel()
			return "", &UploadError{Pathname: pathname, Err: fmt.Errorf("failed to create request: %w", err)}
		}

		req.Header.Set("Authorization", "Bearer "+s.token)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("X-Content-Type", contentType)
		req.Header.Set("X-Add-Random-Suffix", "0")

		resp, err := s.client.Do(req)
		if err != nil {
			cancel()
			lastErr = fmt.Errorf("failed to upload: %w", err)
			if isRetryableError(err) {
				log.Printf("[Storage] Upload attempt %d failed (retryable): %v", attempt+1, err)
				continue
			}
			return "", &UploadError{Pathname: pathname, Err: lastErr}
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		cancel()

		if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
			var put blobPutResponse
			if err := json.Unmarshal(body, &put); err != nil || put.URL == "" {
				return "", &UploadError{Pathname: pathname, Err: fmt.Errorf("unexpected store response: %s", truncate(string(body), 200))}
			}
			if attempt > 0 {
				log.Printf("[Storage] Upload succeeded on attempt %d for %s", attempt+1, pathname)
			}
			return put.URL, nil
		}

		lastErr = fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, truncate(string(body), 200))

		if isRetryableStatus(resp.StatusCode) {
			log.Printf("[Storage] Upload attempt %d returned status %d (retryable)", attempt+1, resp.StatusCode)
			continue
		}

		return "", &UploadError{Pathname: pathname, Err: lastErr}
	}

	return "", &UploadError{Pathname: pathname, Err: fmt.Errorf("upload failed after %d attempts: %w", maxRetries+1, lastErr)}
}

// UploadFile uploads a local file.
func (s *BlobStore) UploadFile(ctx context.Context, pathname, localPath, contentType string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", localPath, err)
	}
	return s.Upload(ctx, pathname, data, contentType)
}

func retryDelay(attempt int) time.Duration {
	delay := float64(baseRetryDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(maxRetryDelay) {
		delay = float64(maxRetryDelay)
	}
	// 0-25% jitter to avoid thundering herd
	jitter := delay * 0.25 * rand.Float64()
	return time.Duration(delay + jitter)
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "EOF") ||
		strings.Contains(errStr, "broken pipe")
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests ||
		status == http.StatusRequestTimeout ||
		status == http.StatusBadGateway ||
		status == http.StatusServiceUnavailable ||
		status == http.StatusGatewayTimeout
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
