package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
)

// maxAssetBytes bounds how much of a remote asset we are willing to read.
const maxAssetBytes = 32 << 20

// Resolver fetches branding assets (logos, watermarks, QR images) from
// data URIs or remote URLs and decodes them. Every failure path returns
// nil: a brand asset that cannot be fetched degrades the frame, it never
// fails the render.
type Resolver struct {
	client *http.Client
}

func NewResolver(timeout time.Duration) *Resolver {
	return &Resolver{
		client: &http.Client{Timeout: timeout},
	}
}

// Resolve turns an asset reference into a decoded image. Empty refs,
// unfetchable URLs and undecodable payloads all yield nil.
func (r *Resolver) Resolve(ctx context.Context, ref string) image.Image {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}

	var data []byte
	switch {
	case strings.HasPrefix(ref, "data:"):
		data = decodeDataURI(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		data = r.fetch(ctx, ref)
	default:
		log.Printf("[Assets] Unsupported asset reference scheme, skipping")
		return nil
	}
	if data == nil {
		return nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		log.Printf("[Assets] Failed to decode asset: %v", err)
		return nil
	}
	return img
}

func (r *Resolver) fetch(ctx context.Context, url string) []byte {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Printf("[Assets] Invalid asset URL: %v", err)
		return nil
	}
	resp, err := r.client.Do(req)
	if err != nil {
		log.Printf("[Assets] Failed to fetch asset: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Assets] Asset fetch returned status %d", resp.StatusCode)
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes))
	if err != nil {
		log.Printf("[Assets] Failed to read asset body: %v", err)
		return nil
	}
	return data
}

// decodeDataURI extracts the base64 payload of a data URI. The media
// type prefix is ignored; the decoded bytes are sniffed by image.Decode.
func decodeDataURI(uri string) []byte {
	comma := strings.Index(uri, ",")
	if comma < 0 {
		log.Printf("[Assets] Malformed data URI, missing payload")
		return nil
	}
	meta, payload := uri[len("data:"):comma], uri[comma+1:]
	if !strings.Contains(meta, "base64") {
		log.Printf("[Assets] Data URI is not base64 encoded, skipping")
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		log.Printf("[Assets] Failed to decode data URI: %v", err)
		return nil
	}
	return data
}

// Download materializes a raw (non-image) asset such as a music track
// into dir and returns the file path, or "" when the asset cannot be
// fetched. Like Resolve, failure degrades instead of erroring.
func (r *Resolver) Download(ctx context.Context, ref, dir, name string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}

	var data []byte
	switch {
	case strings.HasPrefix(ref, "data:"):
		data = decodeDataURI(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		data = r.fetch(ctx, ref)
	default:
		log.Printf("[Assets] Unsupported asset reference scheme, skipping")
		return ""
	}
	if data == nil {
		return ""
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("[Assets] Failed to save asset: %v", err)
		return ""
	}
	return path
}

// SavePNG writes an image to dir as name.png and returns the path.
func SavePNG(img image.Image, dir, name string) (string, error) {
	path := filepath.Join(dir, name+".png")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return path, nil
}
