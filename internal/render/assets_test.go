package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test png: %v", err)
	}
	return buf.Bytes()
}

func TestResolveEmptyRef(t *testing.T) {
	r := NewResolver(time.Second)
	if img := r.Resolve(context.Background(), ""); img != nil {
		t.Error("expected nil for empty ref")
	}
	if img := r.Resolve(context.Background(), "   "); img != nil {
		t.Error("expected nil for blank ref")
	}
}

func TestResolveDataURI(t *testing.T) {
	data := pngBytes(t)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)

	img := NewResolver(time.Second).Resolve(context.Background(), uri)
	if img == nil {
		t.Fatal("expected decoded image from data URI")
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 8 {
		t.Errorf("unexpected bounds: %v", img.Bounds())
	}
}

func TestResolveMalformedDataURI(t *testing.T) {
	r := NewResolver(time.Second)
	for _, uri := range []string{"data:image/png;base64", "data:image/png;base64,!!!", "data:image/png,plain"} {
		if img := r.Resolve(context.Background(), uri); img != nil {
			t.Errorf("expected nil for %q", uri)
		}
	}
}

func TestResolveHTTP(t *testing.T) {
	data := pngBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	img := NewResolver(time.Second).Resolve(context.Background(), srv.URL+"/logo.png")
	if img == nil {
		t.Fatal("expected decoded image from HTTP fetch")
	}
}

func TestResolveHTTPFailuresDegrade(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	r := NewResolver(time.Second)
	if img := r.Resolve(context.Background(), srv.URL); img != nil {
		t.Error("expected nil for 404 response")
	}

	srv.Close()
	if img := r.Resolve(context.Background(), srv.URL); img != nil {
		t.Error("expected nil for unreachable server")
	}
}

func TestResolveUndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not an image"))
	}))
	defer srv.Close()

	if img := NewResolver(time.Second).Resolve(context.Background(), srv.URL); img != nil {
		t.Error("expected nil for undecodable body")
	}
}

func TestResolveUnsupportedScheme(t *testing.T) {
	if img := NewResolver(time.Second).Resolve(context.Background(), "ftp://example.com/a.png"); img != nil {
		t.Error("expected nil for unsupported scheme")
	}
}

func TestDownload(t *testing.T) {
	payload := []byte("fake mp3 bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := NewResolver(time.Second).Download(context.Background(), srv.URL, dir, "music.mp3")
	if path == "" {
		t.Fatal("expected a saved file path")
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved file: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("saved payload mismatch")
	}
}

func TestDownloadFailureReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if path := NewResolver(time.Second).Download(context.Background(), srv.URL, t.TempDir(), "music.mp3"); path != "" {
		t.Error("expected empty path on server error")
	}
}

func TestSavePNG(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.White)

	path, err := SavePNG(img, dir, "frame_0000")
	if err != nil {
		t.Fatalf("SavePNG failed: %v", err)
	}
	if filepath.Base(path) != "frame_0000.png" {
		t.Errorf("unexpected filename: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open saved png: %v", err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Errorf("saved file is not valid png: %v", err)
	}
}
