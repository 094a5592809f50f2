package avatar

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ngvan/tunebox/internal/apperror"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	s, err := NewStore(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s
}

// testPNG encodes a small solid-colour PNG in memory.
func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test PNG: %v", err)
	}
	return buf.Bytes()
}

func TestSaveResizesTo150(t *testing.T) {
	s := newTestStore(t)

	ref, err := s.Save("alice", "pic.png", bytes.NewReader(testPNG(t, 10, 10)))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if ref != "alice_pic.png" {
		t.Errorf("Save() ref = %q, want %q", ref, "alice_pic.png")
	}

	f, err := os.Open(filepath.Join(s.Dir(), ref))
	if err != nil {
		t.Fatalf("opening stored avatar: %v", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decoding stored avatar: %v", err)
	}
	if cfg.Width != 150 || cfg.Height != 150 {
		t.Errorf("stored avatar is %dx%d, want 150x150", cfg.Width, cfg.Height)
	}
}

func TestSaveRejectsOversizedUpload(t *testing.T) {
	s := newTestStore(t)

	// 5 MB + 1 byte of junk. Must fail validation before any decode attempt.
	big := bytes.NewReader(make([]byte, MaxUploadBytes+1))

	_, err := s.Save("alice", "big.png", big)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Save() oversized error = %v, want validation error", err)
	}

	// Nothing may be written on rejection.
	entries, readErr := os.ReadDir(s.Dir())
	if readErr != nil {
		t.Fatalf("reading avatar dir: %v", readErr)
	}
	if len(entries) != 0 {
		t.Errorf("avatar dir has %d files after rejected upload, want 0", len(entries))
	}
}

func TestSaveRejectsNonImage(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Save("alice", "notes.png", strings.NewReader("this is not an image"))
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Save() non-image error = %v, want validation error", err)
	}
}

func TestSaveStripsPathComponents(t *testing.T) {
	s := newTestStore(t)

	ref, err := s.Save("alice", "../../etc/passwd.png", bytes.NewReader(testPNG(t, 4, 4)))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if strings.Contains(ref, "..") || strings.ContainsRune(ref, filepath.Separator) {
		t.Errorf("Save() ref %q leaks path components", ref)
	}
}
