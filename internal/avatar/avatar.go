// Package avatar stores user profile pictures as fixed-size thumbnails.
//
// Uploads are decoded, resized to 150×150, and written to the avatar
// directory as {username}_{original_filename}. Anything over 5 MB is
// rejected before decoding and nothing is written.
package avatar

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/ngvan/tunebox/internal/apperror"
)

// MaxUploadBytes is the upload size limit (5 MB).
const MaxUploadBytes = 5 * 1024 * 1024

// thumbnailSize is the fixed edge length of stored avatars.
const thumbnailSize = 150

// Store writes and resolves avatar files under a single directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates the avatar directory if needed and returns a Store.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("avatar: creating directory %s: %w", dir, err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the directory avatars are stored in, for static file serving.
func (s *Store) Dir() string {
	return s.dir
}

// Save reads an uploaded image, resizes it to the fixed thumbnail size, and
// writes it as {username}_{originalName}. It returns the stored filename
// (the avatar ref recorded on the user).
//
// Failure modes: reads beyond MaxUploadBytes and undecodable images are
// validation errors; nothing is written in either case.
func (s *Store) Save(username, originalName string, r io.Reader) (string, error) {
	// Read one byte past the limit so we can tell "exactly 5 MB" from
	// "too big" without trusting a client-supplied length.
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("avatar: reading upload: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return "", apperror.ValidationFailed("avatar", "avatar must be 5 MB or smaller")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", apperror.ValidationFailed("avatar", "avatar must be a valid JPEG or PNG image")
	}

	thumb := imaging.Resize(img, thumbnailSize, thumbnailSize, imaging.Lanczos)

	filename := username + "_" + sanitizeFilename(originalName)
	path := filepath.Join(s.dir, filename)

	if err := imaging.Save(thumb, path); err != nil {
		return "", fmt.Errorf("avatar: saving %s: %w", filename, err)
	}

	s.logger.Info("avatar stored",
		slog.String("username", username),
		slog.String("file", filename),
	)

	return filename, nil
}

// sanitizeFilename strips any path components from a client-supplied name so
// the stored file cannot escape the avatar directory. Files without a known
// image extension get .png appended, matching how imaging.Save picks the
// encoder from the extension.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, string(filepath.Separator), "_")
	if name == "." || name == ".." || name == "" {
		name = "avatar.png"
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff":
		return name
	default:
		return name + ".png"
	}
}
