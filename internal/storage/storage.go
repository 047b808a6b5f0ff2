package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"alxtravel.com/app/internal/shared/slug"
)

var ErrUnsupportedType = errors.New("unsupported file type")

type PutInput struct {
	// Folder groups objects, e.g. "listings/<id>".
	Folder      string
	Filename    string
	ContentType string
	Size        int64
}

type PutResult struct {
	Key string
	URL string
}

type Storage interface {
	Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error)
	Delete(ctx context.Context, key string) error
}

// ImageExt returns the normalized extension of an accepted image upload.
func ImageExt(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
		return ext, nil
	default:
		return "", ErrUnsupportedType
	}
}

// objectKey builds "<folder>/<slug>-<uuid><ext>" with forward slashes.
func objectKey(in PutInput) (string, error) {
	ext, err := ImageExt(in.Filename)
	if err != nil {
		return "", err
	}
	name := slug.FromFilename(in.Filename) + "-" + uuid.NewString() + ext
	folder := strings.Trim(path.Clean("/"+filepath.ToSlash(in.Folder)), "/")
	if folder == "" {
		return name, nil
	}
	return folder + "/" + name, nil
}
