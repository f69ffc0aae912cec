package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidPath = errors.New("invalid storage path")
	ErrNotFound    = errors.New("stored object not found")
)

// BlobStore keeps binary objects under slash-separated relative paths and
// exposes them through public URLs.
type BlobStore interface {
	Put(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
	URLFor(name string) string
	PathFromURL(url string) (string, bool)
}

// LocalStore writes objects below Root and serves them from BaseURL + PublicPath.
type LocalStore struct {
	root       string
	publicPath string
	baseURL    string
	logger     *slog.Logger
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root, publicPath, baseURL string, logger *slog.Logger) (*LocalStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}

	publicPath = "/" + strings.Trim(publicPath, "/")

	return &LocalStore{
		root:       root,
		publicPath: publicPath,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}, nil
}

// Root is the directory served under PublicPath.
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) PublicPath() string {
	return s.publicPath
}

// Put writes through a temp file and rename so readers never see partial content.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full, err := s.resolve(name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close object: %w", err)
	}

	if err := os.Rename(tmpName, full); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to store object: %w", err)
	}

	s.logger.Debug("stored object", "path", name, "bytes", len(data))
	return nil
}

func (s *LocalStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full, err := s.resolve(name)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete object: %w", err)
	}

	s.logger.Debug("deleted object", "path", name)
	return nil
}

func (s *LocalStore) URLFor(name string) string {
	return s.baseURL + path.Join(s.publicPath, cleanName(name))
}

// PathFromURL inverts URLFor. Absolute URLs from another base and bare
// storage paths are both accepted as long as they sit under PublicPath.
func (s *LocalStore) PathFromURL(url string) (string, bool) {
	rest := url
	if s.baseURL != "" {
		rest = strings.TrimPrefix(rest, s.baseURL)
	}
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
		slash := strings.Index(rest, "/")
		if slash < 0 {
			return "", false
		}
		rest = rest[slash:]
	}

	prefix := s.publicPath + "/"
	if !strings.HasPrefix(rest, prefix) {
		return "", false
	}

	name := cleanName(strings.TrimPrefix(rest, prefix))
	if name == "" {
		return "", false
	}
	return name, true
}

func (s *LocalStore) resolve(name string) (string, error) {
	name = cleanName(name)
	if name == "" {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.root, filepath.FromSlash(name)), nil
}

// cleanName rejects traversal by rooting the path before cleaning it.
func cleanName(name string) string {
	cleaned := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	return strings.TrimPrefix(cleaned, "/")
}
