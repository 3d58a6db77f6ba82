// Package filestore implements content.MediaStore on a local directory.
// Media is written under a random name and served from a configurable base
// URL, which is typically the directory's public mount point.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/petal-labs/scribe/content"
)

// DefaultMaxBytes caps the size of a downloaded or inline media file.
const DefaultMaxBytes = 20 << 20

// ErrTooLarge is returned when media exceeds the configured size limit.
var ErrTooLarge = errors.New("media exceeds size limit")

// Store saves media files into a directory.
type Store struct {
	dir      string
	baseURL  string
	client   *http.Client
	logger   *slog.Logger
	maxBytes int64
	nextID   atomic.Int64
}

// Option configures a Store.
type Option func(*Store)

// WithHTTPClient sets the client used to download remote media.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) {
		if c != nil {
			s.client = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxBytes sets the largest file the store accepts.
func WithMaxBytes(n int64) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// New returns a Store writing into dir, creating it if needed. Saved files
// are addressed as baseURL joined with the file name.
func New(dir, baseURL string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, errors.New("filestore: directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create %s: %w", dir, err)
	}
	s := &Store{
		dir:      dir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: 2 * time.Minute},
		logger:   slog.Default(),
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the directory files are written to.
func (s *Store) Dir() string { return s.dir }

// sidecar is written next to each media file.
type sidecar struct {
	ID          int64     `json:"id"`
	File        string    `json:"file"`
	Source      string    `json:"source,omitempty"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Caption     string    `json:"caption,omitempty"`
	SavedAt     time.Time `json:"saved_at"`
}

// Save writes src to the directory. Inline data takes precedence over a
// URL. A source with neither is declined with a nil reference.
func (s *Store) Save(ctx context.Context, src content.MediaSource, meta content.MediaMeta) (*content.MediaRef, error) {
	data := src.Data
	contentType := ""
	switch {
	case len(data) > 0:
		if int64(len(data)) > s.maxBytes {
			return nil, fmt.Errorf("filestore: %d bytes: %w", len(data), ErrTooLarge)
		}
	case src.URL != "":
		var err error
		data, contentType, err = s.download(ctx, src.URL)
		if err != nil {
			return nil, err
		}
	default:
		return nil, nil
	}

	name := uuid.NewString() + extension(src, contentType, data)
	if err := writeFile(filepath.Join(s.dir, name), data); err != nil {
		return nil, fmt.Errorf("filestore: write %s: %w", name, err)
	}

	id := s.nextID.Add(1)
	side, err := json.MarshalIndent(sidecar{
		ID:          id,
		File:        name,
		Source:      src.URL,
		Title:       meta.Title,
		Description: meta.Description,
		Caption:     meta.Caption,
		SavedAt:     time.Now().UTC(),
	}, "", "  ")
	if err == nil {
		err = writeFile(filepath.Join(s.dir, name+".json"), side)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "media metadata not written", "file", name, "error", err)
	}

	s.logger.DebugContext(ctx, "media saved", "id", id, "file", name, "bytes", len(data))
	return &content.MediaRef{ID: id, URL: s.url(name)}, nil
}

func (s *Store) url(name string) string {
	if s.baseURL == "" {
		return name
	}
	u, err := url.JoinPath(s.baseURL, name)
	if err != nil {
		return s.baseURL + "/" + name
	}
	return u
}

func (s *Store) download(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("filestore: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("filestore: download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("filestore: download %s: status %d", redactQuery(rawURL), resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("filestore: download: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, "", fmt.Errorf("filestore: %s: %w", redactQuery(rawURL), ErrTooLarge)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// extension picks a file extension from the filename hint, the URL path,
// the response content type or the sniffed bytes, in that order.
func extension(src content.MediaSource, contentType string, data []byte) string {
	if ext := filepath.Ext(src.Filename); ext != "" {
		return strings.ToLower(ext)
	}
	if src.URL != "" {
		if u, err := url.Parse(src.URL); err == nil {
			if ext := path.Ext(u.Path); len(ext) > 1 && len(ext) <= 5 {
				return strings.ToLower(ext)
			}
		}
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mt {
		case "image/jpeg":
			return ".jpg"
		case "image/png":
			return ".png"
		case "image/gif":
			return ".gif"
		case "image/webp":
			return ".webp"
		}
		if exts, _ := mime.ExtensionsByType(mt); len(exts) > 0 {
			return exts[0]
		}
	}
	return ".bin"
}

// writeFile writes data to a temporary file and renames it into place.
func writeFile(name string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(name), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), name)
}

func redactQuery(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	return u.String()
}

var _ content.MediaStore = (*Store)(nil)
