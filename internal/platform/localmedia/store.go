package localmedia

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yungbote/aria-backend/internal/platform/envutil"
	"github.com/yungbote/aria-backend/internal/platform/logger"
)

// Store writes media artifacts (currently avatar PNGs) to local disk and
// maps keys to the public URL path they are served under.
type Store interface {
	Save(key string, data []byte) error
	Delete(key string) error
	URL(key string) string
	Root() string
}

type store struct {
	log     *logger.Logger
	root    string
	urlBase string
}

func NewStore(log *logger.Logger) (Store, error) {
	root := envutil.Str("MEDIA_DIR", "./data/media")
	urlBase := envutil.Str("MEDIA_URL_BASE", "/media")
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &store{
		log:     log.With("service", "LocalMediaStore"),
		root:    root,
		urlBase: strings.TrimRight(urlBase, "/"),
	}, nil
}

func (s *store) path(key string) (string, error) {
	key = strings.TrimLeft(filepath.Clean("/"+key), "/")
	if key == "" || key == "." {
		return "", fmt.Errorf("invalid media key")
	}
	return filepath.Join(s.root, key), nil
}

func (s *store) Save(key string, data []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

func (s *store) Delete(key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *store) URL(key string) string {
	return s.urlBase + "/" + strings.TrimLeft(key, "/")
}

func (s *store) Root() string {
	return s.root
}
