package snapshot

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/danmuck/suitcase/internal/codec"
)

// Store keeps snapshots under a root directory, addressed by relative key.
type Store struct {
	root string
	opts codec.Options
}

// NewStore constructs a store rooted at root. An empty root means
// local/snapshots under the working directory.
func NewStore(root string, opts codec.Options) Store {
	resolved := strings.TrimSpace(root)
	if resolved == "" {
		resolved = filepath.Join("local", "snapshots")
	}
	return Store{root: resolved, opts: opts}
}

func (s Store) Root() string {
	return s.root
}

// Put saves v under key.
func Put[T any](s Store, key string, v *T) error {
	p, err := s.resolvePath(key)
	if err != nil {
		return err
	}
	return Save(p, v, s.opts)
}

// Get loads the value stored under key.
func Get[T any](s Store, key string) (T, error) {
	var zero T
	p, err := s.resolvePath(key)
	if err != nil {
		return zero, err
	}
	return Load[T](p, s.opts)
}

func (s Store) Delete(key string) error {
	p, err := s.resolvePath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// List returns stored keys with the given prefix, sorted.
func (s Store) List(prefix string) ([]string, error) {
	root, err := filepath.Abs(s.root)
	if err != nil {
		return nil, err
	}
	prefix = strings.TrimSpace(prefix)
	keys := make([]string, 0)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) && path == root {
				return filepath.SkipDir
			}
			return walkErr
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if prefix == "" || strings.HasPrefix(rel, prefix) {
			keys = append(keys, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (s Store) resolvePath(key string) (string, error) {
	rel := strings.TrimSpace(key)
	if rel == "" {
		return "", fmt.Errorf("snapshot: missing key")
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("snapshot: absolute key not allowed")
	}
	root, err := filepath.Abs(s.root)
	if err != nil {
		return "", err
	}
	p := filepath.Clean(filepath.Join(root, rel))
	if !isWithin(p, root) || p == root {
		return "", fmt.Errorf("snapshot: key escapes root")
	}
	return p, nil
}

func isWithin(path string, root string) bool {
	p := filepath.Clean(path)
	r := filepath.Clean(root)
	if p == r {
		return true
	}
	return strings.HasPrefix(p, r+string(os.PathSeparator))
}
