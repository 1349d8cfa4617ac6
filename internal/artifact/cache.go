package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/vmihailenco/msgpack/v5"
)

const manifestName = "manifest.toml"

// Cache stores serialized type sections on disk, keyed by content digest.
// Payloads are msgpack files; a human-readable TOML manifest lists the
// entries. Thread-safe for concurrent access.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// Manifest is the on-disk index of a cache directory.
type Manifest struct {
	Schema  uint16          `toml:"schema"`
	Entries []ManifestEntry `toml:"entry"`
}

// ManifestEntry records one cached payload.
type ManifestEntry struct {
	Key     string    `toml:"key"`
	Created time.Time `toml:"created"`
}

// Open initializes a cache rooted at dir, creating it when missing.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// OpenDefault opens the cache at the standard per-user location.
func OpenDefault(app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return Open(filepath.Join(base, app))
}

func (c *Cache) pathFor(key Digest) string {
	// Subdirectory "typesec" keeps payloads apart from the manifest.
	return filepath.Join(c.dir, "typesec", key.Hex()+".mp")
}

// Put serializes and writes a payload, then records it in the manifest.
func (c *Cache) Put(key Digest, payload *Payload) error {
	if c == nil {
		return nil
	}
	if key.IsZero() {
		return fmt.Errorf("refusing zero cache key")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	if err := writeAtomic(p, func(f *os.File) error {
		return msgpack.NewEncoder(f).Encode(payload)
	}); err != nil {
		return err
	}
	return c.recordEntry(key)
}

// Get reads and deserializes a payload. Returns false when the key has
// never been cached.
func (c *Cache) Get(key Digest, out *Payload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			panic(closeErr)
		}
	}()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	return true, nil
}

// Manifest loads the cache index. A missing manifest yields an empty one.
func (c *Cache) Manifest() (Manifest, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadManifest()
}

// DropAll invalidates the cache, useful after format changes.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

func (c *Cache) loadManifest() (Manifest, error) {
	var m Manifest
	path := filepath.Join(c.dir, manifestName)
	if _, err := toml.DecodeFile(path, &m); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{Schema: SchemaVersion}, nil
		}
		return Manifest{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	return m, nil
}

func (c *Cache) recordEntry(key Digest) error {
	m, err := c.loadManifest()
	if err != nil {
		return err
	}
	m.Schema = SchemaVersion
	hexKey := key.Hex()
	if slices.ContainsFunc(m.Entries, func(e ManifestEntry) bool { return e.Key == hexKey }) {
		return nil
	}
	m.Entries = append(m.Entries, ManifestEntry{Key: hexKey, Created: time.Now().UTC()})
	return writeAtomic(filepath.Join(c.dir, manifestName), func(f *os.File) error {
		return toml.NewEncoder(f).Encode(m)
	})
}

// writeAtomic writes via a temp file and renames it into place.
func writeAtomic(path string, write func(*os.File) error) error {
	f, err := os.CreateTemp(filepath.Dir(path), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(f.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Printf("failed to remove temp file: %v", err)
		}
	}()
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
