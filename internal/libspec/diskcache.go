package libspec

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// Bump when the entry layout changes; older files are then ignored.
const indexSchemaVersion uint16 = 1

const indexCacheFile = "libspec-index.mp"

// entry locates the libspec file of one library. ModTime and Size decide
// whether a cached entry is still valid.
type entry struct {
	Name    string `msgpack:"name"`
	Path    string `msgpack:"path"`
	ModTime int64  `msgpack:"mtime"`
	Size    int64  `msgpack:"size"`
}

type indexPayload struct {
	Schema  uint16  `msgpack:"schema"`
	Entries []entry `msgpack:"entries"`
}

// readIndexCache returns the cached entries keyed by libspec path. A missing
// or outdated cache file yields an empty map and no error.
func readIndexCache(dir string) (map[string]entry, error) {
	if dir == "" {
		return nil, nil
	}
	f, err := os.Open(filepath.Join(dir, indexCacheFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var payload indexPayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Schema != indexSchemaVersion {
		return nil, nil
	}

	byPath := make(map[string]entry, len(payload.Entries))
	for _, e := range payload.Entries {
		byPath[e.Path] = e
	}
	return byPath, nil
}

// writeIndexCache replaces the cache file atomically.
func writeIndexCache(dir string, entries []entry) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	err = msgpack.NewEncoder(f).Encode(&indexPayload{Schema: indexSchemaVersion, Entries: entries})
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, filepath.Join(dir, indexCacheFile))
}
