package httpcache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	diskSuffix = ".cache"
	maxKeyLen  = 127
)

// diskStore persists cache entries as one file per key, prefixed with the
// entry's expiry in Unix nanoseconds (0 means no expiry).
type diskStore struct {
	dir string
}

func newDiskStore(cacheID, root string) (*diskStore, error) {
	dir := filepath.Join(root, cacheID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &diskStore{dir: dir}, nil
}

func (*diskStore) ValidateKey(key string) error {
	if key == "" || len(key) > maxKeyLen {
		return fmt.Errorf("invalid key length %d", len(key))
	}
	for _, r := range key {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '-' && r != '_' {
			return fmt.Errorf("invalid key character %q", r)
		}
	}
	return nil
}

func (s *diskStore) Location(key string) string {
	return filepath.Join(s.dir, key+diskSuffix)
}

//nolint:gocritic // unnamedResult: matches sfcache.Store
func (s *diskStore) Get(_ context.Context, key string) ([]byte, time.Time, bool, error) {
	data, err := os.ReadFile(s.Location(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("read %s: %w", key, err)
	}

	expiry, value, ok := decodeEntry(data)
	if !ok {
		_ = os.Remove(s.Location(key)) //nolint:errcheck // corrupt entry is treated as a miss
		return nil, time.Time{}, false, nil
	}
	if !expiry.IsZero() && time.Now().After(expiry) {
		return nil, time.Time{}, false, nil
	}
	return value, expiry, true, nil
}

func (s *diskStore) Set(_ context.Context, key string, value []byte, expiry time.Time) error {
	tmp, err := os.CreateTemp(s.dir, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(encodeEntry(expiry, value)); err != nil {
		return errors.Join(fmt.Errorf("write %s: %w", key, err), tmp.Close(), os.Remove(tmp.Name()))
	}
	if err := tmp.Close(); err != nil {
		return errors.Join(fmt.Errorf("close %s: %w", key, err), os.Remove(tmp.Name()))
	}
	if err := os.Rename(tmp.Name(), s.Location(key)); err != nil {
		return errors.Join(fmt.Errorf("rename %s: %w", key, err), os.Remove(tmp.Name()))
	}
	return nil
}

func (s *diskStore) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.Location(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Cleanup removes entries that expired more than maxAge ago.
func (s *diskStore) Cleanup(_ context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	return s.removeIf(func(path string) bool {
		data, err := os.ReadFile(path)
		if err != nil {
			return false
		}
		expiry, _, ok := decodeEntry(data)
		return !ok || (!expiry.IsZero() && expiry.Before(cutoff))
	})
}

func (s *diskStore) Flush(context.Context) (int, error) {
	return s.removeIf(func(string) bool { return true })
}

func (s *diskStore) Len(context.Context) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read store directory: %w", err)
	}
	n := 0
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), diskSuffix) {
			n++
		}
	}
	return n, nil
}

func (*diskStore) Close() error { return nil }

func (s *diskStore) removeIf(match func(path string) bool) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read store directory: %w", err)
	}
	n := 0
	var errs []error
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), diskSuffix) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if !match(path) {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		n++
	}
	return n, errors.Join(errs...)
}

func encodeEntry(expiry time.Time, value []byte) []byte {
	var nanos int64
	if !expiry.IsZero() {
		nanos = expiry.UnixNano()
	}
	buf := make([]byte, 8, 8+len(value))
	binary.BigEndian.PutUint64(buf, uint64(nanos)) //nolint:gosec // round-trips through int64
	return append(buf, value...)
}

func decodeEntry(data []byte) (time.Time, []byte, bool) {
	if len(data) < 8 {
		return time.Time{}, nil, false
	}
	nanos := int64(binary.BigEndian.Uint64(data[:8])) //nolint:gosec // written by encodeEntry
	var expiry time.Time
	if nanos != 0 {
		expiry = time.Unix(0, nanos)
	}
	return expiry, data[8:], true
}
