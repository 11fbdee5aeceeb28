package util

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNoMatch is returned when no file in a directory matches the requested prefix.
var ErrNoMatch = errors.New("no matching file")

// FileInfo describes a selected snapshot file.
type FileInfo struct {
	Path    string
	ModTime time.Time
}

func listMatching(dir, prefix string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	out := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !isJSONName(name) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, FileInfo{Path: filepath.Join(dir, name), ModTime: info.ModTime()})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s/%s*: %w", dir, prefix, ErrNoMatch)
	}
	return out, nil
}

func isJSONName(name string) bool {
	return strings.HasSuffix(name, ".json")
}

// LatestFile picks the most recently modified JSON file in dir whose name starts with prefix.
// Ties on modification time go to the lexically greatest name.
func LatestFile(dir, prefix string) (FileInfo, error) {
	files, err := listMatching(dir, prefix)
	if err != nil {
		return FileInfo{}, err
	}
	sort.Slice(files, func(i, j int) bool {
		if !files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].ModTime.After(files[j].ModTime)
		}
		return files[i].Path > files[j].Path
	})
	return files[0], nil
}

// LatestDatedFile picks the file whose name sorts last, i.e. the newest date for
// names like macro_2024-05-01.json.
func LatestDatedFile(dir, prefix string) (FileInfo, error) {
	files, err := listMatching(dir, prefix)
	if err != nil {
		return FileInfo{}, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path > files[j].Path })
	return files[0], nil
}

// Stat returns path and modification time of an existing regular file.
func Stat(path string) (FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	if info.IsDir() {
		return FileInfo{}, fmt.Errorf("%s is a directory", path)
	}
	return FileInfo{Path: path, ModTime: info.ModTime()}, nil
}

// ReadJSONObject decodes a JSON object file, keeping numbers as json.Number.
func ReadJSONObject(path string) (map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeObject(b)
}

// DecodeObject decodes a JSON object, keeping numbers as json.Number.
func DecodeObject(b []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("decode json: not an object")
	}
	return m, nil
}

// WriteFileAtomic writes data to a temp file in the target directory, syncs it and
// renames it over path, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename temp: %w", err)
	}
	return nil
}
