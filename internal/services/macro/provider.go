package macro

import (
	"context"
	"fmt"
	"time"

	"github.com/aionanalytics/Aion-sub001/pkg/util"
)

// Raw is one candidate payload as read from its source.
type Raw struct {
	Path    string
	ModTime time.Time
	Data    map[string]any
}

// Provider is one named candidate in the macro fallback chain.
type Provider interface {
	Name() string
	Fetch(ctx context.Context) (Raw, error)
}

// FileProvider reads a fixed JSON file.
type FileProvider struct {
	name string
	path string
}

func NewFileProvider(name, path string) *FileProvider {
	return &FileProvider{name: name, path: path}
}

func (p *FileProvider) Name() string { return p.name }

func (p *FileProvider) Fetch(ctx context.Context) (Raw, error) {
	if err := ctx.Err(); err != nil {
		return Raw{Path: p.path}, err
	}
	return readRaw(p.path)
}

// DatedDirProvider reads the newest dated file (by name) with a prefix in a directory.
type DatedDirProvider struct {
	name   string
	dir    string
	prefix string
}

func NewDatedDirProvider(name, dir, prefix string) *DatedDirProvider {
	return &DatedDirProvider{name: name, dir: dir, prefix: prefix}
}

func (p *DatedDirProvider) Name() string { return p.name }

func (p *DatedDirProvider) Fetch(ctx context.Context) (Raw, error) {
	if err := ctx.Err(); err != nil {
		return Raw{Path: p.dir}, err
	}
	fi, err := util.LatestDatedFile(p.dir, p.prefix)
	if err != nil {
		return Raw{Path: p.dir}, err
	}
	return readRaw(fi.Path)
}

func readRaw(path string) (Raw, error) {
	info, err := util.Stat(path)
	if err != nil {
		return Raw{Path: path}, err
	}
	data, err := util.ReadJSONObject(path)
	if err != nil {
		return Raw{Path: path}, fmt.Errorf("read %s: %w", path, err)
	}
	return Raw{Path: path, ModTime: info.ModTime, Data: data}, nil
}
