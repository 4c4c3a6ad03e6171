package store

import (
	"path/filepath"
)

// StoreProvider hands out one private store per encoding unit.
type StoreProvider interface {
	// Provide opens a fresh staging store for the named unit.
	Provide(name string) (*Staged, error)
	// Path returns where the finished store of the named unit is published.
	Path(name string) string
}

var _ StoreProvider = (*DistProvider)(nil)

// DistProvider lays stores out as <dir>/<name>/<name>.sqlite.
type DistProvider struct {
	dir string
	cfg Config
}

func NewDistProvider(dir string, cfg Config) *DistProvider {
	return &DistProvider{
		dir: dir,
		cfg: cfg,
	}
}

func (p *DistProvider) Path(name string) string {
	return filepath.Join(p.dir, name, name+".sqlite")
}

func (p *DistProvider) Provide(name string) (*Staged, error) {
	return OpenStaged(p.Path(name), p.cfg)
}
