package cli

import (
	"os"
	"path/filepath"
)

// DefaultBaseDir is the per-user directory under $HOME.
const DefaultBaseDir = ".nanonanoda"

// Paths provides access to the nanonanoda directory structure
type Paths struct {
	// HomeDir is the user's home directory
	HomeDir string
}

// NewPaths creates a Paths rooted at the user's home directory
func NewPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{HomeDir: home}, nil
}

// BaseDir returns the base directory (~/.nanonanoda)
func (p *Paths) BaseDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir)
}

// ConfigFile returns the default profile path (~/.nanonanoda/config.yaml)
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.BaseDir(), "config.yaml")
}

// CacheDir returns the analysis cache directory (~/.nanonanoda/cache)
func (p *Paths) CacheDir() string {
	return filepath.Join(p.BaseDir(), "cache")
}

// EnsureCacheDir creates the cache directory if it doesn't exist
func (p *Paths) EnsureCacheDir() error {
	return os.MkdirAll(p.CacheDir(), 0755)
}
