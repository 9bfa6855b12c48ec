package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPaths(t *testing.T) {
	p := &Paths{HomeDir: "/home/test"}
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"BaseDir", p.BaseDir(), "/home/test/.nanonanoda"},
		{"ConfigFile", p.ConfigFile(), "/home/test/.nanonanoda/config.yaml"},
		{"CacheDir", p.CacheDir(), "/home/test/.nanonanoda/cache"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != filepath.FromSlash(tt.want) {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestEnsureCacheDir(t *testing.T) {
	p := &Paths{HomeDir: t.TempDir()}
	if err := p.EnsureCacheDir(); err != nil {
		t.Fatalf("EnsureCacheDir: %v", err)
	}
	info, err := os.Stat(p.CacheDir())
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !info.IsDir() {
		t.Error("cache dir is not a directory")
	}
	if err := p.EnsureCacheDir(); err != nil {
		t.Errorf("second EnsureCacheDir: %v", err)
	}
}
