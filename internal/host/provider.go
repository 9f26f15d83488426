package host

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// DefaultMarkerFile identifies a folder as world data.
	DefaultMarkerFile = "level.dat"
	// residencyLock is held by the server while a world is loaded.
	residencyLock = "session.lock"
)

// ErrInvalidName is returned for names that could escape the container.
var ErrInvalidName = errors.New("invalid world name")

// Provider is the host runtime's view of world data on disk.
type Provider interface {
	WorldFolderExists(name string) bool
	HasWorldMarker(name string) bool
	// ListWorldContainerEntries returns the names of all directories in the
	// world container, sorted.
	ListWorldContainerEntries() ([]string, error)
	DeleteWorldData(name string) error
	IsWorldResident(name string) bool
}

// DirProvider serves world data from a directory, one folder per world.
type DirProvider struct {
	root   string
	marker string
}

func NewDirProvider(root, marker string) *DirProvider {
	if marker == "" {
		marker = DefaultMarkerFile
	}
	return &DirProvider{root: root, marker: marker}
}

// ValidName rejects empty names, path separators and dot-prefixed names.
func ValidName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

func (p *DirProvider) path(name string, elem ...string) (string, error) {
	if !ValidName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(append([]string{p.root, name}, elem...)...), nil
}

func (p *DirProvider) WorldFolderExists(name string) bool {
	dir, err := p.path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

func (p *DirProvider) HasWorldMarker(name string) bool {
	f, err := p.path(name, p.marker)
	if err != nil {
		return false
	}
	info, err := os.Stat(f)
	return err == nil && info.Mode().IsRegular()
}

func (p *DirProvider) ListWorldContainerEntries() ([]string, error) {
	entries, err := os.ReadDir(p.root)
	if err != nil {
		return nil, fmt.Errorf("read world container %s: %w", p.root, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && ValidName(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (p *DirProvider) DeleteWorldData(name string) error {
	dir, err := p.path(name)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("delete world %s: %w", name, err)
	}
	return nil
}

func (p *DirProvider) IsWorldResident(name string) bool {
	f, err := p.path(name, residencyLock)
	if err != nil {
		return false
	}
	_, err = os.Stat(f)
	return err == nil
}
