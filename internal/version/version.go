// Package version reads the static version metadata of a work variant.
package version

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver"
	json "github.com/goccy/go-json"
)

// ErrMalformedVersionMetadata is returned when the version file is missing, unreadable or invalid.
var ErrMalformedVersionMetadata = errors.New("malformed version metadata")

const fileName = "version.json"

// Lookup resolves the version string of a variant.
type Lookup interface {
	Version(workID, variantID string) (string, error)
}

var _ Lookup = (*FileLookup)(nil)

// FileLookup reads <dir>/<workID>/<variantID>/version.json.
type FileLookup struct {
	dir string
}

func NewFileLookup(dir string) *FileLookup {
	return &FileLookup{dir: dir}
}

type versionFile struct {
	Version *string `json:"version"`
}

// Path returns the metadata file of a variant.
func (f *FileLookup) Path(workID, variantID string) string {
	return filepath.Join(f.dir, workID, variantID, fileName)
}

func (f *FileLookup) Version(workID, variantID string) (string, error) {
	path := f.Path(workID, variantID)

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedVersionMetadata, err)
	}

	return Parse(data, path)
}

// Parse extracts and validates the version field of a metadata document.
// source only labels errors.
func Parse(data []byte, source string) (string, error) {
	var file versionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrMalformedVersionMetadata, source, err)
	}

	if file.Version == nil || strings.TrimSpace(*file.Version) == "" {
		return "", fmt.Errorf("%w: %s: missing version", ErrMalformedVersionMetadata, source)
	}

	version := strings.TrimSpace(*file.Version)
	if _, err := semver.NewVersion(version); err != nil {
		return "", fmt.Errorf("%w: %s: %q: %w", ErrMalformedVersionMetadata, source, version, err)
	}

	return version, nil
}

// Static always returns the same version.
type Static string

func (s Static) Version(workID, variantID string) (string, error) {
	return string(s), nil
}
