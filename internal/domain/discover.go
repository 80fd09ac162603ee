package domain

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// descriptorFilenames are the conventional descriptor names looked for
// during discovery, in precedence order within a directory.
var descriptorFilenames = []string{"domain.yaml", "domain.yml", "domain.json"}

// Warning records one descriptor file that failed to load during a scan.
type Warning struct {
	Path string
	Err  error
}

func (w Warning) String() string {
	return fmt.Sprintf("skipped %s: %v", w.Path, w.Err)
}

// Discover walks root for descriptor files by conventional filename and
// loads each into the registry. One malformed descriptor does not abort
// the scan: failures are collected as warnings and the remaining files are
// still loaded. The returned error is non-nil only when the root itself
// cannot be walked.
func (r *Registry) Discover(root string) ([]*Descriptor, []Warning, error) {
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("stat discovery root: %w", err)
	}

	var (
		found    []*Descriptor
		warnings []Warning
	)
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDescriptorFilename(entry.Name()) {
			return nil
		}
		d, loadErr := r.LoadFromFile(path)
		if loadErr != nil {
			log.Warn().Err(loadErr).Str("path", path).Msg("domain discovery: descriptor skipped")
			warnings = append(warnings, Warning{Path: path, Err: loadErr})
			return nil
		}
		found = append(found, d)
		return nil
	})
	if err != nil {
		return found, warnings, fmt.Errorf("walk discovery root: %w", err)
	}
	return found, warnings, nil
}

func isDescriptorFilename(name string) bool {
	for _, candidate := range descriptorFilenames {
		if name == candidate {
			return true
		}
	}
	return false
}
