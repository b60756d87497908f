package fsutil

import (
	"fmt"
	"io/fs"
	"strings"
)

// DiscoverTrips recursively enumerates files under root whose name ends with
// ext (e.g. ".csv"). Each trip is stored as one raw log file, so the returned
// paths are the unit of work for the pipeline. Results are in walk order.
func DiscoverTrips(fsys FileSystem, root, ext string) ([]string, error) {
	if ext == "" {
		return nil, fmt.Errorf("trip file extension must not be empty")
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	var files []string
	err := fsys.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(path), strings.ToLower(ext)) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk trip directory %s: %w", root, err)
	}

	return files, nil
}
