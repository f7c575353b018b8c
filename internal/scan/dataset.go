package scan

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedPath reports a matching entry whose path is too short to carry a dataset name.
var ErrMalformedPath = errors.New("malformed dataset path")

// Match is a walked entry that ends with the dataset suffix.
type Match struct {
	Path    string
	Dataset string
}

// DatasetName returns the second-to-last "/"-separated segment of path. The
// segment is returned as-is, so an empty name is possible for paths such as
// "/train_test".
func DatasetName(path string) (string, error) {
	parts := strings.Split(path, "/")
	if len(parts) < 2 {
		return "", fmt.Errorf("%w: %q has fewer than two segments", ErrMalformedPath, path)
	}
	return parts[len(parts)-2], nil
}
