package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"trainsweep/internal/logging"
)

// Scanner walks a filesystem and reports entries ending with a suffix.
type Scanner struct {
	fs     billy.Filesystem
	suffix string
	logger *slog.Logger
}

// New constructs a scanner over the provided filesystem.
func New(fsys billy.Filesystem, suffix string, logger *slog.Logger) *Scanner {
	return &Scanner{
		fs:     fsys,
		suffix: suffix,
		logger: logging.NewComponentLogger(logger, "scan"),
	}
}

// NewOS constructs a scanner over the host filesystem. Roots are resolved
// relative to "/", so callers should pass absolute paths.
func NewOS(suffix string, logger *slog.Logger) *Scanner {
	return New(osfs.New("/"), suffix, logger)
}

// Walk visits every entry under root, the root itself included, and calls fn
// for each entry whose path ends with the scanner suffix. A missing root is
// not an error. An error from fn or from dataset name derivation stops the
// walk and is returned.
func (s *Scanner) Walk(ctx context.Context, root string, fn func(Match) error) error {
	if s == nil || s.fs == nil {
		return errors.New("scanner filesystem unavailable")
	}
	if fn == nil {
		return errors.New("scan callback is required")
	}

	walkErr := util.Walk(s.fs, root, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if info == nil {
				if path == root && errors.Is(err, fs.ErrNotExist) {
					s.logger.Debug("scan root does not exist", logging.String("root", root))
					return nil
				}
				s.logger.Warn("skipping unreadable entry",
					logging.String("path", path),
					logging.Error(err),
				)
				return nil
			}
			// Directory listing failed; the entry itself is still a candidate.
			s.logger.Warn("directory not readable",
				logging.String("path", path),
				logging.Error(err),
			)
		}
		if !strings.HasSuffix(path, s.suffix) {
			return nil
		}
		dataset, err := DatasetName(path)
		if err != nil {
			return err
		}
		return fn(Match{Path: path, Dataset: dataset})
	})
	if walkErr != nil {
		return fmt.Errorf("scan %s: %w", root, walkErr)
	}
	return nil
}

// Collect walks root and returns every match in walk order.
func (s *Scanner) Collect(ctx context.Context, root string) ([]Match, error) {
	var matches []Match
	err := s.Walk(ctx, root, func(m Match) error {
		matches = append(matches, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}
