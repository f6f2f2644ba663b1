package media

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jscyril/audio_tombola/internal/audio"
	playerrors "github.com/jscyril/audio_tombola/pkg/errors"
)

// Expand turns the given paths into a flat list of files. Directories are
// walked recursively and contribute their supported audio files sorted by
// name; hidden entries are skipped. Plain files are passed through as given
// so that Register can report unsupported ones.
func Expand(paths []string) ([]string, error) {
	var (
		files []string
		errs  []error
	)

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			errs = append(errs, &playerrors.MediaError{Path: path, Err: err})
			continue
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		var found []string
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				errs = append(errs, &playerrors.MediaError{Path: p, Err: err})
				return nil
			}
			if p != path && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.IsDir() && audio.IsSupported(p) {
				found = append(found, p)
			}
			return nil
		})
		if err != nil {
			errs = append(errs, &playerrors.MediaError{Path: path, Err: err})
		}

		sort.SliceStable(found, func(i, j int) bool {
			return strings.ToLower(found[i]) < strings.ToLower(found[j])
		})
		files = append(files, found...)
	}

	return files, errors.Join(errs...)
}

// Supported keeps the paths with a playable extension. Each rejected path
// is reported as a MediaError wrapping ErrUnsupportedFormat.
func Supported(paths []string) ([]string, error) {
	kept := make([]string, 0, len(paths))
	var errs []error
	for _, path := range paths {
		if audio.IsSupported(path) {
			kept = append(kept, path)
			continue
		}
		errs = append(errs, &playerrors.MediaError{Path: path, Err: playerrors.ErrUnsupportedFormat})
	}
	return kept, errors.Join(errs...)
}
