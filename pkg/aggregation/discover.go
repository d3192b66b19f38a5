package aggregation

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"perfvoi/internal/ctxlog"
)

// Match is a value file associated with a requested subject
type Match struct {
	Subject string
	Region  string
	Label   string
	Path    string
}

// Discover walks every region folder under root in the given order and
// returns the value files that belong to the requested subjects. Files are
// visited in lexical order, so the result only depends on directory
// contents. A requested subject without a file in some region folder is
// reported as a MissingFileError.
func Discover(ctx context.Context, root string, regions, subjects []string, sel Selector) ([]Match, error) {
	log := ctxlog.FromContext(ctx)

	var matches []Match
	for _, region := range regions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		found, err := discoverRegion(root, region, subjects, sel)
		if err != nil {
			return nil, err
		}
		log.Debug("region walked", "region", region, "files", len(found))
		matches = append(matches, found...)
	}
	return matches, nil
}

func discoverRegion(root, region string, subjects []string, sel Selector) ([]Match, error) {
	dir := filepath.Join(root, region)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat region folder %s: %w", dir, err)
		}
		return nil, &MissingFileError{Subject: firstOrEmpty(subjects), Region: region, Dir: dir}
	}

	wanted := make(map[string]struct{}, len(subjects))
	for _, s := range subjects {
		wanted[s] = struct{}{}
	}

	var matches []Match
	seen := make(map[string]bool, len(subjects))
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !sel(d.Name()) {
			return nil
		}
		if ok, err := isRegularFile(path, d); err != nil || !ok {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		segments := dirSegments(rel)

		owners := matchSubjects(segments, subjects, wanted)
		switch len(owners) {
		case 0:
			return nil
		case 1:
		default:
			return &AmbiguousAssociationError{Path: path, Region: region, Subjects: owners}
		}

		subject := owners[0]
		label := ""
		if n := len(segments); n > 0 && segments[n-1] != subject {
			label = segments[n-1]
		}
		seen[subject] = true
		matches = append(matches, Match{Subject: subject, Region: region, Label: label, Path: path})
		return nil
	})
	if err != nil {
		var ambiguous *AmbiguousAssociationError
		if errors.As(err, &ambiguous) {
			return nil, err
		}
		return nil, fmt.Errorf("walk region folder %s: %w", dir, err)
	}

	for _, s := range subjects {
		if !seen[s] {
			return nil, &MissingFileError{Subject: s, Region: region, Dir: dir}
		}
	}
	return matches, nil
}

// dirSegments splits the directory part of a relative path
func dirSegments(rel string) []string {
	parent := filepath.Dir(rel)
	if parent == "." {
		return nil
	}
	return strings.Split(parent, string(filepath.Separator))
}

// matchSubjects returns the requested subjects equal to one of the path
// segments, in requested order. Segment equality keeps PEG0005 from
// claiming files under PEG00050.
func matchSubjects(segments, subjects []string, wanted map[string]struct{}) []string {
	present := make(map[string]struct{}, len(segments))
	for _, seg := range segments {
		if _, ok := wanted[seg]; ok {
			present[seg] = struct{}{}
		}
	}
	if len(present) == 0 {
		return nil
	}
	owners := make([]string, 0, len(present))
	for _, s := range subjects {
		if _, ok := present[s]; ok {
			owners = append(owners, s)
			delete(present, s)
		}
	}
	return owners
}

func isRegularFile(path string, d fs.DirEntry) (bool, error) {
	if d.Type().IsRegular() {
		return true, nil
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("resolve %s: %w", path, err)
	}
	return info.Mode().IsRegular(), nil
}

func firstOrEmpty(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
