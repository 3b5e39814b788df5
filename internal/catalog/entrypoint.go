package catalog

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// DefaultPatterns matches every GGUF file in a repo snapshot.
var DefaultPatterns = []string{"*.gguf"}

// shardRe captures the shard index of multi-part GGUF files, e.g.
// "model-q8_0-00001-of-00005.gguf".
var shardRe = regexp.MustCompile(`(\d+)-of-\d+\.gguf$`)

// FindEntrypoint walks dir for files matching any of the include patterns
// (DefaultPatterns when nil) and picks the single file the backend should be
// pointed at:
//
//  1. If any matches carry an N-of-M shard marker, the lowest-numbered shard
//     wins; the backend discovers the remaining parts itself.
//  2. Otherwise exactly one match is expected. Several non-sharded candidates
//     are an error, not a coin flip.
//
// Patterns containing a path separator match against the repo-relative path
// ("UD-Q6_K_XL/*.gguf"); bare patterns match against the file name.
func FindEntrypoint(dir string, patterns []string) (string, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}

	var candidates []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = d.Name()
		}
		for _, pat := range patterns {
			subject := d.Name()
			if strings.ContainsRune(pat, '/') {
				subject = filepath.ToSlash(rel)
			}
			ok, matchErr := filepath.Match(pat, subject)
			if matchErr != nil {
				return matchErr
			}
			if ok {
				candidates = append(candidates, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", notFoundError{dir: dir, patterns: patterns}
	}

	var sharded []string
	for _, c := range candidates {
		if shardRe.MatchString(filepath.Base(c)) {
			sharded = append(sharded, c)
		}
	}
	if len(sharded) > 0 {
		sort.Slice(sharded, func(i, j int) bool {
			return shardIndex(sharded[i]) < shardIndex(sharded[j])
		})
		return sharded[0], nil
	}

	if len(candidates) > 1 {
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = filepath.Base(c)
		}
		sort.Strings(names)
		return "", ambiguousError{candidates: names}
	}
	return candidates[0], nil
}

func shardIndex(path string) int {
	m := shardRe.FindStringSubmatch(filepath.Base(path))
	if len(m) < 2 {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// AbbreviateEntrypoint derives a display name from an entrypoint path:
// file stem with underscores turned into hyphens.
func AbbreviateEntrypoint(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(stem, "_", "-")
}
