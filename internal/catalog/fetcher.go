package catalog

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"llamadeck/internal/common/fsutil"
)

// Fetcher is the opaque artifact-fetch capability: given a hub repo id and
// include patterns it makes the matching files available locally and returns
// the snapshot directory. The cache directory is always passed explicitly;
// implementations must not rely on process-global hub configuration.
type Fetcher interface {
	Fetch(ctx context.Context, repoID string, patterns []string, cacheDir string) (string, error)
}

// HubFetcher downloads snapshots with the Hugging Face CLI. The binary name
// is configurable because the upstream tool renamed itself from
// "huggingface-cli" to "hf".
type HubFetcher struct {
	Binary string
	Log    zerolog.Logger
}

// NewHubFetcher picks the first hub downloader found on PATH.
func NewHubFetcher(log zerolog.Logger) (*HubFetcher, error) {
	for _, name := range []string{"hf", "huggingface-cli"} {
		if _, err := exec.LookPath(name); err == nil {
			return &HubFetcher{Binary: name, Log: log}, nil
		}
	}
	return nil, fmt.Errorf("no hub downloader on PATH (tried hf, huggingface-cli)")
}

// Fetch runs "<binary> download <repo> --include <pat>... --cache-dir <dir>".
// The downloader prints the snapshot path as its final output line, which is
// returned verbatim. Any failure is an upstream fetch error; downloads are
// never retried here.
func (f *HubFetcher) Fetch(ctx context.Context, repoID string, patterns []string, cacheDir string) (string, error) {
	if err := fsutil.EnsureDir(cacheDir); err != nil {
		return "", upstreamFetchError{repoID: repoID, err: err}
	}
	args := []string{"download", repoID, "--cache-dir", cacheDir}
	for _, p := range patterns {
		args = append(args, "--include", p)
	}
	f.Log.Info().Str("repo", repoID).Strs("patterns", patterns).Msg("fetching model snapshot")

	cmd := exec.CommandContext(ctx, f.Binary, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = os.Stderr // progress bars stay visible to the operator
	if err := cmd.Run(); err != nil {
		return "", upstreamFetchError{repoID: repoID, err: err}
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	dir := strings.TrimSpace(lines[len(lines)-1])
	if dir == "" || !fsutil.PathExists(dir) {
		return "", upstreamFetchError{repoID: repoID, err: fmt.Errorf("downloader reported no snapshot directory")}
	}
	f.Log.Debug().Str("repo", repoID).Str("dir", dir).Msg("snapshot ready")
	return dir, nil
}

// Resolve fetches repoID restricted to the include patterns and returns the
// concrete entrypoint file, applying the shard disambiguation rule.
func Resolve(ctx context.Context, f Fetcher, repoID string, patterns []string, cacheDir string) (string, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	dir, err := f.Fetch(ctx, repoID, patterns, cacheDir)
	if err != nil {
		return "", err
	}
	return FindEntrypoint(dir, patterns)
}
