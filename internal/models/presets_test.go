package models

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"llamadeck/internal/swapcfg"
)

// mapFetcher serves pre-populated snapshot dirs keyed by repo id.
type mapFetcher struct {
	dirs map[string]string
}

func (f mapFetcher) Fetch(ctx context.Context, repoID string, patterns []string, cacheDir string) (string, error) {
	return f.dirs[repoID], nil
}

func snapshotDir(t *testing.T, files ...string) string {
	t.Helper()
	d := t.TempDir()
	for _, f := range files {
		p := filepath.Join(d, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte("gguf"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return d
}

func testBackends(t *testing.T) Backends {
	t.Helper()
	d := t.TempDir()
	mk := func(name string) string {
		p := filepath.Join(d, name)
		if err := os.WriteFile(p, []byte("#!/bin/sh\n"), 0o755); err != nil {
			t.Fatalf("write backend: %v", err)
		}
		return p
	}
	return Backends{LlamaCpp: mk("llama-server"), IkLlamaCpp: mk("ik-llama-server")}
}

func commonFetcher(t *testing.T) mapFetcher {
	t.Helper()
	return mapFetcher{dirs: map[string]string{
		"lmstudio-community/DeepSeek-R1-0528-Qwen3-8B-GGUF": snapshotDir(t, "DeepSeek-R1-0528-Qwen3-8B-Q4_K_M.gguf"),
		"unsloth/dots.llm1.inst-GGUF":                       snapshotDir(t, "UD-Q6_K_XL/dots.llm1.inst-UD-Q6_K_XL.gguf"),
		"bullerwins/Kimi-Dev-72B-GGUF": snapshotDir(t,
			"Kimi-Dev-72B-Q6_K-00002-of-00002.gguf",
			"Kimi-Dev-72B-Q6_K-00001-of-00002.gguf",
		),
		"unsloth/Mistral-Small-3.2-24B-Instruct-2506-GGUF": snapshotDir(t, "Mistral-Small-3.2-24B-Instruct-2506-UD-Q6_K_XL.gguf"),
	}}
}

func TestGGUFNamesModelAfterEntrypoint(t *testing.T) {
	r := Resolver{Fetcher: commonFetcher(t), CacheDir: t.TempDir()}
	b := testBackends(t)
	spec, err := r.GGUF(context.Background(), "lmstudio-community/DeepSeek-R1-0528-Qwen3-8B-GGUF", b.LlamaCpp, "*Q4_K_M*")
	if err != nil {
		t.Fatalf("gguf: %v", err)
	}
	if spec.Name != "DeepSeek-R1-0528-Qwen3-8B-Q4-K-M" {
		t.Fatalf("unexpected name: %q", spec.Name)
	}
	if spec.Executable != b.LlamaCpp {
		t.Fatalf("unexpected backend: %q", spec.Executable)
	}
}

func TestKimiPicksFirstShard(t *testing.T) {
	r := Resolver{Fetcher: commonFetcher(t), CacheDir: t.TempDir()}
	spec, err := r.KimiDev72B(context.Background(), testBackends(t), "")
	if err != nil {
		t.Fatalf("kimi: %v", err)
	}
	if !strings.Contains(spec.Artifact, "00001-of-00002") {
		t.Fatalf("expected first shard, got %s", spec.Artifact)
	}
}

func TestPrepCommonModels(t *testing.T) {
	cfg, err := swapcfg.New(8080)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	r := Resolver{Fetcher: commonFetcher(t), CacheDir: t.TempDir()}
	if err := PrepCommonModels(context.Background(), cfg, r, testBackends(t), zerolog.Nop()); err != nil {
		t.Fatalf("prep: %v", err)
	}
	if cfg.Len() != 4 {
		t.Fatalf("expected 4 models, got %d", cfg.Len())
	}
	doc, err := cfg.ToYAML()
	if err != nil {
		t.Fatalf("to yaml: %v", err)
	}
	// Assert on the parsed document: yaml may soft-wrap long command lines.
	var parsed struct {
		Models map[string]struct {
			Cmd string `yaml:"cmd"`
		} `yaml:"models"`
	}
	if err := yaml.Unmarshal([]byte(doc), &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(parsed.Models) != 4 {
		t.Fatalf("expected 4 serialized models, got %d", len(parsed.Models))
	}
	for name, m := range parsed.Models {
		if !strings.Contains(m.Cmd, "--n-gpu-layers 100") {
			t.Fatalf("%s: gpu offload override missing in %q", name, m.Cmd)
		}
		if !strings.Contains(m.Cmd, "--port ${PORT}") {
			t.Fatalf("%s: port placeholder missing or quoted in %q", name, m.Cmd)
		}
	}
}

func TestPrepCommonModelsFailsFast(t *testing.T) {
	cfg, err := swapcfg.New(8080)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	// Empty snapshots: the first preset fails resolution and aborts the run.
	f := mapFetcher{dirs: map[string]string{
		"lmstudio-community/DeepSeek-R1-0528-Qwen3-8B-GGUF": t.TempDir(),
	}}
	r := Resolver{Fetcher: f, CacheDir: t.TempDir()}
	if err := PrepCommonModels(context.Background(), cfg, r, testBackends(t), zerolog.Nop()); err == nil {
		t.Fatalf("expected error")
	}
	if cfg.Len() != 0 {
		t.Fatalf("no models should be registered on failure, got %d", cfg.Len())
	}
}
