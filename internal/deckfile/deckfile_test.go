package deckfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

const yamlDeck = `supervisor_port: 8080
proxy_port: 8000
cache_dir: /models
llama_cpp_bin: /opt/llama-cpp/bin/llama-server
swap_bin: /opt/llama-swap/build/llama-swap-linux-amd64
models:
  - repo: unsloth/dots.llm1.inst-GGUF
    patterns: ["UD-Q6_K_XL/*.gguf"]
    flags:
      ctx_size: 32768
      jinja: true
      port: "${PORT}"
    ttl_seconds: 300
    aliases: [dots]
`

func TestLoadYAML(t *testing.T) {
	p := writeTempFile(t, t.TempDir(), "deck.yaml", yamlDeck)
	d, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if d.SupervisorPort != 8080 || d.ProxyPort != 8000 || d.CacheDir != "/models" {
		t.Fatalf("unexpected deck: %+v", d)
	}
	if len(d.Models) != 1 {
		t.Fatalf("expected 1 model, got %d", len(d.Models))
	}
	m := d.Models[0]
	if m.Repo != "unsloth/dots.llm1.inst-GGUF" || m.TTLSeconds != 300 || m.Aliases[0] != "dots" {
		t.Fatalf("unexpected model: %+v", m)
	}
}

func TestLoadJSON(t *testing.T) {
	p := writeTempFile(t, t.TempDir(), "deck.json",
		`{"supervisor_port":9090,"models":[{"repo":"org/repo","flags":{"n_gpu_layers":100}}]}`)
	d, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if d.SupervisorPort != 9090 || len(d.Models) != 1 {
		t.Fatalf("unexpected deck: %+v", d)
	}
}

func TestLoadTOML(t *testing.T) {
	p := writeTempFile(t, t.TempDir(), "deck.toml", `supervisor_port = 7070

[[models]]
repo = "org/repo"
backend = "ik_llama_cpp"

[models.flags]
ctx_size = 4096
`)
	d, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if d.SupervisorPort != 7070 || d.Models[0].Backend != "ik_llama_cpp" {
		t.Fatalf("unexpected deck: %+v", d)
	}
	flags, err := FlagsFor(d.Models[0])
	if err != nil {
		t.Fatalf("flags: %v", err)
	}
	if len(flags) != 1 || flags[0].Name != "ctx_size" {
		t.Fatalf("toml int flag lost: %+v", flags)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "deck.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
	p = writeTempFile(t, d, "norepo.yaml", "models:\n  - backend: llama_cpp\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected missing repo error")
	}
	p = writeTempFile(t, d, "badbackend.yaml", "models:\n  - repo: a/b\n    backend: vllm\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unknown backend error")
	}
}

func TestFlagsForKindsAndOrder(t *testing.T) {
	m := Model{Repo: "a/b", Flags: map[string]any{
		"port":        "${PORT}",
		"jinja":       true,
		"flash_attn":  false,
		"ctx_size":    32768,
		"temp":        0.15,
		"verbose":     nil,
		"model_draft": "path:./draft.gguf",
	}}
	flags, err := FlagsFor(m)
	if err != nil {
		t.Fatalf("flags: %v", err)
	}
	// Sorted by name for deterministic rendering.
	var names []string
	for _, f := range flags {
		names = append(names, f.Name)
	}
	want := "ctx_size,flash_attn,jinja,model_draft,port,temp,verbose"
	if got := strings.Join(names, ","); got != want {
		t.Fatalf("order: got %s want %s", got, want)
	}
}

func TestFlagsForRejectsUnsupportedKind(t *testing.T) {
	m := Model{Repo: "a/b", Flags: map[string]any{"bad": []string{"x"}}}
	if _, err := FlagsFor(m); err == nil {
		t.Fatalf("expected error for slice-valued flag")
	}
}
