// Package models holds the built-in model catalog: for each preset it
// resolves the GGUF artifact from the hub and derives the backend command
// line registered with the supervisor.
package models

import (
	"context"

	"llamadeck/internal/catalog"
	"llamadeck/internal/cmdline"
)

// Backends names the two interchangeable inference-server builds models can
// be pinned to.
type Backends struct {
	LlamaCpp   string // llama.cpp llama-server binary
	IkLlamaCpp string // ik_llama.cpp llama-server binary
}

// Resolver resolves a hub repo + include patterns to a local entrypoint and
// names the model after it.
type Resolver struct {
	Fetcher  catalog.Fetcher
	CacheDir string
}

// GGUF resolves a hub repo into a ModelSpec bound to the given backend. The
// spec's name is derived from the entrypoint file name.
func (r Resolver) GGUF(ctx context.Context, repoID, backend string, patterns ...string) (cmdline.ModelSpec, error) {
	entrypoint, err := catalog.Resolve(ctx, r.Fetcher, repoID, patterns, r.CacheDir)
	if err != nil {
		return cmdline.ModelSpec{}, err
	}
	name := catalog.AbbreviateEntrypoint(entrypoint)
	return cmdline.NewModelSpec(name, backend, entrypoint), nil
}

// The ${PORT} placeholder below is substituted by the supervisor when it
// spawns the backend; it must reach the command line unquoted.

// DeepSeekR1Qwen8B is a small always-offloaded reasoning model.
func (r Resolver) DeepSeekR1Qwen8B(ctx context.Context, b Backends) (cmdline.ModelSpec, error) {
	spec, err := r.GGUF(ctx, "lmstudio-community/DeepSeek-R1-0528-Qwen3-8B-GGUF", b.LlamaCpp, "*Q4_K_M*")
	if err != nil {
		return cmdline.ModelSpec{}, err
	}
	return spec.WithFlags(
		cmdline.Flag{Name: "jinja", Value: cmdline.Bool(true)},
		cmdline.Flag{Name: "n_gpu_layers", Value: cmdline.Int(100)},
		cmdline.Flag{Name: "port", Value: cmdline.String("${PORT}")},
		cmdline.Flag{Name: "ctx_size", Value: cmdline.Int(131072)},
	), nil
}

// DotsLLM1 runs with a reduced 32k context.
func (r Resolver) DotsLLM1(ctx context.Context, b Backends) (cmdline.ModelSpec, error) {
	spec, err := r.GGUF(ctx, "unsloth/dots.llm1.inst-GGUF", b.LlamaCpp, "UD-Q6_K_XL/*.gguf")
	if err != nil {
		return cmdline.ModelSpec{}, err
	}
	return spec.WithFlags(
		cmdline.Flag{Name: "ctx_size", Value: cmdline.Int(32768)},
		cmdline.Flag{Name: "jinja", Value: cmdline.Bool(true)},
		cmdline.Flag{Name: "port", Value: cmdline.String("${PORT}")},
	), nil
}

// KimiDev72B defaults to the Q6_K quant.
func (r Resolver) KimiDev72B(ctx context.Context, b Backends, quant string) (cmdline.ModelSpec, error) {
	if quant == "" {
		quant = "Q6_K"
	}
	spec, err := r.GGUF(ctx, "bullerwins/Kimi-Dev-72B-GGUF", b.LlamaCpp, "Kimi-Dev-72B-"+quant+"-*.gguf")
	if err != nil {
		return cmdline.ModelSpec{}, err
	}
	return spec.WithFlags(
		cmdline.Flag{Name: "ctx_size", Value: cmdline.Int(131072)},
		cmdline.Flag{Name: "jinja", Value: cmdline.Bool(true)},
		cmdline.Flag{Name: "port", Value: cmdline.String("${PORT}")},
	), nil
}

// MistralSmall2506 ships the sampling settings recommended upstream.
func (r Resolver) MistralSmall2506(ctx context.Context, b Backends, quant string) (cmdline.ModelSpec, error) {
	if quant == "" {
		quant = "UD-Q6_K_XL"
	}
	spec, err := r.GGUF(ctx, "unsloth/Mistral-Small-3.2-24B-Instruct-2506-GGUF", b.LlamaCpp, "*-"+quant+".gguf")
	if err != nil {
		return cmdline.ModelSpec{}, err
	}
	return spec.WithFlags(
		cmdline.Flag{Name: "ctx_size", Value: cmdline.Int(131072)},
		cmdline.Flag{Name: "jinja", Value: cmdline.Bool(true)},
		cmdline.Flag{Name: "temp", Value: cmdline.Float(0.15)},
		cmdline.Flag{Name: "top_p", Value: cmdline.Float(1.0)},
		cmdline.Flag{Name: "min_p", Value: cmdline.Float(0.0)},
		cmdline.Flag{Name: "repeat_penalty", Value: cmdline.Float(1.0)},
		cmdline.Flag{Name: "port", Value: cmdline.String("${PORT}")},
	), nil
}
