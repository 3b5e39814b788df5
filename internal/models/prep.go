package models

import (
	"context"

	"github.com/rs/zerolog"

	"llamadeck/internal/cmdline"
	"llamadeck/internal/swapcfg"
)

// PrepCommonModels resolves the built-in presets (downloading artifacts as a
// side effect) and registers each rendered command line with the supervisor
// config. A single unresolved model aborts the whole run; there is no
// partial-success mode where some models are served and others silently
// skipped.
func PrepCommonModels(ctx context.Context, cfg *swapcfg.Config, r Resolver, b Backends, log zerolog.Logger) error {
	presets := []func(context.Context, Backends) (cmdline.ModelSpec, error){
		r.DeepSeekR1Qwen8B,
		r.DotsLLM1,
		func(ctx context.Context, b Backends) (cmdline.ModelSpec, error) { return r.KimiDev72B(ctx, b, "") },
		func(ctx context.Context, b Backends) (cmdline.ModelSpec, error) { return r.MistralSmall2506(ctx, b, "") },
	}
	for _, preset := range presets {
		spec, err := preset(ctx, b)
		if err != nil {
			return err
		}
		spec = spec.WithFlags(cmdline.Flag{Name: "n_gpu_layers", Value: cmdline.Int(100)})
		cmd, err := spec.Render()
		if err != nil {
			return err
		}
		log.Debug().Str("model", spec.Name).Str("cmd", cmd).Msg("registered model")
		cfg.AddModel(swapcfg.Model{Name: spec.Name, Cmd: cmd})
	}
	return nil
}
