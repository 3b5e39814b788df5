package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"llamadeck/internal/buildtool"
)

func buildBuildCmd(cfg *Config) *cobra.Command {
	var (
		workspace     string
		llamaCppDir   string
		ikLlamaCppDir string
		swapDir       string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Clone and build the inference binaries from source",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("build requires a subcommand: all|llama-cpp|ik-llama-cpp|swap")
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&workspace, "workspace", "~/llamadeck/src",
		"Directory the source trees are cloned into")
	pf.StringVar(&llamaCppDir, "llama-cpp-dir", "", "llama.cpp checkout (defaults <workspace>/llama.cpp)")
	pf.StringVar(&ikLlamaCppDir, "ik-llama-cpp-dir", "", "ik_llama.cpp checkout (defaults <workspace>/ik_llama.cpp)")
	pf.StringVar(&swapDir, "swap-dir", "", "llama-swap checkout (defaults <workspace>/llama-swap)")

	srcDir := func(override, name string) string {
		if override != "" {
			return expandHome(override)
		}
		return filepath.Join(expandHome(workspace), name)
	}
	runPlan := func(cmd *cobra.Command, steps []buildtool.Step) error {
		return buildtool.Run(cmd.Context(), steps, cfg.log)
	}

	llamaCpp := &cobra.Command{
		Use:   "llama-cpp",
		Short: "Build llama.cpp's llama-server with CUDA",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, buildtool.LlamaCppPlan(srcDir(llamaCppDir, "llama.cpp")))
		},
	}
	ikLlamaCpp := &cobra.Command{
		Use:   "ik-llama-cpp",
		Short: "Build the ik_llama.cpp fork's llama-server with CUDA",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, buildtool.IkLlamaCppPlan(srcDir(ikLlamaCppDir, "ik_llama.cpp")))
		},
	}
	swap := &cobra.Command{
		Use:   "swap",
		Short: "Build the llama-swap supervisor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, buildtool.LlamaSwapPlan(srcDir(swapDir, "llama-swap")))
		},
	}
	all := &cobra.Command{
		Use:   "all",
		Short: "Build llama.cpp, ik_llama.cpp and llama-swap",
		RunE: func(cmd *cobra.Command, args []string) error {
			var steps []buildtool.Step
			steps = append(steps, buildtool.LlamaCppPlan(srcDir(llamaCppDir, "llama.cpp"))...)
			steps = append(steps, buildtool.IkLlamaCppPlan(srcDir(ikLlamaCppDir, "ik_llama.cpp"))...)
			steps = append(steps, buildtool.LlamaSwapPlan(srcDir(swapDir, "llama-swap"))...)
			return runPlan(cmd, steps)
		},
	}

	cmd.AddCommand(all, llamaCpp, ikLlamaCpp, swap)
	return cmd
}
