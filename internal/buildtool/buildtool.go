// Package buildtool prepares the external binaries the stack runs: the two
// llama.cpp-family backends (CMake/Ninja, CUDA enabled) and the llama-swap
// supervisor (Go, via its Makefile). Each build is expressed as a list of
// steps so the plan can be inspected and tested without executing anything.
package buildtool

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/rs/zerolog"

	"llamadeck/internal/common/fsutil"
)

const (
	llamaCppRepo   = "https://github.com/ggml-org/llama.cpp.git"
	ikLlamaCppRepo = "https://github.com/ikawrakow/ik_llama.cpp.git"
	llamaSwapRepo  = "https://github.com/mostlygeek/llama-swap.git"
)

// Step is one external command in a build plan.
type Step struct {
	Name string
	Dir  string // working directory, empty inherits the parent's
	Path string
	Args []string
}

func (s Step) String() string {
	out := s.Path
	for _, a := range s.Args {
		out += " " + a
	}
	return out
}

// buildJobs caps parallelism the way the upstream builds expect.
func buildJobs() int {
	n := runtime.NumCPU()
	if n > 16 {
		n = 16
	}
	if n < 1 {
		n = 1
	}
	return n
}

// syncRepo clones url into dir, or pulls when the checkout already exists.
func syncRepo(url, dir string) Step {
	if fsutil.PathExists(dir) {
		return Step{Name: "update " + filepath.Base(dir), Path: "git", Args: []string{"-C", dir, "pull", "--ff-only"}}
	}
	return Step{Name: "clone " + filepath.Base(dir), Path: "git", Args: []string{"clone", url, dir}}
}

func cmakeSteps(label, repoDir string, configureArgs []string) []Step {
	buildDir := filepath.Join(repoDir, "build")
	configure := append([]string{"-S", repoDir, "-B", buildDir, "-G", "Ninja", "-DCMAKE_BUILD_TYPE=Release"}, configureArgs...)
	return []Step{
		{Name: "configure " + label, Path: "cmake", Args: configure},
		{Name: "build " + label, Path: "cmake", Args: []string{
			"--build", buildDir, "--config", "Release", "-j", strconv.Itoa(buildJobs()), "--target", "llama-server",
		}},
	}
}

// LlamaCppPlan builds llama-server from llama.cpp with CUDA and all
// flash-attention quant kernels.
func LlamaCppPlan(repoDir string) []Step {
	steps := []Step{syncRepo(llamaCppRepo, repoDir)}
	return append(steps, cmakeSteps("llama.cpp", repoDir, []string{"-DGGML_CUDA=ON", "-DGGML_CUDA_FA_ALL_QUANTS=ON"})...)
}

// IkLlamaCppPlan builds llama-server from the ik_llama.cpp fork.
func IkLlamaCppPlan(repoDir string) []Step {
	steps := []Step{syncRepo(ikLlamaCppRepo, repoDir)}
	return append(steps, cmakeSteps("ik_llama.cpp", repoDir, []string{"-DGGML_CUDA=ON"})...)
}

// LlamaSwapPlan builds the supervisor binary via its Makefile.
func LlamaSwapPlan(repoDir string) []Step {
	return []Step{
		syncRepo(llamaSwapRepo, repoDir),
		{Name: "build llama-swap", Dir: repoDir, Path: "make", Args: []string{"linux"}},
	}
}

// BackendBinDir is where the cmake plans leave llama-server.
func BackendBinDir(repoDir string) string { return filepath.Join(repoDir, "build", "bin") }

// SwapBinDir is where the llama-swap Makefile leaves its binaries.
func SwapBinDir(repoDir string) string { return filepath.Join(repoDir, "build") }

// Run executes a plan sequentially, streaming output to the parent's
// stdout/stderr. The first failing step aborts the plan.
func Run(ctx context.Context, steps []Step, log zerolog.Logger) error {
	for _, s := range steps {
		log.Info().Str("step", s.Name).Str("cmd", s.String()).Msg("running build step")
		cmd := exec.CommandContext(ctx, s.Path, s.Args...)
		cmd.Dir = s.Dir
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("%s: %w", s.Name, err)
		}
	}
	return nil
}
