package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"llamadeck/internal/catalog"
	"llamadeck/internal/common/fsutil"
	"llamadeck/internal/deckfile"
	"llamadeck/internal/launcher"
	"llamadeck/internal/models"
	"llamadeck/internal/proxycfg"
	"llamadeck/internal/statusapi"
	"llamadeck/internal/swapcfg"
	"llamadeck/pkg/types"
)

const (
	defaultSupervisorPort = 8080
	defaultProxyPort      = 8000
	defaultAdminPort      = 9090
)

// serveOptions are the flag-settable knobs of the serve command.
type serveOptions struct {
	deckPath       string
	cacheDir       string
	llamaCppBin    string
	ikLlamaCppBin  string
	swapBin        string
	nginxBin       string
	supervisorPort int
	proxyPort      int
	adminPort      int
	grace          time.Duration
	detach         bool
}

// expandHome falls back to the literal path when expansion fails.
func expandHome(p string) string {
	out, err := fsutil.ExpandHome(p)
	if err != nil {
		return p
	}
	return out
}

func defaultServeOptions() serveOptions {
	ws := expandHome("~/llamadeck")
	return serveOptions{
		cacheDir:       filepath.Join(ws, "models"),
		llamaCppBin:    filepath.Join(ws, "src", "llama.cpp", "build", "bin", "llama-server"),
		ikLlamaCppBin:  filepath.Join(ws, "src", "ik_llama.cpp", "build", "bin", "llama-server"),
		swapBin:        filepath.Join(ws, "src", "llama-swap", "build", "llama-swap"),
		nginxBin:       "nginx",
		supervisorPort: defaultSupervisorPort,
		proxyPort:      defaultProxyPort,
		adminPort:      defaultAdminPort,
		grace:          10 * time.Second,
	}
}

// applyDeck overlays deck-file settings over the built-in defaults. Flags
// changed on the command line win over both.
func (o *serveOptions) applyDeck(d deckfile.Deck, changed func(string) bool) {
	if d.SupervisorPort != 0 && !changed("supervisor-port") {
		o.supervisorPort = d.SupervisorPort
	}
	if d.ProxyPort != 0 && !changed("proxy-port") {
		o.proxyPort = d.ProxyPort
	}
	if d.AdminPort != 0 && !changed("admin-port") {
		o.adminPort = d.AdminPort
	}
	if d.CacheDir != "" && !changed("cache-dir") {
		o.cacheDir = expandHome(d.CacheDir)
	}
	if d.LlamaCppBin != "" && !changed("llama-cpp-bin") {
		o.llamaCppBin = expandHome(d.LlamaCppBin)
	}
	if d.IkLlamaCppBin != "" && !changed("ik-llama-cpp-bin") {
		o.ikLlamaCppBin = expandHome(d.IkLlamaCppBin)
	}
	if d.SwapBin != "" && !changed("swap-bin") {
		o.swapBin = expandHome(d.SwapBin)
	}
}

func buildServeCmd(cfg *Config) *cobra.Command {
	opts := defaultServeOptions()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Resolve models, render configs and run the proxy + supervisor stack",
		Long: `Downloads the configured model artifacts, writes the supervisor and
reverse-proxy configuration, then starts nginx and llama-swap as child
processes. The bearer token for the public proxy is read from API_TOKEN;
when unset the proxy accepts unauthenticated traffic.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg, opts, cmd.Flags().Changed)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.deckPath, "deck", "", "Deck file describing the models to serve (yaml/json/toml); without it the built-in presets are used")
	f.StringVar(&opts.cacheDir, "cache-dir", opts.cacheDir, "Model artifact cache directory")
	f.StringVar(&opts.llamaCppBin, "llama-cpp-bin", opts.llamaCppBin, "Path to the llama.cpp llama-server binary")
	f.StringVar(&opts.ikLlamaCppBin, "ik-llama-cpp-bin", opts.ikLlamaCppBin, "Path to the ik_llama.cpp llama-server binary")
	f.StringVar(&opts.swapBin, "swap-bin", opts.swapBin, "Path to the llama-swap binary")
	f.StringVar(&opts.nginxBin, "nginx-bin", opts.nginxBin, "Path to the nginx binary")
	f.IntVar(&opts.supervisorPort, "supervisor-port", opts.supervisorPort, "Port llama-swap listens on")
	f.IntVar(&opts.proxyPort, "proxy-port", opts.proxyPort, "Public port nginx listens on")
	f.IntVar(&opts.adminPort, "admin-port", opts.adminPort, "Local port for the status/metrics API")
	f.DurationVar(&opts.grace, "grace", opts.grace, "SIGTERM grace period before children are killed")
	f.BoolVar(&opts.detach, "detach", false, "Start the stack and return instead of waiting on it")
	return cmd
}

func runServe(ctx context.Context, cfg *Config, opts serveOptions, changed func(string) bool) error {
	log := cfg.log

	var deck deckfile.Deck
	if opts.deckPath != "" {
		var err error
		deck, err = deckfile.Load(opts.deckPath)
		if err != nil {
			return err
		}
		opts.applyDeck(deck, changed)
	}

	sup, err := buildSupervisorConfig(ctx, cfg, opts, deck)
	if err != nil {
		return err
	}

	if err := fsutil.EnsureDir(opts.cacheDir); err != nil {
		return err
	}
	supPath := filepath.Join(opts.cacheDir, "llama-swap.yaml")
	if err := sup.WriteFile(supPath); err != nil {
		return err
	}
	supDoc, err := sup.ToYAML()
	if err != nil {
		return err
	}

	proxy := proxycfg.Spec{
		ListenPort:   opts.proxyPort,
		UpstreamPort: opts.supervisorPort,
		BearerToken:  os.Getenv("API_TOKEN"),
	}
	proxyPath, err := proxy.WriteTemp()
	if err != nil {
		return err
	}
	if proxy.BearerToken == "" {
		log.Warn().Msg("API_TOKEN not set, proxy will accept unauthenticated traffic")
	}

	coord, err := launcher.Start(launcher.Options{
		SupervisorBin: opts.swapBin,
		ConfigPath:    supPath,
		ListenAddr:    sup.ListenAddr(""),
		NginxBin:      opts.nginxBin,
		ProxyConfPath: proxyPath,
		Grace:         opts.grace,
	}, log)
	if err != nil {
		return err
	}

	admin := &http.Server{
		Addr:    "127.0.0.1:" + strconv.Itoa(opts.adminPort),
		Handler: statusapi.NewMux(stackService{coord: coord, doc: supDoc}, log),
	}
	go func() {
		log.Info().Str("addr", admin.Addr).Msg("admin API listening")
		if err := admin.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("admin API failed")
		}
	}()

	if opts.detach {
		log.Info().Int("proxy_port", opts.proxyPort).Int("supervisor_port", opts.supervisorPort).
			Msg("stack started, detaching")
		return nil
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	waitErr := coord.Wait(sigCtx)

	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := admin.Shutdown(shutCtx); err != nil {
		log.Warn().Err(err).Msg("admin API shutdown error")
	}
	return waitErr
}

// buildSupervisorConfig resolves every requested model (downloading artifacts
// as needed) and assembles the supervisor document. With no deck file the
// built-in presets are registered.
func buildSupervisorConfig(ctx context.Context, cfg *Config, opts serveOptions, deck deckfile.Deck) (*swapcfg.Config, error) {
	sup, err := swapcfg.New(opts.supervisorPort)
	if err != nil {
		return nil, err
	}
	if deck.LogLevel != "" {
		sup.LogLevel = deck.LogLevel
	}
	if deck.HealthCheckTimeoutSec > 0 {
		sup.HealthCheckTimeout = time.Duration(deck.HealthCheckTimeoutSec) * time.Second
	}

	fetcher, err := catalog.NewHubFetcher(cfg.log)
	if err != nil {
		return nil, err
	}
	resolver := models.Resolver{Fetcher: fetcher, CacheDir: opts.cacheDir}
	backends := models.Backends{LlamaCpp: opts.llamaCppBin, IkLlamaCpp: opts.ikLlamaCppBin}

	if len(deck.Models) == 0 {
		if err := models.PrepCommonModels(ctx, sup, resolver, backends, cfg.log); err != nil {
			return nil, err
		}
		return sup, nil
	}

	for _, m := range deck.Models {
		entry, err := resolveDeckModel(ctx, resolver, backends, m)
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", m.Repo, err)
		}
		cfg.log.Debug().Str("model", entry.Name).Msg("registered model")
		sup.AddModel(entry)
	}
	return sup, nil
}

// resolveDeckModel turns one deck entry into a supervisor registry entry.
func resolveDeckModel(ctx context.Context, r models.Resolver, b models.Backends, m deckfile.Model) (swapcfg.Model, error) {
	backend := b.LlamaCpp
	if m.Backend == "ik_llama_cpp" {
		backend = b.IkLlamaCpp
	}
	spec, err := r.GGUF(ctx, m.Repo, backend, m.Patterns...)
	if err != nil {
		return swapcfg.Model{}, err
	}
	flags, err := deckfile.FlagsFor(m)
	if err != nil {
		return swapcfg.Model{}, err
	}
	spec = spec.WithFlags(flags...)
	if m.Name != "" {
		spec.Name = m.Name
	}
	cmd, err := spec.Render()
	if err != nil {
		return swapcfg.Model{}, err
	}
	return swapcfg.Model{
		Name:          spec.Name,
		Cmd:           cmd,
		Aliases:       m.Aliases,
		TTL:           time.Duration(m.TTLSeconds) * time.Second,
		CheckEndpoint: m.CheckEndpoint,
		Env:           m.Env,
		Unlisted:      m.Unlisted,
	}, nil
}

// stackService adapts the process coordinator to the admin API.
type stackService struct {
	coord *launcher.Coordinator
	doc   string
}

func (s stackService) Status() types.StatusResponse { return s.coord.Snapshot() }
func (s stackService) SupervisorDoc() string        { return s.doc }
func (s stackService) Ready() bool                  { return s.coord.Ready() }
