package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"llamadeck/internal/deckfile"
	"llamadeck/internal/proxycfg"
)

// buildConfigCmd renders the generated configuration documents to stdout so
// they can be inspected without starting anything.
func buildConfigCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Render generated configuration without starting the stack",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("config requires a subcommand: render|proxy")
		},
	}

	opts := defaultServeOptions()
	render := &cobra.Command{
		Use:   "render",
		Short: "Resolve models and print the supervisor YAML document",
		Long: `Resolves every configured model, downloading missing artifacts into the
cache, and prints the resulting llama-swap document.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var deck deckfile.Deck
			if opts.deckPath != "" {
				var err error
				deck, err = deckfile.Load(opts.deckPath)
				if err != nil {
					return err
				}
				opts.applyDeck(deck, cmd.Flags().Changed)
			}
			sup, err := buildSupervisorConfig(cmd.Context(), cfg, opts, deck)
			if err != nil {
				return err
			}
			doc, err := sup.ToYAML()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), doc)
			return nil
		},
	}
	rf := render.Flags()
	rf.StringVar(&opts.deckPath, "deck", "", "Deck file describing the models (yaml/json/toml)")
	rf.StringVar(&opts.cacheDir, "cache-dir", opts.cacheDir, "Model artifact cache directory")
	rf.StringVar(&opts.llamaCppBin, "llama-cpp-bin", opts.llamaCppBin, "Path to the llama.cpp llama-server binary")
	rf.StringVar(&opts.ikLlamaCppBin, "ik-llama-cpp-bin", opts.ikLlamaCppBin, "Path to the ik_llama.cpp llama-server binary")
	rf.IntVar(&opts.supervisorPort, "supervisor-port", opts.supervisorPort, "Port llama-swap listens on")

	proxyOpts := defaultServeOptions()
	proxy := &cobra.Command{
		Use:   "proxy",
		Short: "Print the nginx reverse-proxy configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := proxycfg.Spec{
				ListenPort:   proxyOpts.proxyPort,
				UpstreamPort: proxyOpts.supervisorPort,
				BearerToken:  os.Getenv("API_TOKEN"),
			}
			doc, err := spec.Render()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), doc)
			return nil
		},
	}
	pf := proxy.Flags()
	pf.IntVar(&proxyOpts.proxyPort, "proxy-port", proxyOpts.proxyPort, "Public port nginx listens on")
	pf.IntVar(&proxyOpts.supervisorPort, "supervisor-port", proxyOpts.supervisorPort, "Upstream llama-swap port")

	cmd.AddCommand(render, proxy)
	return cmd
}
