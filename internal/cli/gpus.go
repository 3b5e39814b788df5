package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"llamadeck/internal/gpus"
)

func buildGpusCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gpus",
		Short: "List GPU types offered by RunPod",
		Long:  "Queries the RunPod GraphQL API. Requires RUNPOD_API_KEY to be set.",
		RunE: func(cmd *cobra.Command, args []string) error {
			key := os.Getenv("RUNPOD_API_KEY")
			if key == "" {
				return fmt.Errorf("RUNPOD_API_KEY is not set")
			}
			types, err := gpus.NewClient(key).ListGPUTypes(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tMEMORY_GB")
			for _, g := range types {
				fmt.Fprintf(w, "%s\t%s\t%d\n", g.ID, g.DisplayName, g.MemoryInGB)
			}
			return w.Flush()
		},
	}
	return cmd
}
