package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	server "fracturelab/server"
	"fracturelab/server/internal/app"
)

// RunOptions holds flags for the headless run command.
type RunOptions struct {
	*RootOptions
	Steps     int
	FilterGap float64
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation headless and print the crack summary",
		Long: `Step the simulation a fixed number of times without serving HTTP,
then print the monitor summary.

Example:
  fracturelab run --steps 2000
  fracturelab run --steps 500 --filter-gap 0.1`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(rootOpts.ConfigPath)
			if err != nil {
				return err
			}

			hub, err := server.NewHub(server.HubConfig{
				RefreshPeriod: cfg.RefreshPeriod,
				Specimen:      cfg.Specimen,
				Loading:       cfg.Loading,
				LoadingSteps:  cfg.LoadingSteps,
			})
			if err != nil {
				return err
			}

			if err := hub.StepN(opts.Steps); err != nil {
				return fmt.Errorf("simulation failed: %w", err)
			}
			hub.ForceRefresh()
			if opts.FilterGap > 0 {
				hub.Filter(opts.FilterGap)
			}

			fmt.Fprint(cmd.OutOrStdout(), hub.Summary())
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Steps, "steps", 2000, "number of simulation steps")
	cmd.Flags().Float64Var(&opts.FilterGap, "filter-gap", 0, "run a filter pass with this gap threshold before printing")

	return cmd
}
