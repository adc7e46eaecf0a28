package cli

import (
	"github.com/spf13/cobra"

	"fracturelab/server/schema"
)

// SchemaOptions holds flags for the schema command.
type SchemaOptions struct {
	*RootOptions
	Out string
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Write the crack snapshot JSON schema",
		Long: `Reflect the crack snapshot payload into a JSON schema and write it
to the given path.

Example:
  fracturelab schema --out snapshot.schema.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return schema.Write(opts.Out, schema.Build())
		},
	}

	cmd.Flags().StringVar(&opts.Out, "out", "", "output path for the JSON schema (required)")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}
