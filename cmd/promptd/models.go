package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newModelsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the allow-listed models",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg.LogLevel, cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			reg, err := buildRegistry(cfg, log.Level(zerolog.WarnLevel))
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MODEL\tDEFAULT\tSIZE\tPATH")
			for _, m := range reg.Models() {
				def, size, path := "", "-", "-"
				if m.Default {
					def = "*"
				}
				if m.SizeBytes > 0 {
					size = humanize.Bytes(uint64(m.SizeBytes))
				}
				if m.Path != "" {
					path = m.Path
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ID, def, size, path)
			}
			return tw.Flush()
		},
	}
}
