package main

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newDoctorCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Report backend, device and credential detection without loading a model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg.LogLevel, cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			mgr, err := buildManager(cfg, log.Level(zerolog.WarnLevel), nil)
			if err != nil {
				return err
			}
			defer mgr.Close()
			rep := mgr.SanityCheck(cmd.Context())
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			fmt.Fprintf(out, "backend:       %s\n", rep.Backend)
			fmt.Fprintf(out, "llama built:   %t\n", rep.LlamaBuilt)
			fmt.Fprintf(out, "accelerator:   %t\n", rep.Accelerator)
			fmt.Fprintf(out, "profile:       %s/%s\n", rep.Device, rep.Format)
			fmt.Fprintf(out, "token present: %t (required: %t)\n", rep.TokenPresent, rep.TokenRequired)
			fmt.Fprintf(out, "default model: %s\n", mgr.DefaultModel())
			if rep.Error != "" {
				fmt.Fprintf(out, "error:         %s\n", rep.Error)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}
