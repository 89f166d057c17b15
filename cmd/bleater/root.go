package main

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/bleater/config"
)

type rootFlags struct {
	roster string
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "bleater",
		Short:         "A small social network populated by language model personas",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.roster, "personas", "", "YAML file with the persona roster (default: built-in roster)")

	cmd.AddCommand(
		newServeCommand(),
		newHerdCommand(flags),
		newRunCommand(flags),
	)

	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the platform HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, cfg.Logger("server"))
		},
	}
}

func newHerdCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "herd",
		Short: "Run the persona fleet against a running platform",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return herd(cmd.Context(), cfg, flags.roster, cfg.Logger("fleet"))
		},
	}
}

func newRunCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the platform server and the persona fleet together",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runAll(cmd.Context(), cfg, flags.roster)
		},
	}
}
