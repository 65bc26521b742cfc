package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vadimbarashkov/shortlink/internal/app"
	"github.com/vadimbarashkov/shortlink/internal/config"
	"github.com/vadimbarashkov/shortlink/pkg/postgres"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "shortlink",
		Short:         "URL shortener service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_PATH"),
		"path to the YAML config file (defaults to $CONFIG_PATH)")

	loadConfig := func() (*config.Config, error) {
		if configPath == "" {
			return nil, errors.New("config path is not set, use --config or CONFIG_PATH")
		}
		return config.Load(configPath)
	}

	root.AddCommand(
		newServeCmd(loadConfig),
		newMigrateCmd(loadConfig),
		newShortenCmd(loadConfig),
	)

	return root
}

type configLoader func() (*config.Config, error)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			return app.Run(cmd.Context(), cfg)
		},
	}
}

func newMigrateCmd(load configLoader) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			if err := postgres.RunMigrations(cfg.Postgres.MigrationsPath, cfg.Postgres.DSN()); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	var steps int

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			if err := postgres.RollbackMigrations(cfg.Postgres.MigrationsPath, cfg.Postgres.DSN(), steps); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	migrateCmd.AddCommand(upCmd, downCmd)

	return migrateCmd
}

func newShortenCmd(load configLoader) *cobra.Command {
	var originalURL, customCode string

	cmd := &cobra.Command{
		Use:   "shorten",
		Short: "Create a short code for a URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			url, err := app.Shorten(cmd.Context(), cfg, originalURL, customCode)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", url.ShortCode, url.OriginalURL)
			return nil
		},
	}

	cmd.Flags().StringVar(&originalURL, "url", "", "URL to shorten")
	cmd.Flags().StringVar(&customCode, "code", "", "custom short code")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}
