// Command migrate applies the embedded database schema.
package main

import (
	"fmt"
	"os"

	"biolink/internal/logger"
	"biolink/internal/migrations"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var dsn string

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the biolink database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()
			if dsn == "" {
				dsn = os.Getenv("DB_CONNECTION_STRING")
			}
			if dsn == "" {
				return fmt.Errorf("no database: pass --dsn or set DB_CONNECTION_STRING")
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&dsn, "dsn", "", "database connection string (defaults to DB_CONNECTION_STRING)")

	withRunner := func(fn func(r *migrations.Runner) error) error {
		r, err := migrations.New(dsn)
		if err != nil {
			return err
		}
		defer r.Close()
		return fn(r)
	}
	log := logger.New()

	root.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return withRunner(func(r *migrations.Runner) error {
				if err := r.Up(); err != nil {
					return err
				}
				log.Info().Msg("Migrations applied")
				return nil
			})
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return withRunner(func(r *migrations.Runner) error {
				if err := r.Down(steps); err != nil {
					return err
				}
				log.Info().Int("steps", steps).Msg("Migrations rolled back")
				return nil
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	root.AddCommand(down)

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRunner(func(r *migrations.Runner) error {
				v, dirty, err := r.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", v, dirty)
				return nil
			})
		},
	})

	return root
}
