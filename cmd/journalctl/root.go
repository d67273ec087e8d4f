package main

import (
	"fmt"
	"sync"

	"practice-journal-api/internal/config"
	"practice-journal-api/internal/database"
	"practice-journal-api/pkg/logging"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type dbOpener func() (*gorm.DB, error)

// openDatabase connects using the same environment as the server.
func openDatabase() (*gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.InitLogging(cfg.Log.Level, cfg.Log.Format)
	return database.Open(cfg.Database)
}

type commandContext struct {
	open dbOpener

	once sync.Once
	db   *gorm.DB
	err  error
}

func (c *commandContext) database() (*gorm.DB, error) {
	c.once.Do(func() {
		c.db, c.err = c.open()
	})
	return c.db, c.err
}

func newRootCommand(open dbOpener) *cobra.Command {
	ctx := &commandContext{open: open}

	rootCmd := &cobra.Command{
		Use:           "journalctl",
		Short:         "Practice journal administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newSubscriptionCommand(ctx))

	return rootCmd
}

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.database()
			if err != nil {
				return err
			}
			if err := database.AutoMigrate(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migration complete")
			return nil
		},
	}
}
