package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/RichardKnop/rowstore/internal/core/database"
	"github.com/RichardKnop/rowstore/internal/core/rowstore"
	"github.com/RichardKnop/rowstore/internal/pkg/config"
	"github.com/RichardKnop/rowstore/internal/pkg/logging"
)

func newRootCommand() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "rowstore [file name]",
		Short: "Interactive single table store backed by a paged B+tree",
		Long: `Reads insert and select statements from standard input, one per line.
Without a file name the database lives in memory and is lost on exit.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.New()
			if err != nil {
				return err
			}
			if err := config.BindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			aConfig, err := config.Load(v, configFile)
			if err != nil {
				return err
			}

			logger, err := logging.New(aConfig.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync() // flushes buffer, if any

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var fileName string
			if len(args) == 1 {
				fileName = args[0]
			}

			return run(ctx, logger, aConfig, fileName, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	rootCmd.Flags().StringVar(&configFile, "config", "", "config file (yaml, json or toml)")
	rootCmd.Flags().String(config.FlagLogLevel, config.DefaultLogLevel, "log level, also LOG_LEVEL or ROWSTORE_LOG_LEVEL")
	rootCmd.Flags().Int(config.FlagMaxPages, rowstore.MaxPages, "maximum number of pages in the database file, also ROWSTORE_MAX_PAGES")

	return rootCmd
}

// run opens the database, runs the session until it ends and always flushes
// the database on the way out.
func run(ctx context.Context, logger *zap.Logger, aConfig config.Config, fileName string, in io.Reader, out io.Writer) (err error) {
	dbFile, err := openFile(fileName)
	if err != nil {
		return err
	}

	aDatabase, err := rowstore.Open(ctx, logger, dbFile, aConfig.StoreOptions())
	if err != nil {
		return multierr.Append(err, dbFile.Close())
	}
	defer func() {
		err = multierr.Append(err, aDatabase.Close(ctx))
	}()

	logger.Sugar().With(
		"file", fileName,
		"max_pages", aConfig.MaxPages,
	).Debug("starting session")

	aSession := database.NewSession(logger, database.NewTable(aDatabase.Table()), out)

	return aSession.Run(ctx, in)
}

func openFile(fileName string) (rowstore.DBFile, error) {
	if fileName == "" {
		dbFile, err := rowstore.NewMemoryFile()
		if err != nil {
			return nil, fmt.Errorf("open in-memory database: %w", err)
		}
		return dbFile, nil
	}

	path, err := homedir.Expand(fileName)
	if err != nil {
		return nil, fmt.Errorf("expand database path: %w", err)
	}

	dbFile, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("open database file: %w", err)
	}

	return dbFile, nil
}
