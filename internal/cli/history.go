package cli

import (
	"errors"

	"github.com/hyperjump/kotae/internal/storage"
	"github.com/spf13/cobra"
)

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently answered questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
			cfg, logger, err := opts.setup(false)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			if !cfg.Journal.EnabledOrDefault() {
				return errors.New("journal is disabled in the config")
			}
			j, err := storage.NewSQLiteJournal(cfg.Journal.DatabasePath)
			if err != nil {
				return err
			}
			defer j.Close()
			events, err := j.ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return WriteHistory(cmd.OutOrStdout(), events, format, !opts.noColor)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of answers to list")
	return cmd
}
