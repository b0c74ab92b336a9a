package cli

import (
	"github.com/hyperjump/kotae/internal/index"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/spf13/cobra"
)

func newStatusCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show index and journal status",
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

			store, err := index.Open(cfg.Index.Path, logger)
			if err != nil {
				return err
			}
			report := StatusReport{Index: store.Stats()}
			if n, err := storage.DiskUsageBytes(cfg.Index.Path); err == nil {
				report.IndexBytes = n
			}
			if cfg.Journal.EnabledOrDefault() {
				j, err := storage.NewSQLiteJournal(cfg.Journal.DatabasePath)
				if err != nil {
					return err
				}
				defer j.Close()
				report.Journal = j.Path()
				if report.Answers, err = j.Count(cmd.Context()); err != nil {
					return err
				}
				if n, err := storage.DatabaseUsageBytes(j.Path()); err == nil {
					report.JournalBytes = n
				}
			}
			return WriteStatus(cmd.OutOrStdout(), report, format, !opts.noColor)
		},
	}
}
