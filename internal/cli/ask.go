package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCommand(opts *rootOptions) *cobra.Command {
	var showSources bool
	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Answer one question from the index",
		Long: `Answer one question from the index. The question is all remaining arguments
joined by spaces, so quoting is optional.

Examples:
  kotae ask what does a for loop do
  kotae ask --sources "What is recursion?"
  kotae ask -o json what is a variable`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				return errors.New("question is required")
			}
			format, err := opts.format()
			if err != nil {
				return err
			}
			cfg, logger, err := opts.setup(false)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			components, err := initializeComponents(cfg, logger, true)
			if err != nil {
				return err
			}
			defer components.Close()

			res, err := components.Pipeline.Run(cmd.Context(), question)
			if err != nil {
				return err
			}
			return WriteAnswer(cmd.OutOrStdout(), res, format, TextOptions{ShowSources: showSources, Color: !opts.noColor})
		},
	}
	cmd.Flags().BoolVar(&showSources, "sources", false, "show the retrieved excerpts and their scores")
	return cmd
}
