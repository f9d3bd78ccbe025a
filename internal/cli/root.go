package cli

import (
	"context"
	"fmt"

	"quizbook/internal/service"

	"github.com/spf13/cobra"
)

// Opener builds the service a command runs against. The returned func
// releases it together with its storage.
type Opener func(ctx context.Context) (service.QuizBookService, func(), error)

// NewRootCmd assembles the quizbook command tree.
func NewRootCmd(open Opener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "quizbook",
		Short: "Track quiz book progress from the terminal",
		Long: `quizbook reads and maintains the quiz book collection used by the API.
It shares the storage configured in config.yaml or the environment.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(
		newListCmd(open),
		newShowCmd(open),
		newRecordCmd(open),
		newRollupCmd(open),
		newExportCmd(open),
		newImportCmd(open),
		newResetCmd(open),
	)
	return rootCmd
}

// withService opens the service for the duration of fn.
func withService(cmd *cobra.Command, open Opener, fn func(ctx context.Context, svc service.QuizBookService) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, release, err := open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open quiz books: %w", err)
	}
	defer release()
	return fn(ctx, svc)
}
