package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"quizbook/internal/repository"
	"quizbook/internal/service"

	"github.com/spf13/cobra"
)

func newExportCmd(open Opener) *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the collection as the persisted JSON payload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, open, func(ctx context.Context, svc service.QuizBookService) error {
				books, err := svc.Export(ctx)
				if err != nil {
					return err
				}
				data, err := repository.EncodeBooks(books)
				if err != nil {
					return err
				}
				if outFile == "" {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
					return err
				}
				if err := os.WriteFile(outFile, data, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", outFile, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d quiz books to %s\n", len(books), outFile)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "write to a file instead of stdout")
	return cmd
}

func newImportCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Replace the collection with a previously exported payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			books, err := repository.DecodeBooks(data)
			if err != nil {
				return err
			}
			return withService(cmd, open, func(ctx context.Context, svc service.QuizBookService) error {
				if err := svc.Import(ctx, books); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d quiz books.\n", len(books))
				return nil
			})
		},
	}
}

func newResetCmd(open Opener) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every quiz book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				fmt.Fprint(cmd.OutOrStdout(), "Delete every quiz book? (y/N): ")
				input, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				input = strings.TrimSpace(strings.ToLower(input))
				if input != "y" && input != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}
			return withService(cmd, open, func(ctx context.Context, svc service.QuizBookService) error {
				if err := svc.Clear(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "All quiz books deleted.")
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}
