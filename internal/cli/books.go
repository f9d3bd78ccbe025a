package cli

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"quizbook/internal/domain"
	"quizbook/internal/dto"
	"quizbook/internal/service"

	"github.com/spf13/cobra"
)

func newListCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List quiz books with their correctness rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, open, func(ctx context.Context, svc service.QuizBookService) error {
				books, err := svc.ListBooks(ctx)
				if err != nil {
					return err
				}
				if len(books) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No quiz books yet.")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tTitle\tCategory\tQuestions\tRate\tRound")
				fmt.Fprintln(w, "--\t-----\t--------\t---------\t----\t-----")
				for _, b := range books {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d%%\t%d\n",
						b.ID, displayTitle(b.Title), b.Category, b.TotalQuestions, b.CorrectRate, b.CurrentRound)
				}
				return w.Flush()
			})
		},
	}
}

func newShowCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "show [book-id]",
		Short: "Show the chapters and sections of a quiz book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, open, func(ctx context.Context, svc service.QuizBookService) error {
				book, err := svc.GetBook(ctx, args[0])
				if err != nil {
					return err
				}
				printBook(cmd, book)
				return nil
			})
		},
	}
}

func printBook(cmd *cobra.Command, book *dto.QuizBookResponse) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s [%s] %d%% (%s), round %d, %s mode\n",
		displayTitle(book.Title), book.Category, book.CorrectRate, book.Band, book.CurrentRound, book.SectionMode)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Scope\tID\tTitle\tQuestions\tRate")
	for _, ch := range book.Chapters {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d%%\n", ch.ChapterNumber, ch.ID, ch.Title, ch.TotalQuestions, ch.ChapterRate)
		for _, sec := range ch.Sections {
			fmt.Fprintf(w, "%d.%d\t%s\t%s\t%d\t%d%%\n",
				ch.ChapterNumber, sec.SectionNumber, sec.ID, sec.Title, sec.QuestionCount, sec.Rate)
		}
	}
	w.Flush()
}

func newRecordCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "record [scope-id] [question-number] [pass|fail|○|×]",
		Short: "Record a result for one question",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := strconv.Atoi(args[1])
			if err != nil || number < 1 {
				return fmt.Errorf("invalid question number %q", args[1])
			}
			result, ok := domain.ParseResult(args[2])
			if !ok {
				return fmt.Errorf("invalid result %q", args[2])
			}

			return withService(cmd, open, func(ctx context.Context, svc service.QuizBookService) error {
				q, err := svc.RecordAttempt(ctx, args[0], number, result)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Q%d: %d attempts, last %s\n", q.Number, len(q.Attempts), q.LastResult)
				return nil
			})
		},
	}
}

func newRollupCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "rollup [category]",
		Short: "Show average correctness per category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, open, func(ctx context.Context, svc service.QuizBookService) error {
				var rollups []dto.CategoryRollupResponse
				if len(args) == 1 {
					r, err := svc.CategoryRollup(ctx, args[0])
					if err != nil {
						return err
					}
					rollups = append(rollups, *r)
				} else {
					all, err := svc.CategoryRollups(ctx)
					if err != nil {
						return err
					}
					rollups = all
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "Category\tBooks\tAverage\tBand\tRounds")
				for _, r := range rollups {
					fmt.Fprintf(w, "%s\t%d\t%d%%\t%s\t%d\n", r.Category, len(r.Books), r.AverageRate, r.Band, r.TotalRounds)
				}
				return w.Flush()
			})
		},
	}
}

func displayTitle(title string) string {
	if title == "" {
		return "(untitled)"
	}
	return title
}
