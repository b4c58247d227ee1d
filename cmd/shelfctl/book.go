package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shelfdesk/shelfdesk/internal/cache"
	"github.com/shelfdesk/shelfdesk/internal/metrics"
	"github.com/shelfdesk/shelfdesk/internal/repository"
	"github.com/shelfdesk/shelfdesk/internal/service"
)

func newBookCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Manage the book catalog",
	}
	cmd.AddCommand(newBookAddCmd(a), newBookImportCmd(a))
	return cmd
}

func (a *app) catalog(repo *repository.Repository, bookCache service.BookCache) *service.CatalogService {
	return service.NewCatalogService(repo, bookCache, 0, metrics.NewNoop(), a.logger)
}

// bookCache connects to the API's Redis when REDIS_URL is set, so new books
// clear any not-found marker left by an earlier lookup of their id.
func (a *app) bookCache(ctx context.Context) (service.BookCache, func()) {
	if a.cfg.RedisURL == "" {
		return nil, func() {}
	}
	c, err := cache.New(ctx, a.cfg.RedisURL)
	if err != nil {
		a.logger.Warn("book cache unavailable, skipping eviction", slog.String("error", err.Error()))
		return nil, func() {}
	}
	return c, func() { _ = c.Close() }
}

func newBookAddCmd(a *app) *cobra.Command {
	var input service.AddBookInput

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a single book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRepo(cmd.Context(), func(repo *repository.Repository) error {
				bookCache, closeCache := a.bookCache(cmd.Context())
				defer closeCache()

				book, err := a.catalog(repo, bookCache).AddBook(cmd.Context(), input)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\t%d\n",
					book.ID, book.Author, book.Title, book.Location, book.Amount)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&input.Author, "author", "", "book author")
	f.StringVar(&input.Title, "title", "", "book title")
	f.StringVar(&input.Location, "location", "", "shelf location")
	f.IntVar(&input.Amount, "amount", 1, "available copies")
	_ = cmd.MarkFlagRequired("author")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newBookImportCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import books from a CSV file with columns author,title,location,amount",
		Long: "Import books from a CSV file with columns author,title,location,amount.\n" +
			"A header row is skipped when present. All rows are inserted in one transaction.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			rows, err := readBookCSV(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%d book(s) parsed, nothing written\n", len(rows))
				return nil
			}

			return a.withRepo(cmd.Context(), func(repo *repository.Repository) error {
				var ids []int64
				err := repo.InTx(cmd.Context(), func(tx *repository.Repository) error {
					catalog := a.catalog(tx, nil)
					for _, row := range rows {
						book, err := catalog.AddBook(cmd.Context(), row.input)
						if err != nil {
							return fmt.Errorf("line %d: %w", row.line, err)
						}
						ids = append(ids, book.ID)
					}
					return nil
				})
				if err != nil {
					return err
				}

				bookCache, closeCache := a.bookCache(cmd.Context())
				defer closeCache()
				a.catalog(repo, bookCache).Evict(cmd.Context(), ids...)
				fmt.Fprintf(cmd.OutOrStdout(), "%d book(s) imported\n", len(rows))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse the file without writing")
	return cmd
}

type bookRow struct {
	line  int
	input service.AddBookInput
}

var errEmptyImport = errors.New("no books in file")

// readBookCSV parses author,title,location,amount records. A first record
// whose first column is "author" is treated as a header.
func readBookCSV(r io.Reader) ([]bookRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	cr.TrimLeadingSpace = true

	var rows []bookRow
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)

		if len(rows) == 0 && line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "author") {
			continue
		}

		amount, err := strconv.Atoi(strings.TrimSpace(record[3]))
		if err != nil {
			return nil, fmt.Errorf("line %d: amount %q is not a number", line, record[3])
		}
		if amount < 0 {
			return nil, fmt.Errorf("line %d: amount must not be negative", line)
		}

		rows = append(rows, bookRow{
			line: line,
			input: service.AddBookInput{
				Author:   record[0],
				Title:    record[1],
				Location: record[2],
				Amount:   amount,
			},
		})
	}

	if len(rows) == 0 {
		return nil, errEmptyImport
	}
	return rows, nil
}
