package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/huangsam/skillmine/internal/contract"
	"github.com/huangsam/skillmine/schema"
	"github.com/olekukonko/tablewriter"
)

// PrintAuthors outputs the ranked author list.
func PrintAuthors(authors []schema.AuthorCount, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error { return writeJSON(w, authors) }, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error { return writeAuthorsCSV(w, authors) }, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		if err := writeAuthorsTable(os.Stdout, authors, cfg, duration); err != nil {
			return fmt.Errorf("error writing table output: %w", err)
		}
	}
	return nil
}

func writeAuthorsCSV(w io.Writer, authors []schema.AuthorCount) error {
	return writeCSVWithHeader(w, []string{"rank", "email", "repos", "self"}, func(cw *csv.Writer) error {
		for i, a := range authors {
			if err := cw.Write([]string{strconv.Itoa(i + 1), a.Email, strconv.Itoa(a.Repos), strconv.FormatBool(a.Self)}); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeAuthorsTable(w io.Writer, authors []schema.AuthorCount, cfg *contract.Config, duration time.Duration) error {
	nameWidth := GetMaxTableNameWidth(cfg)
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Author", "Repos"})
	data := make([][]string, 0, len(authors))
	for i, a := range authors {
		email := contract.TruncatePath(a.Email, nameWidth)
		if a.Self {
			email += " (self)"
			if cfg.UseColors {
				email = contract.DoneColor.Sprint(email)
			}
		}
		data = append(data, []string{strconv.Itoa(i + 1), email, strconv.Itoa(a.Repos)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Found %d authors in %v\n", len(authors), duration.Round(time.Millisecond))
	return nil
}
