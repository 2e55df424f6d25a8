package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/skillmine/internal/contract"
	"github.com/huangsam/skillmine/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// stateOrder is the display order of the per-state totals.
var stateOrder = []schema.RepoState{
	schema.StateDone, schema.StateScored, schema.StateRawStatsCollected,
	schema.StateSkipped, schema.StateClaimed, schema.StateFailed,
}

// jsonOutcome is the JSON shape of one repository outcome.
type jsonOutcome struct {
	Rank       int              `json:"rank"`
	RepoKey    string           `json:"repo_key"`
	RepoPath   string           `json:"repo_path"`
	State      schema.RepoState `json:"state"`
	Users      int              `json:"users"`
	DurationMs int64            `json:"duration_ms"`
	Error      string           `json:"error,omitempty"`
}

// PrintBuildResults outputs the outcome of every repository in a batch.
func PrintBuildResults(outcomes []schema.RepoOutcome, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeBuildJSON(w, outcomes)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeBuildCSV(w, outcomes)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		if err := writeBuildTable(os.Stdout, outcomes, cfg, duration); err != nil {
			return fmt.Errorf("error writing table output: %w", err)
		}
	}
	return nil
}

func writeBuildJSON(w io.Writer, outcomes []schema.RepoOutcome) error {
	out := make([]jsonOutcome, len(outcomes))
	for i, o := range outcomes {
		out[i] = jsonOutcome{
			Rank:       i + 1,
			RepoKey:    o.RepoKey,
			RepoPath:   o.RepoPath,
			State:      o.State,
			Users:      o.Users,
			DurationMs: o.Duration.Milliseconds(),
			Error:      errorText(o.Err),
		}
	}
	return writeJSON(w, out)
}

func writeBuildCSV(w io.Writer, outcomes []schema.RepoOutcome) error {
	header := []string{"rank", "repo_key", "repo_path", "state", "users", "duration_ms", "error"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, o := range outcomes {
			row := []string{
				strconv.Itoa(i + 1),
				o.RepoKey,
				o.RepoPath,
				string(o.State),
				strconv.Itoa(o.Users),
				strconv.FormatInt(o.Duration.Milliseconds(), 10),
				errorText(o.Err),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeBuildTable(w io.Writer, outcomes []schema.RepoOutcome, cfg *contract.Config, duration time.Duration) error {
	nameWidth := GetMaxTableNameWidth(cfg)
	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "Repository", "State", "Users", "Time", "Error"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignLeft
	})

	data := make([][]string, 0, len(outcomes))
	for i, o := range outcomes {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			contract.TruncatePath(o.RepoKey, nameWidth),
			stateLabel(o.State, cfg.UseColors),
			humanize.Comma(int64(o.Users)),
			o.Duration.Round(time.Millisecond).String(),
			contract.TruncatePath(errorText(o.Err), nameWidth),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "Processed %d repositories (%s) in %v\n", len(outcomes), stateTotals(outcomes), duration.Round(time.Millisecond))
	return nil
}

// stateTotals renders "done: 3, failed: 1" in display order, omitting empty states.
func stateTotals(outcomes []schema.RepoOutcome) string {
	counts := make(map[schema.RepoState]int)
	for _, o := range outcomes {
		counts[o.State]++
	}
	var parts []string
	for _, s := range stateOrder {
		if n := counts[s]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", s, n))
		}
	}
	if len(parts) == 0 {
		return "nothing to do"
	}
	return strings.Join(parts, ", ")
}

func stateLabel(state schema.RepoState, useColors bool) string {
	if !useColors {
		return string(state)
	}
	return contract.GetColorState(state)
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
