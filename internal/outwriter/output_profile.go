package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-set/v2"
	"github.com/huangsam/skillmine/internal/contract"
	"github.com/huangsam/skillmine/internal/langs"
	"github.com/huangsam/skillmine/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// topSkills is the number of skills listed under the language table.
const topSkills = 10

// LanguageRow aggregates one language across every profile of a merged document.
type LanguageRow struct {
	Ext              string `json:"ext"`
	Name             string `json:"name"`
	Repos            int    `json:"repos"`
	Months           int    `json:"months"`
	FirstMonth       int    `json:"first_month,omitempty"`
	LastMonth        int    `json:"last_month,omitempty"`
	LinesAdded       int    `json:"lines_added"`
	LinesDeleted     int    `json:"lines_deleted"`
	SigContributions int    `json:"sig_contributions"`
}

// SkillRow is a skill with the lines of code it was inferred from.
type SkillRow struct {
	Skill string `json:"skill"`
	Lines int    `json:"lines"`
}

type jsonProfileSummary struct {
	Path      string                `json:"path"`
	User      string                `json:"user"`
	Team      string                `json:"team,omitempty"`
	Summary   schema.ProfileSummary `json:"summary"`
	Languages []LanguageRow         `json:"languages"`
	Skills    []SkillRow            `json:"skills"`
}

// PrintProfileSummary outputs the summary of a merged profile written at path.
func PrintProfileSummary(merged *schema.MergedProfile, path string, cfg *contract.Config, duration time.Duration) error {
	rows := LanguageRows(merged.Profiles)
	skills := SkillRows(merged.Profiles)

	switch cfg.Output {
	case schema.JSONOut:
		doc := jsonProfileSummary{
			Path: path, User: merged.User, Team: merged.Team,
			Summary: merged.Summary, Languages: rows, Skills: skills,
		}
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error { return writeJSON(w, doc) }, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error { return writeLanguageCSV(w, rows) }, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		if err := writeProfileTable(os.Stdout, merged, path, rows, skills, cfg, duration); err != nil {
			return fmt.Errorf("error writing table output: %w", err)
		}
	}
	return nil
}

// LanguageRows folds every profile into one row per language, most added lines first.
func LanguageRows(profiles []schema.ProfileRecord) []LanguageRow {
	type acc struct {
		row    LanguageRow
		repos  *set.Set[string]
		months *set.Set[int]
	}
	byExt := make(map[string]*acc)
	for _, p := range profiles {
		if p.Stats == nil {
			continue
		}
		for ext, ls := range p.Stats.Langs {
			a, ok := byExt[ext]
			if !ok {
				a = &acc{
					row:    LanguageRow{Ext: ext, Name: langs.DisplayName(ext)},
					repos:  set.New[string](0),
					months: set.New[int](0),
				}
				byExt[ext] = a
			}
			a.repos.Insert(p.RepoPath)
			a.months.InsertSlice(ls.Months())
			a.row.LinesAdded += ls.Total(schema.MetricAdded)
			a.row.LinesDeleted += ls.Total(schema.MetricDeleted)
			a.row.SigContributions += ls.Total(schema.MetricSigContrib)
			if ls.StartTime > 0 && (a.row.FirstMonth == 0 || ls.StartTime < a.row.FirstMonth) {
				a.row.FirstMonth = ls.StartTime
			}
			a.row.LastMonth = max(a.row.LastMonth, ls.EndTime)
		}
	}

	rows := make([]LanguageRow, 0, len(byExt))
	for _, a := range byExt {
		a.row.Repos = a.repos.Size()
		a.row.Months = a.months.Size()
		rows = append(rows, a.row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].LinesAdded != rows[j].LinesAdded {
			return rows[i].LinesAdded > rows[j].LinesAdded
		}
		return rows[i].Ext < rows[j].Ext
	})
	return rows
}

// SkillRows sums skill line counts across profiles, largest first.
func SkillRows(profiles []schema.ProfileRecord) []SkillRow {
	lines := make(map[string]int)
	for _, p := range profiles {
		if p.Stats == nil {
			continue
		}
		for skill, n := range p.Stats.Skills {
			lines[skill] += n
		}
	}
	rows := make([]SkillRow, 0, len(lines))
	for skill, n := range lines {
		rows = append(rows, SkillRow{Skill: skill, Lines: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Lines != rows[j].Lines {
			return rows[i].Lines > rows[j].Lines
		}
		return rows[i].Skill < rows[j].Skill
	})
	return rows
}

func writeLanguageCSV(w io.Writer, rows []LanguageRow) error {
	header := []string{"ext", "language", "repos", "months", "first_month", "last_month", "lines_added", "lines_deleted", "sig_contributions"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range rows {
			if err := cw.Write([]string{
				r.Ext,
				r.Name,
				strconv.Itoa(r.Repos),
				strconv.Itoa(r.Months),
				strconv.Itoa(r.FirstMonth),
				strconv.Itoa(r.LastMonth),
				strconv.Itoa(r.LinesAdded),
				strconv.Itoa(r.LinesDeleted),
				strconv.Itoa(r.SigContributions),
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeProfileTable(w io.Writer, merged *schema.MergedProfile, path string, rows []LanguageRow, skills []SkillRow, cfg *contract.Config, duration time.Duration) error {
	title := "Profile: " + merged.User
	if merged.Team != "" {
		title += " (team " + merged.Team + ")"
	}
	if cfg.UseColors {
		title = contract.HeaderColor.Sprint(title)
	}
	_, _ = fmt.Fprintln(w, title)

	s := merged.Summary
	_, _ = fmt.Fprintf(w, "Users: %d  Repositories: %d  Languages: %d  Months: %d\n", len(s.Users), s.Repos, len(s.Languages), s.Months)
	_, _ = fmt.Fprintf(w, "Lines: +%s / -%s  Significant contributions: %s\n",
		humanize.Comma(int64(s.LinesAdded)), humanize.Comma(int64(s.LinesDeleted)), humanize.Comma(int64(s.SigContributions)))

	nameWidth := GetMaxTableNameWidth(cfg)
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Language", "Repos", "Months", "Active", "Added", "Deleted", "Sig."})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		data = append(data, []string{
			contract.TruncatePath(r.Name, nameWidth),
			strconv.Itoa(r.Repos),
			strconv.Itoa(r.Months),
			activeSpan(r.FirstMonth, r.LastMonth),
			humanize.Comma(int64(r.LinesAdded)),
			humanize.Comma(int64(r.LinesDeleted)),
			humanize.Comma(int64(r.SigContributions)),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if len(skills) > 0 {
		top := skills[:min(len(skills), topSkills)]
		parts := make([]string, len(top))
		for i, sk := range top {
			parts[i] = fmt.Sprintf("%s (%s lines)", sk.Skill, humanize.Comma(int64(sk.Lines)))
		}
		_, _ = fmt.Fprintf(w, "Top skills: %s\n", strings.Join(parts, ", "))
	}
	_, _ = fmt.Fprintf(w, "Profile written to %s in %v\n", path, duration.Round(time.Millisecond))
	return nil
}

// activeSpan renders two yyyymm buckets as "2023-01 .. 2024-06".
func activeSpan(first, last int) string {
	if first == 0 || last == 0 {
		return "-"
	}
	return fmt.Sprintf("%s .. %s", schema.MonthStart(first).Format("2006-01"), schema.MonthStart(last).Format("2006-01"))
}
