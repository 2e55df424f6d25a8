package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/skillmine/internal/contract"
	"github.com/huangsam/skillmine/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOutcomes() []schema.RepoOutcome {
	return []schema.RepoOutcome{
		{RepoKey: "widget", RepoPath: "/src/widget", State: schema.StateDone, Users: 3, Duration: 1500 * time.Millisecond},
		{RepoKey: "gadget", RepoPath: "/src/gadget", State: schema.StateFailed, Err: errors.New("exit status 128")},
		{RepoKey: "doohickey", RepoPath: "/src/doohickey", State: schema.StateSkipped},
	}
}

func langStats(months map[int][3]int, start, end int) *schema.LangStats {
	ls := schema.NewLangStats()
	for m, v := range months {
		ms := schema.NewMonthStats()
		ms.Metrics[schema.MetricAdded] = v[0]
		ms.Metrics[schema.MetricDeleted] = v[1]
		ms.Metrics[schema.MetricSigContrib] = v[2]
		ls.TimeSeries[m] = ms
	}
	ls.StartTime, ls.EndTime = start, end
	return ls
}

func sampleProfiles() []schema.ProfileRecord {
	a := schema.NewUserStats()
	a.Langs["py"] = langStats(map[int][3]int{202401: {100, 10, 2}, 202402: {50, 0, 1}}, 202401, 202402)
	a.Langs["go"] = langStats(map[int][3]int{202403: {20, 5, 0}}, 202403, 202403)
	a.Skills["python"] = 40
	b := schema.NewUserStats()
	b.Langs["py"] = langStats(map[int][3]int{202402: {30, 3, 1}, 202312: {5, 0, 0}}, 202312, 202402)
	b.Skills["python"] = 10
	b.Skills["sql"] = 25
	return []schema.ProfileRecord{
		{RepoPath: "r1", Repo: "wi**et", User: "dev@example.com", Stats: a},
		{RepoPath: "r2", Repo: "ga**et", User: "dev@example.com", Stats: b},
		{RepoPath: "r3", User: "dev@example.com"},
	}
}

func TestWriteBuildJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeBuildJSON(&buf, sampleOutcomes()))

	var got []jsonOutcome
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 3)
	assert.Equal(t, 1, got[0].Rank)
	assert.Equal(t, int64(1500), got[0].DurationMs)
	assert.Equal(t, "exit status 128", got[1].Error)
	assert.Empty(t, got[2].Error)
}

func TestWriteBuildCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeBuildCSV(&buf, sampleOutcomes()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "repo_key", records[0][1])
	assert.Equal(t, []string{"2", "gadget", "/src/gadget", "failed", "0", "0", "exit status 128"}, records[2])
}

func TestWriteBuildTable(t *testing.T) {
	var buf bytes.Buffer
	cfg := &contract.Config{Width: 120}
	require.NoError(t, writeBuildTable(&buf, sampleOutcomes(), cfg, 2*time.Second))
	out := buf.String()
	assert.Contains(t, out, "widget")
	assert.Contains(t, out, "exit status 128")
	assert.Contains(t, out, "Processed 3 repositories (done: 1, skipped: 1, failed: 1) in 2s")
}

func TestStateTotals(t *testing.T) {
	assert.Equal(t, "nothing to do", stateTotals(nil))
	assert.Equal(t, "claimed: 2", stateTotals([]schema.RepoOutcome{{State: schema.StateClaimed}, {State: schema.StateClaimed}}))
}

func TestLanguageRows(t *testing.T) {
	rows := LanguageRows(sampleProfiles())
	require.Len(t, rows, 2)

	py := rows[0]
	assert.Equal(t, "py", py.Ext)
	assert.Equal(t, "Python", py.Name)
	assert.Equal(t, 2, py.Repos)
	assert.Equal(t, 3, py.Months) // 202312, 202401, 202402
	assert.Equal(t, 185, py.LinesAdded)
	assert.Equal(t, 13, py.LinesDeleted)
	assert.Equal(t, 4, py.SigContributions)
	assert.Equal(t, 202312, py.FirstMonth)
	assert.Equal(t, 202402, py.LastMonth)

	assert.Equal(t, "go", rows[1].Ext)
	assert.Equal(t, 1, rows[1].Repos)
}

func TestSkillRows(t *testing.T) {
	assert.Equal(t, []SkillRow{{"python", 50}, {"sql", 25}}, SkillRows(sampleProfiles()))
	assert.Empty(t, SkillRows(nil))
}

func TestActiveSpan(t *testing.T) {
	assert.Equal(t, "2023-12 .. 2024-02", activeSpan(202312, 202402))
	assert.Equal(t, "-", activeSpan(0, 202402))
}

func TestWriteProfileTable(t *testing.T) {
	merged := &schema.MergedProfile{
		User:     "dev@example.com",
		Team:     "platform",
		Profiles: sampleProfiles(),
		Summary: schema.ProfileSummary{
			Users: []string{"dev@example.com"}, Repos: 3, Languages: []string{"go", "py"},
			Months: 4, LinesAdded: 205, LinesDeleted: 18, SigContributions: 4,
		},
	}
	var buf bytes.Buffer
	rows, skills := LanguageRows(merged.Profiles), SkillRows(merged.Profiles)
	require.NoError(t, writeProfileTable(&buf, merged, "out/mt_profile.json", rows, skills, &contract.Config{Width: 120}, time.Second))

	out := buf.String()
	assert.Contains(t, out, "Profile: dev@example.com (team platform)")
	assert.Contains(t, out, "Repositories: 3")
	assert.Contains(t, out, "Lines: +205 / -18")
	assert.Contains(t, out, "Python")
	assert.Contains(t, out, "Top skills: python (50 lines), sql (25 lines)")
	assert.Contains(t, out, "out/mt_profile.json")
}

func TestPrintProfileSummaryToFile(t *testing.T) {
	dir := t.TempDir()
	merged := &schema.MergedProfile{User: "dev@example.com", Profiles: sampleProfiles()}

	jsonPath := filepath.Join(dir, "summary.json")
	cfg := &contract.Config{Output: schema.JSONOut, OutputFile: jsonPath}
	require.NoError(t, PrintProfileSummary(merged, "mt_profile.json", cfg, time.Second))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var doc jsonProfileSummary
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "mt_profile.json", doc.Path)
	assert.Len(t, doc.Languages, 2)
	assert.Len(t, doc.Skills, 2)

	csvPath := filepath.Join(dir, "summary.csv")
	cfg = &contract.Config{Output: schema.CSVOut, OutputFile: csvPath}
	require.NoError(t, PrintProfileSummary(merged, "mt_profile.json", cfg, time.Second))
	data, err = os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "py,Python,2,3,202312,202402,185,13,4"))
}

func TestAuthorsOutput(t *testing.T) {
	authors := []schema.AuthorCount{
		{Email: "me@example.com", Repos: 2, Self: true},
		{Email: "other@example.com", Repos: 5},
	}

	var buf bytes.Buffer
	require.NoError(t, writeAuthorsCSV(&buf, authors))
	assert.Equal(t, "rank,email,repos,self\n1,me@example.com,2,true\n2,other@example.com,5,false\n", buf.String())

	buf.Reset()
	require.NoError(t, writeAuthorsTable(&buf, authors, &contract.Config{Width: 100}, time.Second))
	assert.Contains(t, buf.String(), "me@example.com (self)")
	assert.Contains(t, buf.String(), "Found 2 authors")
}

func TestGetMaxTableNameWidth(t *testing.T) {
	tests := []struct {
		width int
		want  int
	}{
		{40, minNameWidth},
		{100, 40},
		{400, maxNameWidth},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GetMaxTableNameWidth(&contract.Config{Width: tt.width}))
	}
}
