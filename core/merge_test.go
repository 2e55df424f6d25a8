package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/huangsam/skillmine/core/agg"
	"github.com/huangsam/skillmine/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenUserName(t *testing.T) {
	tests := []struct {
		name  string
		users []string
		team  string
		want  string
	}{
		{"no users gives team", nil, "platform", "platform"},
		{"single user", []string{"a@x.io"}, "platform", "a@x.io"},
		{"grouped by domain", []string{"b@y.io", "a@x.io", "c@x.io"}, "", "(a@x.io,c@x.io)@x.io,b@y.io"},
		{"missing domain", []string{"local", "a@x.io"}, "", "local,a@x.io"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenUserName(tt.users, tt.team, schema.MaxUserNameSize))
		})
	}
}

func TestGenUserNameTruncates(t *testing.T) {
	users := make([]string, 40)
	for i := range users {
		users[i] = strings.Repeat("u", 10) + string(rune('a'+i%26)) + "@d" + string(rune('a'+i%26)) + ".io"
	}
	name := GenUserName(users, "", schema.MaxUserNameSize)
	assert.Len(t, name, schema.MaxUserNameSize)
	assert.True(t, strings.HasSuffix(name, "..."))
}

func TestGenUserNameTruncatesByRune(t *testing.T) {
	users := []string{strings.Repeat("é", 20) + "@x.io", strings.Repeat("ü", 20) + "@y.io"}
	name := GenUserName(users, "", 12)
	assert.True(t, utf8.ValidString(name))
	assert.Equal(t, 12, utf8.RuneCountInString(name))
	assert.Equal(t, strings.Repeat("é", 9)+"...", name)
}

func testRecord(user, repo string) schema.ProfileRecord {
	acc := agg.NewAccumulator()
	acc.Increment(user, "py", 202401, schema.MetricAdded, 10)
	acc.Increment(user, "py", 202401, schema.MetricSigContrib, 2)
	acc.Increment(user, "go", 202402, schema.MetricAdded, 5)
	acc.Increment(user, "go", 202402, schema.MetricDeleted, 1)
	acc.AddSkill(user, "python", 10)
	return schema.ProfileRecord{Version: "1.0", RepoPath: repo, Repo: repo, User: user, Stats: acc.Stats(user)}
}

func TestSummarize(t *testing.T) {
	summary := Summarize([]schema.ProfileRecord{testRecord("a@x.io", "r1"), testRecord("b@x.io", "r2")})
	assert.Equal(t, []string{"a@x.io", "b@x.io"}, summary.Users)
	assert.Equal(t, 2, summary.Repos)
	assert.Equal(t, []string{"go", "py"}, summary.Languages)
	assert.Equal(t, 2, summary.Months)
	assert.Equal(t, 30, summary.LinesAdded)
	assert.Equal(t, 2, summary.LinesDeleted)
	assert.Equal(t, 4, summary.SigContributions)
	assert.Equal(t, []string{"python"}, summary.Skills)
}

func TestMergeProfilesAndWrite(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "r1"+schema.ProfileSuffix)
	p2 := filepath.Join(dir, "r2"+schema.ProfileSuffix)
	require.NoError(t, WriteProfileRecords(p1, []schema.ProfileRecord{testRecord("a@x.io", "r1")}))
	require.NoError(t, WriteProfileRecords(p2, []schema.ProfileRecord{testRecord("a@x.io", "r2")}))

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	merged, err := MergeProfiles([]string{p1, p2}, []string{"a@x.io"}, "core", now)
	require.NoError(t, err)
	assert.Equal(t, "a@x.io", merged.User)
	assert.Equal(t, "core", merged.Team)
	assert.Equal(t, now.Unix(), merged.Timestamp)
	assert.Len(t, merged.Profiles, 2)
	assert.Equal(t, 2, merged.Summary.Repos)

	for _, compress := range []bool{false, true} {
		out := MergedProfilePath(dir, compress, now)
		require.NoError(t, WriteMergedProfile(out, merged))
		back, err := ReadMergedProfile(out)
		require.NoError(t, err)
		assert.Equal(t, merged.User, back.User)
		assert.Len(t, back.Profiles, 2)
		assert.Equal(t, 10, back.Profiles[0].Stats.Langs["py"].TimeSeries[202401].Get(schema.MetricAdded))
	}
}

func TestMergeProfilesCountsDistinctRepos(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "r1"+schema.ProfileSuffix)
	p2 := filepath.Join(dir, "r1-copy"+schema.ProfileSuffix)
	require.NoError(t, WriteProfileRecords(p1, []schema.ProfileRecord{testRecord("a@x.io", "shared")}))
	require.NoError(t, WriteProfileRecords(p2, []schema.ProfileRecord{testRecord("b@x.io", "shared")}))

	merged, err := MergeProfiles([]string{p1, p2}, nil, "", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, merged.Summary.Repos)
	assert.Equal(t, Summarize(merged.Profiles), merged.Summary)
}

func TestMergedProfilePath(t *testing.T) {
	now := time.Date(2024, 6, 1, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, filepath.Join("out", "mt_profile.json"), MergedProfilePath("out", false, now))
	assert.Equal(t, filepath.Join("out", "mt_profile.json_2024-06-01.gz"), MergedProfilePath("out", true, now))
}

func TestMergeProfilesReportsBadFile(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad"+schema.ProfileSuffix)
	require.NoError(t, os.WriteFile(bad, []byte("not json\n"), 0o644))
	_, err := MergeProfiles([]string{bad}, nil, "", time.Now())
	assert.ErrorContains(t, err, "line 1")
}
