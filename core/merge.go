package core

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-set/v2"
	"github.com/huangsam/skillmine/schema"
	"github.com/klauspost/compress/gzip"
)

// GenUserName builds the display name of a merged profile. No users gives
// the team name, one user is used as is, and several users are grouped by
// email domain as "(a,b)@domain". The result is capped at maxLen runes.
func GenUserName(users []string, team string, maxLen int) string {
	switch len(users) {
	case 0:
		return team
	case 1:
		return users[0]
	}

	byDomain := make(map[string][]string)
	for _, u := range users {
		_, domain, _ := strings.Cut(u, "@")
		byDomain[domain] = append(byDomain[domain], u)
	}
	domains := make([]string, 0, len(byDomain))
	for d := range byDomain {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	parts := make([]string, 0, len(domains))
	for _, d := range domains {
		group := byDomain[d]
		if len(group) == 1 {
			parts = append(parts, group[0])
			continue
		}
		parts = append(parts, "("+strings.Join(group, ",")+")@"+d)
	}
	name := strings.Join(parts, ",")
	if runes := []rune(name); len(runes) > maxLen {
		name = string(runes[:maxLen-3]) + "..."
	}
	return name
}

// MergeProfiles concatenates the records of every final profile file into one
// document and computes its summary.
func MergeProfiles(paths []string, users []string, team string, now time.Time) (*schema.MergedProfile, error) {
	merged := &schema.MergedProfile{
		User:      GenUserName(users, team, schema.MaxUserNameSize),
		Timestamp: now.Unix(),
		Team:      team,
		Profiles:  []schema.ProfileRecord{},
	}
	for _, p := range paths {
		records, err := ReadProfileRecords(p)
		if err != nil {
			return nil, fmt.Errorf("read profile %s: %w", filepath.Base(p), err)
		}
		merged.Profiles = append(merged.Profiles, records...)
	}
	merged.Summary = Summarize(merged.Profiles)
	return merged, nil
}

// Summarize computes the human-readable counts of a set of profile records.
func Summarize(records []schema.ProfileRecord) schema.ProfileSummary {
	var (
		summary = schema.ProfileSummary{}
		users   = set.New[string](len(records))
		repos   = set.New[string](len(records))
		langs   = set.New[string](8)
		months  = set.New[int](64)
		skills  = set.New[string](16)
	)
	for _, r := range records {
		users.Insert(r.User)
		repos.Insert(r.RepoPath)
		if r.Stats == nil {
			continue
		}
		for lang, ls := range r.Stats.Langs {
			for month, ms := range ls.TimeSeries {
				langs.Insert(lang)
				months.Insert(month)
				summary.LinesAdded += ms.Get(schema.MetricAdded)
				summary.LinesDeleted += ms.Get(schema.MetricDeleted)
				summary.SigContributions += ms.Get(schema.MetricSigContrib)
			}
		}
		for skill := range r.Stats.Skills {
			skills.Insert(skill)
		}
	}
	summary.Users = sortedSlice(users)
	summary.Repos = repos.Size()
	summary.Languages = sortedSlice(langs)
	summary.Months = months.Size()
	summary.Skills = sortedSlice(skills)
	return summary
}

// MergedProfilePath is mt_profile.json, or mt_profile.json_<yyyy-mm-dd>.gz when compressed.
func MergedProfilePath(outputPath string, compress bool, now time.Time) string {
	name := schema.MergedFileName
	if compress {
		name += "_" + now.UTC().Format(time.DateOnly) + ".gz"
	}
	return filepath.Join(outputPath, name)
}

// WriteMergedProfile writes the merged document, gzip-compressed when the path ends in .gz.
func WriteMergedProfile(path string, merged *schema.MergedProfile) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	var w io.Writer = f
	if strings.HasSuffix(path, ".gz") {
		zw := gzip.NewWriter(f)
		defer func() {
			if cerr := zw.Close(); err == nil {
				err = cerr
			}
		}()
		w = zw
	}
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(merged); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadMergedProfile reads a merged document, transparently decompressing .gz files.
func ReadMergedProfile(path string) (*schema.MergedProfile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer func() { _ = zr.Close() }()
		r = zr
	}
	var merged schema.MergedProfile
	if err := json.NewDecoder(r).Decode(&merged); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &merged, nil
}

func sortedSlice[T string | int](s *set.Set[T]) []T {
	out := s.Slice()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
