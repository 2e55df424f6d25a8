package agg

import (
	"maps"
	"slices"

	"github.com/hashicorp/go-set/v2"
	"github.com/huangsam/skillmine/schema"
)

// Increment adds delta to one counter of one language and month, creating the
// language block and month bucket on first use. Every counter update in the
// pipeline goes through this function.
func Increment(stats *schema.UserStats, lang string, month int, key schema.MetricKey, delta int) {
	monthStats(langStats(stats, lang), month).Metrics[key] += delta
}

// langStats returns the language block, creating it if needed.
func langStats(stats *schema.UserStats, lang string) *schema.LangStats {
	if stats.Langs == nil {
		stats.Langs = make(map[string]*schema.LangStats)
	}
	ls, ok := stats.Langs[lang]
	if !ok {
		ls = schema.NewLangStats()
		stats.Langs[lang] = ls
	}
	if ls.TimeSeries == nil {
		ls.TimeSeries = make(map[int]*schema.MonthStats)
	}
	return ls
}

// monthStats returns the month bucket, creating it if needed.
func monthStats(ls *schema.LangStats, month int) *schema.MonthStats {
	ms, ok := ls.TimeSeries[month]
	if !ok || ms == nil {
		ms = schema.NewMonthStats()
		ls.TimeSeries[month] = ms
	}
	if ms.Metrics == nil {
		ms.Metrics = make(map[schema.MetricKey]int)
	}
	if ms.Scores == nil {
		ms.Scores = make(map[string]map[string]*schema.SkillScore)
	}
	return ms
}

// Accumulator holds the statistics of every user seen in one repository run.
type Accumulator struct {
	users map[string]*schema.UserStats
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{users: make(map[string]*schema.UserStats)}
}

// FromStats wraps statistics loaded from a checkpoint so they can be scored.
func FromStats(users map[string]*schema.UserStats) *Accumulator {
	if users == nil {
		users = make(map[string]*schema.UserStats)
	}
	return &Accumulator{users: users}
}

// user returns the statistics of a user, creating them if needed.
func (a *Accumulator) user(user string) *schema.UserStats {
	us, ok := a.users[user]
	if !ok {
		us = schema.NewUserStats()
		a.users[user] = us
	}
	return us
}

// Stats returns the statistics of a user, or nil when the user was never seen.
func (a *Accumulator) Stats(user string) *schema.UserStats {
	return a.users[user]
}

// Users returns the users in sorted order.
func (a *Accumulator) Users() []string {
	return slices.Sorted(maps.Keys(a.users))
}

// Len returns the number of users.
func (a *Accumulator) Len() int {
	return len(a.users)
}

// Drop forgets a user.
func (a *Accumulator) Drop(user string) {
	delete(a.users, user)
}

// Increment adds delta to a counter for the user.
func (a *Accumulator) Increment(user, lang string, month int, key schema.MetricKey, delta int) {
	Increment(a.user(user), lang, month, key, delta)
}

// ObserveBounds widens the active span of a language to include month.
func (a *Accumulator) ObserveBounds(user, lang string, month int) {
	ls := langStats(a.user(user), lang)
	if ls.StartTime == 0 || month < ls.StartTime {
		ls.StartTime = month
	}
	if month > ls.EndTime {
		ls.EndTime = month
	}
}

// AddSnippets records the snippets extracted from one file in one month.
func (a *Accumulator) AddSnippets(user, lang string, month int, file string, snippets []string) {
	if len(snippets) == 0 {
		return
	}
	ls := langStats(a.user(user), lang)
	if ls.SigCodeSnippets == nil {
		ls.SigCodeSnippets = make(map[int][]schema.FileSnippets)
	}
	ls.SigCodeSnippets[month] = append(ls.SigCodeSnippets[month], schema.FileSnippets{File: file, Snippets: snippets})
}

// AddLibs records libraries referenced in one month, without duplicates.
func (a *Accumulator) AddLibs(user, lang string, month int, libs []string) {
	if len(libs) == 0 {
		return
	}
	ls := langStats(a.user(user), lang)
	if ls.Libs == nil {
		ls.Libs = make(map[int][]string)
	}
	seen := set.From(ls.Libs[month])
	for _, lib := range libs {
		if seen.Insert(lib) {
			ls.Libs[month] = append(ls.Libs[month], lib)
		}
	}
}

// RecordScore folds one classifier prediction into the month's score table.
func (a *Accumulator) RecordScore(user, lang string, month int, tag, skill string, score float64, codeLines, docLines int) {
	ms := monthStats(langStats(a.user(user), lang), month)
	skills, ok := ms.Scores[tag]
	if !ok {
		skills = make(map[string]*schema.SkillScore)
		ms.Scores[tag] = skills
	}
	s, ok := skills[skill]
	if !ok {
		skills[skill] = &schema.SkillScore{
			Max: score, Min: score, Sum: score, Count: 1,
			CodeLines: codeLines, DocLines: docLines,
		}
		return
	}
	s.Max = max(s.Max, score)
	s.Min = min(s.Min, score)
	s.Sum += score
	s.Count++
	s.CodeLines += codeLines
	s.DocLines += docLines
}

// AddSkill credits code lines to a user-level skill.
func (a *Accumulator) AddSkill(user, skill string, codeLines int) {
	us := a.user(user)
	if us.Skills == nil {
		us.Skills = make(map[string]int)
	}
	us.Skills[skill] += codeLines
}

// RemoveScore deletes one skill from a month's score table, dropping the tag when it empties.
func (a *Accumulator) RemoveScore(user, lang string, month int, tag, skill string) {
	us, ok := a.users[user]
	if !ok {
		return
	}
	ls, ok := us.Langs[lang]
	if !ok {
		return
	}
	ms, ok := ls.TimeSeries[month]
	if !ok || ms == nil {
		return
	}
	delete(ms.Scores[tag], skill)
	if len(ms.Scores[tag]) == 0 {
		delete(ms.Scores, tag)
	}
}

// RemoveSkill deletes a user-level skill.
func (a *Accumulator) RemoveSkill(user, skill string) {
	if us, ok := a.users[user]; ok {
		delete(us.Skills, skill)
	}
}

// StripPrivate removes code snippets and library lists from every language of a user.
func (a *Accumulator) StripPrivate(user string) {
	us, ok := a.users[user]
	if !ok {
		return
	}
	for _, ls := range us.Langs {
		ls.SigCodeSnippets = nil
		ls.Libs = nil
	}
}
