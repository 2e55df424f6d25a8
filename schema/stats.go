package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// UserStats is the per-user accumulator for one repository run.
// Mutations go through core/agg; this package only defines the shape.
type UserStats struct {
	Langs  map[string]*LangStats `json:"langs"`
	Skills map[string]int        `json:"skills,omitempty"`
}

// LangStats is the statistics block for one language (keyed by extension).
type LangStats struct {
	TimeSeries      map[int]*MonthStats    `json:"time_series"`
	StartTime       int                    `json:"start_time,omitempty"`
	EndTime         int                    `json:"end_time,omitempty"`
	SigCodeSnippets map[int][]FileSnippets `json:"sig_code_snippets,omitempty"`
	Libs            map[int][]string       `json:"libs,omitempty"`
}

// SkillScore accumulates classifier output for one skill in one month.
type SkillScore struct {
	Max       float64 `json:"max"`
	Min       float64 `json:"min"`
	Sum       float64 `json:"sum"`
	Count     int     `json:"count"`
	CodeLines int     `json:"code_lines"`
	DocLines  int     `json:"doc_lines"`
}

// MonthStats holds the counters and model scores for one yyyymm bucket.
// On the wire both live in the same object: counters as numbers, model tags as objects.
type MonthStats struct {
	Metrics map[MetricKey]int
	Scores  map[string]map[string]*SkillScore // model tag -> skill -> score
}

// NewUserStats returns an empty accumulator.
func NewUserStats() *UserStats {
	return &UserStats{
		Langs:  make(map[string]*LangStats),
		Skills: make(map[string]int),
	}
}

// NewLangStats returns an empty language block.
func NewLangStats() *LangStats {
	return &LangStats{
		TimeSeries:      make(map[int]*MonthStats),
		SigCodeSnippets: make(map[int][]FileSnippets),
		Libs:            make(map[int][]string),
	}
}

// NewMonthStats returns an empty month bucket.
func NewMonthStats() *MonthStats {
	return &MonthStats{
		Metrics: make(map[MetricKey]int),
		Scores:  make(map[string]map[string]*SkillScore),
	}
}

// Get returns the value of a counter, zero if absent.
func (m *MonthStats) Get(key MetricKey) int {
	if m == nil {
		return 0
	}
	return m.Metrics[key]
}

// MarshalJSON flattens counters and model scores into one object.
func (m *MonthStats) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Metrics)+len(m.Scores))
	for k, v := range m.Metrics {
		out[string(k)] = v
	}
	for tag, skills := range m.Scores {
		out[tag] = skills
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits numbers into counters and objects into model scores.
func (m *MonthStats) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Metrics = make(map[MetricKey]int)
	m.Scores = make(map[string]map[string]*SkillScore)
	for k, v := range raw {
		if bytes.HasPrefix(bytes.TrimSpace(v), []byte("{")) {
			var skills map[string]*SkillScore
			if err := json.Unmarshal(v, &skills); err != nil {
				return fmt.Errorf("model tag %s: %w", k, err)
			}
			m.Scores[k] = skills
			continue
		}
		var n int
		if err := json.Unmarshal(v, &n); err != nil {
			return fmt.Errorf("metric %s: %w", k, err)
		}
		m.Metrics[MetricKey(k)] = n
	}
	return nil
}

// Languages returns the language keys in sorted order.
func (u *UserStats) Languages() []string {
	langs := make([]string, 0, len(u.Langs))
	for k := range u.Langs {
		langs = append(langs, k)
	}
	sort.Strings(langs)
	return langs
}

// Months returns the month keys of the time series in ascending order.
func (l *LangStats) Months() []int {
	months := make([]int, 0, len(l.TimeSeries))
	for k := range l.TimeSeries {
		months = append(months, k)
	}
	sort.Ints(months)
	return months
}

// Total sums a counter across all months.
func (l *LangStats) Total(key MetricKey) int {
	total := 0
	for _, m := range l.TimeSeries {
		total += m.Get(key)
	}
	return total
}

// SnippetCount returns the number of snippets stored across months.
func (l *LangStats) SnippetCount() int {
	n := 0
	for _, files := range l.SigCodeSnippets {
		for _, f := range files {
			n += len(f.Snippets)
		}
	}
	return n
}
