package agg

import (
	"testing"

	"github.com/huangsam/skillmine/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncrementCreatesNestedBuckets(t *testing.T) {
	stats := &schema.UserStats{}
	Increment(stats, "py", 202401, schema.MetricAdded, 15)
	Increment(stats, "py", 202401, schema.MetricAdded, 5)
	Increment(stats, "py", 202402, schema.MetricDeleted, 3)

	require.Contains(t, stats.Langs, "py")
	py := stats.Langs["py"]
	assert.Equal(t, 20, py.TimeSeries[202401].Get(schema.MetricAdded))
	assert.Equal(t, 3, py.TimeSeries[202402].Get(schema.MetricDeleted))
	assert.Equal(t, []int{202401, 202402}, py.Months())
}

func TestIncrementCorrectionNetsToZero(t *testing.T) {
	acc := NewAccumulator()
	acc.Increment("u", "py", 202402, schema.MetricAdded, 15)
	acc.Increment("u", "py", 202402, schema.MetricDeleted, 15)
	acc.Increment("u", "py", 202402, schema.MetricAdded, -15)
	acc.Increment("u", "py", 202402, schema.MetricDeleted, -15)

	ms := acc.Stats("u").Langs["py"].TimeSeries[202402]
	assert.Zero(t, ms.Get(schema.MetricAdded))
	assert.Zero(t, ms.Get(schema.MetricDeleted))
}

func TestObserveBounds(t *testing.T) {
	acc := NewAccumulator()
	acc.ObserveBounds("u", "go", 202403)
	acc.ObserveBounds("u", "go", 202401)
	acc.ObserveBounds("u", "go", 202402)

	ls := acc.Stats("u").Langs["go"]
	assert.Equal(t, 202401, ls.StartTime)
	assert.Equal(t, 202403, ls.EndTime)
	assert.LessOrEqual(t, ls.StartTime, ls.EndTime)
}

func TestAddSnippetsAndLibs(t *testing.T) {
	acc := NewAccumulator()
	acc.AddSnippets("u", "py", 202401, "a.py", nil)
	assert.Nil(t, acc.Stats("u"), "empty snippet list must not create the user")

	acc.AddSnippets("u", "py", 202401, "a.py", []string{"def f():\n    pass"})
	acc.AddLibs("u", "py", 202401, []string{"os", "sys"})
	acc.AddLibs("u", "py", 202401, []string{"sys", "json"})

	ls := acc.Stats("u").Langs["py"]
	assert.Equal(t, 1, ls.SnippetCount())
	assert.Equal(t, []string{"os", "sys", "json"}, ls.Libs[202401])

	acc.StripPrivate("u")
	assert.Nil(t, ls.SigCodeSnippets)
	assert.Nil(t, ls.Libs)
}

func TestRecordScore(t *testing.T) {
	acc := NewAccumulator()
	acc.RecordScore("u", "py", 202401, "c2s::base", "web", 0.5, 10, 2)
	acc.RecordScore("u", "py", 202401, "c2s::base", "web", 0.9, 20, 0)
	acc.RecordScore("u", "py", 202401, "c2s::base", "ml", 0.1, 5, 1)

	scores := acc.Stats("u").Langs["py"].TimeSeries[202401].Scores["c2s::base"]
	assert.Equal(t, &schema.SkillScore{Max: 0.9, Min: 0.5, Sum: 1.4, Count: 2, CodeLines: 30, DocLines: 2}, scores["web"])

	acc.RemoveScore("u", "py", 202401, "c2s::base", "web")
	acc.RemoveScore("u", "py", 202401, "c2s::base", "ml")
	assert.NotContains(t, acc.Stats("u").Langs["py"].TimeSeries[202401].Scores, "c2s::base")
	acc.RemoveScore("ghost", "py", 202401, "c2s::base", "web")
}

func TestSkillsAndUsers(t *testing.T) {
	acc := NewAccumulator()
	acc.AddSkill("b", "web", 10)
	acc.AddSkill("b", "web", 5)
	acc.AddSkill("a", "ml", 1)
	assert.Equal(t, 15, acc.Stats("b").Skills["web"])
	assert.Equal(t, []string{"a", "b"}, acc.Users())

	acc.RemoveSkill("b", "web")
	assert.Empty(t, acc.Stats("b").Skills)

	acc.Drop("a")
	assert.Equal(t, 1, acc.Len())

	wrapped := FromStats(nil)
	assert.Zero(t, wrapped.Len())
}
