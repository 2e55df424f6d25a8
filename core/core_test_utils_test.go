package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/skillmine/core/agg"
	"github.com/huangsam/skillmine/internal/contract"
)

// Fixed diff prefixes so tests can build diffs by hand.
const (
	testSrcPrefix = 11
	testDstPrefix = 22
)

// commitScenario is one commit of a synthetic repository.
type commitScenario struct {
	hash    string
	author  string
	date    time.Time
	numstat string
	diff    string
}

func monthDate(year int, month time.Month) time.Time {
	return time.Date(year, month, 15, 12, 0, 0, 0, time.UTC)
}

// commitLog renders scenarios in the commit log format, in the given order.
func commitLog(scenarios []commitScenario) []byte {
	lines := make([]string, 0, len(scenarios))
	for _, s := range scenarios {
		lines = append(lines, strings.Join([]string{s.author, fmt.Sprint(s.date.Unix()), s.hash}, agg.LogFieldSeparator))
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}

// fileDiff renders a one-file diff section with the test prefixes.
func fileDiff(path string, removed, added []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "diff --git %d/%s %d/%s\n", testSrcPrefix, path, testDstPrefix, path)
	sb.WriteString("index 1111111..2222222 100644\n")
	fmt.Fprintf(&sb, "--- %d/%s\n+++ %d/%s\n", testSrcPrefix, path, testDstPrefix, path)
	fmt.Fprintf(&sb, "@@ -1,%d +1,%d @@\n", len(removed), len(added))
	for _, l := range removed {
		sb.WriteString("-" + l + "\n")
	}
	for _, l := range added {
		sb.WriteString("+" + l + "\n")
	}
	return sb.String()
}

// pythonFunction returns n lines of a small Python function indented by indent spaces.
func pythonFunction(n, indent int) []string {
	pad := strings.Repeat(" ", indent)
	lines := []string{"import os", "def compute():"}
	for i := 0; len(lines) < n-1; i++ {
		lines = append(lines, fmt.Sprintf("%svalue_%d = os.getpid() + %d", pad, i, i))
	}
	return append(lines, pad+"return value_0")
}

// newTestPipeline builds a pipeline with fixed diff prefixes and default thresholds.
func newTestPipeline(client contract.GitClient) *Pipeline {
	p := NewPipeline(client, nil, nil, contract.DefaultThresholds())
	p.prefixes = func() (int, int) { return testSrcPrefix, testDstPrefix }
	return p
}
