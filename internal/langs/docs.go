package langs

import (
	"strings"
)

// minLineCommentLen is the size a run of line comments must exceed to count as documentation.
const minLineCommentLen = 300

// cStyleDocs extracts /* */ blocks and long runs of // comments.
// Languages embed it to inherit the C-style documentation rules.
type cStyleDocs struct{}

func (cStyleDocs) ExtractDocumentation(lines []string) []string {
	var (
		comments []string
		inside   bool
		current  strings.Builder
	)
	flush := func(minLen int) {
		if current.Len() > minLen {
			comments = append(comments, strings.TrimSpace(current.String()))
		}
		current.Reset()
	}
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		switch {
		case !inside && strings.HasPrefix(line, "/**") && !strings.Contains(line, "*/"):
			inside = true
			current.WriteString(line[3:])
		case !inside && strings.HasPrefix(line, "/*") && !strings.Contains(line, "*/"):
			inside = true
			current.WriteString(line[2:])
		case !inside && strings.HasPrefix(line, "///"):
			current.WriteString("\n" + line[3:])
		case !inside && strings.HasPrefix(line, "//"):
			current.WriteString("\n" + line[2:])
		case inside:
			if idx := strings.Index(line, "*/"); idx >= 0 {
				current.WriteString("\n" + line[:idx])
				inside = false
				flush(-1)
				continue
			}
			current.WriteString("\n" + strings.TrimPrefix(line, "*"))
		default:
			flush(minLineCommentLen)
		}
	}
	if current.Len() > 0 {
		flush(minLineCommentLen)
	}
	return comments
}

// isDocumentation reports whether text reads like prose rather than code.
func isDocumentation(text string) bool {
	return strings.Count(text, " ") >= strings.Count(text, "\n")*5
}

var skippedDocKeywords = []string{"author ", "param "}

// NormalizeDocstring cleans a doc-comment block into lines. It reports false for
// license headers and for blocks that look like commented-out code.
func NormalizeDocstring(comment string) ([]string, bool) {
	if strings.Contains(comment, "license") || strings.Contains(comment, "License") || strings.Contains(comment, "LICENSE") {
		return nil, false
	}
	if !isDocumentation(comment) {
		return nil, false
	}
	comment = strings.NewReplacer("\t", " ", "\r", " ").Replace(comment)
	var lines []string
	for line := range strings.SplitSeq(comment, "\n") {
		if strings.HasPrefix(line, "http") || strings.HasPrefix(line, "www") {
			continue
		}
		skip := false
		for _, kw := range skippedDocKeywords {
			if strings.Contains(line, kw) {
				skip = true
				break
			}
		}
		if !skip {
			lines = append(lines, line)
		}
	}
	return lines, true
}

// DocLineCount returns the number of normalised documentation lines in code.
func DocLineCount(parser SourceParser, code string) int {
	total := 0
	for _, doc := range parser.ExtractDocumentation(strings.Split(code, "\n")) {
		if lines, ok := NormalizeDocstring(doc); ok {
			total += len(lines)
		}
	}
	return total
}
