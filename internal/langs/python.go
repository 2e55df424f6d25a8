package langs

import (
	"sort"
	"strings"

	"github.com/hashicorp/go-set/v2"
)

type pythonParser struct{}

func (pythonParser) ImportPrefix() string     { return "import " }
func (pythonParser) SnippetSeparator() string { return "\n\n" }

var pythonImportTokens = strings.NewReplacer("(", "", ")", "", ",", "", "\\", "")

// ExtractImports handles "import a as b" and "from m import x, y" forms,
// including parenthesised multi-line import lists.
func (pythonParser) ExtractImports(lines []string) []string {
	imports := set.New[string](8)
	for _, line := range joinImportBlocks(lines, "(", ")", "import ", "from ") {
		tokens := strings.Fields(pythonImportTokens.Replace(strings.TrimSpace(line)))
		if len(tokens) < 2 {
			continue
		}
		switch tokens[0] {
		case "import":
			prev := ""
			for _, tok := range tokens[1:] {
				if tok != "as" && prev != "as" {
					imports.Insert(tok)
				}
				prev = tok
			}
		case "from":
			module := tokens[1]
			idx := -1
			for i, tok := range tokens {
				if tok == "import" {
					idx = i
					break
				}
			}
			if idx < 0 {
				continue
			}
			prev := ""
			for _, name := range tokens[idx+1:] {
				if name != "as" && prev != "as" {
					imports.Insert(module + "." + name)
				}
				prev = name
			}
		}
	}
	out := imports.Slice()
	sort.Strings(out)
	return out
}

// ExtractDocumentation returns triple-quoted docstrings. Single-line docstrings are ignored.
func (pythonParser) ExtractDocumentation(lines []string) []string {
	var (
		docs    []string
		inside  bool
		current strings.Builder
	)
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		opens := strings.HasPrefix(line, `"""`) || strings.HasPrefix(line, `'''`)
		switch {
		case opens && len(line) > 3 && (strings.Count(line, `"""`) > 1 || strings.Count(line, `'''`) > 1):
			continue
		case opens && inside:
			inside = false
			docs = append(docs, current.String())
			current.Reset()
		case opens:
			inside = true
			current.WriteString(line[3:])
		case inside && (strings.HasSuffix(line, `"""`) || strings.HasSuffix(line, `'''`)):
			inside = false
			current.WriteString("\n" + line[:len(line)-3])
			docs = append(docs, current.String())
			current.Reset()
		case inside:
			current.WriteString("\n" + line)
		}
	}
	return docs
}

// joinImportBlocks returns the import statements found in lines, folding a
// statement that spans several lines between open and close into one line.
func joinImportBlocks(lines []string, open, close string, prefixes ...string) []string {
	var (
		out     []string
		block   []string
		inBlock bool
	)
	for _, line := range lines {
		starts := false
		for _, p := range prefixes {
			if strings.HasPrefix(line, p) {
				starts = true
				break
			}
		}
		if !starts && !inBlock {
			continue
		}
		if !inBlock && strings.Contains(line, open) && !strings.Contains(line, close) {
			inBlock = true
			block = append(block[:0], line)
			continue
		}
		if inBlock {
			block = append(block, strings.TrimSpace(line))
			if strings.Contains(line, close) {
				inBlock = false
				out = append(out, strings.Join(block, " "))
				block = block[:0]
			}
			continue
		}
		out = append(out, line)
	}
	return out
}
