package langs

import (
	"regexp"
	"strings"
)

var requireQuoted = regexp.MustCompile(`require(?:_relative)?\s*\(?\s*['"]([\w./-]+)['"]`)

type rubyParser struct{}

func (rubyParser) ImportPrefix() string     { return "require " }
func (rubyParser) SnippetSeparator() string { return "end\n\n" }

func (rubyParser) ExtractImports(lines []string) []string {
	return findAll(requireQuoted, lines, "")
}

// ExtractDocumentation returns =begin/=end blocks.
func (rubyParser) ExtractDocumentation(lines []string) []string {
	var (
		docs    []string
		inside  bool
		current strings.Builder
	)
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		switch {
		case !inside && strings.HasPrefix(line, "=begin") && !strings.HasSuffix(line, "=end"):
			inside = true
			current.WriteString(line[len("=begin"):])
		case inside && strings.HasPrefix(line, "=end"):
			current.WriteString("\n" + line[len("=end"):])
			docs = append(docs, strings.TrimSpace(current.String()))
			current.Reset()
			inside = false
		case inside:
			current.WriteString("\n" + line)
		}
	}
	return docs
}

type luaParser struct{}

func (luaParser) ImportPrefix() string     { return "require " }
func (luaParser) SnippetSeparator() string { return "end\n\n" }

func (luaParser) ExtractImports(lines []string) []string {
	return findAll(requireQuoted, lines, "")
}

// ExtractDocumentation returns --[[ ]] blocks and long runs of -- comments.
func (luaParser) ExtractDocumentation(lines []string) []string {
	var (
		docs    []string
		inside  bool
		current strings.Builder
	)
	flush := func(minLen int) {
		if current.Len() > minLen {
			docs = append(docs, strings.TrimSpace(current.String()))
		}
		current.Reset()
	}
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		switch {
		case !inside && strings.HasPrefix(line, "--[["):
			inside = true
			current.WriteString(line[4:])
		case inside && strings.HasSuffix(line, "]]"):
			inside = false
			current.WriteString("\n" + line[:len(line)-2])
			flush(-1)
		case inside:
			current.WriteString("\n" + line)
		case strings.HasPrefix(line, "--"):
			current.WriteString("\n" + line[2:])
		default:
			flush(minLineCommentLen)
		}
	}
	if current.Len() > 0 {
		flush(minLineCommentLen)
	}
	return docs
}

type elixirParser struct{}

func (elixirParser) ImportPrefix() string     { return "import " }
func (elixirParser) SnippetSeparator() string { return "end\n\n" }

var elixirImport = regexp.MustCompile(`^\s*(?:import|alias|use|require)\s+([\w.]+)`)

func (elixirParser) ExtractImports(lines []string) []string {
	return findAll(elixirImport, lines, "")
}

// ExtractDocumentation returns the heredoc bodies of @moduledoc and @doc attributes.
func (elixirParser) ExtractDocumentation(lines []string) []string {
	var (
		docs    []string
		inside  bool
		current strings.Builder
	)
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		switch {
		case !inside && (strings.HasPrefix(line, "@moduledoc") || strings.HasPrefix(line, "@doc")):
			inside = strings.Contains(line, `"""`)
		case inside && strings.Contains(line, `"""`):
			docs = append(docs, strings.TrimSpace(current.String()))
			current.Reset()
			inside = false
		case inside:
			current.WriteString(line + "\n")
		}
	}
	return docs
}
