// Package langs maps file extensions to language parsers and provides the
// text helpers (chunking, doc-comment normalisation, source decoding) the
// pipeline needs to turn diffs into classifier input.
package langs

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-enry/go-enry/v2"
)

// Unknown is the extension reported for paths without a usable extension.
const Unknown = "unknown"

// SourceParser is the capability set every supported language provides.
type SourceParser interface {
	// ImportPrefix is the keyword used to render an import line, e.g. "import ".
	ImportPrefix() string
	// SnippetSeparator is the token that ends a logical block of code.
	SnippetSeparator() string
	// ExtractImports returns the library names referenced by the given lines.
	ExtractImports(lines []string) []string
	// ExtractDocumentation returns the doc-comment blocks found in the given lines.
	ExtractDocumentation(lines []string) []string
}

var registry = map[string]SourceParser{
	"py":    pythonParser{},
	"go":    goParser{},
	"java":  javaParser{},
	"kt":    kotlinParser{},
	"scala": scalaParser{},
	"c":     cppParser{},
	"cc":    cppParser{},
	"cpp":   cppParser{},
	"h":     cppParser{},
	"hpp":   cppParser{},
	"m":     objcParser{},
	"cs":    csharpParser{},
	"js":    jsParser{},
	"jsx":   jsParser{},
	"ts":    jsParser{},
	"tsx":   jsParser{},
	"php":   phpParser{},
	"rb":    rubyParser{},
	"rs":    rustParser{},
	"swift": swiftParser{},
	"dart":  dartParser{},
	"lua":   luaParser{},
	"ex":    elixirParser{},
	"exs":   elixirParser{},
}

var nonAlnum = regexp.MustCompile(`[^0-9a-zA-Z]+`)

// Extension returns the alphanumeric extension of a path, or Unknown.
// Dot-files such as ".bashrc" have no extension.
func Extension(path string) string {
	base := filepath.Base(path)
	idx := strings.LastIndex(base, ".")
	if idx <= 0 {
		return Unknown
	}
	ext := nonAlnum.ReplaceAllString(base[idx+1:], "")
	if ext == "" {
		return Unknown
	}
	return ext
}

// Lookup returns the parser registered for an extension.
func Lookup(ext string) (SourceParser, bool) {
	p, ok := registry[ext]
	return p, ok
}

// SupportedExtensions returns every registered extension in sorted order.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(registry))
	for ext := range registry {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// DisplayName returns a human-readable language name for an extension.
func DisplayName(ext string) string {
	if name, _ := enry.GetLanguageByExtension("file." + ext); name != "" {
		return name
	}
	return ext
}

// Classifier decides which files the pipeline analyzes.
type Classifier struct {
	excludes     []string
	skipVendored bool
}

// NewClassifier builds a Classifier. Exclude patterns use doublestar syntax
// and are matched against repository-relative paths.
func NewClassifier(excludes []string, skipVendored bool) (*Classifier, error) {
	for _, pattern := range excludes {
		if !doublestar.ValidatePathPattern(pattern) {
			return nil, fmt.Errorf("invalid exclude glob: %v", pattern)
		}
	}
	return &Classifier{excludes: excludes, skipVendored: skipVendored}, nil
}

// Classify returns the extension and parser for a path, or false when the
// file is unsupported or filtered out.
func (c *Classifier) Classify(path string) (string, SourceParser, bool) {
	ext := Extension(path)
	parser, ok := Lookup(ext)
	if !ok {
		return ext, nil, false
	}
	if c == nil {
		return ext, parser, true
	}
	if c.skipVendored && enry.IsVendor(path) {
		return ext, nil, false
	}
	for _, pattern := range c.excludes {
		if m, err := doublestar.PathMatch(pattern, path); err == nil && m {
			return ext, nil, false
		}
	}
	return ext, parser, true
}

// RenderImports renders imports as source lines using the parser's prefix.
func RenderImports(parser SourceParser, imports []string) string {
	var sb strings.Builder
	for _, imp := range imports {
		sb.WriteString(parser.ImportPrefix())
		sb.WriteString(imp)
		sb.WriteString("\n")
	}
	return sb.String()
}

// findAll collects the first capture group of pattern across lines.
// When prefix is non-empty only lines starting with it are scanned.
func findAll(pattern *regexp.Regexp, lines []string, prefix string) []string {
	var libs []string
	for _, line := range lines {
		if prefix != "" && !strings.HasPrefix(line, prefix) {
			continue
		}
		for _, m := range pattern.FindAllStringSubmatch(line, -1) {
			libs = append(libs, m[len(m)-1])
		}
	}
	return libs
}
