package langs

import "regexp"

type rustParser struct {
	cStyleDocs
}

func (rustParser) ImportPrefix() string     { return "use " }
func (rustParser) SnippetSeparator() string { return "}\n\n" }

var rustUse = regexp.MustCompile(`^\s*(?:pub\s+)?(?:use|extern\s+crate)\s+([\w:]+)`)

func (rustParser) ExtractImports(lines []string) []string {
	return findAll(rustUse, lines, "")
}

type swiftParser struct {
	cStyleDocs
}

func (swiftParser) ImportPrefix() string     { return "import " }
func (swiftParser) SnippetSeparator() string { return "}\n\n" }

var swiftImport = regexp.MustCompile(`^import\s+(?:class\s+|struct\s+|func\s+|enum\s+|protocol\s+)?([\w.]+)`)

func (swiftParser) ExtractImports(lines []string) []string {
	return findAll(swiftImport, lines, "import")
}
