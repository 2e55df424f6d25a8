package langs

import "regexp"

type jsParser struct {
	cStyleDocs
}

func (jsParser) ImportPrefix() string     { return "import " }
func (jsParser) SnippetSeparator() string { return "}\n\n" }

var (
	jsImportFrom = regexp.MustCompile(`^\s*import\s+(?:[\w*{}\s,]+\s+from\s+)?['"]([^'"]+)['"]`)
	jsRequire    = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
)

// ExtractImports covers ES module imports and CommonJS require calls.
func (jsParser) ExtractImports(lines []string) []string {
	libs := findAll(jsImportFrom, lines, "import")
	return append(libs, findAll(jsRequire, lines, "")...)
}

type phpParser struct {
	cStyleDocs
}

func (phpParser) ImportPrefix() string     { return "include " }
func (phpParser) SnippetSeparator() string { return "}\n\n" }

var (
	phpInclude = regexp.MustCompile(`(?:include|require)(?:_once)?\s*\(?\s*["']([^"']+?)["']\s*\)?;`)
	phpUse     = regexp.MustCompile(`^\s*use\s+([\w\\]+)`)
)

func (phpParser) ExtractImports(lines []string) []string {
	libs := findAll(phpInclude, lines, "")
	return append(libs, findAll(phpUse, lines, "")...)
}
