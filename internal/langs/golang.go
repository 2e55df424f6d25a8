package langs

import (
	"regexp"
	"strings"
)

type goParser struct {
	cStyleDocs
}

func (goParser) ImportPrefix() string     { return "import " }
func (goParser) SnippetSeparator() string { return "}\n\n" }

var goImportPath = regexp.MustCompile("[\"`]([^\"`]+)[\"`]")

// ExtractImports returns quoted import paths from single imports and import blocks.
func (goParser) ExtractImports(lines []string) []string {
	var libs []string
	for _, stmt := range joinImportBlocks(lines, "(", ")", "import ", "import(") {
		for _, m := range goImportPath.FindAllStringSubmatch(stmt, -1) {
			libs = append(libs, strings.TrimSpace(m[1]))
		}
	}
	return libs
}
