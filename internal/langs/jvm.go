package langs

import (
	"regexp"
	"strings"
)

type javaParser struct {
	cStyleDocs
}

func (javaParser) ImportPrefix() string     { return "import " }
func (javaParser) SnippetSeparator() string { return "}\n\n" }

var javaImport = regexp.MustCompile(`import\s+(?:static\s+)?([\w.]+(?:\.\*)?);`)

func (javaParser) ExtractImports(lines []string) []string {
	return findAll(javaImport, lines, "import")
}

type kotlinParser struct {
	cStyleDocs
}

func (kotlinParser) ImportPrefix() string     { return "import " }
func (kotlinParser) SnippetSeparator() string { return "}\n\n" }

var kotlinImport = regexp.MustCompile(`^\s*import\s+([\w.]+(?:\.\*)?)`)

func (kotlinParser) ExtractImports(lines []string) []string {
	return findAll(kotlinImport, lines, "import")
}

type scalaParser struct {
	cStyleDocs
}

func (scalaParser) ImportPrefix() string     { return "import " }
func (scalaParser) SnippetSeparator() string { return "}\n\n" }

// ExtractImports expands selector imports, so "import a.b.{C, D}" yields a.b.C and a.b.D.
func (scalaParser) ExtractImports(lines []string) []string {
	var libs []string
	for _, stmt := range joinImportBlocks(lines, "{", "}", "import ") {
		stmt = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(stmt), "import"))
		stmt = strings.TrimSuffix(stmt, ";")
		open := strings.Index(stmt, "{")
		if open < 0 {
			for _, lib := range strings.Split(stmt, ",") {
				if lib = strings.TrimSpace(lib); lib != "" {
					libs = append(libs, lib)
				}
			}
			continue
		}
		base := strings.TrimSpace(stmt[:open])
		selectors := strings.TrimSuffix(strings.TrimSpace(stmt[open+1:]), "}")
		for _, sel := range strings.Split(selectors, ",") {
			name := strings.TrimSpace(strings.SplitN(strings.TrimSpace(sel), " ", 2)[0])
			if name != "" {
				libs = append(libs, base+name)
			}
		}
	}
	return libs
}

type dartParser struct {
	cStyleDocs
}

func (dartParser) ImportPrefix() string     { return "import " }
func (dartParser) SnippetSeparator() string { return "}\n\n" }

var dartImport = regexp.MustCompile(`import\s+['"]([^'"]+)['"]`)

func (dartParser) ExtractImports(lines []string) []string {
	return findAll(dartImport, lines, "import")
}
