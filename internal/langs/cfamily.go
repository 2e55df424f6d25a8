package langs

import "regexp"

type cppParser struct {
	cStyleDocs
}

func (cppParser) ImportPrefix() string     { return "#include " }
func (cppParser) SnippetSeparator() string { return "}\n\n" }

var cppInclude = regexp.MustCompile(`#include\s+[<"]([^<>"]+)[>"]`)

func (cppParser) ExtractImports(lines []string) []string {
	return findAll(cppInclude, lines, "")
}

type objcParser struct {
	cStyleDocs
}

func (objcParser) ImportPrefix() string     { return "#import " }
func (objcParser) SnippetSeparator() string { return "}\n\n" }

var objcImport = regexp.MustCompile(`^\s*#(?:import|include)\s+[<"]([\w/.+-]+)[>"]`)

func (objcParser) ExtractImports(lines []string) []string {
	return findAll(objcImport, lines, "")
}

type csharpParser struct {
	cStyleDocs
}

func (csharpParser) ImportPrefix() string     { return "using " }
func (csharpParser) SnippetSeparator() string { return "}\n\n" }

var csharpUsing = regexp.MustCompile(`using\s+(?:static\s+)?([\w.]+);`)

func (csharpParser) ExtractImports(lines []string) []string {
	return findAll(csharpUsing, lines, "")
}
