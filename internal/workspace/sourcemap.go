package workspace

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
)

// SourceMap lists every git-tracked file under root, one per line. Go
// files additionally list their top-level function and type names, giving
// the model a cheap overview without full file contents. Tracked files
// that no longer exist on disk are skipped; files that fail to parse are
// listed without definitions.
func SourceMap(root string) string {
	out, ok := Run(fmt.Sprintf("git -C %q ls-files", root))
	if !ok || out == "" {
		return ""
	}

	var lines []string
	for _, rel := range strings.Split(out, "\n") {
		rel = strings.TrimSpace(rel)
		if rel == "" {
			continue
		}
		path := filepath.Join(root, rel)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if defs := topLevelDefs(path); len(defs) > 0 {
			lines = append(lines, rel+": "+strings.Join(defs, ", "))
		} else {
			lines = append(lines, rel)
		}
	}
	return strings.Join(lines, "\n")
}

// topLevelDefs returns exported and unexported top-level func and type
// names for Go source files, and nothing for everything else.
func topLevelDefs(path string) []string {
	if filepath.Ext(path) != ".go" {
		return nil
	}
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, 0)
	if err != nil {
		return nil
	}

	var names []string
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			names = append(names, d.Name.Name)
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				if typeSpec, ok := spec.(*ast.TypeSpec); ok {
					names = append(names, typeSpec.Name.Name)
				}
			}
		}
	}
	return names
}
