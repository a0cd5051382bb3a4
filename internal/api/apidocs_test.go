package api

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"
	"testing"
)

// handlerDirs holds the packages whose exported Handlers methods are mounted by NewRouter.
var handlerDirs = []string{"accounts", "directory", "maps"}

func TestHandlers_CarrySwaggerAnnotations(t *testing.T) {
	for _, dir := range handlerDirs {
		files, err := filepath.Glob(filepath.Join(dir, "*.go"))
		if err != nil {
			t.Fatalf("glob %s: %v", dir, err)
		}

		fset := token.NewFileSet()
		for _, path := range files {
			if strings.HasSuffix(path, "_test.go") {
				continue
			}
			f, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
			if err != nil {
				t.Fatalf("parse %s: %v", path, err)
			}

			for _, decl := range f.Decls {
				fn, ok := decl.(*ast.FuncDecl)
				if !ok || fn.Recv == nil || !fn.Name.IsExported() || !isHandlersReceiver(fn.Recv) {
					continue
				}
				doc := ""
				if fn.Doc != nil {
					doc = fn.Doc.Text()
				}
				for _, want := range []string{"@Summary", "@Tags", "@Router"} {
					if !strings.Contains(doc, want) {
						t.Errorf("%s: %s has no %s annotation", path, fn.Name.Name, want)
					}
				}
			}
		}
	}
}

func isHandlersReceiver(recv *ast.FieldList) bool {
	if len(recv.List) != 1 {
		return false
	}
	star, ok := recv.List[0].Type.(*ast.StarExpr)
	if !ok {
		return false
	}
	ident, ok := star.X.(*ast.Ident)
	return ok && ident.Name == "Handlers"
}
