package handlers

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHandlersCarryRouteAnnotations keeps the route annotation blocks complete:
// every exported method that serves a request declares its summary and route.
func TestHandlersCarryRouteAnnotations(t *testing.T) {
	files, err := filepath.Glob("*_handler.go")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	fset := token.NewFileSet()
	checked := 0
	for _, name := range files {
		file, err := parser.ParseFile(fset, name, nil, parser.ParseComments)
		require.NoError(t, err, name)

		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv == nil || !fn.Name.IsExported() || !servesRequest(fn) {
				continue
			}
			checked++
			doc := fn.Doc.Text()
			assert.Contains(t, doc, "@Summary", "%s: %s", name, fn.Name.Name)
			assert.Contains(t, doc, "@Router", "%s: %s", name, fn.Name.Name)
			assert.NotContains(t, doc, "Method:", "%s: %s", name, fn.Name.Name)
		}
	}
	assert.GreaterOrEqual(t, checked, 24)
}

// servesRequest matches func(c echo.Context) error.
func servesRequest(fn *ast.FuncDecl) bool {
	params := fn.Type.Params.List
	if len(params) != 1 || fn.Type.Results == nil || len(fn.Type.Results.List) != 1 {
		return false
	}
	sel, ok := params[0].Type.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	pkg, ok := sel.X.(*ast.Ident)
	if !ok || pkg.Name != "echo" || sel.Sel.Name != "Context" {
		return false
	}
	result, ok := fn.Type.Results.List[0].Type.(*ast.Ident)
	return ok && result.Name == "error"
}
