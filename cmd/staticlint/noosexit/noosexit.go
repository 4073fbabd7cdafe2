// Package noosexit reports direct calls to os.Exit inside the main
// function of package main. Abrupt termination there skips deferred
// cleanup and breaks testability.
package noosexit

import (
	"go/ast"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// Analyzer flags os.Exit calls made directly from main.main.
var Analyzer = &analysis.Analyzer{
	Name: "noosexit",
	Doc:  "prohibits direct use of os.Exit in main.main",
	Run:  run,
}

func run(pass *analysis.Pass) (interface{}, error) {
	if pass.Pkg.Name() != "main" {
		return nil, nil
	}

	for _, file := range pass.Files {
		// generated files in the build cache are not ours to report on
		if isGoBuildCacheFile(pass.Fset.File(file.Pos()).Name()) {
			continue
		}

		mainFn := findMainFunc(file)
		if mainFn == nil {
			continue
		}

		ast.Inspect(mainFn.Body, func(n ast.Node) bool {
			if call, found := asOsExitCall(n); found {
				pass.Reportf(call.Pos(), "avoid using os.Exit in main.main")
			}
			return true
		})
	}

	return nil, nil
}

func findMainFunc(file *ast.File) *ast.FuncDecl {
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if ok && fn.Name.Name == "main" && fn.Recv == nil {
			return fn
		}
	}

	return nil
}

func asOsExitCall(n ast.Node) (*ast.CallExpr, bool) {
	call, ok := n.(*ast.CallExpr)
	if !ok {
		return nil, false
	}

	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "Exit" {
		return nil, false
	}

	ident, ok := sel.X.(*ast.Ident)
	if !ok || ident.Name != "os" {
		return nil, false
	}

	return call, true
}

func isGoBuildCacheFile(path string) bool {
	path = filepath.ToSlash(path)
	return strings.Contains(path, "/go-build/") || strings.Contains(path, `\go-build\`)
}
