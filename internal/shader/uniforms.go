package shader

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
)

// dwords is the size of each Kage type that can back a uniform.
var dwords = map[string]int{
	"bool":  1,
	"int":   1,
	"float": 1,
	"vec2":  2,
	"vec3":  3,
	"vec4":  4,
	"ivec2": 2,
	"ivec3": 3,
	"ivec4": 4,
	"mat2":  4,
	"mat3":  9,
	"mat4":  16,
}

// DeclaredUniforms maps each top-level var in a Kage source to its size in
// 32-bit words. Vars whose size cannot be read from the source, such as arrays
// sized by a named constant, are left out.
func DeclaredUniforms(src []byte) (map[string]int, error) {
	f, err := parser.ParseFile(token.NewFileSet(), "", src, parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}

	out := make(map[string]int)
	for _, decl := range f.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.VAR {
			continue
		}
		for _, spec := range gen.Specs {
			vs := spec.(*ast.ValueSpec)
			n := typeDwords(vs.Type)
			if n <= 0 {
				continue
			}
			for _, name := range vs.Names {
				out[name.Name] = n
			}
		}
	}
	return out, nil
}

func typeDwords(expr ast.Expr) int {
	switch t := expr.(type) {
	case *ast.Ident:
		return dwords[t.Name]
	case *ast.ParenExpr:
		return typeDwords(t.X)
	case *ast.ArrayType:
		lit, ok := t.Len.(*ast.BasicLit)
		if !ok || lit.Kind != token.INT {
			return 0
		}
		n, err := strconv.Atoi(lit.Value)
		if err != nil {
			return 0
		}
		return n * typeDwords(t.Elt)
	default:
		return 0
	}
}

func uniformsOf(path string, src []byte) (map[string]int, error) {
	u, err := DeclaredUniforms(src)
	if err != nil {
		return nil, &CompileError{Path: path, Err: fmt.Errorf("failed to read uniform declarations: %w", err)}
	}
	return u, nil
}
