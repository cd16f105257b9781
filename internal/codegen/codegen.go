// Package codegen generates typed accessors for record structs.
//
// This package is internal to recordstore and backs the `recordstore gen`
// command. Given a Go source file and a struct type name, [Generate]
// emits, in the same package:
//
//   - one [recordstore.Field] handle per field, named <Type><Field>
//   - a <Type>Store type embedding *recordstore.Store[<Type>]
//   - a New<Type>Store constructor
//   - a getter and a Set<Field> method per field
//
// Fields are selected the way [recordstore.New] selects them: exported
// fields only, named by their `store` tag, skipped with `store:"-"`.
package codegen

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"go/types"
	"path"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"github.com/jpalmerr/recordstore"
)

const runtimeImport = "github.com/jpalmerr/recordstore"

var (
	// ErrTypeNotFound is returned when the source declares no type with
	// the requested name.
	ErrTypeNotFound = errors.New("type not found")

	// ErrNotStruct is returned when the requested type is not a struct.
	ErrNotStruct = errors.New("type is not a struct")

	// ErrNoFields is returned when the struct has no exported fields.
	ErrNoFields = errors.New("struct has no exported fields")
)

// Options configures a [Generate] call.
type Options struct {
	// Source is the content of the Go file declaring the record type.
	Source []byte

	// Filename is used in error positions. Optional.
	Filename string

	// TypeName is the struct type to generate accessors for.
	TypeName string
}

// field is one generated accessor pair.
type field struct {
	GoName string // struct field name
	Name   string // store field name
	Type   string // Go type expression
}

// file is the template input.
type file struct {
	Package     string
	Type        string
	Constructor string
	Imports     []string
	Fields      []field
}

var fileTemplate = template.Must(template.New("store").Parse(`// Code generated by recordstore gen; DO NOT EDIT.

package {{.Package}}

import (
{{- range .Imports}}
	{{.}}
{{- end}}
)

// Field handles for {{.Type}}.
var (
{{- range .Fields}}
	{{$.Type}}{{.GoName}} = recordstore.NewField[{{.Type}}]({{printf "%q" .Name}})
{{- end}}
)

// {{.Type}}Store is a recordstore.Store of {{.Type}} with typed accessors.
type {{.Type}}Store struct {
	*recordstore.Store[{{.Type}}]
}

// {{.Constructor}} creates a {{.Type}}Store whose record equals initial.
func {{.Constructor}}(initial {{.Type}}, opts ...recordstore.Option) (*{{.Type}}Store, error) {
	s, err := recordstore.New(initial, opts...)
	if err != nil {
		return nil, err
	}
	return &{{.Type}}Store{Store: s}, nil
}
{{range .Fields}}
// {{.GoName}} returns the current {{.Name}} value.
func (s *{{$.Type}}Store) {{.GoName}}() {{.Type}} {
	v, _ := recordstore.Read(s.Store, {{$.Type}}{{.GoName}})
	return v
}

// Set{{.GoName}} sets {{.Name}} and notifies its listeners.
func (s *{{$.Type}}Store) Set{{.GoName}}(v {{.Type}}) error {
	return s.Store.Set({{$.Type}}{{.GoName}}.Change(v))
}
{{end}}`))

// Generate returns gofmt'd Go source with typed accessors for
// opts.TypeName.
//
// Returns [ErrTypeNotFound], [ErrNotStruct] or [ErrNoFields] (wrapped with
// the type name), or an error if the source does not parse, a field type
// refers to a package the file does not import, or two generated names
// collide.
func Generate(opts Options) ([]byte, error) {
	if opts.TypeName == "" {
		return nil, errors.New("type name is required")
	}

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, opts.Filename, opts.Source, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source: %w", err)
	}

	spec := findType(f, opts.TypeName)
	if spec == nil {
		return nil, fmt.Errorf("%s: %w", opts.TypeName, ErrTypeNotFound)
	}
	if spec.TypeParams != nil && len(spec.TypeParams.List) > 0 {
		return nil, fmt.Errorf("%s: generic types are not supported", opts.TypeName)
	}
	st, ok := spec.Type.(*ast.StructType)
	if !ok {
		return nil, fmt.Errorf("%s: %w", opts.TypeName, ErrNotStruct)
	}

	fields, used, err := collectFields(st)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opts.TypeName, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%s: %w", opts.TypeName, ErrNoFields)
	}
	if err := checkNames(opts.TypeName, fields); err != nil {
		return nil, fmt.Errorf("%s: %w", opts.TypeName, err)
	}

	imports, err := resolveImports(f, used)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opts.TypeName, err)
	}

	var buf bytes.Buffer
	err = fileTemplate.Execute(&buf, file{
		Package:     f.Name.Name,
		Type:        opts.TypeName,
		Constructor: constructorName(opts.TypeName),
		Imports:     imports,
		Fields:      fields,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}

	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to format generated code: %w", err)
	}
	return out, nil
}

// DefaultOutput returns the conventional output file name for a type:
// "<lowercase type>_store_gen.go".
func DefaultOutput(typeName string) string {
	return strings.ToLower(typeName) + "_store_gen.go"
}

// findType returns the type spec named name, or nil.
func findType(f *ast.File, name string) *ast.TypeSpec {
	for _, decl := range f.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, s := range gen.Specs {
			if ts, ok := s.(*ast.TypeSpec); ok && ts.Name.Name == name {
				return ts
			}
		}
	}
	return nil
}

// collectFields returns the record fields of st and the package
// identifiers their types refer to.
func collectFields(st *ast.StructType) ([]field, map[string]struct{}, error) {
	var fields []field
	used := make(map[string]struct{})
	seen := make(map[string]string)

	for _, fl := range st.Fields.List {
		names := fieldNames(fl)

		var tag reflect.StructTag
		if fl.Tag != nil {
			raw, err := strconv.Unquote(fl.Tag.Value)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid struct tag %s", fl.Tag.Value)
			}
			tag = reflect.StructTag(raw)
		}

		typ := types.ExprString(fl.Type)
		for _, goName := range names {
			if !ast.IsExported(goName) {
				continue
			}
			// a tag name applies to each name of the declaration
			name, ok := recordstore.FieldName(goName, tag)
			if !ok {
				continue
			}
			if prev, dup := seen[name]; dup {
				return nil, nil, fmt.Errorf("fields %s and %s share the name %q", prev, goName, name)
			}
			seen[name] = goName

			fields = append(fields, field{GoName: goName, Name: name, Type: typ})
			packageRefs(fl.Type, used)
		}
	}

	return fields, used, nil
}

// fieldNames returns the declared names of fl, or the implied name of an
// embedded field.
func fieldNames(fl *ast.Field) []string {
	if len(fl.Names) > 0 {
		names := make([]string, len(fl.Names))
		for i, n := range fl.Names {
			names[i] = n.Name
		}
		return names
	}

	typ := fl.Type
	if star, ok := typ.(*ast.StarExpr); ok {
		typ = star.X
	}
	switch t := typ.(type) {
	case *ast.Ident:
		return []string{t.Name}
	case *ast.SelectorExpr:
		return []string{t.Sel.Name}
	}
	return nil
}

// packageRefs adds every package identifier referenced by expr to used.
func packageRefs(expr ast.Expr, used map[string]struct{}) {
	ast.Inspect(expr, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if pkg, ok := sel.X.(*ast.Ident); ok {
			used[pkg.Name] = struct{}{}
		}
		return false
	})
}

// promotedMethods are the methods <Type>Store gets from the embedded
// Store. A generated accessor must not shadow them.
var promotedMethods = []string{
	"AddListeners",
	"Fields",
	"Get",
	"ListenerCount",
	"Record",
	"RemoveListeners",
	"Set",
}

// checkNames rejects fields whose generated identifiers collide with
// each other or with the embedded Store.
func checkNames(typeName string, fields []field) error {
	methods := map[string]string{"Store": "embedded Store field"}
	for _, m := range promotedMethods {
		methods[m] = "promoted Store method"
	}
	add := func(method, owner string) error {
		if prev, ok := methods[method]; ok {
			return fmt.Errorf("method %s for field %s collides with %s", method, owner, prev)
		}
		methods[method] = "field " + owner
		return nil
	}

	for _, f := range fields {
		if err := add(f.GoName, f.GoName); err != nil {
			return err
		}
		if err := add("Set"+f.GoName, f.GoName); err != nil {
			return err
		}
	}
	return nil
}

// majorVersion matches a trailing major version path element such as v2.
var majorVersion = regexp.MustCompile(`^v[0-9]+$`)

// importName guesses the package name of an import path without loading
// it: the last path element, skipping a major version suffix and any
// gopkg.in-style ".vN" suffix.
func importName(importPath string) string {
	dir, base := path.Split(importPath)
	if majorVersion.MatchString(base) && dir != "" {
		base = path.Base(strings.TrimSuffix(dir, "/"))
	}
	if i := strings.Index(base, ".v"); i > 0 {
		base = base[:i]
	}
	return strings.ReplaceAll(base, "-", "_")
}

// resolveImports maps the package identifiers in used to import lines
// from f, plus the recordstore import.
func resolveImports(f *ast.File, used map[string]struct{}) ([]string, error) {
	lines := map[string]string{runtimeImport: strconv.Quote(runtimeImport)}

	for pkg := range used {
		line := ""
		for _, spec := range f.Imports {
			importPath, err := strconv.Unquote(spec.Path.Value)
			if err != nil {
				continue
			}
			if spec.Name != nil {
				if spec.Name.Name == pkg {
					line = pkg + " " + strconv.Quote(importPath)
				}
			} else if importName(importPath) == pkg {
				line = strconv.Quote(importPath)
			}
			if line != "" {
				lines[importPath] = line
				break
			}
		}
		if line == "" {
			return nil, fmt.Errorf("field type refers to package %q which the file does not import", pkg)
		}
	}

	paths := make([]string, 0, len(lines))
	for p := range lines {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = lines[p]
	}
	return out, nil
}

// constructorName returns New<Type>Store, or new<Type>Store with the
// first letter upper-cased for an unexported type.
func constructorName(typeName string) string {
	if ast.IsExported(typeName) {
		return "New" + typeName + "Store"
	}
	r, size := utf8.DecodeRuneInString(typeName)
	return "new" + string(unicode.ToUpper(r)) + typeName[size:] + "Store"
}
