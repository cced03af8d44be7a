package goschema

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"
	"strings"
)

const (
	tableDirective = "//migrator:schema:table"
	fieldDirective = "//migrator:schema:field"

	// enumType marks a field whose type name is generated from its struct
	// and field names
	enumType = "ENUM"
)

var keyValueRe = regexp.MustCompile(`([a-z_]+)="([^"]*)"`)

// parseKeyValueComment parses key="value" pairs of an annotation comment.
func parseKeyValueComment(text string) map[string]string {
	kv := make(map[string]string)
	for _, match := range keyValueRe.FindAllStringSubmatch(text, -1) {
		kv[match[1]] = match[2]
	}
	return kv
}

func parseFieldComment(fset *token.FileSet, comment *ast.Comment, field *ast.Field, structName string, db *Database) {
	kv := parseKeyValueComment(comment.Text)

	var values []string
	for _, v := range strings.Split(kv["enum"], ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}

	for _, name := range field.Names {
		fieldType := kv["type"]
		if len(values) > 0 && fieldType == enumType {
			fieldType = "enum_" + strings.ToLower(structName) + "_" + strings.ToLower(name.Name)
		}

		db.Fields = append(db.Fields, Field{
			StructName: structName,
			FieldName:  name.Name,
			Name:       kv["name"],
			Type:       fieldType,
			Default:    kv["default"],
			Enum:       values,
		})
		if len(values) > 0 && fieldType != "" {
			db.Enums = append(db.Enums, Enum{
				Name:   fieldType,
				Values: values,
				Source: fset.Position(comment.Pos()).String(),
			})
		}
	}
}

func parseTableComment(comment *ast.Comment, structName string, db *Database) {
	kv := parseKeyValueComment(comment.Text)
	db.Tables = append(db.Tables, Table{
		StructName: structName,
		Name:       kv["name"],
	})
}

// ParseFile parses the annotations of one Go file. Enums declared more than
// once are returned as often as they are declared; ParseDir merges them.
func ParseFile(filename string) (*Database, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", filename, err)
	}

	db := &Database{}
	for _, decl := range f.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok {
			continue
		}
		for _, spec := range genDecl.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			structType, ok := typeSpec.Type.(*ast.StructType)
			if !ok {
				continue
			}
			structName := typeSpec.Name.Name

			if genDecl.Doc != nil {
				for _, comment := range genDecl.Doc.List {
					if strings.HasPrefix(comment.Text, tableDirective) {
						parseTableComment(comment, structName, db)
					}
				}
			}
			for _, field := range structType.Fields.List {
				if field.Doc == nil {
					continue
				}
				for _, comment := range field.Doc.List {
					if strings.HasPrefix(comment.Text, fieldDirective) {
						parseFieldComment(fset, comment, field, structName, db)
					}
				}
			}
		}
	}
	return db, nil
}
