package dataset

import (
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/clindash/filterql/validate"
)

// Inspect reads a dataset file's Parquet schema and maps it onto the
// dashboard type set used by the validator. Nested fields use dot notation
// (e.g. "visit.date"); only leaf fields become columns.
func Inspect(path string) (*validate.Schema, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	schema := &validate.Schema{
		Name:    path,
		Columns: make(map[string]validate.Column),
	}

	for _, rg := range r.pqFile.RowGroups() {
		schema.RowCount += rg.NumRows()
	}

	for _, field := range r.Schema().Fields() {
		collectLeafColumns(field, "", false, schema.Columns)
	}

	if len(schema.Columns) == 0 {
		return nil, fmt.Errorf("dataset %s has no readable columns", path)
	}

	return schema, nil
}

// collectLeafColumns recursively walks a field, flattening groups with dot
// notation and tracking nullability inherited from optional parents.
func collectLeafColumns(field parquet.Field, prefix string, parentOptional bool, out map[string]validate.Column) {
	name := field.Name()
	if prefix != "" {
		name = prefix + "." + name
	}

	optional := parentOptional || field.Optional() || field.Repeated()

	children := field.Fields()
	if len(children) > 0 {
		// Group/struct: only leaves become columns
		for _, child := range children {
			collectLeafColumns(child, name, optional, out)
		}
		return
	}

	out[name] = validate.Column{
		Type:     columnType(field),
		Nullable: optional,
	}
}

// columnType maps a leaf field's Parquet types to the dashboard type set.
// The logical type wins when present; physical type is the fallback.
func columnType(field parquet.Field) validate.ColumnType {
	if field.Type() == nil {
		return validate.TypeString
	}

	if lt := field.Type().LogicalType(); lt != nil {
		switch lt.String() {
		case "STRING", "UTF8", "ENUM", "UUID", "JSON", "BSON":
			return validate.TypeString
		case "DATE", "TIME", "TIMESTAMP":
			return validate.TypeDate
		case "DECIMAL":
			return validate.TypeFloat
		}
	}

	switch field.Type().Kind() {
	case parquet.Boolean:
		return validate.TypeBoolean
	case parquet.Int32, parquet.Int64, parquet.Int96:
		return validate.TypeInteger
	case parquet.Float, parquet.Double:
		return validate.TypeFloat
	default:
		return validate.TypeString
	}
}
