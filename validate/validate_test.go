package validate

import (
	"strings"
	"testing"

	"github.com/clindash/filterql/filter"
)

func testSchema() *Schema {
	return &Schema{
		Name: "adverse_events",
		Columns: map[string]Column{
			"USUBJID":   {Type: TypeString},
			"AGE":       {Type: TypeInteger},
			"WEIGHT":    {Type: TypeFloat},
			"AESER":     {Type: TypeString},
			"AETERM":    {Type: TypeString, Nullable: true},
			"AESTDTC":   {Type: TypeDate, Nullable: true},
			"COMPLETED": {Type: TypeBoolean},
		},
		RowCount: 5,
	}
}

func validateExpr(t *testing.T, expression string) *Result {
	t.Helper()
	parsed := filter.Parse(expression)
	if !parsed.Valid {
		t.Fatalf("Parse(%q) failed: %s", expression, parsed.Err)
	}
	return Validate(parsed.AST, testSchema())
}

func TestValidate_OK(t *testing.T) {
	res := validateExpr(t, "AGE >= 45 AND AESER = 'Y'")

	if !res.Valid {
		t.Fatalf("expected valid, errors: %v", res.Errors)
	}
	if len(res.Errors) != 0 || len(res.Warnings) != 0 {
		t.Errorf("errors = %v, warnings = %v", res.Errors, res.Warnings)
	}
	if res.RowCount != 5 {
		t.Errorf("row count = %d, want 5", res.RowCount)
	}

	if len(res.Columns) != 2 {
		t.Fatalf("validated columns = %v", res.Columns)
	}
	if res.Columns[0].Name != "AGE" || res.Columns[0].Type != TypeInteger {
		t.Errorf("columns[0] = %v", res.Columns[0])
	}
	if res.Columns[1].Name != "AESER" || res.Columns[1].Type != TypeString {
		t.Errorf("columns[1] = %v", res.Columns[1])
	}
}

func TestValidate_MissingColumn(t *testing.T) {
	res := validateExpr(t, "AGE >= 45 AND COUNTRY = 'US'")

	if res.Valid {
		t.Fatal("expected invalid")
	}
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %v, want exactly one", res.Errors)
	}
	if res.Errors[0] != "Column 'COUNTRY' not found in data" {
		t.Errorf("error = %q", res.Errors[0])
	}
}

func TestValidate_MissingColumnReportedOnce(t *testing.T) {
	res := validateExpr(t, "COUNTRY = 'US' OR COUNTRY = 'CA' OR COUNTRY IS NULL")

	if len(res.Errors) != 1 {
		t.Errorf("repeated missing column should yield one error, got %v", res.Errors)
	}
}

func TestValidate_TypeMismatchWarnings(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		wantPart   string
	}{
		{"number vs string", "AESER = 1", "string column 'AESER' with numeric value 1"},
		{"number vs date", "AESTDTC > 20240101", "date column 'AESTDTC'"},
		{"string vs integer", "AGE = 'old'", "integer column 'AGE' with string value 'old'"},
		{"string vs float", "WEIGHT = 'heavy'", "float column 'WEIGHT'"},
		{"bool vs string", "AESER = true", "string column 'AESER' with boolean value true"},
		{"in list mismatch", "AGE IN ('a', 'b')", "integer column 'AGE'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := validateExpr(t, tt.expression)
			if !res.Valid {
				t.Fatalf("type mismatch must stay a warning, errors: %v", res.Errors)
			}
			if len(res.Warnings) == 0 {
				t.Fatal("expected a warning")
			}
			if !strings.Contains(res.Warnings[0], "Type mismatch") || !strings.Contains(res.Warnings[0], tt.wantPart) {
				t.Errorf("warning = %q", res.Warnings[0])
			}
		})
	}
}

func TestValidate_ReversedBetweenBounds(t *testing.T) {
	res := validateExpr(t, "AGE BETWEEN 65 AND 18")

	if res.Valid {
		t.Fatal("expected invalid")
	}
	want := "BETWEEN lower bound (65) greater than upper bound (18) for column 'AGE'"
	if len(res.Errors) != 1 || res.Errors[0] != want {
		t.Errorf("errors = %v", res.Errors)
	}
}

func TestValidate_ReversedStringBounds(t *testing.T) {
	res := validateExpr(t, "AESTDTC BETWEEN '2024-06-01' AND '2024-01-01'")

	if res.Valid {
		t.Fatal("expected invalid for reversed date bounds")
	}
}

func TestValidate_OrderedBoundsOK(t *testing.T) {
	for _, expression := range []string{
		"AGE BETWEEN 18 AND 65",
		"AGE BETWEEN 45 AND 45",
		"AESTDTC BETWEEN '2024-01-01' AND '2024-06-01'",
	} {
		res := validateExpr(t, expression)
		if !res.Valid {
			t.Errorf("Validate(%q) errors: %v", expression, res.Errors)
		}
	}
}

func TestValidate_LikeWarnings(t *testing.T) {
	res := validateExpr(t, "AGE LIKE '4%'")
	if len(res.Warnings) == 0 || !strings.Contains(res.Warnings[0], "non-string column 'AGE'") {
		t.Errorf("warnings = %v", res.Warnings)
	}

	res = validateExpr(t, "AETERM LIKE '%headache%'")
	if !res.Valid {
		t.Fatalf("errors: %v", res.Errors)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "starts with a wildcard") {
		t.Errorf("warnings = %v", res.Warnings)
	}

	res = validateExpr(t, "AETERM LIKE 'head%'")
	if len(res.Warnings) != 0 {
		t.Errorf("prefix pattern should not warn: %v", res.Warnings)
	}
}

func TestValidate_ManyColumnsWarning(t *testing.T) {
	res := validateExpr(t, "USUBJID = 'x' AND AGE > 1 AND WEIGHT > 1 AND AESER = 'Y' AND AETERM IS NULL AND COMPLETED = true")

	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "references 6 columns") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected column-count advisory, warnings = %v", res.Warnings)
	}
}

func TestValidate_ComplexityGrowsWithExpression(t *testing.T) {
	simple := validateExpr(t, "AGE >= 45")
	compound := validateExpr(t, "AGE >= 45 AND AESER = 'Y' OR AETERM IS NULL")

	if simple.Complexity <= 0 {
		t.Errorf("simple complexity = %d", simple.Complexity)
	}
	if compound.Complexity <= simple.Complexity {
		t.Errorf("compound (%d) should exceed simple (%d)", compound.Complexity, simple.Complexity)
	}
}

func TestValidate_ComplexityIgnoresSchema(t *testing.T) {
	// Complexity depends on the AST alone, not on whether columns exist
	// or literal types line up
	present := validateExpr(t, "AGE >= 45")
	missing := validateExpr(t, "COUNTRY >= 45")
	mismatched := validateExpr(t, "AGE = 'old'")

	if missing.Complexity != present.Complexity {
		t.Errorf("missing column complexity = %d, want %d", missing.Complexity, present.Complexity)
	}
	if mismatched.Complexity != present.Complexity {
		t.Errorf("mismatched literal complexity = %d, want %d", mismatched.Complexity, present.Complexity)
	}
}

func TestSchema_Hash(t *testing.T) {
	a := testSchema()
	b := testSchema()
	if a.Hash() != b.Hash() {
		t.Error("identical schemas must hash equal")
	}

	b.Columns["NEWCOL"] = Column{Type: TypeString}
	if a.Hash() == b.Hash() {
		t.Error("schema change must change the hash")
	}
}
