package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/magicfill/magicfill/internal/patterns"
)

func TestStandardValue(t *testing.T) {
	t.Parallel()

	data := &PersonalData{
		FirstName:           "Jane",
		LastName:            "Doe",
		Email:               "jane@example.com",
		YearsExperience:     7,
		RequiresSponsorship: true,
	}

	tests := []struct {
		name     string
		semType  string
		standard bool
		resolved bool
		expect   string
	}{
		{
			name:     "plain string attribute",
			semType:  patterns.TypeEmail,
			standard: true,
			resolved: true,
			expect:   "jane@example.com",
		},
		{
			name:     "full name is synthesized",
			semType:  patterns.TypeFullName,
			standard: true,
			resolved: true,
			expect:   "Jane Doe",
		},
		{
			name:     "number rendered as string",
			semType:  patterns.TypeYearsExperience,
			standard: true,
			resolved: true,
			expect:   "7",
		},
		{
			name:     "blank required attribute falls through",
			semType:  patterns.TypePhone,
			standard: true,
			resolved: false,
		},
		{
			name:     "blank empty-default attribute resolves to empty string",
			semType:  patterns.TypePortfolio,
			standard: true,
			resolved: true,
			expect:   "",
		},
		{
			name:     "unset count attribute resolves to empty string",
			semType:  patterns.TypeGraduationYear,
			standard: true,
			resolved: true,
			expect:   "",
		},
		{
			name:    "not a standard attribute",
			semType: "favoriteColor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			value, standard, resolved := data.StandardValue(tt.semType)
			if standard != tt.standard {
				t.Fatalf("standard = %v, expected %v", standard, tt.standard)
			}
			if resolved != tt.resolved {
				t.Fatalf("resolved = %v, expected %v", resolved, tt.resolved)
			}
			if resolved && value.Str() != tt.expect {
				t.Fatalf("value = %q, expected %q", value.Str(), tt.expect)
			}
		})
	}
}

func TestStandardValueBoolean(t *testing.T) {
	t.Parallel()

	data := &PersonalData{RequiresSponsorship: true}
	value, _, resolved := data.StandardValue(patterns.TypeRequiresSponsorship)
	if !resolved {
		t.Fatalf("expected boolean attribute to resolve")
	}
	if value.Kind() != KindBool || !value.Bool() {
		t.Fatalf("expected true boolean, got kind=%v str=%q", value.Kind(), value.Str())
	}

	// false is still a resolvable answer, not a gap.
	data.RequiresSponsorship = false
	value, _, resolved = data.StandardValue(patterns.TypeRequiresSponsorship)
	if !resolved || value.IsEmpty() {
		t.Fatalf("expected false boolean to resolve as non-empty")
	}
	if value.Str() != "false" {
		t.Fatalf("expected string form false, got %q", value.Str())
	}
}

func TestSiteAnswers(t *testing.T) {
	t.Parallel()

	data := &PersonalData{
		SiteSpecificAnswers: map[string]map[string]string{
			"jobs.example.com": {"whyThisCompany": "Because rockets"},
		},
	}

	if got := data.SiteAnswers("jobs.example.com"); got["whyThisCompany"] != "Because rockets" {
		t.Fatalf("unexpected site answers: %v", got)
	}
	if got := data.SiteAnswers("other.example.com"); got != nil {
		t.Fatalf("expected nil for unknown hostname, got %v", got)
	}
}

func TestLoadFieldMappings(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "field-mappings.json")
	content := `{"vegan": {"value": "Yes", "patterns": ["dietary", "vegan"]}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing mappings: %v", err)
	}

	mappings, err := LoadFieldMappings(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mappings["vegan"].Value != "Yes" || len(mappings["vegan"].Patterns) != 2 {
		t.Fatalf("unexpected mapping: %+v", mappings["vegan"])
	}

	// Missing file is not an error.
	mappings, err = LoadFieldMappings(filepath.Join(dir, "absent.json"))
	if err != nil || mappings != nil {
		t.Fatalf("expected nil/nil for missing file, got %v/%v", mappings, err)
	}

	// Mapping without patterns is rejected.
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"x": {"value": "y", "patterns": []}}`), 0o644); err != nil {
		t.Fatalf("writing mappings: %v", err)
	}
	if _, err := LoadFieldMappings(bad); err == nil {
		t.Fatalf("expected error for mapping without patterns")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	t.Parallel()

	data := &PersonalData{
		FirstName:     "Jane",
		CustomAnswers: map[string]string{"favoriteProgrammingLanguage": "Go"},
	}

	raw, err := data.ExportJSON()
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	restored, err := ImportJSON(raw)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if restored.FirstName != "Jane" {
		t.Fatalf("unexpected first name: %q", restored.FirstName)
	}
	if restored.CustomAnswers["favoriteProgrammingLanguage"] != "Go" {
		t.Fatalf("unexpected custom answers: %v", restored.CustomAnswers)
	}
}
