package resolver

import (
	"testing"

	"github.com/magicfill/magicfill/internal/forms"
	"github.com/magicfill/magicfill/internal/patterns"
	"github.com/magicfill/magicfill/internal/profile"
)

func field(context, semanticType string) *forms.DetectedField {
	return &forms.DetectedField{
		Selector:     "#f",
		Context:      context,
		SemanticType: semanticType,
		ControlKind:  forms.ControlInput,
	}
}

func TestResolveFieldMappingBeatsEverything(t *testing.T) {
	t.Parallel()

	data := &profile.PersonalData{
		CurrentCompany: "Acme Corp",
		CustomAnswers:  map[string]string{"dietaryRestrictions": "None"},
		FieldMappings: map[string]profile.FieldMapping{
			"vegan": {Value: "Yes", Patterns: []string{"dietary"}},
		},
	}

	r := New(Options{}, nil)

	res := r.Resolve(field("Dietary restrictions", patterns.TypeUnknown), data, "")
	if res == nil {
		t.Fatalf("expected resolution")
	}
	if res.Source != SourceFieldMapping || res.Value.Str() != "Yes" {
		t.Fatalf("expected mapping to win, got %+v", res)
	}

	// Even a field with a resolvable standard type yields the mapping value.
	data.FieldMappings = map[string]profile.FieldMapping{
		"companyOverride": {Value: "Initech", Patterns: []string{"company"}},
	}
	res = r.Resolve(field("Current Company", patterns.TypeCurrentCompany), data, "")
	if res == nil || res.Value.Str() != "Initech" {
		t.Fatalf("expected mapping to shadow standard attribute, got %+v", res)
	}
}

func TestResolveCustomAnswerExactKey(t *testing.T) {
	t.Parallel()

	data := &profile.PersonalData{
		CustomAnswers: map[string]string{"securityClearance": "None"},
	}
	r := New(Options{}, nil)

	// A learned key used as the field's semantic type resolves directly, even
	// for types the pattern library does not know.
	res := r.Resolve(field("Security clearance level", "securityClearance"), data, "")
	if res == nil || res.Source != SourceCustomAnswer || res.Value.Str() != "None" {
		t.Fatalf("unexpected resolution: %+v", res)
	}

	// Empty stored answers do not short-circuit the cascade.
	data.CustomAnswers["phone"] = ""
	data.Phone = "555-0100"
	res = r.Resolve(field("Phone", patterns.TypePhone), data, "")
	if res == nil || res.Source != SourceStandard || res.Value.Str() != "555-0100" {
		t.Fatalf("expected standard attribute after empty custom answer, got %+v", res)
	}
}

func TestResolveFuzzyThreshold(t *testing.T) {
	t.Parallel()

	r := New(Options{}, nil)

	// Key words: what, your, gender (3). Context words: what, your, gender,
	// identity. Three containment hits against threshold ceil(3*0.5)=2.
	data := &profile.PersonalData{
		CustomAnswers: map[string]string{"whatIsYourGender": "Prefer not to say"},
	}
	res := r.Resolve(field("What is your gender identity", patterns.TypeUnknown), data, "")
	if res == nil || res.Source != SourceFuzzyAnswer {
		t.Fatalf("expected fuzzy match, got %+v", res)
	}
	if res.Key != "whatIsYourGender" || res.Value.Str() != "Prefer not to say" {
		t.Fatalf("unexpected resolution: %+v", res)
	}

	// Zero overlap stays below the minimum threshold of one.
	data = &profile.PersonalData{
		CustomAnswers: map[string]string{"favoriteColor": "Green"},
	}
	if res := r.Resolve(field("Tell us about your hobbies", patterns.TypeUnknown), data, ""); res != nil {
		t.Fatalf("expected no match, got %+v", res)
	}
}

func TestResolveFuzzyExactNormalizedMatch(t *testing.T) {
	t.Parallel()

	data := &profile.PersonalData{
		CustomAnswers: map[string]string{"favoriteProgrammingLanguage": "Rust"},
	}
	r := New(Options{}, nil)

	res := r.Resolve(field("What's your favorite programming language?", patterns.TypeUnknown), data, "")
	if res == nil {
		t.Fatalf("expected resolution")
	}
	if res.Value.Str() != "Rust" {
		t.Fatalf("expected Rust, got %q", res.Value.Str())
	}
}

func TestResolveFuzzyOnlyForUnknownFields(t *testing.T) {
	t.Parallel()

	// A field with a known semantic type but no stored value must not fall
	// back to fuzzy matching against unrelated answers.
	data := &profile.PersonalData{
		CustomAnswers: map[string]string{"salaryExpectations": "100k"},
	}
	r := New(Options{}, nil)

	if res := r.Resolve(field("Salary", patterns.TypeSalaryExpectation), data, ""); res != nil && res.Source == SourceFuzzyAnswer {
		t.Fatalf("fuzzy matching must be limited to unknown fields, got %+v", res)
	}
}

func TestResolveFuzzyDeterministicKeyOrder(t *testing.T) {
	t.Parallel()

	// Two keys both clear the threshold; the first in sorted order wins.
	data := &profile.PersonalData{
		CustomAnswers: map[string]string{
			"genderIdentity":   "B",
			"whatIsYourGender": "A",
		},
	}
	r := New(Options{}, nil)

	for i := 0; i < 20; i++ {
		res := r.Resolve(field("What is your gender identity", patterns.TypeUnknown), data, "")
		if res == nil || res.Key != "genderIdentity" {
			t.Fatalf("expected sorted-order first match genderIdentity, got %+v", res)
		}
	}
}

func TestResolveStandardField(t *testing.T) {
	t.Parallel()

	r := New(Options{}, nil)

	data := &profile.PersonalData{CurrentCompany: "Acme Corp"}
	res := r.Resolve(field("Current Company", patterns.TypeCurrentCompany), data, "")
	if res == nil || res.Source != SourceStandard || res.Value.Str() != "Acme Corp" {
		t.Fatalf("unexpected resolution: %+v", res)
	}

	// Blank empty-default attribute still resolves, to an empty string; the
	// orchestrator, not the resolver, discards it.
	res = r.Resolve(field("Salary", patterns.TypeSalaryExpectation), &profile.PersonalData{}, "")
	if res == nil || !res.Value.IsEmpty() {
		t.Fatalf("expected empty-string resolution, got %+v", res)
	}

	// Blank required attribute is no match.
	if res := r.Resolve(field("Email", patterns.TypeEmail), &profile.PersonalData{}, ""); res != nil {
		t.Fatalf("expected nil for blank required attribute, got %+v", res)
	}

	// Unknown type with no matching answers is no match.
	if res := r.Resolve(field("Shoe size", patterns.TypeUnknown), &profile.PersonalData{}, ""); res != nil {
		t.Fatalf("expected nil, got %+v", res)
	}
}

func TestResolveBooleanStandardField(t *testing.T) {
	t.Parallel()

	r := New(Options{}, nil)
	data := &profile.PersonalData{RequiresSponsorship: true}

	res := r.Resolve(field("Do you require sponsorship?", patterns.TypeRequiresSponsorship), data, "")
	if res == nil || res.Value.Kind() != profile.KindBool || !res.Value.Bool() {
		t.Fatalf("expected boolean true, got %+v", res)
	}
}

func TestResolveSiteAnswersOptIn(t *testing.T) {
	t.Parallel()

	data := &profile.PersonalData{
		CustomAnswers: map[string]string{"whyThisCompany": "global answer"},
		SiteSpecificAnswers: map[string]map[string]string{
			"jobs.example.com": {"whyThisCompany": "site answer"},
		},
	}

	// Default options: site answers are never consulted.
	stock := New(Options{}, nil)
	res := stock.Resolve(field("Why this company?", "whyThisCompany"), data, "jobs.example.com")
	if res == nil || res.Value.Str() != "global answer" {
		t.Fatalf("expected global answer with stock options, got %+v", res)
	}

	// Opt-in: the site-scoped answer wins for its hostname only.
	site := New(Options{UseSiteAnswers: true}, nil)
	res = site.Resolve(field("Why this company?", "whyThisCompany"), data, "jobs.example.com")
	if res == nil || res.Value.Str() != "site answer" || res.Source != SourceSiteAnswer {
		t.Fatalf("expected site answer, got %+v", res)
	}

	res = site.Resolve(field("Why this company?", "whyThisCompany"), data, "other.example.com")
	if res == nil || res.Value.Str() != "global answer" {
		t.Fatalf("expected global answer for other hostname, got %+v", res)
	}
}

func TestResolveMalformedDataDegrades(t *testing.T) {
	t.Parallel()

	r := New(Options{}, nil)

	// Nil maps everywhere: the resolver must degrade to no-match, not panic.
	data := &profile.PersonalData{}
	if res := r.Resolve(field("What is your quest?", patterns.TypeUnknown), data, "host"); res != nil {
		t.Fatalf("expected nil, got %+v", res)
	}
}
