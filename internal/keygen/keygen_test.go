package keygen

import (
	"reflect"
	"testing"
)

func TestToKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "question with punctuation",
			input:  "What city do you live in?",
			expect: "whatCityDoYouLiveIn",
		},
		{
			name:   "single word",
			input:  "Salary",
			expect: "salary",
		},
		{
			name:   "digits kept",
			input:  "Address Line 2",
			expect: "addressLine2",
		},
		{
			name:   "symbols stripped",
			input:  "E-mail (work)",
			expect: "emailWork",
		},
		{
			name:   "collapses whitespace runs",
			input:  "  favorite   programming\tlanguage ",
			expect: "favoriteProgrammingLanguage",
		},
		{
			name:   "empty input",
			input:  "",
			expect: "",
		},
		{
			name:   "only symbols",
			input:  "?!***",
			expect: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ToKey(tt.input); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	if got := Normalize("What's your favorite programming language?"); got != "whatsyourfavoriteprogramminglanguage" {
		t.Fatalf("unexpected normalization: %q", got)
	}

	if Normalize("favoriteProgrammingLanguage") != Normalize("Favorite Programming Language") {
		t.Fatalf("expected key and context to normalize equally")
	}
}

func TestKeyWords(t *testing.T) {
	t.Parallel()

	got := KeyWords("whatIsYourGender")
	expect := []string{"what", "your", "gender"}
	if !reflect.DeepEqual(got, expect) {
		t.Fatalf("expected %v, got %v", expect, got)
	}

	if words := KeyWords("ok"); len(words) != 0 {
		t.Fatalf("expected short key to produce no words, got %v", words)
	}
}

func TestContextWords(t *testing.T) {
	t.Parallel()

	got := ContextWords("What is your gender identity")
	expect := []string{"what", "your", "gender", "identity"}
	if !reflect.DeepEqual(got, expect) {
		t.Fatalf("expected %v, got %v", expect, got)
	}
}
