// Package keygen derives storage keys from field context strings.
//
// A learned answer is filed under ToKey(context) and looked up later with the
// same transform, so the transform must stay stable: changing it orphans every
// previously stored answer.
package keygen

import (
	"strings"
	"unicode"
)

// ToKey converts free text into a camelCase storage key. The input is
// lowercased, everything outside [a-z0-9] and whitespace is stripped, and the
// remaining words are camelCase-joined.
//
// ToKey("What city do you live in?") == "whatCityDoYouLiveIn".
func ToKey(context string) string {
	var cleaned strings.Builder
	for _, r := range strings.ToLower(context) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || unicode.IsSpace(r) {
			cleaned.WriteRune(r)
		}
	}

	words := strings.Fields(cleaned.String())
	if len(words) == 0 {
		return ""
	}

	var key strings.Builder
	key.WriteString(words[0])
	for _, word := range words[1:] {
		key.WriteString(strings.ToUpper(word[:1]))
		key.WriteString(word[1:])
	}

	return key.String()
}

// Normalize lowercases the input and strips every character outside [a-z0-9].
// Two strings that normalize equally are considered the same question.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// minWordLen is the shortest word that participates in fuzzy matching. Words
// of this length or shorter ("is", "a", "do") carry no signal.
const minWordLen = 2

// KeyWords splits a camelCase key into its lowercased words, dropping words
// shorter than three characters.
//
// KeyWords("whatIsYourGender") == ["what", "your", "gender"].
func KeyWords(key string) []string {
	var spaced strings.Builder
	for _, r := range key {
		if unicode.IsUpper(r) {
			spaced.WriteByte(' ')
		}
		spaced.WriteRune(unicode.ToLower(r))
	}

	return longWords(strings.Fields(spaced.String()))
}

// ContextWords splits a context string on whitespace, lowercased, dropping
// words shorter than three characters. Punctuation stays attached to its word;
// the containment test in the resolver tolerates it.
func ContextWords(context string) []string {
	return longWords(strings.Fields(strings.ToLower(context)))
}

func longWords(words []string) []string {
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) > minWordLen {
			kept = append(kept, w)
		}
	}
	return kept
}
