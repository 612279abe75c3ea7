package speech

import (
	"regexp"
	"strings"
)

const (
	// MaxNameLength bounds the stored display name
	MaxNameLength = 100
	// FallbackName is used when nothing usable remains in the transcript
	FallbackName = "Caller"
)

// introPhrases are self-introduction lead-ins stripped before title-casing.
// Longer phrases come first so "my name's" is consumed before "name's".
var introPhrases = []string{
	"you can call me",
	"my name is",
	"my name's",
	"the name is",
	"name's",
	"this is",
	"call me",
	"i am",
	"i'm",
	"it's",
	"it is",
}

var nameFillerWords = []string{
	"umm", "uhh", "um", "uh", "like", "hi", "hello", "hey", "yeah",
	"well", "so", "okay", "ok",
}

var (
	introRegexps      = buildCaseInsensitiveRegexps(introPhrases)
	nameFillerRegexps = buildCaseInsensitiveRegexps(nameFillerWords)
	nameDisallowedRE  = regexp.MustCompile(`[^A-Za-z' -]`)
)

func buildCaseInsensitiveRegexps(phrases []string) []*regexp.Regexp {
	regexps := make([]*regexp.Regexp, 0, len(phrases))
	for _, phrase := range phrases {
		regexps = append(regexps, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(phrase)+`\b`))
	}
	return regexps
}

// SanitizeName turns a raw transcript into a bounded display name. It strips
// self-introduction lead-ins and filler words, keeps letters, spaces,
// apostrophes and hyphens, title-cases each word and falls back to
// FallbackName when nothing remains.
func SanitizeName(transcript string) string {
	s := transcript
	for _, re := range introRegexps {
		s = re.ReplaceAllString(s, " ")
	}
	for _, re := range nameFillerRegexps {
		s = re.ReplaceAllString(s, " ")
	}
	s = nameDisallowedRE.ReplaceAllString(s, "")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = titleWord(word)
	}

	name := strings.Join(words, " ")
	if len(name) > MaxNameLength {
		name = strings.TrimSpace(name[:MaxNameLength])
	}
	if name == "" {
		return FallbackName
	}
	return name
}

func titleWord(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
}
