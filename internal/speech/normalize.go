package speech

import (
	"regexp"
	"strings"
	"unicode"
)

// fillerPhrases are removed before digit extraction. Longer phrases come
// first so "the code is" is consumed before a bare "is".
var fillerPhrases = []string{
	"the code is",
	"my code is",
	"code is",
	"the number is",
	"my number is",
	"number is",
	"you can reach me at",
	"call me back at",
	"call me at",
	"it is",
	"it's",
	"umm",
	"uhh",
	"um",
	"uh",
	"okay",
	"ok",
	"yeah",
	"alright",
	"please",
}

// digitWords maps spoken digits, including common speech-to-text
// misrecognitions, to their numeral.
var digitWords = map[string]string{
	"zero": "0", "oh": "0", "o": "0",
	"one": "1", "won": "1",
	"two": "2", "to": "2", "too": "2",
	"three": "3", "tree": "3",
	"four": "4", "for": "4", "fore": "4",
	"five": "5",
	"six":   "6",
	"seven": "7",
	"eight": "8", "ate": "8",
	"nine": "9", "niner": "9",
}

// tensWords maps tens words to their leading digit; a following unit digit
// completes the pair ("forty eight" -> 48), otherwise a zero is appended.
var tensWords = map[string]string{
	"twenty": "2", "thirty": "3", "forty": "4", "fourty": "4",
	"fifty": "5", "sixty": "6", "seventy": "7", "eighty": "8", "ninety": "9",
}

// teenWords map directly to their two-digit numeral.
var teenWords = map[string]string{
	"ten": "10", "eleven": "11", "twelve": "12", "thirteen": "13",
	"fourteen": "14", "fifteen": "15", "sixteen": "16", "seventeen": "17",
	"eighteen": "18", "nineteen": "19",
}

var (
	fillerRegexps = buildPhraseRegexps(fillerPhrases)
	nonDigitRE    = regexp.MustCompile(`[^0-9]`)
)

func buildPhraseRegexps(phrases []string) []*regexp.Regexp {
	regexps := make([]*regexp.Regexp, 0, len(phrases))
	for _, phrase := range phrases {
		regexps = append(regexps, regexp.MustCompile(`\b`+regexp.QuoteMeta(phrase)+`\b`))
	}
	return regexps
}

// stripFiller removes filler phrases from an already lower-cased transcript.
func stripFiller(s string) string {
	for _, re := range fillerRegexps {
		s = re.ReplaceAllString(s, " ")
	}
	return s
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// translateDigitWords substitutes whole spoken-digit words with numerals.
func translateDigitWords(s string) string {
	tokens := tokenize(s)
	for i, token := range tokens {
		if digit, ok := digitWords[token]; ok {
			tokens[i] = digit
		}
	}
	return strings.Join(tokens, " ")
}

// expandCompoundNumbers turns tens and teens words into two-digit numerals.
// A tens word followed by a single unit digit pairs with it ("forty 8" ->
// "48"); a bare tens word expands to its round value ("forty" -> "40").
func expandCompoundNumbers(s string) string {
	tokens := tokenize(s)
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		token := tokens[i]
		if teen, ok := teenWords[token]; ok {
			out = append(out, teen)
			continue
		}
		tens, ok := tensWords[token]
		if !ok {
			out = append(out, token)
			continue
		}
		if i+1 < len(tokens) && isUnitDigit(tokens[i+1]) {
			out = append(out, tens+tokens[i+1])
			i++
			continue
		}
		out = append(out, tens+"0")
	}
	return strings.Join(out, " ")
}

func isUnitDigit(token string) bool {
	return len(token) == 1 && token[0] >= '1' && token[0] <= '9'
}

// extractDigits strips everything but decimal digits.
func extractDigits(s string) string {
	return nonDigitRE.ReplaceAllString(s, "")
}
