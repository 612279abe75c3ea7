package speech

import (
	"strings"

	"github.com/pairline/pairline/internal/models"
)

// CodeResult is the outcome of parsing a spoken pairing code
type CodeResult struct {
	Matched          bool   `json:"matched"`
	Code             string `json:"code,omitempty"`
	RawInput         string `json:"raw_input"`
	NormalizedDigits string `json:"normalized_digits,omitempty"`
}

// ParseCode recovers a 4-digit pairing code from a raw transcript. It never
// fails on malformed input; an unrecoverable transcript yields Matched=false.
//
// Stages: direct digit extraction, spoken digit-word translation, compound
// number expansion. A stage that yields exactly four digits wins outright;
// when more than four digits survive the pipeline the leading four are kept,
// never a trailing or arbitrary window.
func ParseCode(transcript string) CodeResult {
	result := CodeResult{RawInput: transcript}

	s := stripFiller(strings.ToLower(transcript))

	digits := extractDigits(s)
	if len(digits) != models.PairingCodeLength {
		s = translateDigitWords(s)
		digits = extractDigits(s)
	}
	if len(digits) != models.PairingCodeLength {
		s = expandCompoundNumbers(s)
		digits = extractDigits(s)
	}

	result.NormalizedDigits = digits
	if len(digits) < models.PairingCodeLength {
		return result
	}

	result.Matched = true
	result.Code = digits[:models.PairingCodeLength]
	return result
}
