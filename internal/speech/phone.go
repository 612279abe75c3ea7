package speech

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// PhoneResult is the outcome of parsing a spoken phone number
type PhoneResult struct {
	Matched  bool   `json:"matched"`
	E164     string `json:"e164,omitempty"`
	RawInput string `json:"raw_input"`
}

// ParsePhoneNumber recovers a North American callback number from a raw
// transcript and returns it in E.164 form. It shares the code parser's
// filler-stripping and digit-word pipeline but biases the opposite way on
// over-capture: phone transcripts commonly carry a leading carrier or
// country artifact, so the trailing ten digits are kept.
func ParsePhoneNumber(transcript string) PhoneResult {
	result := PhoneResult{RawInput: transcript}

	s := translateDigitWords(stripFiller(strings.ToLower(transcript)))
	digits := extractDigits(s)
	if len(digits) < 10 {
		digits = extractDigits(expandCompoundNumbers(s))
	}

	var e164 string
	switch {
	case len(digits) == 10:
		e164 = "+1" + digits
	case len(digits) == 11 && digits[0] == '1':
		e164 = "+" + digits
	case len(digits) > 10:
		e164 = "+1" + digits[len(digits)-10:]
	default:
		return result
	}

	// Normalize through libphonenumber when it agrees the shape is possible
	if num, err := phonenumbers.Parse(e164, ""); err == nil && phonenumbers.IsPossibleNumber(num) {
		e164 = phonenumbers.Format(num, phonenumbers.E164)
	}

	result.Matched = true
	result.E164 = e164
	return result
}
