package speech

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCategory_Vertical(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		want       string
	}{
		{name: "real estate", transcript: "real estate", want: "real_estate"},
		{name: "realtor", transcript: "I'm a realtor out in Phoenix", want: "real_estate"},
		{name: "insurance", transcript: "we sell insurance", want: "insurance"},
		{name: "mortgage", transcript: "Mortgage lending mostly", want: "mortgage"},
		{name: "other", transcript: "something else entirely", want: "other"},
		{name: "no match", transcript: "I run a bakery", want: ""},
		{name: "empty", transcript: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCategory(tt.transcript, VerticalTable))
		})
	}
}

func TestParseCategory_Pain(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		want       string
	}{
		{name: "spam flags", transcript: "spam flags", want: "spam_flags"},
		{name: "scam likely", transcript: "my calls show up as scam likely", want: "spam_flags"},
		{name: "awkward delay", transcript: "there's this awkward pause", want: "awkward_delay"},
		{name: "answer rates", transcript: "nobody answers when I call", want: "low_answer_rates"},
		{name: "speed", transcript: "we're just too slow to respond", want: "speed"},
		{name: "no match", transcript: "everything is fine", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCategory(tt.transcript, PainTable))
		})
	}
}

// Table order decides ties: a transcript matching several entries resolves
// to the first entry in table order.
func TestParseCategory_OrderSensitive(t *testing.T) {
	transcript := "real estate and insurance and mortgage"
	assert.Equal(t, "real_estate", ParseCategory(transcript, VerticalTable))

	reversed := CategoryTable{VerticalTable[2], VerticalTable[1], VerticalTable[0]}
	assert.Equal(t, "mortgage", ParseCategory(transcript, reversed))
}

func TestParseCategory_Idempotent(t *testing.T) {
	transcript := "spam and slow answer rates"
	first := ParseCategory(transcript, PainTable)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ParseCategory(transcript, PainTable))
	}
}
