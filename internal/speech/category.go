package speech

import (
	"strings"
)

// CategoryEntry maps a canonical key to the keywords that trigger it
type CategoryEntry struct {
	Key      string
	Keywords []string
}

// CategoryTable is an ordered list of category entries. Order matters: the
// first entry with any matching keyword wins.
type CategoryTable []CategoryEntry

// ParseCategory resolves a transcript to a canonical category key by
// case-insensitive substring match against the table, in table order.
// Returns the empty string when nothing matches; never a default.
func ParseCategory(transcript string, table CategoryTable) string {
	s := strings.ToLower(transcript)
	for _, entry := range table {
		for _, keyword := range entry.Keywords {
			if strings.Contains(s, keyword) {
				return entry.Key
			}
		}
	}
	return ""
}

// VerticalTable resolves the caller's industry vertical.
var VerticalTable = CategoryTable{
	{Key: "real_estate", Keywords: []string{"real estate", "realty", "realtor", "broker", "property", "properties", "houses", "homes"}},
	{Key: "insurance", Keywords: []string{"insurance", "insure", "policy", "policies"}},
	{Key: "mortgage", Keywords: []string{"mortgage", "lender", "lending", "loan", "refinance"}},
	{Key: "other", Keywords: []string{"other", "something else", "none of those", "different"}},
}

// PainTable resolves the caller's primary pain point.
var PainTable = CategoryTable{
	{Key: "spam_flags", Keywords: []string{"spam", "flagged", "flags", "scam likely", "blocked"}},
	{Key: "awkward_delay", Keywords: []string{"delay", "awkward", "pause", "lag", "silence"}},
	{Key: "low_answer_rates", Keywords: []string{"answer rate", "answer rates", "no one answers", "nobody answers", "don't answer", "doesn't answer", "pick up", "pickup"}},
	{Key: "speed", Keywords: []string{"speed", "slow", "faster", "quick", "response time"}},
}
