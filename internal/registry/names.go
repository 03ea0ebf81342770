package registry

import "strings"

// translatedChars are the characters the SAM component libraries do not allow in
// their identifiers.
const translatedChars = " -.()[]:+/\","

var nameTranslator = func() *strings.Replacer {
	pairs := make([]string, 0, 2*len(translatedChars))
	for _, c := range translatedChars {
		pairs = append(pairs, string(c), "_")
	}
	return strings.NewReplacer(pairs...)
}()

// TranslateName maps a published component name onto the SAM identifier alphabet.
// Each disallowed character becomes a single underscore, so the result keeps the
// length and character positions of the input. Applying it twice is a no-op.
//
//	"ABB: PVI-3.0-OUTD-S-US-A [240V]" -> "ABB__PVI_3_0_OUTD_S_US_A__240V_"
func TranslateName(name string) string {
	return nameTranslator.Replace(name)
}
