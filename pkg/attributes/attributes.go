// Package attributes derives compliance-relevant attribute values from page text.
package attributes

import (
	"strings"
)

// Attribute keys understood by the built-in rule sets.
const (
	DataLocation        = "data_location"
	SensitiveAccess     = "sensitive_access"
	TransactionsLogged  = "transactions_logged"
	ThirdPartyAgreement = "third_party_agreement"
)

// Values is an attribute-to-value map for one application or page.
type Values map[string]string

// Extract applies the keyword heuristics to text. Matching on "US" is case-sensitive
// so that the pronoun "us" does not count as a location.
func Extract(text string) Values {
	lower := strings.ToLower(text)
	v := Values{}

	if containsWord(text, "US") || strings.Contains(lower, "united states") {
		v[DataLocation] = "US"
	} else {
		v[DataLocation] = "EU"
	}

	if strings.Contains(lower, "authorized") || strings.Contains(lower, "employees only") || strings.Contains(lower, "restricted") {
		v[SensitiveAccess] = "authorized_only"
	} else {
		v[SensitiveAccess] = "everyone"
	}

	if strings.Contains(lower, "transaction") {
		v[TransactionsLogged] = "yes"
	} else {
		v[TransactionsLogged] = "no"
	}

	if strings.Contains(lower, "third-party") || strings.Contains(lower, "third party") {
		v[ThirdPartyAgreement] = "signed"
	} else {
		v[ThirdPartyAgreement] = "unsigned"
	}
	return v
}

// Merge overlays static values on top of extracted ones.
func Merge(extracted, static map[string]string) Values {
	out := Values{}
	for k, val := range extracted {
		out[k] = val
	}
	for k, val := range static {
		out[k] = val
	}
	return out
}

func containsWord(text, word string) bool {
	for _, f := range strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	}) {
		if f == word {
			return true
		}
	}
	return false
}
