package util

import "strings"

const defaultCountryCode = "+90"

// NormalizePhone canonicalizes a Turkish phone number to E.164 form. It
// returns the empty string when the input cannot be interpreted as a phone
// number. Numbers without a country code get the +90 prefix; "05xx..." and
// bare 10-digit forms are both accepted.
func NormalizePhone(phone string) string {
	if strings.TrimSpace(phone) == "" {
		return ""
	}

	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	// International prefix written as 00.
	digits = strings.TrimPrefix(digits, "00")

	if strings.HasPrefix(digits, "90") && len(digits) >= 12 {
		return "+" + digits
	}
	if len(digits) == 10 {
		return defaultCountryCode + digits
	}
	if len(digits) == 11 && strings.HasPrefix(digits, "0") {
		return defaultCountryCode + digits[1:]
	}
	if strings.HasPrefix(strings.TrimSpace(phone), "+") && len(digits) >= 10 {
		return "+" + digits
	}
	if len(digits) >= 10 {
		return "+" + digits
	}
	return ""
}
