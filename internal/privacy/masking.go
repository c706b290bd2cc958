package privacy

import (
	"strings"

	"satbridge/internal/constants"
)

// MaskMsisdn masks a sender address showing only the last 4 digits
// Example: "+4712345678" -> "+******5678"
func MaskMsisdn(msisdn string) string {
	if msisdn == "" {
		return ""
	}

	if strings.HasPrefix(msisdn, "+") {
		if len(msisdn) == 1 {
			return msisdn
		}
		if len(msisdn) <= constants.PhoneMaskDigits+1 {
			return "+" + strings.Repeat("*", len(msisdn)-1)
		}
		return "+" + strings.Repeat("*", len(msisdn)-constants.PhoneMaskDigits-1) + msisdn[len(msisdn)-constants.PhoneMaskDigits:]
	}

	if len(msisdn) <= constants.PhoneMaskDigits {
		return strings.Repeat("*", len(msisdn))
	}
	return strings.Repeat("*", len(msisdn)-constants.PhoneMaskDigits) + msisdn[len(msisdn)-constants.PhoneMaskDigits:]
}

// MaskToken masks a bearer token keeping a short identifying prefix
// Example: "sk-abcdef123456" -> "sk-abc…"
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= constants.TokenMaskPrefixLen {
		return strings.Repeat("*", len(token))
	}
	return token[:constants.TokenMaskPrefixLen] + "…"
}
