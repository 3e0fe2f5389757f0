package swiss

import (
	"regexp"
	"strings"
)

// Swiss and Liechtenstein IBANs are exactly 21 characters: country code,
// two check digits, then a 17-character BBAN starting with the 5-digit
// institution identifier (IID).
var ibanPattern = regexp.MustCompile(`^(CH|LI)\d{2}[0-9A-Z]{17}$`)

// QR-IBAN range reserved for QR-bill creditor accounts (IID 30000-31999).
const (
	qrIIDMin = 30000
	qrIIDMax = 31999
)

// NormalizeIBAN strips all whitespace and uppercases the input.
func NormalizeIBAN(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), ""))
}

// ValidateIBAN reports whether raw is a structurally valid Swiss/Liechtenstein
// IBAN (ISO 7064 mod-97 checksum) and whether it is a QR-IBAN.
func ValidateIBAN(raw string) (valid bool, qrIBAN bool) {
	iban := NormalizeIBAN(raw)
	if !ibanPattern.MatchString(iban) {
		return false, false
	}
	if mod97(iban[4:]+iban[:4]) != 1 {
		return false, false
	}
	return true, isQRIID(iban[4:9])
}

// IsQRIBAN reports whether raw is a valid Swiss IBAN in the reserved QR range.
func IsQRIBAN(raw string) bool {
	valid, qr := ValidateIBAN(raw)
	return valid && qr
}

// mod97 computes the ISO 7064 remainder of the rearranged IBAN, with letters
// substituted by their numeric values (A=10..Z=35). Processing digit by digit
// keeps the running value small instead of materialising a 40+ digit integer.
func mod97(s string) int {
	rem := 0
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			rem = (rem*10 + int(c-'0')) % 97
		case c >= 'A' && c <= 'Z':
			n := int(c-'A') + 10
			rem = (rem*100 + n) % 97
		default:
			return -1
		}
	}
	return rem
}

func isQRIID(iid string) bool {
	n := 0
	for _, c := range iid {
		if c < '0' || c > '9' {
			return false
		}
		n = n*10 + int(c-'0')
	}
	return n >= qrIIDMin && n <= qrIIDMax
}
