package swiss

import (
	"fmt"
	"strings"
	"time"
)

// Recursive mod-10 substitution table used for the QRR check digit
// (same table as the ESR reference scheme).
var mod10Table = [10]int{0, 9, 4, 6, 8, 2, 7, 1, 3, 5}

const qrRefLen = 27

// GenerateQRReference builds a 27-digit QR reference from a numeric seed:
// the seed is truncated to its last 26 digits and left-padded with zeroes,
// then a recursive mod-10 check digit is appended. Deterministic: the same
// seed always yields the same reference.
func GenerateQRReference(seed string) string {
	digits := keepDigits(seed)
	if len(digits) > qrRefLen-1 {
		digits = digits[len(digits)-(qrRefLen-1):]
	}
	payload := fmt.Sprintf("%026s", digits)
	return payload + string(rune('0'+mod10CheckDigit(payload)))
}

// IsValidQRReference reports whether candidate is a well-formed QR reference:
// 27 digits (spaces ignored) whose last digit matches the recomputed checksum.
func IsValidQRReference(candidate string) bool {
	ref := strings.Join(strings.Fields(candidate), "")
	if len(ref) != qrRefLen {
		return false
	}
	for _, c := range ref {
		if c < '0' || c > '9' {
			return false
		}
	}
	return mod10CheckDigit(ref[:qrRefLen-1]) == int(ref[qrRefLen-1]-'0')
}

// FormatQRReference renders a reference in the conventional display grouping:
// 2 digits, then five groups of 5.
func FormatQRReference(ref string) string {
	if len(ref) != qrRefLen {
		return ref
	}
	parts := []string{ref[:2]}
	for i := 2; i < qrRefLen; i += 5 {
		parts = append(parts, ref[i:i+5])
	}
	return strings.Join(parts, " ")
}

// ReferenceSeed derives the numeric seed for an invoice: prefix and number
// concatenated, non-digits removed, last 26 digits kept. Empty seeds fall
// back to the current unix timestamp so that a reference can always be
// produced for legacy data without a numeric invoice number.
func ReferenceSeed(prefix, invoiceNumber string) string {
	seed := keepDigits(prefix + invoiceNumber)
	if len(seed) > qrRefLen-1 {
		seed = seed[len(seed)-(qrRefLen-1):]
	}
	if seed == "" {
		seed = keepDigits(fmt.Sprintf("%d", time.Now().Unix()))
	}
	if seed == "" {
		seed = "1"
	}
	return seed
}

func mod10CheckDigit(digits string) int {
	carry := 0
	for _, c := range digits {
		carry = mod10Table[(carry+int(c-'0'))%10]
	}
	return (10 - carry) % 10
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}
