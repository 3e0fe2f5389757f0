package validation

import "strings"

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func PositiveFloat(field string, val float64, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func NonNegativeFloat(field string, val float64, v Violations) {
	if val < 0 {
		v[field] = "must_not_be_negative"
	}
}

func RangeFloat(field string, val, minVal, maxVal float64, v Violations) {
	if val < minVal || val > maxVal {
		v[field] = "out_of_range"
	}
}

func OneOf(field, value string, allowed []string, v Violations) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v[field] = "invalid_value"
}

// Discount checks a discount configuration: PERCENT must stay in 0-100,
// AMOUNT must not be negative. Empty type means no discount and skips the
// value entirely.
func Discount(field, typ string, value float64, v Violations) {
	switch typ {
	case "":
		return
	case "PERCENT":
		if value < 0 || value > 100 {
			v[field] = "percent_out_of_range"
		}
	case "AMOUNT":
		if value < 0 {
			v[field] = "must_not_be_negative"
		}
	default:
		v[field] = "invalid_discount_type"
	}
}
