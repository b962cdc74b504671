package card

import "strings"

var (
	amexGroups    = []int{4, 6, 5}
	defaultGroups = []int{4, 4, 4, 4}
)

// Truncate drops digits beyond the brand's maximum length
func Truncate(number string) string {
	digits := Digits(number)
	if limit := Classify(digits).MaxDigits; len(digits) > limit {
		return digits[:limit]
	}
	return digits
}

// Format groups the number for display: 4-6-5 for amex, 4-4-4-4 otherwise
func Format(number string) string {
	digits := Truncate(number)
	groups := defaultGroups
	if Classify(digits).Name == BrandAmex {
		groups = amexGroups
	}

	parts := make([]string, 0, len(groups))
	for _, size := range groups {
		if digits == "" {
			break
		}
		if len(digits) < size {
			size = len(digits)
		}
		parts = append(parts, digits[:size])
		digits = digits[size:]
	}
	return strings.Join(parts, " ")
}

// Last4 returns the trailing four digits, or fewer for short input
func Last4(number string) string {
	digits := Digits(number)
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}
