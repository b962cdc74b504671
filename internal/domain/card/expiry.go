package card

import "strconv"

// InputMode selects how expiry keystrokes are corrected
type InputMode int

const (
	// ModeInteractive auto-pads a lone month digit above 1 and advances focus
	ModeInteractive InputMode = iota
	// ModeHeadless waits for two month digits and rejects a single one
	ModeHeadless
)

// ParseInputMode maps the configured mode name; anything but "interactive"
// is headless
func ParseInputMode(name string) InputMode {
	if name == "interactive" {
		return ModeInteractive
	}
	return ModeHeadless
}

// NormalizeMonth applies the input-time corrections of the month field.
// A two-digit value above 12 is clamped to "12". In interactive mode a single
// digit greater than 1 becomes "0d". advance reports that the month is
// complete and input should move on to the year.
func NormalizeMonth(raw string, mode InputMode) (month string, advance bool) {
	digits := Digits(raw)
	if len(digits) > 2 {
		digits = digits[:2]
	}

	switch len(digits) {
	case 0:
		return "", false
	case 1:
		if mode == ModeInteractive && digits[0] > '1' {
			return "0" + digits, true
		}
		return digits, false
	}

	if n, _ := strconv.Atoi(digits); n > 12 {
		return "12", true
	}
	return digits, true
}

// NormalizeYear keeps the two-digit year; advance reports completion
func NormalizeYear(raw string) (year string, advance bool) {
	digits := Digits(raw)
	if len(digits) > 2 {
		digits = digits[:2]
	}
	return digits, len(digits) == 2
}

func parseMonth(month string) (int, bool) {
	if len(month) != 2 {
		return 0, false
	}
	n, err := strconv.Atoi(month)
	if err != nil || n < 1 || n > 12 {
		return 0, false
	}
	return n, true
}

func parseYear(year string) (int, bool) {
	if len(year) != 2 {
		return 0, false
	}
	n, err := strconv.Atoi(year)
	if err != nil {
		return 0, false
	}
	return 2000 + n, true
}
