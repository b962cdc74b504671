// Package card classifies, formats and validates card details captured for a
// new payment method before they are handed to a tokenizer.
package card

import (
	"strconv"
	"strings"
)

// Brand names returned by Classify
const (
	BrandVisa       = "visa"
	BrandMastercard = "mastercard"
	BrandAmex       = "amex"
	BrandElo        = "elo"
	BrandHipercard  = "hipercard"
	BrandDiners     = "diners"
	BrandDiscover   = "discover"
	BrandJCB        = "jcb"
)

// Brand carries the per-brand capture rules
type Brand struct {
	Name      string `json:"name"`
	CVVLength int    `json:"cvvLength"`
	MaxDigits int    `json:"maxDigits"`
}

type matcher func(digits string) bool

type brandRule struct {
	match matcher
	brand Brand
}

var (
	amex     = Brand{Name: BrandAmex, CVVLength: 4, MaxDigits: 15}
	fallback = Brand{Name: BrandVisa, CVVLength: 3, MaxDigits: 16}
)

func standard(name string) Brand {
	return Brand{Name: name, CVVLength: 3, MaxDigits: 16}
}

// brandRules is evaluated top to bottom and the first match wins. Amex and the
// Elo/Hipercard ranges must stay ahead of the generic discover, mastercard and
// visa prefixes they overlap with.
var brandRules = []brandRule{
	{match: hasPrefix("34", "37"), brand: amex},
	{match: eloRanges, brand: standard(BrandElo)},
	{match: hasPrefix("606282", "3841"), brand: standard(BrandHipercard)},
	{match: anyOf(prefixRange(3, 300, 305), hasPrefix("36", "38")), brand: standard(BrandDiners)},
	{match: anyOf(hasPrefix("6011", "65"), prefixRange(3, 644, 649)), brand: standard(BrandDiscover)},
	{match: prefixRange(4, 3528, 3589), brand: standard(BrandJCB)},
	{match: anyOf(prefixRange(2, 51, 55), prefixRange(4, 2221, 2720)), brand: standard(BrandMastercard)},
	{match: hasPrefix("4"), brand: standard(BrandVisa)},
}

// eloRanges covers the six-digit BIN ranges issued to Elo
var eloRanges = anyOf(
	prefixRange(6, 401178, 401179),
	hasPrefix("431274", "438935", "451416", "457393", "504175", "506699", "627780", "636297", "636368"),
	prefixRange(6, 457631, 457632),
	prefixRange(6, 506700, 506779),
	prefixRange(6, 509000, 509999),
	prefixRange(6, 650031, 650033),
	prefixRange(6, 650035, 650051),
	prefixRange(6, 650405, 650439),
	prefixRange(6, 650485, 650538),
	prefixRange(6, 650541, 650598),
	prefixRange(6, 650700, 650718),
	prefixRange(6, 650720, 650727),
	prefixRange(6, 650901, 650978),
	prefixRange(6, 651652, 651679),
	prefixRange(6, 655000, 655019),
	prefixRange(6, 655021, 655058),
)

// Classify returns the brand of a card number. Numbers that match no rule,
// including empty input, are reported as visa so typing is never blocked.
func Classify(number string) Brand {
	digits := Digits(number)
	for _, rule := range brandRules {
		if rule.match(digits) {
			return rule.brand
		}
	}
	return fallback
}

// Digits strips everything but ASCII digits
func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func hasPrefix(prefixes ...string) matcher {
	return func(digits string) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(digits, p) {
				return true
			}
		}
		return false
	}
}

func prefixRange(width, lo, hi int) matcher {
	return func(digits string) bool {
		if len(digits) < width {
			return false
		}
		n, err := strconv.Atoi(digits[:width])
		if err != nil {
			return false
		}
		return n >= lo && n <= hi
	}
}

func anyOf(matchers ...matcher) matcher {
	return func(digits string) bool {
		for _, m := range matchers {
			if m(digits) {
				return true
			}
		}
		return false
	}
}
