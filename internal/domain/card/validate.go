package card

import (
	"strings"
	"time"
	"unicode/utf8"

	domainErrors "github.com/alderburg/Teste-sub001/internal/domain/errors"
)

const minHolderNameLength = 3

// Input is the raw card data as entered
type Input struct {
	Number      string
	HolderName  string
	ExpiryMonth string
	ExpiryYear  string
	CVV         string
}

// Result is the outcome of Validate. Errors is empty when the card is valid.
type Result struct {
	Brand  Brand
	Errors []domainErrors.ValidationKind
}

func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Err returns a *ValidationError for an invalid result and nil otherwise
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return &domainErrors.ValidationError{Kinds: r.Errors}
}

// Validate checks the card against its brand rules and the expiry date.
// Errors are reported in field order: number, name, month, expiry, cvv.
func Validate(in Input, now time.Time) Result {
	digits := Digits(in.Number)
	brand := Classify(digits)
	res := Result{Brand: brand}

	if !numberComplete(digits, brand) {
		res.Errors = append(res.Errors, domainErrors.NumberTooShort)
	}
	if !holderComplete(in.HolderName) {
		res.Errors = append(res.Errors, domainErrors.NameTooShort)
	}

	month, monthOK := parseMonth(in.ExpiryMonth)
	if !monthOK {
		res.Errors = append(res.Errors, domainErrors.MonthOutOfRange)
	}
	if expired(month, monthOK, in.ExpiryYear, now) {
		res.Errors = append(res.Errors, domainErrors.CardExpired)
	}

	if len(Digits(in.CVV)) != brand.CVVLength {
		res.Errors = append(res.Errors, domainErrors.CVVTooShort)
	}

	return res
}

func numberComplete(digits string, brand Brand) bool {
	return len(digits) >= brand.MaxDigits
}

func holderComplete(name string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(name)) >= minHolderNameLength
}

// expired reports whether (year, month) lies strictly before the current
// month. Without a valid month only the year is compared.
func expired(month int, monthOK bool, rawYear string, now time.Time) bool {
	year, ok := parseYear(rawYear)
	if !ok {
		return true
	}
	currentYear, currentMonth := now.Year(), int(now.Month())
	if year != currentYear {
		return year < currentYear
	}
	return monthOK && month < currentMonth
}
