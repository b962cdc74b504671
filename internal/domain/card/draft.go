package card

import (
	"errors"
	"time"

	domainErrors "github.com/alderburg/Teste-sub001/internal/domain/errors"
)

var (
	// ErrFrontIncomplete is returned when flipping before number, name and expiry are complete
	ErrFrontIncomplete = errors.New("card front is incomplete")

	// ErrCVVLocked is returned when the CVV is entered before the card was flipped
	ErrCVVLocked = errors.New("cvv can only be entered on the back of the card")
)

// Face is the side of the card being captured
type Face string

const (
	FaceFront Face = "front"
	FaceBack  Face = "back"
)

// Field names the input that currently has focus
type Field string

const (
	FieldNumber     Field = "number"
	FieldHolderName Field = "holderName"
	FieldMonth      Field = "expiryMonth"
	FieldYear       Field = "expiryYear"
	FieldCVV        Field = "cvv"
)

// View is the render-safe projection of a draft. The CVV is never echoed.
type View struct {
	Brand           Brand                         `json:"brand"`
	FormattedNumber string                        `json:"formattedNumber"`
	HolderName      string                        `json:"holderName"`
	ExpiryMonth     string                        `json:"expiryMonth"`
	ExpiryYear      string                        `json:"expiryYear"`
	CVVEntered      int                           `json:"cvvEntered"`
	Errors          []domainErrors.ValidationKind `json:"errors"`
	IsComplete      bool                          `json:"isComplete"`
	Face            Face                          `json:"face"`
	Focus           Field                         `json:"focus"`
}

// Draft is the card being captured for the new-card branch. It owns the
// front/back gate: the CVV face unlocks only once the front is complete.
// A Draft is not safe for concurrent use.
type Draft struct {
	mode   InputMode
	number string
	holder string
	month  string
	year   string
	cvv    string
	face   Face
	focus  Field
}

// NewDraft creates an empty draft on the front face
func NewDraft(mode InputMode) *Draft {
	return &Draft{mode: mode, face: FaceFront, focus: FieldNumber}
}

func (d *Draft) SetNumber(raw string) {
	d.number = Truncate(raw)
	if limit := Classify(d.number).CVVLength; len(d.cvv) > limit {
		d.cvv = d.cvv[:limit]
	}
	if numberComplete(d.number, Classify(d.number)) && d.focus == FieldNumber {
		d.focus = FieldHolderName
	}
	d.recheckFace()
}

func (d *Draft) SetHolderName(raw string) {
	d.holder = raw
	d.recheckFace()
}

// SetMonth replaces the month with the normalized value of raw
func (d *Draft) SetMonth(raw string) {
	month, advance := NormalizeMonth(raw, d.mode)
	d.month = month
	d.focus = FieldMonth
	if advance {
		d.focus = FieldYear
	}
	d.recheckFace()
}

// SetYear replaces the two-digit expiry year
func (d *Draft) SetYear(raw string) {
	year, _ := NormalizeYear(raw)
	d.year = year
	d.focus = FieldYear
	d.recheckFace()
}

// TypeExpiry feeds keystrokes to the expiry group one at a time. Digits go
// to the month until it is complete and then to the year, so typing "3"
// followed by "5" yields month "03" and year "5".
func (d *Draft) TypeExpiry(keys string) {
	for _, r := range Digits(keys) {
		if d.focus != FieldYear {
			d.SetMonth(d.month + string(r))
			continue
		}
		if len(d.year) < 2 {
			d.SetYear(d.year + string(r))
		}
	}
}

// SetCVV stores the security code. It fails until the card has been flipped.
func (d *Draft) SetCVV(raw string) error {
	if d.face != FaceBack {
		return ErrCVVLocked
	}
	digits := Digits(raw)
	if limit := Classify(d.number).CVVLength; len(digits) > limit {
		digits = digits[:limit]
	}
	d.cvv = digits
	d.focus = FieldCVV
	return nil
}

// Flip moves capture to the CVV face
func (d *Draft) Flip() error {
	if !d.FrontComplete() {
		return ErrFrontIncomplete
	}
	d.face = FaceBack
	d.focus = FieldCVV
	return nil
}

// FrontComplete reports whether number, name, month and year are each complete
func (d *Draft) FrontComplete() bool {
	_, monthOK := parseMonth(d.month)
	_, yearOK := parseYear(d.year)
	return numberComplete(d.number, Classify(d.number)) &&
		holderComplete(d.holder) &&
		monthOK && yearOK
}

func (d *Draft) Face() Face {
	return d.face
}

func (d *Draft) Focus() Field {
	return d.focus
}

// Input returns the captured data for validation and tokenization
func (d *Draft) Input() Input {
	return Input{
		Number:      d.number,
		HolderName:  d.holder,
		ExpiryMonth: d.month,
		ExpiryYear:  d.year,
		CVV:         d.cvv,
	}
}

// View renders the draft with the validation result as of now
func (d *Draft) View(now time.Time) View {
	res := Validate(d.Input(), now)
	errs := res.Errors
	if errs == nil {
		errs = []domainErrors.ValidationKind{}
	}
	return View{
		Brand:           res.Brand,
		FormattedNumber: Format(d.number),
		HolderName:      d.holder,
		ExpiryMonth:     d.month,
		ExpiryYear:      d.year,
		CVVEntered:      len(d.cvv),
		Errors:          errs,
		IsComplete:      d.FrontComplete(),
		Face:            d.face,
		Focus:           d.focus,
	}
}

// Reset discards everything that was entered
func (d *Draft) Reset() {
	*d = Draft{mode: d.mode, face: FaceFront, focus: FieldNumber}
}

// recheckFace sends the draft back to the front when an edit made it incomplete
func (d *Draft) recheckFace() {
	if d.face == FaceBack && !d.FrontComplete() {
		d.face = FaceFront
	}
}
