package model

// PaymentMethod is a card stored with the payment provider for an account
type PaymentMethod struct {
	ID              string `json:"id"`
	ProviderTokenID string `json:"providerTokenId"`
	Brand           string `json:"brand"`
	Last4           string `json:"last4"`
	ExpMonth        int    `json:"expMonth"`
	ExpYear         int    `json:"expYear"`
	IsDefault       bool   `json:"isDefault"`
}

// CaptureKind selects how the payment method of a commit is obtained
type CaptureKind string

const (
	CaptureSavedCard     CaptureKind = "saved_card"
	CaptureNewCard       CaptureKind = "new_card"
	CaptureHostedElement CaptureKind = "hosted_element"
)

func (k CaptureKind) Valid() bool {
	switch k {
	case CaptureSavedCard, CaptureNewCard, CaptureHostedElement:
		return true
	}
	return false
}
