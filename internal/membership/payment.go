package membership

import (
	"errors"
	"regexp"
	"strings"
)

// PaymentForm is the mock card form. Nothing here talks to a payment provider.
type PaymentForm struct {
	CardName   string `json:"cardName"`
	CardNumber string `json:"cardNumber"`
	ExpiryDate string `json:"expiryDate"`
	CVV        string `json:"cvv"`
	Email      string `json:"email"`
}

var (
	ErrCardName   = errors.New("please enter cardholder name")
	ErrCardNumber = errors.New("please enter a valid 16-digit card number")
	ErrExpiry     = errors.New("please enter expiry date in MM/YY format")
	ErrCVV        = errors.New("please enter a valid 3-digit CVV")
	ErrEmail      = errors.New("please enter a valid email")
)

var (
	whitespace = regexp.MustCompile(`\s`)
	nonDigit   = regexp.MustCompile(`\D`)
	expiryRE   = regexp.MustCompile(`^\d{2}/\d{2}$`)
)

// FormatCardNumber groups the input in blocks of four, at most 19 characters.
func FormatCardNumber(v string) string {
	compact := whitespace.ReplaceAllString(v, "")
	var b strings.Builder
	for i, r := range []rune(compact) {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return truncate(b.String(), 19)
}

// FormatExpiry keeps digits and inserts the slash after the month.
func FormatExpiry(v string) string {
	digits := nonDigit.ReplaceAllString(v, "")
	if len(digits) >= 2 {
		digits = digits[:2] + "/" + truncate(digits[2:], 2)
	}
	return truncate(digits, 5)
}

func FormatCVV(v string) string {
	return truncate(nonDigit.ReplaceAllString(v, ""), 3)
}

// Normalize applies the field formatters the form runs on every keystroke.
func (f PaymentForm) Normalize() PaymentForm {
	f.CardNumber = FormatCardNumber(f.CardNumber)
	f.ExpiryDate = FormatExpiry(f.ExpiryDate)
	f.CVV = FormatCVV(f.CVV)
	return f
}

// Validate reports the first invalid field, in form order.
func (f PaymentForm) Validate() error {
	switch {
	case strings.TrimSpace(f.CardName) == "":
		return ErrCardName
	case len(whitespace.ReplaceAllString(f.CardNumber, "")) != 16:
		return ErrCardNumber
	case !expiryRE.MatchString(f.ExpiryDate):
		return ErrExpiry
	case len(f.CVV) != 3:
		return ErrCVV
	case !strings.Contains(f.Email, "@"):
		return ErrEmail
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}
