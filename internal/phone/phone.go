// Package phone validates and normalizes subscriber phone numbers.
package phone

import (
	"errors"
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var ErrInvalid = errors.New("invalid phone number")

type Validator struct {
	region string
}

// NewValidator parses numbers without a country code as region (ISO 3166
// alpha-2, e.g. "TZ").
func NewValidator(region string) *Validator {
	return &Validator{region: strings.ToUpper(region)}
}

// Normalize accepts possible mobile numbers and returns them in
// international form with spaces and the leading plus removed, e.g.
// "0712 345 678" becomes "255712345678".
func (v *Validator) Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if v.isStored(raw) {
		raw = "+" + raw
	}
	num, err := phonenumbers.Parse(raw, v.region)
	if err != nil {
		return "", ErrInvalid
	}
	if !phonenumbers.IsPossibleNumber(num) || !isMobile(phonenumbers.GetNumberType(num)) {
		return "", ErrInvalid
	}

	formatted := phonenumbers.Format(num, phonenumbers.INTERNATIONAL)
	return strings.NewReplacer(" ", "", "+", "", "-", "").Replace(formatted), nil
}

// isStored recognizes the digits-only international form Normalize
// returns, so normalized numbers normalize to themselves.
func (v *Validator) isStored(raw string) bool {
	cc := strconv.Itoa(phonenumbers.GetCountryCodeForRegion(v.region))
	if len(raw) < 11 || !strings.HasPrefix(raw, cc) {
		return false
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (v *Validator) Valid(raw string) bool {
	_, err := v.Normalize(raw)
	return err == nil
}

func isMobile(t phonenumbers.PhoneNumberType) bool {
	switch t {
	case phonenumbers.MOBILE, phonenumbers.FIXED_LINE_OR_MOBILE, phonenumbers.PAGER:
		return true
	}
	return false
}
