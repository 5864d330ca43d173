// Package phone normalizes phone numbers to E.164 for account
// completeness checks.
package phone

import (
	"errors"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is assumed for numbers submitted without a country
// prefix.
const DefaultRegion = "US"

// ErrInvalidPhone reports a number that does not parse or is not
// valid for its region.
var ErrInvalidPhone = errors.New("invalid phone number")

// ToE164 parses raw and returns the E.164 representation
// (e.g. "+15551234567"). region is an ISO 3166-1 alpha-2 code used
// when raw has no international prefix; empty means DefaultRegion.
func ToE164(raw, region string) (string, error) {
	if region == "" {
		region = DefaultRegion
	}

	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", ErrInvalidPhone
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalidPhone
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
