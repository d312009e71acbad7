// ABOUTME: Pure field validators for access codes, UK mobiles, and postcodes
// ABOUTME: Failures carry a locale-correct user-facing message

package services

import (
	"errors"
	"regexp"
	"strings"

	"github.com/censusops/respondent-home/models"
)

// ErrMalformedCode reports an access code failing basic format checks.
// It is distinct from a code the case service rejects.
var ErrMalformedCode = errors.New("malformed access code")

// InvalidDataError is a user-correctable validation failure. Message is
// already in the locale the respondent is browsing in.
type InvalidDataError struct {
	Message string
	Locale  models.Locale
}

func (e *InvalidDataError) Error() string {
	return e.Message
}

func invalidData(locale models.Locale, en, cy string) *InvalidDataError {
	if locale == models.LocaleWelsh {
		return &InvalidDataError{Message: cy, Locale: locale}
	}
	return &InvalidDataError{Message: en, Locale: locale}
}

const accessCodeLength = 16

var accessCodeRe = regexp.MustCompile(`^[a-z0-9]{16}$`)

// ValidateAccessCode strips formatting from a submitted access code and
// checks the fixed 16-character lowercase alphanumeric format. The
// returned value is the normalized code; backend verification is the
// caller's concern.
func ValidateAccessCode(raw string) (string, error) {
	code := strings.ToLower(raw)
	code = strings.NewReplacer(" ", "", "-", "").Replace(code)
	if len(code) != accessCodeLength || !accessCodeRe.MatchString(code) {
		return "", ErrMalformedCode
	}
	return code, nil
}

var mobileSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")

var ukMobileRe = regexp.MustCompile(`^\+447[0-9]{9}$`)

// ValidateUKMobileNumber normalizes a UK mobile number to E.164 form
// (+447xxxxxxxxx). Accepted input prefixes: 07, +447, 00447.
func ValidateUKMobileNumber(raw string, locale models.Locale) (string, error) {
	number := mobileSeparators.Replace(strings.TrimSpace(raw))

	switch {
	case strings.HasPrefix(number, "07"):
		number = "+44" + number[1:]
	case strings.HasPrefix(number, "00447"):
		number = "+" + number[2:]
	}

	if !ukMobileRe.MatchString(number) {
		return "", invalidData(locale,
			"Please enter a valid UK mobile number",
			"Rhowch rif ffôn symudol dilys yn y Deyrnas Unedig")
	}
	return number, nil
}

// UK postcode grammar: area, district, optional sub-district, then
// sector and unit.
var postcodeRe = regexp.MustCompile(`^[A-Z]{1,2}[0-9][A-Z0-9]? [0-9][A-Z]{2}$`)

// ValidatePostcode normalizes a UK postcode to its canonical form:
// upper case with a single space before the inward code.
func ValidatePostcode(raw string, locale models.Locale) (string, error) {
	postcode := strings.ToUpper(strings.Join(strings.Fields(raw), ""))
	if len(postcode) >= 4 {
		postcode = postcode[:len(postcode)-3] + " " + postcode[len(postcode)-3:]
	}

	if !postcodeRe.MatchString(postcode) {
		return "", invalidData(locale,
			"Please enter a valid UK postcode",
			"Rhowch god post dilys yn y Deyrnas Unedig")
	}
	return postcode, nil
}
