// ABOUTME: Region, display region, and locale types for jurisdiction handling
// ABOUTME: Maps case/address regions to EQ region codes and UI locales

package models

import "golang.org/x/text/language"

// Region is the single-letter country classification used by the case
// service and the address index.
type Region string

const (
	RegionEngland         Region = "E"
	RegionWales           Region = "W"
	RegionScotland        Region = "S"
	RegionNorthernIreland Region = "N"
)

// EQCode returns the ISO 3166-2 region code expected by the EQ launch
// payload. Scotland has no EQ code; callers must branch to the
// in-Scotland terminal before issuing a token.
func (r Region) EQCode() string {
	switch r {
	case RegionWales:
		return "GB-WLS"
	case RegionNorthernIreland:
		return "GB-NIR"
	default:
		return "GB-ENG"
	}
}

// DisplayRegion is the URL path prefix selecting jurisdiction and
// presentation language: en (England), cy (Wales, Welsh), ni
// (Northern Ireland).
type DisplayRegion string

const (
	DisplayRegionEnglish DisplayRegion = "en"
	DisplayRegionWelsh   DisplayRegion = "cy"
	DisplayRegionNI      DisplayRegion = "ni"
)

// ParseDisplayRegion validates a path segment against the closed set of
// display regions.
func ParseDisplayRegion(s string) (DisplayRegion, bool) {
	switch DisplayRegion(s) {
	case DisplayRegionEnglish, DisplayRegionWelsh, DisplayRegionNI:
		return DisplayRegion(s), true
	default:
		return "", false
	}
}

// Locale returns the message locale for the display region. Northern
// Ireland pages are presented in English; Welsh content is only served
// under the cy prefix.
func (d DisplayRegion) Locale() Locale {
	if d == DisplayRegionWelsh {
		return LocaleWelsh
	}
	return LocaleEnglish
}

// Locale identifies the language of user-facing text.
type Locale string

const (
	LocaleEnglish Locale = "en"
	LocaleWelsh   Locale = "cy"
)

// Tag returns the BCP 47 language tag for the locale.
func (l Locale) Tag() language.Tag {
	if l == LocaleWelsh {
		return welshTag
	}
	return language.BritishEnglish
}

var welshTag = language.MustParse("cy")

// RequestType distinguishes the two request-a-code journeys.
type RequestType string

const (
	RequestTypeHousehold  RequestType = "household-code"
	RequestTypeIndividual RequestType = "individual-code"
)

// ParseRequestType validates a path segment against the closed set of
// request types.
func ParseRequestType(s string) (RequestType, bool) {
	switch RequestType(s) {
	case RequestTypeHousehold, RequestTypeIndividual:
		return RequestType(s), true
	default:
		return "", false
	}
}

// Individual reports whether the fulfilment is for an individual
// within the household rather than the household itself.
func (t RequestType) Individual() bool {
	return t == RequestTypeIndividual
}
