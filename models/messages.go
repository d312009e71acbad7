// ABOUTME: Flash message model and the bilingual message catalog
// ABOUTME: Catalog is built once at init and never mutated afterwards

package models

// FlashMessage is one structured user-facing message queued on the
// session and shown on exactly the next rendered page.
type FlashMessage struct {
	Text      string `json:"text"`
	Level     string `json:"level"`
	Type      string `json:"type"`
	Field     string `json:"field"`
	Clickable bool   `json:"clickable,omitempty"`
}

// NewFlashMessage builds an ERROR-level flash with a dynamic text,
// used where the message body comes from a validation failure.
func NewFlashMessage(text, msgType, field string) FlashMessage {
	return FlashMessage{Text: text, Level: "ERROR", Type: msgType, Field: field}
}

// MessageCode identifies a fixed catalog message.
type MessageCode string

const (
	MsgBadCode             MessageCode = "BAD_CODE"
	MsgInvalidCode         MessageCode = "INVALID_CODE"
	MsgAddressCheck        MessageCode = "ADDRESS_CONFIRMATION_ERROR"
	MsgMobileCheck         MessageCode = "MOBILE_CONFIRMATION_ERROR"
	MsgAddressSelectCheck  MessageCode = "ADDRESS_SELECT_CHECK_MSG"
	MsgStartLanguageOption MessageCode = "START_LANGUAGE_OPTION_MSG"
	MsgNoSelection         MessageCode = "NO_SELECTION_ERROR"
)

// catalog holds every fixed user-facing message in both locales.
// The Welsh NO_SELECTION text is pending translation and deliberately
// matches the English for now.
var catalog = map[MessageCode]map[Locale]FlashMessage{
	MsgBadCode: {
		LocaleEnglish: {Text: "Enter your access code", Level: "ERROR", Type: "BAD_CODE", Field: "uac", Clickable: true},
		LocaleWelsh:   {Text: "Rhowch eich cod mynediad", Level: "ERROR", Type: "BAD_CODE", Field: "uac", Clickable: true},
	},
	MsgInvalidCode: {
		LocaleEnglish: {Text: "Please re-enter your access code and try again", Level: "ERROR", Type: "INVALID_CODE", Field: "uac", Clickable: true},
		LocaleWelsh:   {Text: "Rhowch eich cod mynediad eto a rhowch gynnig arall arni", Level: "ERROR", Type: "INVALID_CODE", Field: "uac", Clickable: true},
	},
	MsgAddressCheck: {
		LocaleEnglish: {Text: "Please check and confirm address", Level: "ERROR", Type: "ADDRESS_CONFIRMATION_ERROR", Field: "address"},
		LocaleWelsh:   {Text: "Edrychwch eto ar y cyfeiriad a'i gadarnhau", Level: "ERROR", Type: "ADDRESS_CONFIRMATION_ERROR", Field: "address"},
	},
	MsgMobileCheck: {
		LocaleEnglish: {Text: "Please check and confirm your mobile phone number", Level: "ERROR", Type: "MOBILE_CONFIRMATION_ERROR", Field: "mobile"},
		LocaleWelsh:   {Text: "Edrychwch eto ar eich rhif ffôn symudol a'i gadarnhau", Level: "ERROR", Type: "MOBILE_CONFIRMATION_ERROR", Field: "mobile"},
	},
	MsgAddressSelectCheck: {
		LocaleEnglish: {Text: "Select an address", Level: "ERROR", Type: "ADDRESS_SELECT_CHECK_MSG", Field: "address-select"},
		LocaleWelsh:   {Text: "Dewiswch gyfeiriad", Level: "ERROR", Type: "ADDRESS_SELECT_CHECK_MSG", Field: "address-select"},
	},
	MsgStartLanguageOption: {
		LocaleEnglish: {Text: "Select a language option", Level: "ERROR", Type: "START_LANGUAGE_OPTION_MSG", Field: "language-option"},
		LocaleWelsh:   {Text: "Dewiswch opsiwn iaith", Level: "ERROR", Type: "START_LANGUAGE_OPTION_MSG", Field: "language-option"},
	},
	MsgNoSelection: {
		LocaleEnglish: {Text: "Please select an option", Level: "ERROR", Type: "NO_SELECTION_ERROR", Field: "no-selection"},
		LocaleWelsh:   {Text: "Please select an option", Level: "ERROR", Type: "NO_SELECTION_ERROR", Field: "no-selection"},
	},
}

// Message looks up a catalog message for a locale, falling back to
// English when no variant exists.
func Message(code MessageCode, locale Locale) FlashMessage {
	variants, ok := catalog[code]
	if !ok {
		return FlashMessage{Text: string(code), Level: "ERROR", Type: string(code)}
	}
	if msg, ok := variants[locale]; ok {
		return msg
	}
	return variants[LocaleEnglish]
}
