// ABOUTME: Start-flow step handlers: access code entry through EQ launch
// ABOUTME: Covers linked and unlinked cases, NI language options, terminals

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/censusops/respondent-home/models"
	"github.com/censusops/respondent-home/services"
)

// StartGet renders the access code entry page.
func (h *Handler) StartGet(w http.ResponseWriter, r *http.Request) {
	dr, ok := h.displayRegion(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	session, _ := h.session(r)
	data := stepData(dr, pageTitle(dr.Locale(),
		"Start census",
		"Dechrau'r cyfrifiad"))
	h.render(w, r, session, http.StatusOK, "start", data)
}

// StartPost verifies a submitted access code against the case service
// and routes to address confirmation (linked case) or address entry
// (unlinked case).
func (h *Handler) StartPost(w http.ResponseWriter, r *http.Request) {
	dr, ok := h.displayRegion(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	locale := dr.Locale()

	session, err := h.ensureSession(w, r)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	code, err := services.ValidateAccessCode(r.PostFormValue("uac"))
	if err != nil {
		slog.Info("access code failed format check", "client_ip", r.RemoteAddr)
		h.flashAndRedirect(w, r, session, models.Message(models.MsgBadCode, locale), startPath(dr, ""))
		return
	}

	c, err := h.rhSvc.GetUACClaim(r.Context(), code)
	switch {
	case errors.Is(err, services.ErrInvalidCode):
		slog.Info("access code not recognised", "client_ip", r.RemoteAddr)
		h.flashAndRedirect(w, r, session, models.Message(models.MsgInvalidCode, locale), startPath(dr, ""))
		return
	case err != nil:
		h.serviceError(w, r, err)
		return
	}

	session.Attributes.MergeCase(c)
	session.Attributes.UACHash = h.rhSvc.UACHash(code)
	if !h.saveSession(w, r, session) {
		return
	}

	if c.Linked() {
		h.redirect(w, r, startPath(dr, "confirm-address/"))
		return
	}
	slog.Info("unlinked case", "case_id", c.CaseID)
	h.redirect(w, r, startPath(dr, "unlinked/enter-address/"))
}

// UnlinkedEnterAddressGet renders the postcode entry page for an
// unlinked case.
func (h *Handler) UnlinkedEnterAddressGet(w http.ResponseWriter, r *http.Request) {
	dr, ok := h.displayRegion(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	session, ok := h.requireStartSession(w, r, dr)
	if !ok {
		return
	}

	data := stepData(dr, pageTitle(dr.Locale(),
		"What is your postcode?",
		"Beth yw eich cod post?"))
	h.render(w, r, session, http.StatusOK, "start-unlinked-enter-address", data)
}

// UnlinkedEnterAddressPost validates the postcode and looks up
// candidate addresses.
func (h *Handler) UnlinkedEnterAddressPost(w http.ResponseWriter, r *http.Request) {
	dr, ok := h.displayRegion(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	session, ok := h.requireStartSession(w, r, dr)
	if !ok {
		return
	}

	postcode, err := services.ValidatePostcode(r.PostFormValue("postcode"), dr.Locale())
	if err != nil {
		var invalid *services.InvalidDataError
		if errors.As(err, &invalid) {
			h.flashAndRedirect(w, r, session,
				models.NewFlashMessage(invalid.Message, "POSTCODE_ENTER_ERROR", "postcode"),
				startPath(dr, "unlinked/enter-address/"))
			return
		}
		h.serviceError(w, r, err)
		return
	}
	slog.Info("valid postcode", "client_ip", r.RemoteAddr)

	candidates, err := h.addressIndex.SearchPostcode(r.Context(), postcode)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	session.Attributes.Postcode = postcode
	session.Attributes.Candidates = candidates
	if !h.saveSession(w, r, session) {
		return
	}
	h.redirect(w, r, startPath(dr, "unlinked/select-address/"))
}

// UnlinkedSelectAddressGet renders the candidate address list.
func (h *Handler) UnlinkedSelectAddressGet(w http.ResponseWriter, r *http.Request) {
	dr, ok := h.displayRegion(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	session, ok := h.requireStartSession(w, r, dr)
	if !ok {
		return
	}
	if session.Attributes.Postcode == "" {
		h.redirect(w, r, startPath(dr, "timeout/"))
		return
	}

	data := stepData(dr, pageTitle(dr.Locale(),
		"Select your address",
		"Dewiswch eich cyfeiriad"))
	data["postcode"] = session.Attributes.Postcode
	data["addresses"] = session.Attributes.Candidates
	h.render(w, r, session, http.StatusOK, "start-unlinked-select-address", data)
}

// UnlinkedSelectAddressPost records the chosen candidate, or routes
// not-listed selections to the contact centre terminal.
func (h *Handler) UnlinkedSelectAddressPost(w http.ResponseWriter, r *http.Request) {
	dr, ok := h.displayRegion(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	session, ok := h.requireStartSession(w, r, dr)
	if !ok {
		return
	}
	if session.Attributes.Postcode == "" {
		h.redirect(w, r, startPath(dr, "timeout/"))
		return
	}

	selected := r.PostFormValue("address-select")
	if selected == "" {
		h.flashAndRedirect(w, r, session,
			models.Message(models.MsgAddressSelectCheck, dr.Locale()),
			startPath(dr, "unlinked/select-address/"))
		return
	}
	if selected == models.NotListedUPRN {
		h.redirect(w, r, startPath(dr, "call-contact-centre/"))
		return
	}

	candidate, found := findCandidate(session.Attributes.Candidates, selected)
	if !found {
		h.flashAndRedirect(w, r, session,
			models.Message(models.MsgAddressSelectCheck, dr.Locale()),
			startPath(dr, "unlinked/select-address/"))
		return
	}

	session.Attributes.UPRN = candidate.UPRN
	session.Attributes.DisplayAddress = candidate.FormattedAddress
	if !h.saveSession(w, r, session) {
		return
	}
	h.redirect(w, r, startPath(dr, "unlinked/confirm-address/"))
}

// UnlinkedConfirmAddressGet asks the respondent to confirm the chosen
// address before linking.
func (h *Handler) UnlinkedConfirmAddressGet(w http.ResponseWriter, r *http.Request) {
	dr, ok := h.displayRegion(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	session, ok := h.requireStartSession(w, r, dr)
	if !ok {
		return
	}
	if session.Attributes.UPRN == "" {
		h.redirect(w, r, startPath(dr, "timeout/"))
		return
	}

	h.render(w, r, session, http.StatusOK, "start-unlinked-confirm-address",
		h.confirmAddressData(dr, session))
}

// UnlinkedConfirmAddressPost links the UAC to the confirmed address,
// branching Scottish addresses to the out-of-jurisdiction terminal.
func (h *Handler) UnlinkedConfirmAddressPost(w http.ResponseWriter, r *http.Request) {
	dr, ok := h.displayRegion(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	session, ok := h.requireStartSession(w, r, dr)
	if !ok {
		return
	}
	if session.Attributes.UPRN == "" {
		h.redirect(w, r, startPath(dr, "timeout/"))
		return
	}

	switch r.PostFormValue("address-confirmation") {
	case "yes":
		candidate, found := findCandidate(session.Attributes.Candidates, session.Attributes.UPRN)
		if !found {
			h.redirect(w, r, startPath(dr, "timeout/"))
			return
		}
		if candidate.Region == models.RegionScotland {
			slog.Info("address in scotland", "uprn", candidate.UPRN)
			h.redirect(w, r, startPath(dr, "address-in-scotland/"))
			return
		}

		c, err := h.rhSvc.LinkAddress(r.Context(), session.Attributes.UACHash, candidate)
		if err != nil {
			h.serviceError(w, r, err)
			return
		}

		session.Attributes.MergeCase(c)
		session.Attributes.Linked = true
		if session.Attributes.DisplayAddress == "" {
			session.Attributes.DisplayAddress = candidate.FormattedAddress
		}
		if !h.saveSession(w, r, session) {
			return
		}
		h.redirect(w, r, startPath(dr, "unlinked/address-has-been-linked/"))

	case "no":
		h.redirect(w, r, startPath(dr, "unlinked/enter-address/"))

	default:
		h.flashAndRender(w, r, session,
			models.Message(models.MsgAddressCheck, dr.Locale()),
			"start-unlinked-confirm-address", h.confirmAddressData(dr, session))
	}
}

// UnlinkedAddressLinkedGet confirms the link succeeded before launch.
func (h *Handler) UnlinkedAddressLinkedGet(w http.ResponseWriter, r *http.Request) {
	dr, ok := h.displayRegion(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	session, ok := h.requireStartSession(w, r, dr)
	if !ok {
		return
	}
	if !session.Attributes.Linked {
		h.redirect(w, r, startPath(dr, "timeout/"))
		return
	}

	data := stepData(dr, pageTitle(dr.Locale(),
		"Your address has been linked to your code",
		"Mae eich cyfeiriad wedi cael ei gysylltu a'ch cod"))
	data["display_address"] = session.Attributes.DisplayAddress
	h.render(w, r, session, http.StatusOK, "start-unlinked-address-has-been-linked", data)
}

// UnlinkedAddressLinkedPost continues from the linked confirmation to
// the language options (NI) or straight to launch.
func (h *Handler) UnlinkedAddressLinkedPost(w http.ResponseWriter, r *http.Request) {
	dr, ok := h.displayRegion(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	session, ok := h.requireStartSession(w, r, dr)
	if !ok {
		return
	}
	if !session.Attributes.Linked {
		h.redirect(w, r, startPath(dr, "timeout/"))
		return
	}

	h.continueToLaunch(w, r, session, dr)
}

// ConfirmAddressGet renders address confirmation for an already-linked
// case.
func (h *Handler) ConfirmAddressGet(w http.ResponseWriter, r *http.Request) {
	dr, ok := h.displayRegion(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	session, ok := h.requireStartSession(w, r, dr)
	if !ok {
		return
	}

	h.render(w, r, session, http.StatusOK, "start-confirm-address",
		h.confirmAddressData(dr, session))
}

// ConfirmAddressPost proceeds to launch on confirmation; a respondent
// at the wrong address is directed to the contact centre.
func (h *Handler) ConfirmAddressPost(w http.ResponseWriter, r *http.Request) {
	dr, ok := h.displayRegion(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	session, ok := h.requireStartSession(w, r, dr)
	if !ok {
		return
	}

	switch r.PostFormValue("address-confirmation") {
	case "yes":
		h.continueToLaunch(w, r, session, dr)
	case "no":
		h.redirect(w, r, startPath(dr, "call-contact-centre/"))
	default:
		h.flashAndRender(w, r, session,
			models.Message(models.MsgAddressCheck, dr.Locale()),
			"start-confirm-address", h.confirmAddressData(dr, session))
	}
}

// LanguageOptionsGet renders the Northern Ireland language choice.
func (h *Handler) LanguageOptionsGet(w http.ResponseWriter, r *http.Request) {
	dr, ok := h.displayRegion(r)
	if !ok || dr != models.DisplayRegionNI {
		http.NotFound(w, r)
		return
	}
	session, ok := h.requireStartSession(w, r, dr)
	if !ok {
		return
	}

	data := stepData(dr, "Would you like to complete the census in English?")
	h.render(w, r, session, http.StatusOK, "start-ni-language-options", data)
}

// LanguageOptionsPost records the primary language choice; declining
// English offers the full language list.
func (h *Handler) LanguageOptionsPost(w http.ResponseWriter, r *http.Request) {
	dr, ok := h.displayRegion(r)
	if !ok || dr != models.DisplayRegionNI {
		http.NotFound(w, r)
		return
	}
	session, ok := h.requireStartSession(w, r, dr)
	if !ok {
		return
	}

	switch r.PostFormValue("language-option") {
	case "yes":
		session.Attributes.LanguageCode = "en"
		if !h.saveSession(w, r, session) {
			return
		}
		h.launchEQ(w, r, session, dr)
	case "no":
		h.redirect(w, r, startPath(dr, "select-language/"))
	default:
		data := stepData(dr, "Would you like to complete the census in English?")
		h.flashAndRender(w, r, session,
			models.Message(models.MsgStartLanguageOption, dr.Locale()),
			"start-ni-language-options", data)
	}
}

// niLanguages is the closed set of questionnaire languages offered in
// Northern Ireland.
var niLanguages = map[string]bool{"en": true, "ga": true, "eo": true}

// SelectLanguageGet renders the full Northern Ireland language list.
func (h *Handler) SelectLanguageGet(w http.ResponseWriter, r *http.Request) {
	dr, ok := h.displayRegion(r)
	if !ok || dr != models.DisplayRegionNI {
		http.NotFound(w, r)
		return
	}
	session, ok := h.requireStartSession(w, r, dr)
	if !ok {
		return
	}

	data := stepData(dr, "Choose your language")
	h.render(w, r, session, http.StatusOK, "start-ni-select-language", data)
}

// SelectLanguagePost records the chosen questionnaire language and
// launches.
func (h *Handler) SelectLanguagePost(w http.ResponseWriter, r *http.Request) {
	dr, ok := h.displayRegion(r)
	if !ok || dr != models.DisplayRegionNI {
		http.NotFound(w, r)
		return
	}
	session, ok := h.requireStartSession(w, r, dr)
	if !ok {
		return
	}

	language := r.PostFormValue("language-option")
	if !niLanguages[language] {
		data := stepData(dr, "Choose your language")
		h.flashAndRender(w, r, session,
			models.Message(models.MsgStartLanguageOption, dr.Locale()),
			"start-ni-select-language", data)
		return
	}

	session.Attributes.LanguageCode = language
	if !h.saveSession(w, r, session) {
		return
	}
	h.launchEQ(w, r, session, dr)
}

// StartTimeoutGet renders the session timeout page; reachable without a
// session by definition.
func (h *Handler) StartTimeoutGet(w http.ResponseWriter, r *http.Request) {
	dr, ok := h.displayRegion(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	data := stepData(dr, pageTitle(dr.Locale(),
		"Your session has timed out due to inactivity",
		"Mae eich sesiwn wedi cyrraedd y terfyn amser oherwydd anweithgarwch"))
	h.render(w, r, nil, http.StatusOK, "timeout", data)
}

// SaveAndExitGet ends the session and confirms progress was saved; EQ
// links here as its log-out destination.
func (h *Handler) SaveAndExitGet(w http.ResponseWriter, r *http.Request) {
	dr, ok := h.displayRegion(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if session, err := h.session(r); err == nil {
		if err := h.sessions.Delete(r.Context(), session.ID); err != nil {
			slog.Warn("failed to delete session", "error", err)
		}
	}

	data := stepData(dr, pageTitle(dr.Locale(),
		"Your progress has been saved",
		"Mae eich cynnydd wedi cael ei gadw"))
	h.render(w, r, nil, http.StatusOK, "save-and-exit", data)
}

// AddressInScotlandGet is the terminal page for addresses outside this
// service's jurisdiction.
func (h *Handler) AddressInScotlandGet(w http.ResponseWriter, r *http.Request) {
	dr, ok := h.displayRegion(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	data := stepData(dr, pageTitle(dr.Locale(),
		"This address is not part of the census for England and Wales",
		"Nid yw'r cyfeiriad hwn yn rhan o gyfrifiad Cymru a Lloegr"))
	h.render(w, r, nil, http.StatusOK, "address-in-scotland", data)
}

// CallContactCentreGet is the terminal page for respondents who cannot
// self-serve.
func (h *Handler) CallContactCentreGet(w http.ResponseWriter, r *http.Request) {
	dr, ok := h.displayRegion(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	data := stepData(dr, pageTitle(dr.Locale(),
		"You need to call the census customer contact centre",
		"Mae angen i chi ffonio canolfan gyswllt cwsmeriaid y cyfrifiad"))
	h.render(w, r, nil, http.StatusOK, "call-contact-centre", data)
}

// continueToLaunch inserts the NI language step before launch where it
// applies.
func (h *Handler) continueToLaunch(w http.ResponseWriter, r *http.Request, session *models.Session, dr models.DisplayRegion) {
	if dr == models.DisplayRegionNI {
		h.redirect(w, r, startPath(dr, "language-options/"))
		return
	}
	h.launchEQ(w, r, session, dr)
}

// launchEQ issues the signed launch token and hands the respondent to
// the questionnaire. Incomplete attributes route to timeout, matching
// the global missing-attribute policy.
func (h *Handler) launchEQ(w http.ResponseWriter, r *http.Request, session *models.Session, dr models.DisplayRegion) {
	launchURL, err := h.eqLaunch.LaunchURL(session.Attributes, dr)
	if err != nil {
		if errors.Is(err, services.ErrInvalidEQPayload) {
			slog.Warn("launch attempted with incomplete attributes", "error", err)
			h.redirect(w, r, startPath(dr, "timeout/"))
			return
		}
		h.serviceError(w, r, err)
		return
	}

	slog.Info("redirecting to eq", "case_id", session.Attributes.CaseID)
	h.redirect(w, r, launchURL)
}

// confirmAddressData builds the view data shared by both confirm
// address variants.
func (h *Handler) confirmAddressData(dr models.DisplayRegion, session *models.Session) map[string]any {
	data := stepData(dr, pageTitle(dr.Locale(),
		"Is this address correct?",
		"Ydy'r cyfeiriad hwn yn gywir?"))
	data["display_address"] = session.Attributes.DisplayAddress
	return data
}

// findCandidate locates a held candidate by UPRN.
func findCandidate(candidates []models.AddressCandidate, uprn string) (models.AddressCandidate, bool) {
	for _, c := range candidates {
		if c.UPRN == uprn {
			return c, true
		}
	}
	return models.AddressCandidate{}, false
}
