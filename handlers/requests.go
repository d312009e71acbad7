// ABOUTME: Request-a-code flow: address resolution, mobile capture, SMS dispatch
// ABOUTME: Covers household-code and individual-code journeys in en/cy/ni

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/censusops/respondent-home/models"
	"github.com/censusops/respondent-home/services"
)

// parseRequestsPath extracts and validates both path parameters for a
// request-a-code step.
func (h *Handler) parseRequestsPath(w http.ResponseWriter, r *http.Request) (models.DisplayRegion, models.RequestType, bool) {
	dr, ok := h.displayRegion(r)
	if !ok {
		http.NotFound(w, r)
		return "", "", false
	}
	rt, ok := h.requestType(r)
	if !ok {
		http.NotFound(w, r)
		return "", "", false
	}
	return dr, rt, true
}

// requestCodeTitle picks the entry page title per request type.
func requestCodeTitle(rt models.RequestType, locale models.Locale) string {
	if rt == models.RequestTypeIndividual {
		return pageTitle(locale,
			"Request an individual access code",
			"Gofyn am god mynediad unigryw")
	}
	return pageTitle(locale,
		"Request a new access code",
		"Gofyn am god mynediad newydd")
}

// RequestCodeGet renders the entry page for the request-a-code journey.
func (h *Handler) RequestCodeGet(w http.ResponseWriter, r *http.Request) {
	dr, rt, ok := h.parseRequestsPath(w, r)
	if !ok {
		return
	}

	data := stepData(dr, requestCodeTitle(rt, dr.Locale()))
	data["request_type"] = string(rt)
	data["page_url"] = "/requests/" + string(rt) + "/"

	session, _ := h.session(r)
	h.render(w, r, session, http.StatusOK, "request-"+string(rt), data)
}

// RequestEnterAddressGet renders the postcode entry step; it is the
// first step that accumulates state, so no session is required yet.
func (h *Handler) RequestEnterAddressGet(w http.ResponseWriter, r *http.Request) {
	dr, rt, ok := h.parseRequestsPath(w, r)
	if !ok {
		return
	}

	data := stepData(dr, pageTitle(dr.Locale(),
		"What is your postcode?",
		"Beth yw eich cod post?"))
	data["request_type"] = string(rt)

	session, _ := h.session(r)
	h.render(w, r, session, http.StatusOK, "request-code-enter-address", data)
}

// RequestEnterAddressPost validates the postcode, creating the session
// that carries the rest of the journey.
func (h *Handler) RequestEnterAddressPost(w http.ResponseWriter, r *http.Request) {
	dr, rt, ok := h.parseRequestsPath(w, r)
	if !ok {
		return
	}

	session, err := h.ensureSession(w, r)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	postcode, err := services.ValidatePostcode(r.PostFormValue("postcode"), dr.Locale())
	if err != nil {
		var invalid *services.InvalidDataError
		if errors.As(err, &invalid) {
			h.flashAndRedirect(w, r, session,
				models.NewFlashMessage(invalid.Message, "POSTCODE_ENTER_ERROR", "postcode"),
				requestsPath(dr, rt, "enter-address/"))
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
	h.redirect(w, r, requestsPath(dr, rt, "select-address/"))
}

// RequestSelectAddressGet renders the candidate list for the postcode.
func (h *Handler) RequestSelectAddressGet(w http.ResponseWriter, r *http.Request) {
	dr, rt, ok := h.parseRequestsPath(w, r)
	if !ok {
		return
	}
	session, ok := h.requireRequestsSession(w, r, dr, rt)
	if !ok {
		return
	}
	if session.Attributes.Postcode == "" {
		h.timeoutRequests(w, r, dr, rt)
		return
	}

	data := stepData(dr, pageTitle(dr.Locale(),
		"Select your address",
		"Dewiswch eich cyfeiriad"))
	data["request_type"] = string(rt)
	data["postcode"] = session.Attributes.Postcode
	data["addresses"] = session.Attributes.Candidates
	h.render(w, r, session, http.StatusOK, "request-code-select-address", data)
}

// RequestSelectAddressPost resolves the case registered at the chosen
// address.
func (h *Handler) RequestSelectAddressPost(w http.ResponseWriter, r *http.Request) {
	dr, rt, ok := h.parseRequestsPath(w, r)
	if !ok {
		return
	}
	session, ok := h.requireRequestsSession(w, r, dr, rt)
	if !ok {
		return
	}
	if session.Attributes.Postcode == "" {
		h.timeoutRequests(w, r, dr, rt)
		return
	}

	selected := r.PostFormValue("address-select")
	if selected == "" {
		h.flashAndRedirect(w, r, session,
			models.Message(models.MsgAddressSelectCheck, dr.Locale()),
			requestsPath(dr, rt, "select-address/"))
		return
	}
	if selected == models.NotListedUPRN {
		h.redirect(w, r, requestsPath(dr, rt, "address-not-found/"))
		return
	}

	candidate, found := findCandidate(session.Attributes.Candidates, selected)
	if !found {
		h.flashAndRedirect(w, r, session,
			models.Message(models.MsgAddressSelectCheck, dr.Locale()),
			requestsPath(dr, rt, "select-address/"))
		return
	}

	c, err := h.rhSvc.GetCaseByUPRN(r.Context(), candidate.UPRN)
	switch {
	case errors.Is(err, services.ErrNotFound):
		slog.Info("no case registered for address", "uprn", candidate.UPRN)
		h.redirect(w, r, requestsPath(dr, rt, "address-not-found/"))
		return
	case err != nil:
		h.serviceError(w, r, err)
		return
	}

	session.Attributes.MergeCase(c)
	session.Attributes.UPRN = candidate.UPRN
	session.Attributes.DisplayAddress = candidate.FormattedAddress
	if !h.saveSession(w, r, session) {
		return
	}
	h.redirect(w, r, requestsPath(dr, rt, "confirm-address/"))
}

// RequestConfirmAddressGet asks the respondent to confirm the resolved
// address before capturing contact details.
func (h *Handler) RequestConfirmAddressGet(w http.ResponseWriter, r *http.Request) {
	dr, rt, ok := h.parseRequestsPath(w, r)
	if !ok {
		return
	}
	session, ok := h.requireRequestsSession(w, r, dr, rt)
	if !ok {
		return
	}
	if !session.Attributes.HasCase() {
		h.timeoutRequests(w, r, dr, rt)
		return
	}

	h.render(w, r, session, http.StatusOK, "request-code-confirm-address",
		h.requestConfirmAddressData(dr, rt, session))
}

// RequestConfirmAddressPost routes confirmation forward to mobile
// capture or back to address entry.
func (h *Handler) RequestConfirmAddressPost(w http.ResponseWriter, r *http.Request) {
	dr, rt, ok := h.parseRequestsPath(w, r)
	if !ok {
		return
	}
	session, ok := h.requireRequestsSession(w, r, dr, rt)
	if !ok {
		return
	}
	if !session.Attributes.HasCase() {
		h.timeoutRequests(w, r, dr, rt)
		return
	}

	switch r.PostFormValue("address-confirmation") {
	case "yes":
		h.redirect(w, r, requestsPath(dr, rt, "enter-mobile/"))
	case "no":
		h.redirect(w, r, requestsPath(dr, rt, "enter-address/"))
	default:
		h.flashAndRender(w, r, session,
			models.Message(models.MsgAddressCheck, dr.Locale()),
			"request-code-confirm-address", h.requestConfirmAddressData(dr, rt, session))
	}
}

// enterMobileData builds the mobile entry view data.
func enterMobileData(dr models.DisplayRegion, rt models.RequestType) map[string]any {
	data := stepData(dr, pageTitle(dr.Locale(),
		"What is your mobile phone number?",
		"Beth yw eich rhif ffôn symudol?"))
	data["request_type"] = string(rt)
	return data
}

// RequestEnterMobileGet renders the mobile number entry step.
func (h *Handler) RequestEnterMobileGet(w http.ResponseWriter, r *http.Request) {
	dr, rt, ok := h.parseRequestsPath(w, r)
	if !ok {
		return
	}
	session, ok := h.requireRequestsSession(w, r, dr, rt)
	if !ok {
		return
	}
	if !session.Attributes.HasCase() {
		h.timeoutRequests(w, r, dr, rt)
		return
	}

	h.render(w, r, session, http.StatusOK, "request-code-enter-mobile", enterMobileData(dr, rt))
}

// RequestEnterMobilePost validates the mobile number. Failures flash
// and redirect back to this step; this step's policy is redirect-back,
// unlike confirm-mobile which re-renders in place.
func (h *Handler) RequestEnterMobilePost(w http.ResponseWriter, r *http.Request) {
	dr, rt, ok := h.parseRequestsPath(w, r)
	if !ok {
		return
	}
	session, ok := h.requireRequestsSession(w, r, dr, rt)
	if !ok {
		return
	}
	if !session.Attributes.HasCase() {
		h.timeoutRequests(w, r, dr, rt)
		return
	}

	mobile, err := services.ValidateUKMobileNumber(r.PostFormValue("request-mobile-number"), dr.Locale())
	if err != nil {
		var invalid *services.InvalidDataError
		if errors.As(err, &invalid) {
			slog.Info("invalid mobile number", "client_ip", r.RemoteAddr)
			h.flashAndRedirect(w, r, session,
				models.NewFlashMessage(invalid.Message, "MOBILE_ENTER_ERROR", "mobile"),
				requestsPath(dr, rt, "enter-mobile/"))
			return
		}
		h.serviceError(w, r, err)
		return
	}
	slog.Info("valid mobile number", "client_ip", r.RemoteAddr)

	session.Attributes.MobileNumber = mobile
	if !h.saveSession(w, r, session) {
		return
	}
	h.redirect(w, r, requestsPath(dr, rt, "confirm-mobile/"))
}

// confirmMobileData builds the mobile confirmation view data.
func confirmMobileData(dr models.DisplayRegion, rt models.RequestType, session *models.Session) map[string]any {
	data := stepData(dr, pageTitle(dr.Locale(),
		"Is this mobile phone number correct?",
		"Ydy'r rhif ffôn symudol hwn yn gywir?"))
	data["request_type"] = string(rt)
	data["mobile_number"] = session.Attributes.MobileNumber
	return data
}

// RequestConfirmMobileGet renders the mobile confirmation step.
func (h *Handler) RequestConfirmMobileGet(w http.ResponseWriter, r *http.Request) {
	dr, rt, ok := h.parseRequestsPath(w, r)
	if !ok {
		return
	}
	session, ok := h.requireRequestsSession(w, r, dr, rt)
	if !ok {
		return
	}
	if !session.Attributes.HasCase() || session.Attributes.MobileNumber == "" {
		h.timeoutRequests(w, r, dr, rt)
		return
	}

	h.render(w, r, session, http.StatusOK, "request-code-confirm-mobile",
		confirmMobileData(dr, rt, session))
}

// RequestConfirmMobilePost dispatches the SMS fulfilment on a confirmed
// number. Unrecognised confirmation values re-render in place with a
// flash, per this step's policy.
func (h *Handler) RequestConfirmMobilePost(w http.ResponseWriter, r *http.Request) {
	dr, rt, ok := h.parseRequestsPath(w, r)
	if !ok {
		return
	}
	session, ok := h.requireRequestsSession(w, r, dr, rt)
	if !ok {
		return
	}
	attrs := &session.Attributes
	if !attrs.HasCase() || attrs.MobileNumber == "" {
		h.timeoutRequests(w, r, dr, rt)
		return
	}

	switch r.PostFormValue("request-mobile-confirmation") {
	case "yes":
		h.dispatchSMSFulfilment(w, r, session, dr, rt)
	case "no":
		h.redirect(w, r, requestsPath(dr, rt, "enter-mobile/"))
	default:
		slog.Info("mobile confirmation error", "client_ip", r.RemoteAddr)
		h.flashAndRender(w, r, session,
			models.Message(models.MsgMobileCheck, dr.Locale()),
			"request-code-confirm-mobile", confirmMobileData(dr, rt, session))
	}
}

// dispatchSMSFulfilment selects the fulfilment product for the case and
// requested language and triggers the SMS send.
func (h *Handler) dispatchSMSFulfilment(w http.ResponseWriter, r *http.Request, session *models.Session, dr models.DisplayRegion, rt models.RequestType) {
	attrs := &session.Attributes

	language := models.FulfilmentLanguageEnglish
	if dr == models.DisplayRegionWelsh {
		language = models.FulfilmentLanguageWelsh
	}

	options, err := h.rhSvc.GetFulfilments(r.Context(),
		models.CaseTypeHousehold, attrs.Region, "SMS", "UAC", rt.Individual())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	code, err := services.SelectFulfilmentCode(options, language)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	attrs.FulfilmentCode = code
	if !h.saveSession(w, r, session) {
		return
	}

	err = h.rhSvc.RequestSMSFulfilment(r.Context(), models.FulfilmentRequest{
		CaseID:         attrs.CaseID,
		TelNo:          attrs.MobileNumber,
		FulfilmentCode: code,
		DateTime:       time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	slog.Info("fulfilment dispatched", "case_id", attrs.CaseID, "fulfilment_code", code)
	h.redirect(w, r, requestsPath(dr, rt, "code-sent/"))
}

// RequestCodeSentGet confirms the SMS was dispatched.
func (h *Handler) RequestCodeSentGet(w http.ResponseWriter, r *http.Request) {
	dr, rt, ok := h.parseRequestsPath(w, r)
	if !ok {
		return
	}
	session, ok := h.requireRequestsSession(w, r, dr, rt)
	if !ok {
		return
	}
	if !session.Attributes.HasCase() || session.Attributes.MobileNumber == "" {
		h.timeoutRequests(w, r, dr, rt)
		return
	}

	data := stepData(dr, pageTitle(dr.Locale(),
		"We have sent an access code",
		"Rydym ni wedi anfon cod mynediad"))
	data["request_type"] = string(rt)
	data["mobile_number"] = session.Attributes.MobileNumber
	h.render(w, r, session, http.StatusOK, "request-code-code-sent", data)
}

// RequestTimeoutGet renders the request-a-code session timeout page.
func (h *Handler) RequestTimeoutGet(w http.ResponseWriter, r *http.Request) {
	dr, rt, ok := h.parseRequestsPath(w, r)
	if !ok {
		return
	}

	data := stepData(dr, pageTitle(dr.Locale(),
		"Your session has timed out due to inactivity",
		"Mae eich sesiwn wedi cyrraedd y terfyn amser oherwydd anweithgarwch"))
	data["request_type"] = string(rt)
	h.render(w, r, nil, http.StatusOK, "timeout", data)
}

// RequestAddressNotFoundGet is the terminal page when no case exists
// for the chosen address.
func (h *Handler) RequestAddressNotFoundGet(w http.ResponseWriter, r *http.Request) {
	dr, rt, ok := h.parseRequestsPath(w, r)
	if !ok {
		return
	}

	data := stepData(dr, pageTitle(dr.Locale(),
		"We cannot find your address",
		"Ni allwn ddod o hyd i'ch cyfeiriad"))
	data["request_type"] = string(rt)
	h.render(w, r, nil, http.StatusOK, "request-code-address-not-found", data)
}

// requestConfirmAddressData builds the confirm-address view data for
// the request-a-code flow.
func (h *Handler) requestConfirmAddressData(dr models.DisplayRegion, rt models.RequestType, session *models.Session) map[string]any {
	data := stepData(dr, pageTitle(dr.Locale(),
		"Is this address correct?",
		"Ydy'r cyfeiriad hwn yn gywir?"))
	data["request_type"] = string(rt)
	data["display_address"] = session.Attributes.DisplayAddress
	return data
}
