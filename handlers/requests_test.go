// ABOUTME: End-to-end tests for the request-a-code flow through SMS dispatch
// ABOUTME: Covers address resolution, mobile validation, and language selection

package handlers

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/censusops/respondent-home/models"
)

func householdCaseAt(uprn string) models.Case {
	return models.Case{
		CaseID:          "dc4477d1-dd3f-4c69-b181-7ff725dc9fa4",
		CaseRef:         "10000000010",
		CaseType:        models.CaseTypeHousehold,
		Region:          models.RegionEngland,
		Active:          true,
		QuestionnaireID: "100000000101",
		UPRN:            uprn,
		AddressLine1:    "1 Gate Reach",
		TownName:        "Exeter",
		Postcode:        "EX2 6GA",
	}
}

func requestsBackend(t *testing.T) *fakeBackend {
	backend := newFakeBackend(t)
	backend.addresses["EX2 6GA"] = []models.AddressCandidate{
		{UPRN: "10023122451", FormattedAddress: "1 Gate Reach, Exeter, EX2 6GA", Region: models.RegionEngland},
	}
	backend.uprnCases["10023122451"] = householdCaseAt("10023122451")
	backend.fulfilments = []models.FulfilmentOption{
		{FulfilmentCode: "UAC_HH_EN", Language: models.FulfilmentLanguageEnglish},
		{FulfilmentCode: "UAC_HH_CY", Language: models.FulfilmentLanguageWelsh},
	}
	return backend
}

// walkToEnterMobile drives a fresh client through the address steps of
// the request-a-code journey.
func walkToEnterMobile(t *testing.T, client *http.Client, base, dr, rt string) {
	t.Helper()
	prefix := base + "/" + dr + "/requests/" + rt

	resp := postForm(t, client, prefix+"/enter-address/", url.Values{"postcode": {"ex26ga"}})
	assertRedirect(t, resp, "/"+dr+"/requests/"+rt+"/select-address/")

	resp = postForm(t, client, prefix+"/select-address/", url.Values{"address-select": {"10023122451"}})
	assertRedirect(t, resp, "/"+dr+"/requests/"+rt+"/confirm-address/")

	resp = postForm(t, client, prefix+"/confirm-address/", url.Values{"address-confirmation": {"yes"}})
	assertRedirect(t, resp, "/"+dr+"/requests/"+rt+"/enter-mobile/")
}

func TestRequestCodeGet(t *testing.T) {
	frontend, client := newTestApp(t, newFakeBackend(t))

	resp := get(t, client, frontend.URL+"/en/requests/household-code/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["page"] != "request-household-code" {
		t.Errorf("page = %v", body["page"])
	}
	if body["request_type"] != "household-code" {
		t.Errorf("request_type = %v", body["request_type"])
	}
}

func TestRequestCodeUnknownType(t *testing.T) {
	frontend, client := newTestApp(t, newFakeBackend(t))

	resp := get(t, client, frontend.URL+"/en/requests/paper-form/")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestRequestCodeJourneyDispatchesSMS(t *testing.T) {
	backend := requestsBackend(t)
	frontend, client := newTestApp(t, backend)

	walkToEnterMobile(t, client, frontend.URL, "en", "household-code")

	resp := postForm(t, client, frontend.URL+"/en/requests/household-code/enter-mobile/",
		url.Values{"request-mobile-number": {"07012 345 678"}})
	assertRedirect(t, resp, "/en/requests/household-code/confirm-mobile/")

	confirm := get(t, client, frontend.URL+"/en/requests/household-code/confirm-mobile/")
	body := decodeBody(t, confirm)
	if body["mobile_number"] != "+447012345678" {
		t.Errorf("mobile_number = %v, want normalized +447012345678", body["mobile_number"])
	}

	resp = postForm(t, client, frontend.URL+"/en/requests/household-code/confirm-mobile/",
		url.Values{"request-mobile-confirmation": {"yes"}})
	assertRedirect(t, resp, "/en/requests/household-code/code-sent/")

	backend.mu.Lock()
	query := backend.fulfilmentQuery
	smsBodies := append([]models.FulfilmentRequest(nil), backend.smsBodies...)
	backend.mu.Unlock()

	wantQuery := map[string]string{
		"caseType":        "HH",
		"region":          "E",
		"deliveryChannel": "SMS",
		"productGroup":    "UAC",
		"individual":      "false",
	}
	for k, v := range wantQuery {
		if query.Get(k) != v {
			t.Errorf("fulfilment query %s = %q, want %q", k, query.Get(k), v)
		}
	}

	if len(smsBodies) != 1 {
		t.Fatalf("SMS dispatched %d times, want 1", len(smsBodies))
	}
	sms := smsBodies[0]
	if sms.CaseID != "dc4477d1-dd3f-4c69-b181-7ff725dc9fa4" {
		t.Errorf("caseId = %q", sms.CaseID)
	}
	if sms.TelNo != "+447012345678" {
		t.Errorf("telNo = %q, want +447012345678", sms.TelNo)
	}
	if sms.FulfilmentCode != "UAC_HH_EN" {
		t.Errorf("fulfilmentCode = %q, want UAC_HH_EN", sms.FulfilmentCode)
	}
	if _, err := time.Parse(time.RFC3339, sms.DateTime); err != nil {
		t.Errorf("dateTime %q is not RFC 3339: %v", sms.DateTime, err)
	}

	sent := get(t, client, frontend.URL+"/en/requests/household-code/code-sent/")
	if sent.StatusCode != http.StatusOK {
		t.Fatalf("code-sent status = %d, want 200", sent.StatusCode)
	}
	sentBody := decodeBody(t, sent)
	if sentBody["mobile_number"] != "+447012345678" {
		t.Errorf("code-sent mobile_number = %v", sentBody["mobile_number"])
	}
}

func TestRequestCodeWelshJourneyPicksWelshFulfilment(t *testing.T) {
	backend := requestsBackend(t)
	frontend, client := newTestApp(t, backend)

	walkToEnterMobile(t, client, frontend.URL, "cy", "household-code")

	postForm(t, client, frontend.URL+"/cy/requests/household-code/enter-mobile/",
		url.Values{"request-mobile-number": {"07012345678"}})
	resp := postForm(t, client, frontend.URL+"/cy/requests/household-code/confirm-mobile/",
		url.Values{"request-mobile-confirmation": {"yes"}})
	assertRedirect(t, resp, "/cy/requests/household-code/code-sent/")

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.smsBodies) != 1 {
		t.Fatalf("SMS dispatched %d times, want 1", len(backend.smsBodies))
	}
	if got := backend.smsBodies[0].FulfilmentCode; got != "UAC_HH_CY" {
		t.Errorf("fulfilmentCode = %q, want UAC_HH_CY", got)
	}
}

func TestRequestCodeIndividualJourney(t *testing.T) {
	backend := requestsBackend(t)
	frontend, client := newTestApp(t, backend)

	walkToEnterMobile(t, client, frontend.URL, "en", "individual-code")

	postForm(t, client, frontend.URL+"/en/requests/individual-code/enter-mobile/",
		url.Values{"request-mobile-number": {"07012345678"}})
	resp := postForm(t, client, frontend.URL+"/en/requests/individual-code/confirm-mobile/",
		url.Values{"request-mobile-confirmation": {"yes"}})
	assertRedirect(t, resp, "/en/requests/individual-code/code-sent/")

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if got := backend.fulfilmentQuery.Get("individual"); got != "true" {
		t.Errorf("fulfilment query individual = %q, want true", got)
	}
}

func TestRequestEnterMobileInvalidFlashesBack(t *testing.T) {
	backend := requestsBackend(t)
	frontend, client := newTestApp(t, backend)

	walkToEnterMobile(t, client, frontend.URL, "en", "household-code")

	resp := postForm(t, client, frontend.URL+"/en/requests/household-code/enter-mobile/",
		url.Values{"request-mobile-number": {"01632 960000"}})
	assertRedirect(t, resp, "/en/requests/household-code/enter-mobile/")

	rendered := get(t, client, frontend.URL+"/en/requests/household-code/enter-mobile/")
	types := flashTypes(decodeBody(t, rendered))
	if len(types) != 1 || types[0] != "MOBILE_ENTER_ERROR" {
		t.Fatalf("flash types = %v, want [MOBILE_ENTER_ERROR]", types)
	}

	again := get(t, client, frontend.URL+"/en/requests/household-code/enter-mobile/")
	if types := flashTypes(decodeBody(t, again)); len(types) != 0 {
		t.Errorf("second render still carries flash: %v", types)
	}
}

func TestRequestConfirmMobileRejectReturnsToEntry(t *testing.T) {
	backend := requestsBackend(t)
	frontend, client := newTestApp(t, backend)

	walkToEnterMobile(t, client, frontend.URL, "en", "household-code")
	postForm(t, client, frontend.URL+"/en/requests/household-code/enter-mobile/",
		url.Values{"request-mobile-number": {"07012345678"}})

	resp := postForm(t, client, frontend.URL+"/en/requests/household-code/confirm-mobile/",
		url.Values{"request-mobile-confirmation": {"no"}})
	assertRedirect(t, resp, "/en/requests/household-code/enter-mobile/")

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.smsBodies) != 0 {
		t.Errorf("SMS dispatched on a rejected number")
	}
}

func TestRequestConfirmMobileNoSelectionRendersInPlace(t *testing.T) {
	backend := requestsBackend(t)
	frontend, client := newTestApp(t, backend)

	walkToEnterMobile(t, client, frontend.URL, "en", "household-code")
	postForm(t, client, frontend.URL+"/en/requests/household-code/enter-mobile/",
		url.Values{"request-mobile-number": {"07012345678"}})

	resp := postForm(t, client, frontend.URL+"/en/requests/household-code/confirm-mobile/", url.Values{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 re-render", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["page"] != "request-code-confirm-mobile" {
		t.Errorf("page = %v", body["page"])
	}
	types := flashTypes(body)
	if len(types) != 1 || types[0] != "MOBILE_CONFIRMATION_ERROR" {
		t.Errorf("flash types = %v, want [MOBILE_CONFIRMATION_ERROR]", types)
	}
}

func TestRequestSelectAddressNoRegisteredCase(t *testing.T) {
	backend := newFakeBackend(t)
	backend.addresses["EX2 6GA"] = []models.AddressCandidate{
		{UPRN: "10023122499", FormattedAddress: "99 Gate Reach, Exeter, EX2 6GA", Region: models.RegionEngland},
	}
	frontend, client := newTestApp(t, backend)

	postForm(t, client, frontend.URL+"/en/requests/household-code/enter-address/",
		url.Values{"postcode": {"ex26ga"}})

	resp := postForm(t, client, frontend.URL+"/en/requests/household-code/select-address/",
		url.Values{"address-select": {"10023122499"}})
	assertRedirect(t, resp, "/en/requests/household-code/address-not-found/")

	terminal := get(t, client, frontend.URL+"/en/requests/household-code/address-not-found/")
	if terminal.StatusCode != http.StatusOK {
		t.Errorf("terminal status = %d, want 200", terminal.StatusCode)
	}
}

func TestRequestConfirmAddressRejectReturnsToEntry(t *testing.T) {
	backend := requestsBackend(t)
	frontend, client := newTestApp(t, backend)

	prefix := frontend.URL + "/en/requests/household-code"
	postForm(t, client, prefix+"/enter-address/", url.Values{"postcode": {"ex26ga"}})
	postForm(t, client, prefix+"/select-address/", url.Values{"address-select": {"10023122451"}})

	resp := postForm(t, client, prefix+"/confirm-address/",
		url.Values{"address-confirmation": {"no"}})
	assertRedirect(t, resp, "/en/requests/household-code/enter-address/")
}

func TestRequestsMidFlowStepsTimeOutWithoutSession(t *testing.T) {
	frontend, client := newTestApp(t, newFakeBackend(t))

	steps := []string{
		"/en/requests/household-code/select-address/",
		"/en/requests/household-code/confirm-address/",
		"/en/requests/household-code/enter-mobile/",
		"/en/requests/household-code/confirm-mobile/",
		"/en/requests/household-code/code-sent/",
	}
	for _, step := range steps {
		resp := get(t, client, frontend.URL+step)
		assertRedirect(t, resp, "/en/requests/household-code/timeout/")
	}

	timeout := get(t, client, frontend.URL+"/en/requests/household-code/timeout/")
	if timeout.StatusCode != http.StatusOK {
		t.Errorf("timeout page status = %d, want 200", timeout.StatusCode)
	}
}

func TestRequestConfirmMobileWithoutNumberTimesOut(t *testing.T) {
	backend := requestsBackend(t)
	frontend, client := newTestApp(t, backend)

	walkToEnterMobile(t, client, frontend.URL, "en", "household-code")

	resp := get(t, client, frontend.URL+"/en/requests/household-code/confirm-mobile/")
	assertRedirect(t, resp, "/en/requests/household-code/timeout/")
}
