// ABOUTME: Tests for the case service gateway against a fake HTTP backend
// ABOUTME: Asserts auth headers, payload shapes, and typed error mapping

package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/censusops/respondent-home/models"
)

const testUAC = "w4nwwpphjjptp7fn"

func uacHashFor(uac string) string {
	sum := sha256.Sum256([]byte(uac))
	return hex.EncodeToString(sum[:])
}

func activeCase() models.Case {
	return models.Case{
		CaseID:               "dc4477d1-dd3f-4c69-b181-7ff725dc9fa4",
		CaseRef:              "10000000010",
		CaseType:             models.CaseTypeHousehold,
		Region:               models.RegionEngland,
		Active:               true,
		QuestionnaireID:      "100000000101",
		CollectionExerciseID: "a66de4dc-3c3b-11e9-b210-d663bd873d93",
		UPRN:                 "10023122451",
		AddressLine1:         "1 Gate Reach",
		TownName:             "Exeter",
		Postcode:             "EX2 6GA",
	}
}

func TestGetUACClaim(t *testing.T) {
	wantHash := uacHashFor(testUAC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "rh-user" || pass != "rh-pass" {
			t.Errorf("missing or wrong basic auth: %q/%q", user, pass)
		}
		if got := r.Header.Get("X-Request-ID"); got != "req-123" {
			t.Errorf("X-Request-ID = %q, want req-123", got)
		}
		if r.URL.Path != "/uacs/"+wantHash {
			t.Errorf("path = %q, want /uacs/%s", r.URL.Path, wantHash)
		}
		json.NewEncoder(w).Encode(activeCase())
	}))
	defer server.Close()

	svc := NewRHService(server.URL, "rh-user", "rh-pass")
	ctx := WithRequestID(context.Background(), "req-123")

	c, err := svc.GetUACClaim(ctx, testUAC)
	if err != nil {
		t.Fatalf("GetUACClaim failed: %v", err)
	}
	if c.CaseID != "dc4477d1-dd3f-4c69-b181-7ff725dc9fa4" {
		t.Errorf("CaseID = %q", c.CaseID)
	}
	if !c.Linked() {
		t.Error("case with UPRN reported unlinked")
	}
}

func TestGetUACClaimUnknownCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	svc := NewRHService(server.URL, "", "")
	if _, err := svc.GetUACClaim(context.Background(), testUAC); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("error = %v, want ErrInvalidCode", err)
	}
}

func TestGetUACClaimInactiveCase(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := activeCase()
		c.Active = false
		json.NewEncoder(w).Encode(c)
	}))
	defer server.Close()

	svc := NewRHService(server.URL, "", "")
	if _, err := svc.GetUACClaim(context.Background(), testUAC); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("error = %v, want ErrInvalidCode", err)
	}
}

func TestGetUACClaimServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewRHService(server.URL, "", "")
	if _, err := svc.GetUACClaim(context.Background(), testUAC); !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("error = %v, want ErrServiceUnavailable", err)
	}
}

func TestLinkAddress(t *testing.T) {
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/uacs/abc123/link" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("body does not decode: %v", err)
		}
		json.NewEncoder(w).Encode(activeCase())
	}))
	defer server.Close()

	svc := NewRHService(server.URL, "", "")
	c, err := svc.LinkAddress(context.Background(), "abc123", models.AddressCandidate{
		UPRN:             "10023122451",
		FormattedAddress: "1 Gate Reach, Exeter, EX2 6GA",
		Region:           models.RegionEngland,
	})
	if err != nil {
		t.Fatalf("LinkAddress failed: %v", err)
	}
	if c.CaseRef != "10000000010" {
		t.Errorf("CaseRef = %q", c.CaseRef)
	}

	want := map[string]string{
		"uprn":             "10023122451",
		"formattedAddress": "1 Gate Reach, Exeter, EX2 6GA",
		"region":           "E",
	}
	for k, v := range want {
		if gotBody[k] != v {
			t.Errorf("body[%s] = %q, want %q", k, gotBody[k], v)
		}
	}
}

func TestGetFulfilments(t *testing.T) {
	var gotQuery url.Values

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fulfilments" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode([]models.FulfilmentOption{
			{FulfilmentCode: "UAC_HH_EN", Language: models.FulfilmentLanguageEnglish},
			{FulfilmentCode: "UAC_HH_CY", Language: models.FulfilmentLanguageWelsh},
		})
	}))
	defer server.Close()

	svc := NewRHService(server.URL, "", "")
	options, err := svc.GetFulfilments(context.Background(), models.CaseTypeHousehold, models.RegionWales, "SMS", "UAC", true)
	if err != nil {
		t.Fatalf("GetFulfilments failed: %v", err)
	}
	if len(options) != 2 {
		t.Fatalf("got %d options, want 2", len(options))
	}

	wantQuery := map[string]string{
		"caseType":        "HH",
		"region":          "W",
		"deliveryChannel": "SMS",
		"productGroup":    "UAC",
		"individual":      "true",
	}
	for k, v := range wantQuery {
		if gotQuery.Get(k) != v {
			t.Errorf("query %s = %q, want %q", k, gotQuery.Get(k), v)
		}
	}
}

func TestRequestSMSFulfilment(t *testing.T) {
	var gotBody models.FulfilmentRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cases/dc4477d1-dd3f-4c69-b181-7ff725dc9fa4/fulfilments/sms" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("body does not decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewRHService(server.URL, "", "")
	req := models.FulfilmentRequest{
		CaseID:         "dc4477d1-dd3f-4c69-b181-7ff725dc9fa4",
		TelNo:          "+447012345678",
		FulfilmentCode: "UAC_HH_EN",
		DateTime:       time.Now().UTC().Format(time.RFC3339),
	}
	if err := svc.RequestSMSFulfilment(context.Background(), req); err != nil {
		t.Fatalf("RequestSMSFulfilment failed: %v", err)
	}
	if gotBody != req {
		t.Errorf("dispatched body = %+v, want %+v", gotBody, req)
	}
}

func TestRequestSMSFulfilmentValidatesBeforeSending(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	svc := NewRHService(server.URL, "", "")

	tests := []struct {
		name string
		req  models.FulfilmentRequest
	}{
		{name: "bad case id", req: models.FulfilmentRequest{CaseID: "not-a-uuid", TelNo: "+447012345678", FulfilmentCode: "X", DateTime: "2026-09-01T10:00:00Z"}},
		{name: "bad tel no", req: models.FulfilmentRequest{CaseID: "dc4477d1-dd3f-4c69-b181-7ff725dc9fa4", TelNo: "07012", FulfilmentCode: "X", DateTime: "2026-09-01T10:00:00Z"}},
		{name: "no fulfilment code", req: models.FulfilmentRequest{CaseID: "dc4477d1-dd3f-4c69-b181-7ff725dc9fa4", TelNo: "+447012345678", DateTime: "2026-09-01T10:00:00Z"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.RequestSMSFulfilment(context.Background(), tt.req); !errors.Is(err, ErrBadRequest) {
				t.Errorf("error = %v, want ErrBadRequest", err)
			}
		})
	}
	if called {
		t.Error("invalid payload reached the backend")
	}
}

func TestGetCaseByUPRNNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	svc := NewRHService(server.URL, "", "")
	if _, err := svc.GetCaseByUPRN(context.Background(), "999"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
