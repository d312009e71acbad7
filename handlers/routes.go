// ABOUTME: Declarative route table for every workflow step
// ABOUTME: Patterns use Go 1.22 ServeMux wildcards for region and request type

package handlers

import (
	"net/http"

	"github.com/censusops/respondent-home/middleware"
)

// Route defines one endpoint with its HTTP method and handler.
type Route struct {
	Method  string           // HTTP method (GET, POST)
	Pattern string           // ServeMux pattern with path wildcards
	Handler http.HandlerFunc // Handler function
}

// Routes returns every route for registration. Path values
// {displayRegion} and {requestType} are validated inside the handlers
// against their closed sets.
func (h *Handler) Routes() []Route {
	return []Route{
		// Ops
		{Method: http.MethodGet, Pattern: "/info", Handler: h.Info},

		// Start flow
		{Method: http.MethodGet, Pattern: "/{displayRegion}/start/{$}", Handler: h.StartGet},
		{Method: http.MethodPost, Pattern: "/{displayRegion}/start/{$}", Handler: h.StartPost},
		{Method: http.MethodGet, Pattern: "/{displayRegion}/start/unlinked/enter-address/{$}", Handler: h.UnlinkedEnterAddressGet},
		{Method: http.MethodPost, Pattern: "/{displayRegion}/start/unlinked/enter-address/{$}", Handler: h.UnlinkedEnterAddressPost},
		{Method: http.MethodGet, Pattern: "/{displayRegion}/start/unlinked/select-address/{$}", Handler: h.UnlinkedSelectAddressGet},
		{Method: http.MethodPost, Pattern: "/{displayRegion}/start/unlinked/select-address/{$}", Handler: h.UnlinkedSelectAddressPost},
		{Method: http.MethodGet, Pattern: "/{displayRegion}/start/unlinked/confirm-address/{$}", Handler: h.UnlinkedConfirmAddressGet},
		{Method: http.MethodPost, Pattern: "/{displayRegion}/start/unlinked/confirm-address/{$}", Handler: h.UnlinkedConfirmAddressPost},
		{Method: http.MethodGet, Pattern: "/{displayRegion}/start/unlinked/address-has-been-linked/{$}", Handler: h.UnlinkedAddressLinkedGet},
		{Method: http.MethodPost, Pattern: "/{displayRegion}/start/unlinked/address-has-been-linked/{$}", Handler: h.UnlinkedAddressLinkedPost},
		{Method: http.MethodGet, Pattern: "/{displayRegion}/start/confirm-address/{$}", Handler: h.ConfirmAddressGet},
		{Method: http.MethodPost, Pattern: "/{displayRegion}/start/confirm-address/{$}", Handler: h.ConfirmAddressPost},
		{Method: http.MethodGet, Pattern: "/{displayRegion}/start/language-options/{$}", Handler: h.LanguageOptionsGet},
		{Method: http.MethodPost, Pattern: "/{displayRegion}/start/language-options/{$}", Handler: h.LanguageOptionsPost},
		{Method: http.MethodGet, Pattern: "/{displayRegion}/start/select-language/{$}", Handler: h.SelectLanguageGet},
		{Method: http.MethodPost, Pattern: "/{displayRegion}/start/select-language/{$}", Handler: h.SelectLanguagePost},
		{Method: http.MethodGet, Pattern: "/{displayRegion}/start/save-and-exit/{$}", Handler: h.SaveAndExitGet},
		{Method: http.MethodGet, Pattern: "/{displayRegion}/start/timeout/{$}", Handler: h.StartTimeoutGet},
		{Method: http.MethodGet, Pattern: "/{displayRegion}/start/address-in-scotland/{$}", Handler: h.AddressInScotlandGet},
		{Method: http.MethodGet, Pattern: "/{displayRegion}/start/call-contact-centre/{$}", Handler: h.CallContactCentreGet},

		// Request-a-code flow
		{Method: http.MethodGet, Pattern: "/{displayRegion}/requests/{requestType}/{$}", Handler: h.RequestCodeGet},
		{Method: http.MethodGet, Pattern: "/{displayRegion}/requests/{requestType}/enter-address/{$}", Handler: h.RequestEnterAddressGet},
		{Method: http.MethodPost, Pattern: "/{displayRegion}/requests/{requestType}/enter-address/{$}", Handler: h.RequestEnterAddressPost},
		{Method: http.MethodGet, Pattern: "/{displayRegion}/requests/{requestType}/select-address/{$}", Handler: h.RequestSelectAddressGet},
		{Method: http.MethodPost, Pattern: "/{displayRegion}/requests/{requestType}/select-address/{$}", Handler: h.RequestSelectAddressPost},
		{Method: http.MethodGet, Pattern: "/{displayRegion}/requests/{requestType}/confirm-address/{$}", Handler: h.RequestConfirmAddressGet},
		{Method: http.MethodPost, Pattern: "/{displayRegion}/requests/{requestType}/confirm-address/{$}", Handler: h.RequestConfirmAddressPost},
		{Method: http.MethodGet, Pattern: "/{displayRegion}/requests/{requestType}/enter-mobile/{$}", Handler: h.RequestEnterMobileGet},
		{Method: http.MethodPost, Pattern: "/{displayRegion}/requests/{requestType}/enter-mobile/{$}", Handler: h.RequestEnterMobilePost},
		{Method: http.MethodGet, Pattern: "/{displayRegion}/requests/{requestType}/confirm-mobile/{$}", Handler: h.RequestConfirmMobileGet},
		{Method: http.MethodPost, Pattern: "/{displayRegion}/requests/{requestType}/confirm-mobile/{$}", Handler: h.RequestConfirmMobilePost},
		{Method: http.MethodGet, Pattern: "/{displayRegion}/requests/{requestType}/code-sent/{$}", Handler: h.RequestCodeSentGet},
		{Method: http.MethodGet, Pattern: "/{displayRegion}/requests/{requestType}/timeout/{$}", Handler: h.RequestTimeoutGet},
		{Method: http.MethodGet, Pattern: "/{displayRegion}/requests/{requestType}/address-not-found/{$}", Handler: h.RequestAddressNotFoundGet},
	}
}

// Mux registers every route on a fresh ServeMux, wrapping each handler
// with the supplied middleware (first is outermost).
func (h *Handler) Mux(middlewares ...func(http.HandlerFunc) http.HandlerFunc) *http.ServeMux {
	mux := http.NewServeMux()
	for _, route := range h.Routes() {
		mux.HandleFunc(route.Method+" "+route.Pattern, middleware.Chain(route.Handler, middlewares...))
	}
	return mux
}
