// ABOUTME: Shared handler state and helpers for all workflow steps
// ABOUTME: Session plumbing, flash draining, timeout routing, rendering

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/censusops/respondent-home/config"
	"github.com/censusops/respondent-home/models"
	"github.com/censusops/respondent-home/services"
)

// Handler carries the configuration and services every workflow step
// needs. Handlers hold no per-request state; everything accumulated
// lives in the session store.
type Handler struct {
	cfg          *config.Config
	sessions     *services.SessionService
	rhSvc        *services.RHService
	addressIndex *services.AddressIndex
	eqLaunch     *services.EQLaunchService
	renderer     Renderer
}

func NewHandler(cfg *config.Config, sessions *services.SessionService, rhSvc *services.RHService, addressIndex *services.AddressIndex, eqLaunch *services.EQLaunchService, renderer Renderer) *Handler {
	if renderer == nil {
		renderer = JSONRenderer{}
	}
	return &Handler{
		cfg:          cfg,
		sessions:     sessions,
		rhSvc:        rhSvc,
		addressIndex: addressIndex,
		eqLaunch:     eqLaunch,
		renderer:     renderer,
	}
}

// Info reports service liveness and the configured collaborators.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "info", map[string]any{
		"status":        "ok",
		"session_store": h.sessionStoreKind(),
	})
}

func (h *Handler) sessionStoreKind() string {
	if h.cfg != nil && h.cfg.RedisConfigured() {
		return "redis"
	}
	return "memory"
}

// displayRegion parses the {displayRegion} path value.
func (h *Handler) displayRegion(r *http.Request) (models.DisplayRegion, bool) {
	return models.ParseDisplayRegion(r.PathValue("displayRegion"))
}

// requestType parses the {requestType} path value.
func (h *Handler) requestType(r *http.Request) (models.RequestType, bool) {
	return models.ParseRequestType(r.PathValue("requestType"))
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, location string) {
	http.Redirect(w, r, location, http.StatusFound)
}

func startPath(dr models.DisplayRegion, step string) string {
	return "/" + string(dr) + "/start/" + step
}

func requestsPath(dr models.DisplayRegion, rt models.RequestType, step string) string {
	return "/" + string(dr) + "/requests/" + string(rt) + "/" + step
}

// session returns the live session for the request's cookie, or
// ErrSessionNotFound when the cookie is absent or the session expired.
func (h *Handler) session(r *http.Request) (*models.Session, error) {
	cookie, err := r.Cookie(services.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, services.ErrSessionNotFound
	}
	return h.sessions.Get(r.Context(), cookie.Value)
}

// ensureSession returns the request's session, creating one (and
// setting the cookie) if none exists yet.
func (h *Handler) ensureSession(w http.ResponseWriter, r *http.Request) (*models.Session, error) {
	session, err := h.session(r)
	if err == nil {
		return session, nil
	}

	session, err = h.sessions.Create(r.Context())
	if err != nil {
		return nil, err
	}
	h.setSessionCookie(w, session.ID)
	return session, nil
}

// requireStartSession fetches the session for a mid-flow start step.
// A missing session or missing case attributes routes to the start
// timeout page, never an error response.
func (h *Handler) requireStartSession(w http.ResponseWriter, r *http.Request, dr models.DisplayRegion) (*models.Session, bool) {
	session, err := h.session(r)
	if err != nil || !session.Attributes.HasCase() {
		slog.Info("session timed out", "client_ip", r.RemoteAddr, "path", r.URL.Path)
		h.redirect(w, r, startPath(dr, "timeout/"))
		return nil, false
	}
	return session, true
}

// requireRequestsSession is the request-a-code flow equivalent of
// requireStartSession, routing to that flow's timeout page.
func (h *Handler) requireRequestsSession(w http.ResponseWriter, r *http.Request, dr models.DisplayRegion, rt models.RequestType) (*models.Session, bool) {
	session, err := h.session(r)
	if err != nil {
		slog.Info("session timed out", "client_ip", r.RemoteAddr, "path", r.URL.Path)
		h.redirect(w, r, requestsPath(dr, rt, "timeout/"))
		return nil, false
	}
	return session, true
}

// timeoutRequests redirects to the request-a-code timeout page; used
// when a required attribute is absent mid-flow.
func (h *Handler) timeoutRequests(w http.ResponseWriter, r *http.Request, dr models.DisplayRegion, rt models.RequestType) {
	slog.Info("required attribute missing", "client_ip", r.RemoteAddr, "path", r.URL.Path)
	h.redirect(w, r, requestsPath(dr, rt, "timeout/"))
}

// setSessionCookie sets the httpOnly session cookie. The server-side
// idle timeout is authoritative; the cookie merely carries the token.
func (h *Handler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	secure := true
	if h.cfg != nil {
		secure = h.cfg.CookieSecure
	}

	http.SetCookie(w, &http.Cookie{
		Name:     services.SessionCookieName,
		Value:    sessionID,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})
}

// pageTitle picks the locale variant of a step title.
func pageTitle(locale models.Locale, en, cy string) string {
	if locale == models.LocaleWelsh {
		return cy
	}
	return en
}

// stepData assembles the base view data every rendered step carries.
func stepData(dr models.DisplayRegion, title string) map[string]any {
	return map[string]any{
		"display_region": string(dr),
		"locale":         string(dr.Locale()),
		"page_title":     title,
	}
}

// render drains pending flash messages into the view data and hands the
// page to the renderer. Draining here is what guarantees a flash is
// shown on exactly the next rendered page.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, session *models.Session, status int, page string, data map[string]any) {
	if session != nil {
		flash, err := h.sessions.DrainFlash(r.Context(), session)
		if err != nil {
			slog.Warn("failed to drain flash messages", "error", err)
		}
		if len(flash) > 0 {
			data["flash"] = flash
		}
	}
	h.renderer.Render(w, status, page, data)
}

// flashAndRedirect queues a message and sends the browser to the step
// that will display it.
func (h *Handler) flashAndRedirect(w http.ResponseWriter, r *http.Request, session *models.Session, msg models.FlashMessage, location string) {
	if err := h.sessions.PushFlash(r.Context(), session, msg); err != nil {
		slog.Warn("failed to push flash message", "error", err)
	}
	h.redirect(w, r, location)
}

// flashAndRender queues a message and re-renders the same step in
// place, for steps whose failure policy is not redirect-back.
func (h *Handler) flashAndRender(w http.ResponseWriter, r *http.Request, session *models.Session, msg models.FlashMessage, page string, data map[string]any) {
	if err := h.sessions.PushFlash(r.Context(), session, msg); err != nil {
		slog.Warn("failed to push flash message", "error", err)
	}
	h.render(w, r, session, http.StatusOK, page, data)
}

// saveSession persists accumulated attributes, surfacing store
// failures as a hard error.
func (h *Handler) saveSession(w http.ResponseWriter, r *http.Request, session *models.Session) bool {
	if err := h.sessions.Save(r.Context(), session); err != nil {
		h.serviceError(w, r, err)
		return false
	}
	return true
}

// serviceError surfaces a backend failure. Nothing in this workflow can
// recover a downstream outage, so the step aborts with the generic
// error page and keeps the session intact.
func (h *Handler) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("backend service call failed",
		"error", err,
		"request_id", services.RequestIDFrom(r.Context()),
		"path", r.URL.Path,
	)
	h.renderer.Render(w, http.StatusInternalServerError, "error", map[string]any{
		"error": "service unavailable",
	})
}
