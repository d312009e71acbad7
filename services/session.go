// ABOUTME: Session attribute store and flash queue over a pluggable backend
// ABOUTME: Sessions expire after a fixed idle timeout, refreshed on save

package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/censusops/respondent-home/models"
)

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "RH_SESSION"

// ErrSessionNotFound reports a missing or expired session; workflow
// steps translate it into a redirect to the timeout page.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists sessions keyed by their opaque ID. Save must
// restart the idle-timeout clock. Concurrent saves for one session are
// last-write-wins.
type SessionStore interface {
	Get(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, id string) error
}

// SessionService manages server-side workflow sessions.
type SessionService struct {
	store SessionStore
}

func NewSessionService(store SessionStore) *SessionService {
	return &SessionService{store: store}
}

// Create generates a new empty session with a cryptographically secure
// random ID and persists it.
func (s *SessionService) Create(ctx context.Context) (*models.Session, error) {
	idBytes := make([]byte, 32)
	if _, err := rand.Read(idBytes); err != nil {
		return nil, err
	}

	now := time.Now()
	session := &models.Session{
		ID:        base64.URLEncoding.EncodeToString(idBytes),
		CreatedAt: now,
		LastSeen:  now,
	}

	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Get retrieves a live session by ID and restarts its idle-timeout
// clock. Any request that touches the session counts as activity, not
// just ones that write attributes.
func (s *SessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Save persists accumulated attributes and refreshes the idle timeout.
func (s *SessionService) Save(ctx context.Context, session *models.Session) error {
	session.LastSeen = time.Now()
	return s.store.Save(ctx, session)
}

// Delete removes a session outright.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// PushFlash appends a message to the session's pending queue. The
// message survives exactly one redirect-then-render cycle.
func (s *SessionService) PushFlash(ctx context.Context, session *models.Session, msg models.FlashMessage) error {
	session.Flash = append(session.Flash, msg)
	return s.Save(ctx, session)
}

// DrainFlash returns pending messages in push order and clears the
// queue, so a second drain on the same session returns nothing.
func (s *SessionService) DrainFlash(ctx context.Context, session *models.Session) ([]models.FlashMessage, error) {
	if len(session.Flash) == 0 {
		return nil, nil
	}
	drained := session.Flash
	session.Flash = nil
	if err := s.Save(ctx, session); err != nil {
		return nil, err
	}
	return drained, nil
}
