// ABOUTME: Case service (RHSvc) gateway for UAC claims, linking, and fulfilments
// ABOUTME: Translates transport and HTTP failures into typed errors

package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/censusops/respondent-home/models"
)

var (
	// ErrInvalidCode reports an access code the case service does not
	// recognise, or one claiming an inactive case.
	ErrInvalidCode = errors.New("access code not recognised")
	// ErrNotFound reports a missing case or address record.
	ErrNotFound = errors.New("record not found")
	// ErrServiceUnavailable wraps transport failures and unexpected
	// HTTP statuses from the case service.
	ErrServiceUnavailable = errors.New("case service unavailable")
	// ErrBadRequest reports a payload the case service rejected.
	ErrBadRequest = errors.New("case service rejected request")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// RHService is the outbound client for the case service.
type RHService struct {
	baseURL  string
	authUser string
	authPass string
	client   *http.Client
}

func NewRHService(baseURL, authUser, authPass string) *RHService {
	return &RHService{
		baseURL:  baseURL,
		authUser: authUser,
		authPass: authPass,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// hashUAC computes the SHA-256 digest the case service indexes UAC
// claims by; the raw code never leaves this process.
func hashUAC(uac string) string {
	sum := sha256.Sum256([]byte(uac))
	return hex.EncodeToString(sum[:])
}

// GetUACClaim verifies an access code and returns the case it claims.
// Unknown codes and inactive cases both surface as ErrInvalidCode.
func (s *RHService) GetUACClaim(ctx context.Context, uac string) (*models.Case, error) {
	uacHash := hashUAC(uac)

	var c models.Case
	if err := s.doJSON(ctx, http.MethodGet, s.baseURL+"/uacs/"+uacHash, nil, &c); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}

	if !c.Active {
		return nil, ErrInvalidCode
	}
	return &c, nil
}

// UACHash exposes the claim hash so the linking step can reference the
// same UAC without retaining the raw code in the session.
func (s *RHService) UACHash(uac string) string {
	return hashUAC(uac)
}

// GetCaseByUPRN resolves the case registered for a property.
func (s *RHService) GetCaseByUPRN(ctx context.Context, uprn string) (*models.Case, error) {
	var c models.Case
	if err := s.doJSON(ctx, http.MethodGet, s.baseURL+"/cases/uprn/"+url.PathEscape(uprn), nil, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// LinkAddress ties an unlinked UAC to the chosen address and returns
// the resulting case.
func (s *RHService) LinkAddress(ctx context.Context, uacHash string, addr models.AddressCandidate) (*models.Case, error) {
	body := map[string]string{
		"uprn":             addr.UPRN,
		"formattedAddress": addr.FormattedAddress,
		"region":           string(addr.Region),
	}

	var c models.Case
	if err := s.doJSON(ctx, http.MethodPost, s.baseURL+"/uacs/"+uacHash+"/link", body, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetFulfilments lists available fulfilment products, ordered by the
// case service.
func (s *RHService) GetFulfilments(ctx context.Context, caseType models.CaseType, region models.Region, deliveryChannel, productGroup string, individual bool) ([]models.FulfilmentOption, error) {
	q := url.Values{}
	q.Set("caseType", string(caseType))
	q.Set("region", string(region))
	q.Set("deliveryChannel", deliveryChannel)
	q.Set("productGroup", productGroup)
	q.Set("individual", strconv.FormatBool(individual))

	var options []models.FulfilmentOption
	if err := s.doJSON(ctx, http.MethodGet, s.baseURL+"/fulfilments?"+q.Encode(), nil, &options); err != nil {
		return nil, err
	}
	return options, nil
}

// RequestSMSFulfilment dispatches an access code by SMS. The payload is
// validated before leaving this process.
func (s *RHService) RequestSMSFulfilment(ctx context.Context, req models.FulfilmentRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return s.doJSON(ctx, http.MethodPost, s.baseURL+"/cases/"+req.CaseID+"/fulfilments/sms", req, nil)
}

// doJSON performs one authenticated request, propagating the request's
// correlation ID and mapping failure statuses onto typed errors.
func (s *RHService) doJSON(ctx context.Context, method, rawURL string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.authUser != "" {
		req.SetBasicAuth(s.authUser, s.authPass)
	}
	if requestID := RequestIDFrom(ctx); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusBadRequest:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: %s", ErrBadRequest, string(respBody))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", ErrServiceUnavailable, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}
