// ABOUTME: EQ launch token issuer: builds, signs, and URL-encodes the claim set
// ABOUTME: Signing algorithm is pluggable behind the TokenSigner interface

package services

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/censusops/respondent-home/models"
)

// ErrInvalidEQPayload reports that the session attributes are missing a
// field the EQ claim set requires.
var ErrInvalidEQPayload = errors.New("incomplete EQ payload")

// TokenSigner turns a claim set into the opaque token appended to the
// EQ redirect. Encryption-at-rest of claims is the signer's concern.
type TokenSigner interface {
	Sign(claims map[string]any) (string, error)
}

// HS256Signer signs claims as a JWT with a shared secret.
type HS256Signer struct {
	secret []byte
}

func NewHS256Signer(secret []byte) *HS256Signer {
	return &HS256Signer{secret: secret}
}

func (s *HS256Signer) Sign(claims map[string]any) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims(claims))
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign EQ token: %w", err)
	}
	return signed, nil
}

// EQLaunchService assembles the redirect that hands a respondent over
// to the electronic questionnaire.
type EQLaunchService struct {
	signer            TokenSigner
	eqURL             string
	accountServiceURL string
	urlPathPrefix     string
	tokenTTL          time.Duration
}

func NewEQLaunchService(signer TokenSigner, eqURL, accountServiceURL, urlPathPrefix string, tokenTTL time.Duration) *EQLaunchService {
	return &EQLaunchService{
		signer:            signer,
		eqURL:             eqURL,
		accountServiceURL: accountServiceURL,
		urlPathPrefix:     urlPathPrefix,
		tokenTTL:          tokenTTL,
	}
}

// LaunchURL builds and signs the claim set for the accumulated
// attributes and returns the full EQ redirect URL. Two calls for the
// same case differ only in jti, tx_id, iat, and exp.
func (e *EQLaunchService) LaunchURL(attr models.Attributes, displayRegion models.DisplayRegion) (string, error) {
	if attr.CaseID == "" || attr.CaseRef == "" || attr.DisplayAddress == "" || attr.Region == "" || attr.QuestionnaireID == "" {
		return "", ErrInvalidEQPayload
	}
	if attr.Region == models.RegionScotland {
		return "", fmt.Errorf("%w: Scotland is out of jurisdiction", ErrInvalidEQPayload)
	}

	accountBase := e.accountServiceURL + e.urlPathPrefix + "/" + string(displayRegion)
	now := time.Now()

	claims := map[string]any{
		"jti":                         uuid.NewString(),
		"tx_id":                       uuid.NewString(),
		"iat":                         now.Unix(),
		"exp":                         now.Add(e.tokenTTL).Unix(),
		"case_id":                     attr.CaseID,
		"region_code":                 attr.Region.EQCode(),
		"language_code":               e.languageCode(attr, displayRegion),
		"ru_ref":                      attr.CaseRef,
		"display_address":             attr.DisplayAddress,
		"questionnaire_id":            attr.QuestionnaireID,
		"response_id":                 attr.QuestionnaireID,
		"channel":                     "rh",
		"account_service_url":         accountBase + "/start/",
		"account_service_log_out_url": accountBase + "/start/save-and-exit/",
	}

	token, err := e.signer.Sign(claims)
	if err != nil {
		return "", err
	}

	return e.eqURL + "/session?token=" + url.QueryEscape(token), nil
}

// languageCode resolves the EQ language: England and Wales infer it
// from the display region; Northern Ireland respondents choose theirs
// on the language-options step.
func (e *EQLaunchService) languageCode(attr models.Attributes, displayRegion models.DisplayRegion) string {
	if displayRegion == models.DisplayRegionNI {
		if attr.LanguageCode != "" {
			return attr.LanguageCode
		}
		return string(models.LocaleEnglish)
	}
	return string(displayRegion.Locale())
}
