// ABOUTME: Fulfilment code selection by requested language
// ABOUTME: Single-option lists are chosen regardless of language tag

package services

import (
	"errors"

	"github.com/censusops/respondent-home/models"
)

// ErrNoFulfilment reports that no usable fulfilment option exists for
// the requested case type, region, and language.
var ErrNoFulfilment = errors.New("no matching fulfilment option")

// SelectFulfilmentCode picks the fulfilment code to dispatch. With
// multiple options the last one matching the requested language wins;
// with exactly one option it is used regardless of its language tag.
// Changing the single-option rule needs product sign-off.
func SelectFulfilmentCode(options []models.FulfilmentOption, language string) (string, error) {
	switch len(options) {
	case 0:
		return "", ErrNoFulfilment
	case 1:
		return options[0].FulfilmentCode, nil
	}

	code := ""
	for _, option := range options {
		if option.Language == language {
			code = option.FulfilmentCode
		}
	}
	if code == "" {
		return "", ErrNoFulfilment
	}
	return code, nil
}
