package contract

import "errors"

var (
	ErrModelInvoke      = errors.New("model invoke failed")
	ErrPromptMissing    = errors.New("required prompt is missing")
	ErrValidation       = errors.New("validation failed")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrRulesUnavailable = errors.New("retention rule table unavailable")
)
