package ads

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an upstream Marketing API failure into a
// user-actionable category.
type ErrorKind int

const (
	// KindGeneric is the fall-through for anything unrecognized.
	KindGeneric ErrorKind = iota
	// KindTokenExpired means the access token is expired or invalid.
	KindTokenExpired
	// KindRateLimit means the API throttled the request.
	KindRateLimit
	// KindPermission means the token lacks permissions on the account.
	KindPermission
	// KindInvalidAccount means the account id is invalid or inaccessible.
	KindInvalidAccount
)

func (k ErrorKind) String() string {
	switch k {
	case KindTokenExpired:
		return "token_expired"
	case KindRateLimit:
		return "rate_limit"
	case KindPermission:
		return "permission"
	case KindInvalidAccount:
		return "invalid_account"
	default:
		return "generic"
	}
}

// APIError is a classified Marketing API failure.
type APIError struct {
	Kind    ErrorKind
	Code    int
	Subcode int
	Message string
}

func (e *APIError) Error() string {
	switch e.Kind {
	case KindTokenExpired:
		return fmt.Sprintf("token error (%d/%d): %s", e.Code, e.Subcode, e.Message)
	case KindRateLimit:
		return fmt.Sprintf("rate limit (%d): %s", e.Code, e.Message)
	case KindPermission:
		return fmt.Sprintf("permission error (%d): %s", e.Code, e.Message)
	case KindInvalidAccount:
		return fmt.Sprintf("invalid request (%d): %s", e.Code, e.Message)
	default:
		return fmt.Sprintf("ads API error (%d): %s", e.Code, e.Message)
	}
}

// Classify maps a numeric code/subcode pair to an ErrorKind. Total: every
// input maps to exactly one kind.
func Classify(code, subcode int) ErrorKind {
	if code == 190 || subcode == 463 || subcode == 467 {
		return KindTokenExpired
	}
	switch code {
	case 4, 17, 32, 613:
		return KindRateLimit
	case 10, 200, 273, 294:
		return KindPermission
	case 100:
		return KindInvalidAccount
	}
	return KindGeneric
}

func newAPIError(code, subcode int, message string) *APIError {
	return &APIError{
		Kind:    Classify(code, subcode),
		Code:    code,
		Subcode: subcode,
		Message: message,
	}
}

// KindOf extracts the classification from an error chain, KindGeneric if
// the error is not an APIError.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindGeneric
}
