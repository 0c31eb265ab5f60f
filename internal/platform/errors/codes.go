package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Credential errors
	CodeCredentialInvalid Code = "CREDENTIAL_INVALID"
	CodeCredentialMissing Code = "CREDENTIAL_MISSING"

	// Wizard errors
	CodeWizardNameRequired  Code = "WIZARD_NAME_REQUIRED"
	CodeWizardAgeOutOfRange Code = "WIZARD_AGE_OUT_OF_RANGE"

	// Checkout errors
	CodeCheckoutUnavailable  Code = "CHECKOUT_UNAVAILABLE"
	CodeCheckoutPackageEmpty Code = "CHECKOUT_PACKAGE_EMPTY"
	CodeCheckoutNotPermitted Code = "CHECKOUT_NOT_PERMITTED"

	// Companion errors
	CodeCompanionNotSelected Code = "COMPANION_NOT_SELECTED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// HTTPStatus maps the code to an HTTP status for the funnel's JSON surface.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeCredentialInvalid, CodeCredentialMissing:
		return http.StatusUnauthorized
	case CodeWizardNameRequired, CodeWizardAgeOutOfRange, CodeCheckoutPackageEmpty:
		return http.StatusBadRequest
	case CodeCheckoutUnavailable:
		return http.StatusBadGateway
	case CodeCheckoutNotPermitted:
		return http.StatusForbidden
	case CodeCompanionNotSelected:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
