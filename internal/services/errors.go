package services

import "errors"

var (
	ErrNotConfigured      = errors.New("API credentials are not configured, cannot start sync")
	ErrSyncInProgress     = errors.New("a sync run is already in progress")
	ErrAttributeNotFound  = errors.New("attribute definition not found")
	ErrTermNotFound       = errors.New("term not found")
	ErrInvalidTaxonomy    = errors.New("invalid attribute taxonomy slug")
	ErrInvalidCredentials = errors.New("invalid username or application secret")
)

// ValidationError is a rejected mutation input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
