package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and the submission services translate them into domain codes:
// - ErrNotFound: record does not exist in the store
// - ErrConflict: optimistic version check failed on upsert
// - ErrInvalidState: record in the wrong state for the requested operation
// - ErrUnavailable: store or lock backend temporarily unavailable
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
