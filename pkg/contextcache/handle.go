// Package contextcache owns the process-wide handle to the pre-loaded
// inference context (the bank policy document cached upstream). The handle is
// immutable; a refresh replaces it wholesale while in-flight requests keep
// using the handle they already resolved.
package contextcache

import (
	"errors"
	"sync/atomic"
	"time"
)

// ErrNotInitialized is returned when the handle is requested before the
// first successful provision.
var ErrNotInitialized = errors.New("context cache not initialized")

// Handle identifies one live upstream cached-content resource.
type Handle struct {
	Name           string    `json:"name"`
	Model          string    `json:"model"`
	DisplayName    string    `json:"display_name"`
	CreatedAt      time.Time `json:"create_time"`
	UpdatedAt      time.Time `json:"update_time"`
	ExpiresAt      time.Time `json:"expire_time"`
	SourceDocument string    `json:"source_document"`
}

// Holder stores the current handle. Replacement is atomic; readers holding
// the old pointer are unaffected until they resolve again.
type Holder struct {
	current atomic.Pointer[Handle]
}

func NewHolder() *Holder {
	return &Holder{}
}

// Get returns the current handle, or ErrNotInitialized before the first
// Replace.
func (h *Holder) Get() (*Handle, error) {
	handle := h.current.Load()
	if handle == nil {
		return nil, ErrNotInitialized
	}
	return handle, nil
}

// Replace swaps in a new handle.
func (h *Holder) Replace(handle *Handle) {
	h.current.Store(handle)
}
