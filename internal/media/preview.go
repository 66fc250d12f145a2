package media

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	pkgerrors "github.com/socialsphere/composer-backend/pkg/errors"
)

// PreviewHandle is a revocable view reference onto an attachment, the
// server-side analogue of an object URL. It is created lazily and must be
// released exactly once; both leaks and double releases are defects.
type PreviewHandle struct {
	token string

	mu       sync.Mutex
	released bool
}

func newPreviewHandle(attachmentID uuid.UUID) *PreviewHandle {
	return &PreviewHandle{
		token: fmt.Sprintf("preview://%s/%s", attachmentID, uuid.NewString()),
	}
}

// Token returns the opaque view reference, or an error once revoked.
func (h *PreviewHandle) Token() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "preview handle already released")
	}
	return h.token, nil
}

// Release revokes the handle. Releasing twice is an error.
func (h *PreviewHandle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "preview handle already released")
	}
	h.released = true
	return nil
}

// Released reports whether the handle has been revoked.
func (h *PreviewHandle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}
