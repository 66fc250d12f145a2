package media

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/google/uuid"
	"github.com/socialsphere/composer-backend/pkg/enums"
	pkgerrors "github.com/socialsphere/composer-backend/pkg/errors"
)

// DefaultMaxBytes mirrors the 25 MB cap advertised by the upload control.
const DefaultMaxBytes = 25 * 1024 * 1024

var kindByMimeType = map[string]enums.MediaKind{
	"image/png":  enums.MediaKindImage,
	"image/jpeg": enums.MediaKindImage,
	"video/mp4":  enums.MediaKindVideo,
}

// Attachment is one validated media file held by the set. It is never
// mutated after creation and is handed to publish clients by reference.
type Attachment struct {
	ID       uuid.UUID
	FileName string
	MimeType string
	Kind     enums.MediaKind
	Size     int64

	data    []byte
	preview *PreviewHandle
}

// Open returns a fresh reader over the attachment bytes.
func (a *Attachment) Open() io.Reader {
	return bytes.NewReader(a.data)
}

// Preview lazily creates the revocable view reference for this attachment.
func (a *Attachment) Preview() *PreviewHandle {
	if a.preview == nil {
		a.preview = newPreviewHandle(a.ID)
	}
	return a.preview
}

// Candidate is an unvalidated file offered to the set.
type Candidate struct {
	FileName string
	MimeType string
	Data     []byte
}

// Options tunes set-level validation bounds.
type Options struct {
	MaxBytes       int64
	MaxAttachments int
}

// Set is the in-memory attachment registry for one composition run.
// It performs no network or disk I/O.
type Set struct {
	opts     Options
	ordered  []*Attachment
	byID     map[uuid.UUID]*Attachment
	tornDown bool
}

// NewSet builds an empty attachment set.
func NewSet(opts Options) *Set {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	return &Set{
		opts: opts,
		byID: map[uuid.UUID]*Attachment{},
	}
}

// Add validates the candidate and registers it. On any validation failure
// the set is left unchanged.
func (s *Set) Add(candidate Candidate) (*Attachment, error) {
	if s.tornDown {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "attachment set has been torn down")
	}
	if s.opts.MaxAttachments > 0 && len(s.ordered) >= s.opts.MaxAttachments {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d attachments allowed", s.opts.MaxAttachments))
	}

	mimeType, err := sniffMimeType(candidate.MimeType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnsupportedMedia, err, "declared mime type unusable")
	}
	kind, ok := kindByMimeType[mimeType]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnsupportedMedia, fmt.Sprintf("mime type %q not allowed; upload PNG, JPG, or MP4", mimeType)).
			WithDetails(map[string]any{"mime_type": mimeType})
	}

	size := int64(len(candidate.Data))
	if size == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "attachment is empty")
	}
	if size > s.opts.MaxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeMediaTooLarge, fmt.Sprintf("attachment exceeds %d bytes", s.opts.MaxBytes)).
			WithDetails(map[string]any{"size_bytes": size, "max_bytes": s.opts.MaxBytes})
	}

	attachment := &Attachment{
		ID:       uuid.New(),
		FileName: strings.TrimSpace(candidate.FileName),
		MimeType: mimeType,
		Kind:     kind,
		Size:     size,
		data:     candidate.Data,
	}
	s.ordered = append(s.ordered, attachment)
	s.byID[attachment.ID] = attachment
	return attachment, nil
}

// Get returns the attachment with the given id.
func (s *Set) Get(id uuid.UUID) (*Attachment, error) {
	attachment, ok := s.byID[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "attachment not found")
	}
	return attachment, nil
}

// Remove deletes the attachment and releases its preview handle if one was
// ever created.
func (s *Set) Remove(id uuid.UUID) error {
	attachment, ok := s.byID[id]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "attachment not found")
	}
	delete(s.byID, id)
	for i, candidate := range s.ordered {
		if candidate.ID == id {
			s.ordered = append(s.ordered[:i], s.ordered[i+1:]...)
			break
		}
	}
	return releasePreview(attachment)
}

// List returns the attachments in insertion order.
func (s *Set) List() []*Attachment {
	out := make([]*Attachment, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// Len returns the number of held attachments.
func (s *Set) Len() int {
	return len(s.ordered)
}

// Teardown releases every outstanding preview handle and empties the set.
// Safe to call once; subsequent Adds are rejected.
func (s *Set) Teardown() error {
	if s.tornDown {
		return nil
	}
	s.tornDown = true
	var firstErr error
	for _, attachment := range s.ordered {
		if err := releasePreview(attachment); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.ordered = nil
	s.byID = map[uuid.UUID]*Attachment{}
	return firstErr
}

func releasePreview(attachment *Attachment) error {
	if attachment.preview == nil {
		return nil
	}
	return attachment.preview.Release()
}

func sniffMimeType(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", fmt.Errorf("mime type required")
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return "", fmt.Errorf("mime type invalid: %w", err)
	}
	if mediaType == "" {
		return "", fmt.Errorf("mime type missing")
	}
	return strings.ToLower(mediaType), nil
}
