package workflow

import (
	"github.com/google/uuid"
	"github.com/socialsphere/composer-backend/internal/media"
	"github.com/socialsphere/composer-backend/internal/session"
	"github.com/socialsphere/composer-backend/pkg/enums"
)

// RunView is the wire representation of a composition run.
type RunView struct {
	ID          uuid.UUID        `json:"id"`
	Phase       enums.RunPhase   `json:"phase"`
	Text        string           `json:"text"`
	Attachments []AttachmentView `json:"attachments"`
	Sessions    []session.View   `json:"sessions,omitempty"`
}

// AttachmentView is the wire representation of one attachment.
type AttachmentView struct {
	ID           uuid.UUID       `json:"id"`
	FileName     string          `json:"file_name"`
	MimeType     string          `json:"mime_type"`
	Kind         enums.MediaKind `json:"kind"`
	Size         int64           `json:"size_bytes"`
	PreviewToken string          `json:"preview_token,omitempty"`
}

func renderRun(active *run) *RunView {
	view := &RunView{
		ID:          active.id,
		Phase:       active.phase,
		Text:        active.text,
		Attachments: make([]AttachmentView, 0, active.attachments.Len()),
	}
	for _, attachment := range active.attachments.List() {
		view.Attachments = append(view.Attachments, renderAttachment(attachment))
	}
	if active.sessions != nil {
		for _, platform := range enums.Platforms() {
			if platformSession, ok := active.sessions[platform]; ok {
				view.Sessions = append(view.Sessions, platformSession.Snapshot())
			}
		}
	}
	return view
}

func renderAttachment(attachment *media.Attachment) AttachmentView {
	view := AttachmentView{
		ID:       attachment.ID,
		FileName: attachment.FileName,
		MimeType: attachment.MimeType,
		Kind:     attachment.Kind,
		Size:     attachment.Size,
	}
	if token, err := attachment.Preview().Token(); err == nil {
		view.PreviewToken = token
	}
	return view
}
