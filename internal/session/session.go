package session

import (
	"github.com/socialsphere/composer-backend/internal/content"
	"github.com/socialsphere/composer-backend/pkg/enums"
	pkgerrors "github.com/socialsphere/composer-backend/pkg/errors"
)

// Session is the editable, publishable state for one platform within a run.
// Sessions never share mutable structure: the draft is cloned on entry, so
// editing one platform cannot touch a sibling. The owning workflow
// serializes all mutations; Session itself holds no lock.
type Session struct {
	draft    content.Content
	editing  bool
	state    enums.PublishState
	progress int
	failure  string
}

// New seeds a session from a generated draft. The draft is deep-cloned so
// the session owns its content outright.
func New(draft content.Content) *Session {
	return &Session{
		draft: draft.Clone(),
		state: enums.PublishStateIdle,
	}
}

// Platform returns the session's target platform.
func (s *Session) Platform() enums.Platform {
	return s.draft.Platform()
}

// ToggleEdit flips edit-mode and reports the new value. The draft itself is
// untouched, so cancelling an edit pass loses nothing.
func (s *Session) ToggleEdit() bool {
	s.editing = !s.editing
	return s.editing
}

// Editing reports whether the session is in edit-mode.
func (s *Session) Editing() bool {
	return s.editing
}

// SetField mutates a scalar field of the draft.
func (s *Session) SetField(name, value string) error {
	return s.draft.SetField(name, value)
}

// SetListField replaces a list field from comma-separated raw input.
func (s *Session) SetListField(name, raw string) error {
	return s.draft.SetListField(name, raw)
}

// Draft returns a deep copy of the current content, suitable for handing to
// a publish call without freezing further edits.
func (s *Session) Draft() content.Content {
	return s.draft.Clone()
}

// State returns the publish lifecycle state.
func (s *Session) State() enums.PublishState {
	return s.state
}

// Progress returns the last observed upload percentage.
func (s *Session) Progress() int {
	return s.progress
}

// FailureReason returns the terminal failure reason, if any.
func (s *Session) FailureReason() string {
	return s.failure
}

// BeginPublish marks the session uploading. A second publish for the same
// platform while one is in flight is rejected; retries after a terminal
// state are allowed.
func (s *Session) BeginPublish() error {
	if s.state == enums.PublishStateUploading {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "publish already in flight for this platform")
	}
	s.state = enums.PublishStateUploading
	s.progress = 0
	s.failure = ""
	return nil
}

// ObserveProgress records upload progress. Values never move backwards and
// are clamped to [0, 100].
func (s *Session) ObserveProgress(percent int) {
	if s.state != enums.PublishStateUploading {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if percent > s.progress {
		s.progress = percent
	}
}

// CompleteSuccess finishes the upload, pinning progress at 100 and forcing
// edit-mode off.
func (s *Session) CompleteSuccess() {
	s.state = enums.PublishStateSucceeded
	s.progress = 100
	s.failure = ""
	s.editing = false
}

// CompleteFailure records the terminal failure. Edit-mode is left exactly as
// the user last set it so the draft stays editable for a retry.
func (s *Session) CompleteFailure(reason string) {
	s.state = enums.PublishStateFailed
	s.failure = reason
}

// View is the wire representation of a session.
type View struct {
	Platform      enums.Platform     `json:"platform"`
	Content       content.Content    `json:"content"`
	Editing       bool               `json:"editing"`
	PublishState  enums.PublishState `json:"publish_state"`
	Progress      int                `json:"progress"`
	FailureReason string             `json:"failure_reason,omitempty"`
}

// Snapshot renders the session for API responses. The content is cloned so
// callers cannot reach back into session state.
func (s *Session) Snapshot() View {
	return View{
		Platform:      s.Platform(),
		Content:       s.draft.Clone(),
		Editing:       s.editing,
		PublishState:  s.state,
		Progress:      s.progress,
		FailureReason: s.failure,
	}
}
