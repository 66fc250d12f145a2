package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/socialsphere/composer-backend/internal/content"
	"github.com/socialsphere/composer-backend/internal/media"
	"github.com/socialsphere/composer-backend/internal/publish"
	"github.com/socialsphere/composer-backend/internal/session"
	"github.com/socialsphere/composer-backend/pkg/enums"
	pkgerrors "github.com/socialsphere/composer-backend/pkg/errors"
	"github.com/socialsphere/composer-backend/pkg/logger"
	"github.com/socialsphere/composer-backend/pkg/metrics"
)

// Generator turns raw post text into one draft per platform.
type Generator interface {
	Generate(ctx context.Context, postText string) (content.Bundle, error)
}

// Publisher uploads one attachment plus platform metadata.
type Publisher interface {
	Publish(ctx context.Context, platform enums.Platform, draft content.Content, attachment *media.Attachment, onProgress publish.ProgressFunc) (*publish.Receipt, error)
}

// LinkChecker gates publishes on the user's platform link being present.
type LinkChecker interface {
	RequireLinked(ctx context.Context, userID string, platform enums.Platform) error
}

// Service drives the composition lifecycle: collect text and media, generate
// per-platform drafts, review and edit, publish per platform, close.
type Service interface {
	StartRun(ctx context.Context, ownerID string) (*RunView, error)
	SetText(ctx context.Context, ownerID string, runID uuid.UUID, text string) (*RunView, error)
	AddMedia(ctx context.Context, ownerID string, runID uuid.UUID, candidate media.Candidate) (*AttachmentView, error)
	RemoveMedia(ctx context.Context, ownerID string, runID uuid.UUID, attachmentID uuid.UUID) error
	Generate(ctx context.Context, ownerID string, runID uuid.UUID) (*RunView, error)
	ToggleEdit(ctx context.Context, ownerID string, runID uuid.UUID, platform enums.Platform) (*session.View, error)
	SetField(ctx context.Context, ownerID string, runID uuid.UUID, platform enums.Platform, field, value string) (*session.View, error)
	SetListField(ctx context.Context, ownerID string, runID uuid.UUID, platform enums.Platform, field, raw string) (*session.View, error)
	Publish(ctx context.Context, ownerID string, runID uuid.UUID, platform enums.Platform, attachmentID uuid.UUID) (*session.View, error)
	Snapshot(ctx context.Context, ownerID string, runID uuid.UUID) (*RunView, error)
	Close(ctx context.Context, ownerID string, runID uuid.UUID) error
}

// Options carries tunables from config into new runs.
type Options struct {
	MaxUploadBytes int64
	MaxAttachments int
}

type service struct {
	generator Generator
	publisher Publisher
	links     LinkChecker
	log       *logger.Logger
	metrics   *metrics.WorkflowMetrics
	opts      Options

	mu   sync.Mutex
	runs map[string]*run
}

// run is one end-to-end composition attempt. A new run supersedes any prior
// run for the same owner; operations against a superseded run id fail and
// late async completions against it are dropped.
type run struct {
	id          uuid.UUID
	ownerID     string
	phase       enums.RunPhase
	text        string
	attachments *media.Set
	sessions    map[enums.Platform]*session.Session
}

// NewService wires the workflow engine.
func NewService(generator Generator, publisher Publisher, links LinkChecker, log *logger.Logger, workflowMetrics *metrics.WorkflowMetrics, opts Options) (Service, error) {
	if generator == nil {
		return nil, errors.New("generator is required")
	}
	if publisher == nil {
		return nil, errors.New("publisher is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}
	return &service{
		generator: generator,
		publisher: publisher,
		links:     links,
		log:       log,
		metrics:   workflowMetrics,
		opts:      opts,
		runs:      map[string]*run{},
	}, nil
}

// StartRun opens a fresh run for the owner. Any prior run is discarded and
// its preview handles released, whatever its phase.
func (s *service) StartRun(ctx context.Context, ownerID string) (*RunView, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prior, ok := s.runs[ownerID]; ok {
		s.discardLocked(ctx, prior)
	}

	active := &run{
		id:      uuid.New(),
		ownerID: ownerID,
		phase:   enums.RunPhaseCollecting,
		attachments: media.NewSet(media.Options{
			MaxBytes:       s.opts.MaxUploadBytes,
			MaxAttachments: s.opts.MaxAttachments,
		}),
	}
	s.runs[ownerID] = active

	s.log.Info(s.log.WithRunID(ctx, active.id.String()), "composition run started")
	return renderRun(active), nil
}

// SetText replaces the raw post text. Only allowed while collecting; the
// text freezes once generation has been requested.
func (s *service) SetText(ctx context.Context, ownerID string, runID uuid.UUID, text string) (*RunView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.currentRunLocked(ownerID, runID)
	if err != nil {
		return nil, err
	}
	if active.phase != enums.RunPhaseCollecting {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("post text cannot change in phase %s", active.phase))
	}
	active.text = text
	return renderRun(active), nil
}

// AddMedia validates and registers a candidate attachment.
func (s *service) AddMedia(ctx context.Context, ownerID string, runID uuid.UUID, candidate media.Candidate) (*AttachmentView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.currentRunLocked(ownerID, runID)
	if err != nil {
		return nil, err
	}
	attachment, err := active.attachments.Add(candidate)
	if err != nil {
		return nil, err
	}
	view := renderAttachment(attachment)
	return &view, nil
}

// RemoveMedia drops an attachment and releases its preview handle.
func (s *service) RemoveMedia(ctx context.Context, ownerID string, runID uuid.UUID, attachmentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.currentRunLocked(ownerID, runID)
	if err != nil {
		return err
	}
	return active.attachments.Remove(attachmentID)
}

// Generate performs the single atomic draft-generation call for the run.
// Success seeds one edit session per platform and moves the run to
// reviewing; failure returns it to collecting for a user-initiated retry.
func (s *service) Generate(ctx context.Context, ownerID string, runID uuid.UUID) (*RunView, error) {
	s.mu.Lock()
	active, err := s.currentRunLocked(ownerID, runID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if active.phase != enums.RunPhaseCollecting {
		phase := active.phase
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("generation is not allowed in phase %s", phase))
	}
	text := active.text
	if strings.TrimSpace(text) == "" {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeEmptyPostText, "post text is required before generating")
	}
	active.phase = enums.RunPhaseGenerating
	s.mu.Unlock()

	logCtx := s.log.WithRunID(ctx, runID.String())
	bundle, genErr := s.generator.Generate(ctx, text)

	s.mu.Lock()
	defer s.mu.Unlock()

	active, err = s.currentRunLocked(ownerID, runID)
	if err != nil {
		// The run was closed or superseded while the call was in flight;
		// the late result must not touch anything.
		s.log.Warn(logCtx, "dropping generation result for discarded run")
		return nil, err
	}

	if genErr != nil {
		active.phase = enums.RunPhaseCollecting
		s.metrics.IncGenerationFailure()
		s.log.Error(logCtx, "content generation failed", genErr)
		return nil, genErr
	}

	sessions := make(map[enums.Platform]*session.Session, len(bundle))
	for platform, draft := range bundle {
		sessions[platform] = session.New(draft)
	}
	active.sessions = sessions
	active.phase = enums.RunPhaseReviewing
	s.metrics.IncGenerationSuccess()
	s.log.Info(logCtx, "content generation succeeded")
	return renderRun(active), nil
}

// ToggleEdit flips edit-mode for one platform's session.
func (s *service) ToggleEdit(ctx context.Context, ownerID string, runID uuid.UUID, platform enums.Platform) (*session.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	platformSession, err := s.sessionLocked(ownerID, runID, platform)
	if err != nil {
		return nil, err
	}
	platformSession.ToggleEdit()
	view := platformSession.Snapshot()
	return &view, nil
}

// SetField mutates a scalar field of one platform's draft.
func (s *service) SetField(ctx context.Context, ownerID string, runID uuid.UUID, platform enums.Platform, field, value string) (*session.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	platformSession, err := s.sessionLocked(ownerID, runID, platform)
	if err != nil {
		return nil, err
	}
	if err := platformSession.SetField(field, value); err != nil {
		return nil, err
	}
	view := platformSession.Snapshot()
	return &view, nil
}

// SetListField replaces a list field of one platform's draft from raw
// comma-separated input.
func (s *service) SetListField(ctx context.Context, ownerID string, runID uuid.UUID, platform enums.Platform, field, raw string) (*session.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	platformSession, err := s.sessionLocked(ownerID, runID, platform)
	if err != nil {
		return nil, err
	}
	if err := platformSession.SetListField(field, raw); err != nil {
		return nil, err
	}
	view := platformSession.Snapshot()
	return &view, nil
}

// Publish uploads the platform's current draft plus one attachment. The
// network call runs outside the service lock over a cloned draft, so
// different platforms publish in parallel while the same platform is
// guarded against re-entry. attachmentID may be uuid.Nil to publish the
// first attachment.
func (s *service) Publish(ctx context.Context, ownerID string, runID uuid.UUID, platform enums.Platform, attachmentID uuid.UUID) (*session.View, error) {
	if s.links != nil {
		if err := s.links.RequireLinked(ctx, ownerID, platform); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	platformSession, err := s.sessionLocked(ownerID, runID, platform)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	active := s.runs[ownerID]

	attachment, err := selectAttachment(active.attachments, attachmentID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := platformSession.BeginPublish(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	active.phase = enums.RunPhasePublishing
	draft := platformSession.Draft()
	s.mu.Unlock()

	logCtx := s.log.WithPlatform(s.log.WithRunID(ctx, runID.String()), platform.String())

	onProgress := func(percent int) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if stale, sessionNow := s.lookupLocked(ownerID, runID, platform); !stale {
			sessionNow.ObserveProgress(percent)
		}
	}

	started := time.Now()
	_, pubErr := s.publisher.Publish(ctx, platform, draft, attachment, onProgress)
	s.metrics.ObservePublishDuration(platform.String(), time.Since(started))

	s.mu.Lock()
	defer s.mu.Unlock()

	stale, sessionNow := s.lookupLocked(ownerID, runID, platform)
	if stale {
		// Run closed or superseded mid-upload; the outcome is dropped.
		s.log.Warn(logCtx, "dropping publish result for discarded run")
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "run no longer active")
	}

	if pubErr != nil {
		sessionNow.CompleteFailure(failureReason(pubErr))
		s.metrics.IncPublishFailure(platform.String())
		s.log.Error(logCtx, "publish failed", pubErr)
	} else {
		sessionNow.CompleteSuccess()
		s.metrics.IncPublishSuccess(platform.String())
		s.log.Info(logCtx, "publish succeeded")
	}
	view := sessionNow.Snapshot()
	return &view, pubErr
}

// Snapshot renders the run for API responses.
func (s *service) Snapshot(ctx context.Context, ownerID string, runID uuid.UUID) (*RunView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.currentRunLocked(ownerID, runID)
	if err != nil {
		return nil, err
	}
	return renderRun(active), nil
}

// Close discards the run and releases every attachment preview, regardless
// of per-platform publish outcomes. Unsaved edits are lost.
func (s *service) Close(ctx context.Context, ownerID string, runID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.currentRunLocked(ownerID, runID)
	if err != nil {
		return err
	}
	s.discardLocked(ctx, active)
	delete(s.runs, ownerID)
	return nil
}

func (s *service) discardLocked(ctx context.Context, active *run) {
	active.phase = enums.RunPhaseDone
	active.sessions = nil
	if err := active.attachments.Teardown(); err != nil {
		s.log.Error(s.log.WithRunID(ctx, active.id.String()), "releasing previews on teardown", err)
	}
	s.log.Info(s.log.WithRunID(ctx, active.id.String()), "composition run discarded")
}

func (s *service) currentRunLocked(ownerID string, runID uuid.UUID) (*run, error) {
	active, ok := s.runs[ownerID]
	if !ok || active.id != runID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "run not found or superseded")
	}
	return active, nil
}

func (s *service) sessionLocked(ownerID string, runID uuid.UUID, platform enums.Platform) (*session.Session, error) {
	active, err := s.currentRunLocked(ownerID, runID)
	if err != nil {
		return nil, err
	}
	if active.sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "run has no drafts yet; generate first")
	}
	platformSession, ok := active.sessions[platform]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown platform %q", platform))
	}
	return platformSession, nil
}

// lookupLocked resolves the session for an async completion. stale means the
// run was closed or superseded and the completion must be dropped.
func (s *service) lookupLocked(ownerID string, runID uuid.UUID, platform enums.Platform) (stale bool, platformSession *session.Session) {
	active, ok := s.runs[ownerID]
	if !ok || active.id != runID || active.sessions == nil {
		return true, nil
	}
	platformSession, ok = active.sessions[platform]
	if !ok {
		return true, nil
	}
	return false, platformSession
}

func selectAttachment(set *media.Set, attachmentID uuid.UUID) (*media.Attachment, error) {
	if set.Len() == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNoMediaSelected, "attach media before publishing")
	}
	if attachmentID == uuid.Nil {
		return set.List()[0], nil
	}
	return set.Get(attachmentID)
}

func failureReason(err error) string {
	var domainErr *pkgerrors.Error
	if errors.As(err, &domainErr) {
		return domainErr.Message()
	}
	return err.Error()
}
