package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/socialsphere/composer-backend/api/middleware"
	"github.com/socialsphere/composer-backend/internal/media"
	"github.com/socialsphere/composer-backend/internal/session"
	"github.com/socialsphere/composer-backend/internal/workflow"
	"github.com/socialsphere/composer-backend/pkg/enums"
	pkgerrors "github.com/socialsphere/composer-backend/pkg/errors"
	"github.com/socialsphere/composer-backend/pkg/logger"
)

type stubWorkflow struct {
	startFn        func(ctx context.Context, ownerID string) (*workflow.RunView, error)
	setTextFn      func(ctx context.Context, ownerID string, runID uuid.UUID, text string) (*workflow.RunView, error)
	addMediaFn     func(ctx context.Context, ownerID string, runID uuid.UUID, candidate media.Candidate) (*workflow.AttachmentView, error)
	removeMediaFn  func(ctx context.Context, ownerID string, runID uuid.UUID, attachmentID uuid.UUID) error
	generateFn     func(ctx context.Context, ownerID string, runID uuid.UUID) (*workflow.RunView, error)
	toggleEditFn   func(ctx context.Context, ownerID string, runID uuid.UUID, platform enums.Platform) (*session.View, error)
	setFieldFn     func(ctx context.Context, ownerID string, runID uuid.UUID, platform enums.Platform, field, value string) (*session.View, error)
	setListFieldFn func(ctx context.Context, ownerID string, runID uuid.UUID, platform enums.Platform, field, raw string) (*session.View, error)
	publishFn      func(ctx context.Context, ownerID string, runID uuid.UUID, platform enums.Platform, attachmentID uuid.UUID) (*session.View, error)
	snapshotFn     func(ctx context.Context, ownerID string, runID uuid.UUID) (*workflow.RunView, error)
	closeFn        func(ctx context.Context, ownerID string, runID uuid.UUID) error
}

func (s *stubWorkflow) StartRun(ctx context.Context, ownerID string) (*workflow.RunView, error) {
	return s.startFn(ctx, ownerID)
}

func (s *stubWorkflow) SetText(ctx context.Context, ownerID string, runID uuid.UUID, text string) (*workflow.RunView, error) {
	return s.setTextFn(ctx, ownerID, runID, text)
}

func (s *stubWorkflow) AddMedia(ctx context.Context, ownerID string, runID uuid.UUID, candidate media.Candidate) (*workflow.AttachmentView, error) {
	return s.addMediaFn(ctx, ownerID, runID, candidate)
}

func (s *stubWorkflow) RemoveMedia(ctx context.Context, ownerID string, runID uuid.UUID, attachmentID uuid.UUID) error {
	return s.removeMediaFn(ctx, ownerID, runID, attachmentID)
}

func (s *stubWorkflow) Generate(ctx context.Context, ownerID string, runID uuid.UUID) (*workflow.RunView, error) {
	return s.generateFn(ctx, ownerID, runID)
}

func (s *stubWorkflow) ToggleEdit(ctx context.Context, ownerID string, runID uuid.UUID, platform enums.Platform) (*session.View, error) {
	return s.toggleEditFn(ctx, ownerID, runID, platform)
}

func (s *stubWorkflow) SetField(ctx context.Context, ownerID string, runID uuid.UUID, platform enums.Platform, field, value string) (*session.View, error) {
	return s.setFieldFn(ctx, ownerID, runID, platform, field, value)
}

func (s *stubWorkflow) SetListField(ctx context.Context, ownerID string, runID uuid.UUID, platform enums.Platform, field, raw string) (*session.View, error) {
	return s.setListFieldFn(ctx, ownerID, runID, platform, field, raw)
}

func (s *stubWorkflow) Publish(ctx context.Context, ownerID string, runID uuid.UUID, platform enums.Platform, attachmentID uuid.UUID) (*session.View, error) {
	return s.publishFn(ctx, ownerID, runID, platform, attachmentID)
}

func (s *stubWorkflow) Snapshot(ctx context.Context, ownerID string, runID uuid.UUID) (*workflow.RunView, error) {
	return s.snapshotFn(ctx, ownerID, runID)
}

func (s *stubWorkflow) Close(ctx context.Context, ownerID string, runID uuid.UUID) error {
	return s.closeFn(ctx, ownerID, runID)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

// composeRouter mounts the compose handlers behind a stub identity, matching
// the production route shape.
func composeRouter(svc workflow.Service, userID string) http.Handler {
	logg := testLogger()
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUserID(req.Context(), userID)))
		})
	})
	r.Route("/compose/runs", func(r chi.Router) {
		r.Post("/", ComposeStart(svc, logg))
		r.Route("/{runId}", func(r chi.Router) {
			r.Get("/", ComposeSnapshot(svc, logg))
			r.Delete("/", ComposeClose(svc, logg))
			r.Put("/text", ComposeSetText(svc, logg))
			r.Post("/media", ComposeAddMedia(svc, 25*1024*1024, logg))
			r.Delete("/media/{attachmentId}", ComposeRemoveMedia(svc, logg))
			r.Post("/generate", ComposeGenerate(svc, logg))
			r.Route("/platforms/{platform}", func(r chi.Router) {
				r.Post("/edit", ComposeToggleEdit(svc, logg))
				r.Patch("/fields", ComposeSetField(svc, logg))
				r.Patch("/list-fields", ComposeSetListField(svc, logg))
				r.Post("/publish", ComposePublish(svc, logg))
			})
		})
	})
	return r
}

func decodeError(t *testing.T, body *bytes.Buffer) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return envelope.Error.Code
}

func TestComposeStartCreatesRun(t *testing.T) {
	t.Parallel()

	runID := uuid.New()
	svc := &stubWorkflow{
		startFn: func(_ context.Context, ownerID string) (*workflow.RunView, error) {
			if ownerID != "user-1" {
				t.Errorf("unexpected owner %q", ownerID)
			}
			return &workflow.RunView{ID: runID, Phase: enums.RunPhaseCollecting}, nil
		},
	}

	rec := httptest.NewRecorder()
	composeRouter(svc, "user-1").ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/compose/runs", nil))

	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data workflow.RunView `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if envelope.Data.ID != runID {
		t.Fatalf("unexpected run id %s", envelope.Data.ID)
	}
}

func TestComposeStartWithoutIdentity(t *testing.T) {
	t.Parallel()

	svc := &stubWorkflow{}
	rec := httptest.NewRecorder()
	composeRouter(svc, "").ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/compose/runs", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestComposeAddMediaPassesCandidate(t *testing.T) {
	t.Parallel()

	runID := uuid.New()
	var got media.Candidate
	svc := &stubWorkflow{
		addMediaFn: func(_ context.Context, _ string, gotRunID uuid.UUID, candidate media.Candidate) (*workflow.AttachmentView, error) {
			if gotRunID != runID {
				t.Errorf("unexpected run id %s", gotRunID)
			}
			got = candidate
			return &workflow.AttachmentView{ID: uuid.New(), FileName: candidate.FileName}, nil
		},
	}

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	part, err := form.CreateFormFile("file", "pic.png")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	part.Write([]byte{0x89, 0x50, 0x4E, 0x47})
	form.Close()

	req := httptest.NewRequest(http.MethodPost, "/compose/runs/"+runID.String()+"/media", body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	composeRouter(svc, "user-1").ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if got.FileName != "pic.png" {
		t.Fatalf("unexpected file name %q", got.FileName)
	}
	if len(got.Data) != 4 {
		t.Fatalf("unexpected data length %d", len(got.Data))
	}
}

func TestComposeAddMediaDomainErrorMapsToStatus(t *testing.T) {
	t.Parallel()

	runID := uuid.New()
	svc := &stubWorkflow{
		addMediaFn: func(_ context.Context, _ string, _ uuid.UUID, _ media.Candidate) (*workflow.AttachmentView, error) {
			return nil, pkgerrors.New(pkgerrors.CodeUnsupportedMedia, "mime type not allowed")
		},
	}

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	part, _ := form.CreateFormFile("file", "notes.txt")
	part.Write([]byte("text"))
	form.Close()

	req := httptest.NewRequest(http.MethodPost, "/compose/runs/"+runID.String()+"/media", body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	composeRouter(svc, "user-1").ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if code := decodeError(t, rec.Body); code != "UNSUPPORTED_MEDIA_TYPE" {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestComposeSetFieldRequiresFieldName(t *testing.T) {
	t.Parallel()

	runID := uuid.New()
	svc := &stubWorkflow{
		setFieldFn: func(_ context.Context, _ string, _ uuid.UUID, _ enums.Platform, _, _ string) (*session.View, error) {
			t.Error("service must not be called for an invalid body")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPatch, "/compose/runs/"+runID.String()+"/platforms/youtube/fields", strings.NewReader(`{"value":"x"}`))
	rec := httptest.NewRecorder()
	composeRouter(svc, "user-1").ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestComposeRejectsUnknownPlatform(t *testing.T) {
	t.Parallel()

	runID := uuid.New()
	svc := &stubWorkflow{}
	req := httptest.NewRequest(http.MethodPost, "/compose/runs/"+runID.String()+"/platforms/myspace/edit", nil)
	rec := httptest.NewRecorder()
	composeRouter(svc, "user-1").ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestComposePublishMapsNoMediaSelected(t *testing.T) {
	t.Parallel()

	runID := uuid.New()
	svc := &stubWorkflow{
		publishFn: func(_ context.Context, _ string, _ uuid.UUID, platform enums.Platform, attachmentID uuid.UUID) (*session.View, error) {
			if platform != enums.PlatformYouTube {
				t.Errorf("unexpected platform %s", platform)
			}
			if attachmentID != uuid.Nil {
				t.Errorf("expected nil attachment id, got %s", attachmentID)
			}
			return nil, pkgerrors.New(pkgerrors.CodeNoMediaSelected, "attach media before publishing")
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/compose/runs/"+runID.String()+"/platforms/youtube/publish", nil)
	rec := httptest.NewRecorder()
	composeRouter(svc, "user-1").ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if code := decodeError(t, rec.Body); code != "NO_MEDIA_SELECTED" {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestComposePublishPassesAttachmentID(t *testing.T) {
	t.Parallel()

	runID := uuid.New()
	attachmentID := uuid.New()
	svc := &stubWorkflow{
		publishFn: func(_ context.Context, _ string, _ uuid.UUID, _ enums.Platform, gotAttachment uuid.UUID) (*session.View, error) {
			if gotAttachment != attachmentID {
				t.Errorf("unexpected attachment id %s", gotAttachment)
			}
			return &session.View{Platform: enums.PlatformX, PublishState: enums.PublishStateSucceeded, Progress: 100}, nil
		},
	}

	body := strings.NewReader(`{"attachment_id":"` + attachmentID.String() + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/compose/runs/"+runID.String()+"/platforms/x/publish", body)
	rec := httptest.NewRecorder()
	composeRouter(svc, "user-1").ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
}

func TestComposeCloseReportsNotFoundForStaleRun(t *testing.T) {
	t.Parallel()

	runID := uuid.New()
	svc := &stubWorkflow{
		closeFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			return pkgerrors.New(pkgerrors.CodeNotFound, "run not found or superseded")
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/compose/runs/"+runID.String(), nil)
	rec := httptest.NewRecorder()
	composeRouter(svc, "user-1").ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestComposeRejectsMalformedRunID(t *testing.T) {
	t.Parallel()

	svc := &stubWorkflow{}
	req := httptest.NewRequest(http.MethodGet, "/compose/runs/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	composeRouter(svc, "user-1").ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}
