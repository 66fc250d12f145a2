package controllers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/socialsphere/composer-backend/api/middleware"
	"github.com/socialsphere/composer-backend/api/responses"
	"github.com/socialsphere/composer-backend/api/validators"
	"github.com/socialsphere/composer-backend/internal/media"
	"github.com/socialsphere/composer-backend/internal/workflow"
	"github.com/socialsphere/composer-backend/pkg/enums"
	pkgerrors "github.com/socialsphere/composer-backend/pkg/errors"
	"github.com/socialsphere/composer-backend/pkg/logger"
)

// multipartMemoryLimit bounds how much of an upload is buffered in memory
// before spilling to temp files.
const multipartMemoryLimit = 8 << 20

// ComposeStart opens a fresh composition run, superseding any prior run.
func ComposeStart(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		view, err := svc.StartRun(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

type setTextRequest struct {
	Text string `json:"text"`
}

// ComposeSetText replaces the run's raw post text while collecting.
func ComposeSetText(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, runID, err := composeScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setTextRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.SetText(r.Context(), userID, runID, payload.Text)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// ComposeAddMedia accepts one multipart file upload into the run's
// attachment set.
func ComposeAddMedia(svc workflow.Service, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, runID, err := composeScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+multipartMemoryLimit)
		if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file part is required"))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading upload"))
			return
		}

		view, err := svc.AddMedia(r.Context(), userID, runID, media.Candidate{
			FileName: header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			Data:     data,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// ComposeRemoveMedia drops one attachment from the run.
func ComposeRemoveMedia(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, runID, err := composeScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		attachmentID, err := uuid.Parse(chi.URLParam(r, "attachmentId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid attachment id"))
			return
		}

		if err := svc.RemoveMedia(r.Context(), userID, runID, attachmentID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

// ComposeGenerate runs the atomic per-platform draft generation.
func ComposeGenerate(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, runID, err := composeScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Generate(r.Context(), userID, runID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// ComposeSnapshot returns the run's current state.
func ComposeSnapshot(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, runID, err := composeScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Snapshot(r.Context(), userID, runID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// ComposeToggleEdit flips edit-mode for one platform's session.
func ComposeToggleEdit(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, runID, platform, err := platformScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.ToggleEdit(r.Context(), userID, runID, platform)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

type setFieldRequest struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value"`
}

// ComposeSetField mutates one scalar field of a platform draft.
func ComposeSetField(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, runID, platform, err := platformScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setFieldRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.SetField(r.Context(), userID, runID, platform, payload.Field, payload.Value)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

type setListFieldRequest struct {
	Field string `json:"field" validate:"required"`
	Raw   string `json:"raw"`
}

// ComposeSetListField replaces a list field of a platform draft from
// comma-separated raw input.
func ComposeSetListField(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, runID, platform, err := platformScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setListFieldRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.SetListField(r.Context(), userID, runID, platform, payload.Field, payload.Raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

type publishRequest struct {
	AttachmentID string `json:"attachment_id"`
}

// ComposePublish uploads the platform's draft plus one attachment.
func ComposePublish(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, runID, platform, err := platformScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		attachmentID := uuid.Nil
		if r.ContentLength > 0 {
			var payload publishRequest
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if payload.AttachmentID != "" {
				attachmentID, err = uuid.Parse(payload.AttachmentID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid attachment id"))
					return
				}
			}
		}

		view, err := svc.Publish(r.Context(), userID, runID, platform, attachmentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// ComposeClose discards the run, releasing all attachment previews.
func ComposeClose(svc workflow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, runID, err := composeScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Close(r.Context(), userID, runID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "closed"})
	}
}

func composeScope(r *http.Request) (userID string, runID uuid.UUID, err error) {
	userID = middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return "", uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	runID, parseErr := uuid.Parse(chi.URLParam(r, "runId"))
	if parseErr != nil {
		return "", uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid run id")
	}
	return userID, runID, nil
}

func platformScope(r *http.Request) (userID string, runID uuid.UUID, platform enums.Platform, err error) {
	userID, runID, err = composeScope(r)
	if err != nil {
		return "", uuid.Nil, "", err
	}
	platform, parseErr := enums.ParsePlatform(chi.URLParam(r, "platform"))
	if parseErr != nil {
		return "", uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid platform")
	}
	return userID, runID, platform, nil
}
