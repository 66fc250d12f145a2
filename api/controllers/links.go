package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/socialsphere/composer-backend/api/middleware"
	"github.com/socialsphere/composer-backend/api/responses"
	"github.com/socialsphere/composer-backend/pkg/enums"
	pkgerrors "github.com/socialsphere/composer-backend/pkg/errors"
	"github.com/socialsphere/composer-backend/pkg/logger"
)

// LinkChecker answers whether the user's account is connected to a platform.
type LinkChecker interface {
	Linked(ctx context.Context, userID string, platform enums.Platform) (bool, error)
}

// LinkStatus reports whether the caller has linked the given platform.
func LinkStatus(provider LinkChecker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		platform, err := enums.ParsePlatform(chi.URLParam(r, "platform"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid platform"))
			return
		}

		linked, err := provider.Linked(r.Context(), userID, platform)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"platform": platform,
			"linked":   linked,
		})
	}
}
