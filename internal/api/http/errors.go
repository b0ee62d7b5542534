package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/codecollab/internal/domain"
	"github.com/immxrtalbeast/codecollab/internal/identity"
	"github.com/immxrtalbeast/codecollab/lib/logger/sl"
)

// statusFromError maps an error kind to an HTTP status.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, identity.ErrUnauthenticated), errors.Is(err, identity.ErrInvalidSubject):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage hides the details of unexpected errors from clients.
func errorMessage(err error) string {
	if statusFromError(err) == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

func writeError(ctx *gin.Context, log *slog.Logger, err error) {
	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			slog.String("path", ctx.FullPath()),
			sl.Err(err),
		)
	}
	ctx.JSON(status, gin.H{"error": errorMessage(err)})
}
