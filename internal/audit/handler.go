package audit

import (
	"context"
	"net/http"
	"strconv"

	"github.com/redmonkez12/stocktrack-api/internal/httputil"
	"github.com/redmonkez12/stocktrack-api/internal/logging"
)

const (
	DefaultTake = 50
	MaxTake     = 100
)

// Lister reads entries back, newest first.
type Lister interface {
	List(ctx context.Context, take, skip int) ([]Entry, error)
}

// Handler serves the audit log.
type Handler struct {
	logs Lister
}

func NewHandler(logs Lister) *Handler {
	return &Handler{logs: logs}
}

// List returns a page of audit entries
// @Summary      List audit log entries
// @Description  Newest first. take defaults to 50 and is capped at 100.
// @Tags         logs
// @Produce      json
// @Security     BearerAuth
// @Param        take query int false "Page size (max 100)"
// @Param        skip query int false "Entries to skip"
// @Success      200 {array} Entry
// @Failure      401 {object} httputil.ErrorResponse
// @Failure      500 {object} httputil.ErrorResponse
// @Router       /logs [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	take, skip := ParsePage(r.URL.Query().Get("take"), r.URL.Query().Get("skip"))

	entries, err := h.logs.List(r.Context(), take, skip)
	if err != nil {
		logger.Error("failed to list audit logs", "error", err.Error())
		httputil.RespondError(w, httputil.MsgInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, entries, http.StatusOK)
}

// ParsePage turns raw take/skip query values into a bounded page.
func ParsePage(rawTake, rawSkip string) (take, skip int) {
	take = DefaultTake
	if n, err := strconv.Atoi(rawTake); err == nil && n > 0 {
		take = min(n, MaxTake)
	}

	if n, err := strconv.Atoi(rawSkip); err == nil && n > 0 {
		skip = n
	}

	return take, skip
}
