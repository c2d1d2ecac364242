package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-order-fulfillment/internal/apperr"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type errorResp struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers user-facing errors verbatim. Anything else is logged and
// answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	e, ok := apperr.As(err)
	if !ok || !e.UserFacing() {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorResp{
			Error:   string(apperr.KindInternal),
			Message: "internal server error",
		})
		return
	}
	writeJSON(w, e.HTTPStatus(), errorResp{Error: string(e.Kind), Message: e.Message})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("invalid json")
	}
	return nil
}

// intParam reads a query parameter. A missing value yields def, or a
// validation error when def is nil.
func intParam(r *http.Request, name string, def *int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		if def == nil {
			return 0, apperr.Validation("%s is required", name)
		}
		return *def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.Validation("%s must be an integer", name)
	}
	return n, nil
}

func intp(n int) *int { return &n }
