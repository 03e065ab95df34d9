package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/blueprint/internal/domain/failure"
	"github.com/okian/blueprint/internal/domain/model"
	"github.com/okian/blueprint/pkg/logger"
)

// GeneratePath is the blueprint endpoint.
const GeneratePath = "/generate-soul-blueprint"

const defaultMaxBodyBytes = 64 << 10

// BlueprintHandler handles blueprint generation requests.
type BlueprintHandler struct {
	deps         Dependencies
	maxBodyBytes int64
	logger       logger.Logger
}

// HandlerOption configures a BlueprintHandler.
type HandlerOption func(*BlueprintHandler)

// WithMaxBodyBytes caps the request body size.
func WithMaxBodyBytes(n int64) HandlerOption {
	return func(h *BlueprintHandler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) HandlerOption {
	return func(h *BlueprintHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewBlueprintHandler creates a new blueprint handler.
func NewBlueprintHandler(deps Dependencies, opts ...HandlerOption) *BlueprintHandler {
	h := &BlueprintHandler{
		deps:         deps,
		maxBodyBytes: defaultMaxBodyBytes,
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleGenerate handles POST /generate-soul-blueprint requests.
func (h *BlueprintHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	const op = "api.generate"
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}

	profile, err := h.decode(w, r)
	if err != nil {
		err = failure.Wrap(op, failure.KindValidation, err)
		status, code, detail := errorStatus(err)
		writeError(w, status, code, detail)
		return
	}

	result, err := h.deps.Generate(r.Context(), profile)
	if err != nil {
		status, code, detail := errorStatus(err)
		h.logger.Error(r.Context(), "blueprint request failed",
			logger.RequestID(result.RequestID),
			logger.Int("status", status),
			logger.Error(err),
		)
		writeError(w, status, code, detail)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *BlueprintHandler) decode(w http.ResponseWriter, r *http.Request) (model.BirthProfile, error) {
	var profile model.BirthProfile
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&profile); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			return profile, ErrBodyTooBig
		case errors.Is(err, io.EOF):
			return profile, fmt.Errorf("%w: empty body", ErrBadRequest)
		default:
			return profile, fmt.Errorf("%w: invalid json: %v", ErrBadRequest, err)
		}
	}
	if dec.More() {
		return profile, fmt.Errorf("%w: trailing data after json body", ErrBadRequest)
	}
	return profile, nil
}
