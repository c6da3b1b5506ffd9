package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/matiasleandrokruk/echopicks/internal/domain/recommend"
	"github.com/matiasleandrokruk/echopicks/internal/infra/logging"
)

// Client-facing error messages.
const (
	msgInvalidBody   = "Invalid request body"
	msgProviderError = "Generative-text provider error"
	msgParseError    = "Failed to parse model response"
	msgEmptyResult   = "Model returned empty or invalid recommendations"
	msgInternal      = "Internal Server Error"
)

// Recommender runs the recommendation pipeline.
type Recommender interface {
	Recommend(ctx context.Context, in recommend.Input) (*recommend.Result, error)
}

type RecommendationHandler struct {
	recommender Recommender
	validate    *validator.Validate
}

func NewRecommendationHandler(r Recommender) *RecommendationHandler {
	return &RecommendationHandler{recommender: r, validate: validator.New(validator.WithRequiredStructEnabled())}
}

type recommendationRequest struct {
	Category string `json:"category" validate:"required"`
	Title    string `json:"title" validate:"required"`
}

type recommendationResponse struct {
	Category        string           `json:"category"`
	Recommendations []recommend.Item `json:"recommendations"`
	Fallback        bool             `json:"fallback,omitempty"`
}

type requestError struct {
	status  int
	message string
}

func (e requestError) Error() string { return e.message }

// Recommend handles POST /api/recommendations.
func (h *RecommendationHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	in, err := h.decode(w, r)
	if err != nil {
		var re requestError
		if errors.As(err, &re) {
			writeError(w, re.status, re.message)
			return
		}
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	res, err := h.recommender.Recommend(r.Context(), in)
	if err != nil {
		status, msg, raw := describeError(err)
		if status >= http.StatusInternalServerError {
			logging.Ctx(r.Context()).Error().Err(err).Int("status", status).Msg("recommendation request failed")
		}
		writeErrorRaw(w, status, msg, raw)
		return
	}

	writeJSON(w, http.StatusOK, recommendationResponse{
		Category:        res.Category,
		Recommendations: res.Items,
		Fallback:        res.Fallback,
	})
}

func (h *RecommendationHandler) decode(w http.ResponseWriter, r *http.Request) (recommend.Input, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return recommend.Input{}, requestError{status: http.StatusRequestEntityTooLarge, message: "request body too large"}
		}
		return recommend.Input{}, requestError{status: http.StatusBadRequest, message: msgInvalidBody}
	}
	var req recommendationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return recommend.Input{}, requestError{status: http.StatusBadRequest, message: msgInvalidBody}
	}
	req.Category = strings.TrimSpace(req.Category)
	req.Title = strings.TrimSpace(req.Title)
	if err := h.validate.Struct(req); err != nil {
		return recommend.Input{}, requestError{status: http.StatusBadRequest, message: recommend.MsgRequired}
	}
	return recommend.Input{Category: req.Category, Title: req.Title}, nil
}

// describeError maps pipeline errors to a status, message and raw payload.
func describeError(err error) (int, string, string) {
	var (
		ve *recommend.ValidationError
		pe *recommend.ProviderError
		xe *recommend.ParseError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Message, ""
	case errors.As(err, &pe):
		return http.StatusInternalServerError, msgProviderError, pe.Raw()
	case errors.As(err, &xe):
		if errors.Is(xe, recommend.ErrNoItems) {
			return http.StatusInternalServerError, msgEmptyResult, xe.Raw
		}
		return http.StatusInternalServerError, msgParseError, xe.Raw
	default:
		return http.StatusInternalServerError, msgInternal, ""
	}
}
