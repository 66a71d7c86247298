package http

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "predmaint/internal/errors"
	"predmaint/internal/exporter"
)

// AnalysisHandler serves the JSON analysis API
type AnalysisHandler struct {
	service        AnalysisServiceInterface
	validator      StructValidator
	maxUploadBytes int64
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service AnalysisServiceInterface, validator StructValidator, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalysisHandler {
	return &AnalysisHandler{
		service:        service,
		validator:      validator,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("handler", "analysis")),
		errorHandler:   errorHandler,
	}
}

// Routes returns the analysis routes
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.GetSummary)
	r.Post("/upload", h.Upload)
	r.Post("/predict", h.Predict)
	r.Get("/confusion-matrix.svg", h.ConfusionMatrix)
	r.Get("/export.{format}", h.Export)

	return r
}

// GetSummary handles GET /api/analysis
func (h *AnalysisHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(SessionID(r.Context()))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}

// Upload handles POST /api/analysis/upload
func (h *AnalysisHandler) Upload(w http.ResponseWriter, r *http.Request) {
	up, err := readUpload(w, r, h.maxUploadBytes)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer up.Close()

	summary, err := h.service.Upload(r.Context(), SessionID(r.Context()), up.filename, up.file, up.size)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, summary)
}

// Predict handles POST /api/analysis/predict
func (h *AnalysisHandler) Predict(w http.ResponseWriter, r *http.Request) {
	req, err := decodePrediction(r, h.validator)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	prediction, err := h.service.Predict(r.Context(), SessionID(r.Context()), req.Reading())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"label":       prediction.Label,
		"text":        prediction.Text,
		"probability": prediction.FormatProbability(),
		"score":       prediction.Probability,
	})
}

// ConfusionMatrix handles GET /api/analysis/confusion-matrix.svg
func (h *AnalysisHandler) ConfusionMatrix(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.Heatmap(SessionID(r.Context()), &buf); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(buf.Bytes())
}

// Export handles GET /api/analysis/export.{format}
func (h *AnalysisHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := exporter.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", "format must be csv or xlsx"))
		return
	}

	// Buffered so a failed export still gets a problem response.
	var buf bytes.Buffer
	if err := h.service.Export(SessionID(r.Context()), format, &buf); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.Filename()+`"`)
	w.Write(buf.Bytes())

	h.logger.InfoContext(r.Context(), "results exported",
		slog.String("format", string(format)),
		slog.Int("bytes", buf.Len()))
}
