package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "predmaint/internal/errors"
	"predmaint/internal/preprocessing"
	"predmaint/internal/services"
)

// PageHandler serves the server-rendered analysis and presentation pages.
// Form posts follow post/redirect/get on success and re-render the page with
// an alert on failure.
type PageHandler struct {
	analysis       AnalysisServiceInterface
	presentation   PresentationServiceInterface
	renderer       *PageRenderer
	validator      StructValidator
	maxUploadBytes int64
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
}

// NewPageHandler creates a new page handler
func NewPageHandler(analysis AnalysisServiceInterface, presentation PresentationServiceInterface, renderer *PageRenderer, validator StructValidator, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *PageHandler {
	return &PageHandler{
		analysis:       analysis,
		presentation:   presentation,
		renderer:       renderer,
		validator:      validator,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("handler", "pages")),
		errorHandler:   errorHandler,
	}
}

// RegisterRoutes adds the page routes to r
func (h *PageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/analysis", http.StatusFound)
	})

	r.Get("/analysis", h.AnalysisPage)
	r.Post("/analysis/upload", h.UploadForm)
	r.Post("/analysis/predict", h.PredictForm)

	r.Get("/presentation", h.PresentationPage)
	r.Post("/presentation/{action}", h.NavigateForm)
}

// AnalysisPage handles GET /analysis
func (h *PageHandler) AnalysisPage(w http.ResponseWriter, r *http.Request) {
	data, err := h.analysisData(r)
	if err != nil {
		h.fail(w, r, PageAnalysis, data, err)
		return
	}
	if r.URL.Query().Get("trained") != "" && data.Summary.Trained {
		data.Notice = "Model trained on " + data.Summary.DatasetName
	}
	h.render(w, r, http.StatusOK, PageAnalysis, data)
}

// UploadForm handles POST /analysis/upload
func (h *PageHandler) UploadForm(w http.ResponseWriter, r *http.Request) {
	up, err := readUpload(w, r, h.maxUploadBytes)
	if err != nil {
		h.failAnalysis(w, r, nil, err)
		return
	}
	defer up.Close()

	if _, err := h.analysis.Upload(r.Context(), SessionID(r.Context()), up.filename, up.file, up.size); err != nil {
		h.failAnalysis(w, r, nil, err)
		return
	}

	http.Redirect(w, r, "/analysis?trained=1", http.StatusSeeOther)
}

// PredictForm handles POST /analysis/predict
func (h *PageHandler) PredictForm(w http.ResponseWriter, r *http.Request) {
	req, err := decodePrediction(r, h.validator)
	if err != nil {
		h.failAnalysis(w, r, req, err)
		return
	}

	prediction, err := h.analysis.Predict(r.Context(), SessionID(r.Context()), req.Reading())
	if err != nil {
		h.failAnalysis(w, r, req, err)
		return
	}

	data, err := h.analysisData(r)
	if err != nil {
		h.fail(w, r, PageAnalysis, data, err)
		return
	}
	data.Form = req.formValues()
	data.Prediction = prediction
	h.render(w, r, http.StatusOK, PageAnalysis, data)
}

// PresentationPage handles GET /presentation
func (h *PageHandler) PresentationPage(w http.ResponseWriter, r *http.Request) {
	data := &PageData{Title: "Presentation", Active: PagePresentation}

	view, err := h.presentation.State(SessionID(r.Context()))
	if err != nil {
		h.fail(w, r, PagePresentation, data, err)
		return
	}
	data.View = view
	h.render(w, r, http.StatusOK, PagePresentation, data)
}

// NavigateForm handles POST /presentation/{action}
func (h *PageHandler) NavigateForm(w http.ResponseWriter, r *http.Request) {
	sessionID := SessionID(r.Context())
	if _, err := h.presentation.Navigate(r.Context(), sessionID, chi.URLParam(r, "action")); err != nil {
		data := &PageData{Title: "Presentation", Active: PagePresentation}
		data.View, _ = h.presentation.State(sessionID)
		h.fail(w, r, PagePresentation, data, err)
		return
	}
	http.Redirect(w, r, "/presentation", http.StatusSeeOther)
}

// analysisData loads the session summary. The returned data is always
// renderable, even alongside an error.
func (h *PageHandler) analysisData(r *http.Request) (*PageData, error) {
	data := &PageData{
		Title:   "Analysis",
		Active:  PageAnalysis,
		Summary: &services.AnalysisSummary{},
		Form:    preprocessing.DefaultReading(),
		Types:   preprocessing.TypeCategories,
	}

	summary, err := h.analysis.Summary(SessionID(r.Context()))
	if err != nil {
		return data, err
	}
	data.Summary = summary
	return data, nil
}

func (h *PageHandler) failAnalysis(w http.ResponseWriter, r *http.Request, req *PredictionRequest, err error) {
	// The failed request's error takes precedence over a summary error.
	data, _ := h.analysisData(r)
	if req != nil {
		data.Form = req.formValues()
	}
	h.fail(w, r, PageAnalysis, data, err)
}

func (h *PageHandler) fail(w http.ResponseWriter, r *http.Request, page string, data *PageData, err error) {
	problem := h.errorHandler.ErrorToProblem(err, r)
	data.Error = problemMessage(problem)

	h.logger.WarnContext(r.Context(), "page request failed",
		slog.String("page", page),
		slog.Int("status", problem.Status),
		slog.String("error", err.Error()))

	if page == PagePresentation && data.View == nil {
		// Nothing to show without a slide; fall back to a problem response.
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.render(w, r, problem.Status, page, data)
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, page string, data *PageData) {
	if err := h.renderer.Render(w, status, page, data); err != nil {
		h.errorHandler.HandleError(w, r, err)
	}
}
