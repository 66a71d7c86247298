package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "predmaint/internal/errors"
)

// PresentationHandler serves the JSON slide viewer API
type PresentationHandler struct {
	service      PresentationServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewPresentationHandler creates a new presentation handler
func NewPresentationHandler(service PresentationServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *PresentationHandler {
	return &PresentationHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "presentation")),
		errorHandler: errorHandler,
	}
}

// Routes returns the presentation routes
func (h *PresentationHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetState)
	r.Post("/{action}", h.Navigate)

	return r
}

// GetState handles GET /api/presentation
func (h *PresentationHandler) GetState(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.State(SessionID(r.Context()))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// Navigate handles POST /api/presentation/{action}
func (h *PresentationHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Navigate(r.Context(), SessionID(r.Context()), chi.URLParam(r, "action"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}
