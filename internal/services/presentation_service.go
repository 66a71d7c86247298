package services

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"predmaint/internal/infrastructure"
	"predmaint/internal/presentation"
	"predmaint/internal/session"
	ws "predmaint/internal/websocket"
)

// SlideView is the rendered state of the presentation for one session.
type SlideView struct {
	DeckTitle string                   `json:"deck_title"`
	Slide     presentation.Slide       `json:"slide"`
	State     presentation.ViewerState `json:"state"`
	Progress  presentation.Progress    `json:"progress"`
	IsFirst   bool                     `json:"is_first"`
	IsLast    bool                     `json:"is_last"`
}

// PresentationService drives the slide viewer of each session and its autoplay timer.
type PresentationService struct {
	store     *session.Store
	deck      *presentation.Deck
	viewer    *presentation.Viewer
	scheduler *presentation.Scheduler
	hub       ws.SessionBroadcaster
	metrics   *infrastructure.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewPresentationService wires the viewer to the session store. Evicted
// sessions have their autoplay timers stopped.
func NewPresentationService(store *session.Store, deck *presentation.Deck, viewer *presentation.Viewer, scheduler *presentation.Scheduler, hub ws.SessionBroadcaster, metrics *infrastructure.Metrics, logger *slog.Logger) *PresentationService {
	if metrics == nil {
		metrics = infrastructure.NoopMetrics()
	}
	s := &PresentationService{
		store:     store,
		deck:      deck,
		viewer:    viewer,
		scheduler: scheduler,
		hub:       hub,
		metrics:   metrics,
		logger:    logger.With(slog.String("service", "presentation")),
		now:       time.Now,
	}
	store.OnEvict(scheduler.Stop)
	return s
}

// State returns the session's slide after applying any autoplay advance
// that is already due.
func (s *PresentationService) State(sessionID string) (*SlideView, error) {
	view, _, err := s.Tick(sessionID, s.now())
	return view, err
}

// Navigate applies a named action (first, back, forward, last, autoplay).
func (s *PresentationService) Navigate(ctx context.Context, sessionID, name string) (*SlideView, error) {
	action, err := presentation.ParseAction(name)
	if err != nil {
		return nil, toAPIError(err)
	}

	now := s.now()
	var applyErr error
	sess, err := s.store.Update(sessionID, func(sess *session.Session) error {
		sess.Viewer, applyErr = s.viewer.Apply(sess.Viewer, action, now)
		return applyErr
	})
	if err != nil {
		return nil, toAPIError(err)
	}

	s.metrics.SlideTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("action", string(action))))

	if action == presentation.ActionAutoplay {
		// A timer that just cleared autoplay on its own may still be exiting.
		s.scheduler.Stop(sessionID)
		if sess.Viewer.Autoplay {
			s.scheduler.Start(context.Background(), sessionID, s.advancer(sessionID))
		}
	}

	view := s.render(sess.Viewer)
	s.hub.BroadcastToSession(sessionID, ws.TypeSlideState, view)

	s.logger.DebugContext(ctx, "slide navigation",
		slog.String("session_id", sessionID),
		slog.String("action", string(action)),
		slog.Int("index", sess.Viewer.Index),
		slog.Bool("autoplay", sess.Viewer.Autoplay))
	return view, nil
}

// Tick runs the advance-if-due check at now. Repeated calls with the same
// now change nothing. The bool reports whether the state changed.
func (s *PresentationService) Tick(sessionID string, now time.Time) (*SlideView, bool, error) {
	var changed bool
	sess, err := s.store.Update(sessionID, func(sess *session.Session) error {
		sess.Viewer, changed = s.viewer.Tick(sess.Viewer, now)
		return nil
	})
	if err != nil {
		return nil, false, toAPIError(err)
	}

	view := s.render(sess.Viewer)
	if changed {
		s.metrics.SlideTransitions.Add(context.Background(), 1, metric.WithAttributes(attribute.String("action", "tick")))
		s.hub.BroadcastToSession(sessionID, ws.TypeSlideState, view)
	}
	return view, changed, nil
}

// Autoplaying reports whether an autoplay timer runs for the session
func (s *PresentationService) Autoplaying(sessionID string) bool {
	return s.scheduler.Running(sessionID)
}

// Shutdown stops every autoplay timer
func (s *PresentationService) Shutdown() {
	s.scheduler.StopAll()
}

func (s *PresentationService) advancer(sessionID string) presentation.AdvanceFunc {
	return func(now time.Time) bool {
		view, _, err := s.Tick(sessionID, now)
		if err != nil {
			return false
		}
		return view.State.Autoplay
	}
}

func (s *PresentationService) render(state presentation.ViewerState) *SlideView {
	return &SlideView{
		DeckTitle: s.deck.Title,
		Slide:     s.deck.Slide(state.Index),
		State:     state,
		Progress:  s.viewer.Progress(state),
		IsFirst:   state.Index == 0,
		IsLast:    state.Index == s.viewer.Size()-1,
	}
}
