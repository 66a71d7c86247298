package presentation

import (
	"errors"
	"fmt"
	"time"
)

// Action is a viewer command.
type Action string

const (
	ActionFirst    Action = "first"
	ActionBack     Action = "back"
	ActionForward  Action = "forward"
	ActionLast     Action = "last"
	ActionAutoplay Action = "autoplay"
)

// ErrUnknownAction is returned for an unsupported viewer command
var ErrUnknownAction = errors.New("unknown slide action")

// ParseAction validates an action name
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionFirst, ActionBack, ActionForward, ActionLast, ActionAutoplay:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
}

// ViewerState is the per-session position in the deck.
type ViewerState struct {
	Index       int       `json:"index"`
	Autoplay    bool      `json:"autoplay"`
	LastAdvance time.Time `json:"last_advance"`
}

// Viewer applies navigation to a ViewerState for a deck of fixed size.
// Every transition returns a new state and keeps 0 <= Index < size.
type Viewer struct {
	size      int
	threshold time.Duration
}

// NewViewer creates a viewer for size slides. Autoplay advances only when
// more than threshold has passed since the last advance.
func NewViewer(size int, threshold time.Duration) (*Viewer, error) {
	if size < 1 {
		return nil, ErrEmptyDeck
	}
	return &Viewer{size: size, threshold: threshold}, nil
}

// Size returns the number of slides
func (v *Viewer) Size() int {
	return v.size
}

// First jumps to the opening slide
func (v *Viewer) First(s ViewerState) ViewerState {
	s.Index = 0
	return s
}

// Back moves one slide back, staying on the first
func (v *Viewer) Back(s ViewerState) ViewerState {
	s.Index = max(0, s.Index-1)
	return s
}

// Forward moves one slide on, staying on the last
func (v *Viewer) Forward(s ViewerState) ViewerState {
	s.Index = min(v.size-1, s.Index+1)
	return s
}

// Last jumps to the final slide
func (v *Viewer) Last(s ViewerState) ViewerState {
	s.Index = v.size - 1
	return s
}

// ToggleAutoplay flips autoplay. Turning it on restarts the advance timer.
func (v *Viewer) ToggleAutoplay(s ViewerState, now time.Time) ViewerState {
	s.Autoplay = !s.Autoplay
	if s.Autoplay {
		s.LastAdvance = now
	}
	return s
}

// Tick advances one slide when autoplay is on and the threshold has elapsed.
// On the last slide it turns autoplay off instead. The second result reports
// whether the state changed.
func (v *Viewer) Tick(s ViewerState, now time.Time) (ViewerState, bool) {
	if !s.Autoplay || now.Sub(s.LastAdvance) <= v.threshold {
		return s, false
	}
	if s.Index < v.size-1 {
		s.Index++
	} else {
		s.Autoplay = false
	}
	s.LastAdvance = now
	return s, true
}

// Apply runs action against s.
func (v *Viewer) Apply(s ViewerState, action Action, now time.Time) (ViewerState, error) {
	switch action {
	case ActionFirst:
		return v.First(s), nil
	case ActionBack:
		return v.Back(s), nil
	case ActionForward:
		return v.Forward(s), nil
	case ActionLast:
		return v.Last(s), nil
	case ActionAutoplay:
		return v.ToggleAutoplay(s, now), nil
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

// Progress describes the position shown under the slide.
type Progress struct {
	Current  int     `json:"current"`
	Total    int     `json:"total"`
	Fraction float64 `json:"fraction"`
	Label    string  `json:"label"`
}

// Progress reports slide i+1 of N
func (v *Viewer) Progress(s ViewerState) Progress {
	current := s.Index + 1
	return Progress{
		Current:  current,
		Total:    v.size,
		Fraction: float64(current) / float64(v.size),
		Label:    fmt.Sprintf("Slide %d of %d", current, v.size),
	}
}
