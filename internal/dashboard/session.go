package dashboard

import (
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/buffer-dashboard/internal/present"
	"github.com/sells-group/buffer-dashboard/internal/query"
)

// State is a section's binding state.
type State int

const (
	Idle State = iota
	Recomputing
)

func (s State) String() string {
	if s == Recomputing {
		return "recomputing"
	}
	return "idle"
}

// ErrInvalidEvent is returned for events missing their payload or of an
// unknown type.
var ErrInvalidEvent = eris.New("dashboard: invalid event")

// Event types.
const (
	EventDistance = "distance"
	EventViewport = "viewport"
)

// Event is a control change reported by the display surface.
type Event struct {
	Section  SectionName       `json:"section"`
	Type     string            `json:"type"`
	Distance *float64          `json:"distance,omitempty"`
	Viewport *present.Viewport `json:"viewport,omitempty"`
}

// Reply carries a section's fresh output back to the display surface.
type Reply struct {
	Section SectionName     `json:"section"`
	Output  *present.Output `json:"output"`
}

type sectionState struct {
	state    State
	distance float64
	viewport *present.Viewport
}

// Session is one display surface's view of the dashboard: the last distance
// and viewport per section. A session is driven by a single goroutine; each
// event runs to completion before the next is handled.
type Session struct {
	ID string

	dash     *Dashboard
	sections map[SectionName]*sectionState
	log      *zap.Logger
}

// NewSession starts a session with every section at its default distance
// and the default viewport.
func NewSession(d *Dashboard) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		dash:     d,
		sections: make(map[SectionName]*sectionState, len(Sections)),
	}
	for _, name := range Sections {
		s.sections[name] = &sectionState{distance: d.controls[name].Default}
	}
	s.log = d.log.With(zap.String("session", s.ID))
	return s
}

// Initial renders every section with the session's current parameters.
func (s *Session) Initial() ([]Reply, error) {
	replies := make([]Reply, 0, len(Sections))
	for _, name := range Sections {
		r, err := s.recompute(name, s.sections[name])
		if err != nil {
			return nil, err
		}
		replies = append(replies, *r)
	}
	return replies, nil
}

// Handle applies one event and recomputes the affected section. A distance
// event replaces the distance and keeps the viewport; a viewport event keeps
// the distance and replaces the viewport. Other sections are untouched.
func (s *Session) Handle(ev Event) (*Reply, error) {
	sec, ok := s.sections[ev.Section]
	if !ok {
		return nil, eris.Wrapf(ErrUnknownSection, "%q", ev.Section)
	}

	switch ev.Type {
	case EventDistance:
		if ev.Distance == nil {
			return nil, eris.Wrap(ErrInvalidEvent, "distance event without a distance")
		}
		// Validate before touching state so a rejected value is not kept.
		if failed, _ := s.dash.Failed(); !failed {
			if err := query.ValidateDistance(*ev.Distance); err != nil {
				return nil, err
			}
		}
		sec.distance = *ev.Distance
	case EventViewport:
		if ev.Viewport != nil {
			vp := *ev.Viewport
			sec.viewport = &vp
		} else {
			sec.viewport = nil
		}
	default:
		return nil, eris.Wrapf(ErrInvalidEvent, "unknown event type %q", ev.Type)
	}

	return s.recompute(ev.Section, sec)
}

// State returns the binding state of a section.
func (s *Session) State(section SectionName) State {
	if sec, ok := s.sections[section]; ok {
		return sec.state
	}
	return Idle
}

// Params returns the parameters the next recomputation of a section uses.
func (s *Session) Params(section SectionName) (Params, bool) {
	sec, ok := s.sections[section]
	if !ok {
		return Params{}, false
	}
	return Params{Distance: sec.distance, Viewport: sec.viewport}, true
}

func (s *Session) recompute(name SectionName, sec *sectionState) (*Reply, error) {
	sec.state = Recomputing
	defer func() { sec.state = Idle }()

	out, err := s.dash.Update(name, Params{Distance: sec.distance, Viewport: sec.viewport})
	if err != nil {
		s.log.Warn("section update failed", zap.String("section", string(name)), zap.Error(err))
		return nil, err
	}
	return &Reply{Section: name, Output: out}, nil
}
