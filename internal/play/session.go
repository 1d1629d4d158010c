// Package play runs play sessions: one engine per player, driven by user
// events and by its countdown and score-reveal timers.
package play

import (
	"log/slog"
	"sync"
	"time"

	"github.com/playperu/geogamer/internal/clock"
	"github.com/playperu/geogamer/internal/engine"
	"github.com/playperu/geogamer/internal/geogamer"
	"github.com/playperu/geogamer/internal/mapview"
	"github.com/playperu/geogamer/internal/scoring"
)

const (
	RevealSteps    = 60
	RevealDuration = time.Second
)

// Event types published on a session topic.
const (
	EventState         = "state"
	EventTick          = "tick"
	EventReveal        = "reveal"
	EventLevelComplete = "level_complete"
)

// Event is the payload published to session subscribers.
type Event struct {
	Type       string             `json:"type"`
	Phase      engine.Phase       `json:"phase,omitempty"`
	Remaining  *int               `json:"remaining,omitempty"`
	Value      *int               `json:"value,omitempty"`
	TotalScore int                `json:"totalScore"`
	Transition *engine.Transition `json:"transition,omitempty"`
}

// Publisher delivers session events to whoever listens on topic.
type Publisher interface {
	Publish(topic string, event any)
}

// Snapshot is a consistent copy of a session's state.
type Snapshot struct {
	SessionID string
	Level     geogamer.Level
	Round     engine.RoundSession
	Game      engine.GameSession
	MapView   mapview.State
	Revealed  int
}

// Session serializes all events for one player. Every mutation, from a
// request or a timer, happens under mu.
type Session struct {
	ID string

	mu        sync.Mutex
	engine    *engine.Engine
	countdown *clock.Countdown
	sched     clock.Scheduler
	pub       Publisher
	logger    *slog.Logger
	gen       uint64
	reveal    func()
	revealed  int
	lastSeen  time.Time
	closed    bool
	now       func() time.Time
}

func newSession(id string, level geogamer.Level, lastLevelID int, sched clock.Scheduler, pub Publisher, logger *slog.Logger, now func() time.Time) *Session {
	s := &Session{
		ID:       id,
		engine:   engine.New(level, lastLevelID),
		sched:    sched,
		pub:      pub,
		logger:   logger.With("session_id", id),
		now:      now,
		lastSeen: now(),
	}
	s.startCountdownLocked()
	return s
}

// startCountdownLocked gives the current round a fresh countdown whose
// ticks are bound to the round generation.
func (s *Session) startCountdownLocked() {
	if s.countdown != nil {
		s.countdown.Cancel()
	}
	gen := s.gen
	s.countdown = clock.NewCountdown(s.sched, func(int) { s.onTick(gen) })
	s.countdown.Start(engine.RoundSeconds)
}

func (s *Session) onTick(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		return
	}
	if !s.engine.Tick() {
		return
	}
	round := s.engine.Round()
	remaining := round.TimeRemaining
	s.publishLocked(Event{Type: EventTick, Phase: round.Phase, Remaining: &remaining})
	if round.Phase == engine.PhaseResult {
		s.logger.Debug("round timed out", "round", round.Index)
		s.enterResultLocked()
	}
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		SessionID: s.ID,
		Level:     s.engine.Level(),
		Round:     s.engine.Round(),
		Game:      s.engine.Game(),
		MapView:   s.engine.MapView(),
		Revealed:  s.revealed,
	}
}

// SetGuess records the draft guess text.
func (s *Session) SetGuess(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(); err != nil {
		return err
	}
	return s.engine.SetGuess(text)
}

func (s *Session) SubmitGuess(guess string) (engine.GuessResult, Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(); err != nil {
		return engine.GuessResult{}, Snapshot{}, err
	}

	res, err := s.engine.SubmitGuess(guess)
	if err != nil {
		return res, Snapshot{}, err
	}
	s.logger.Debug("guess submitted", "correct", res.Correct, "attempts_remaining", res.AttemptsRemaining)
	if s.engine.Round().Phase == engine.PhaseResult {
		s.enterResultLocked()
	}
	s.publishStateLocked()
	return res, s.snapshotLocked(), nil
}

// MapInput is one pointer event over the map.
type MapInput struct {
	Type   string
	Point  mapview.Vec
	DeltaY float64
	Bounds mapview.Rect
}

// Map event types accepted by HandleMap.
const (
	MapWheel = "wheel"
	MapDown  = "down"
	MapMove  = "move"
	MapUp    = "up"
	MapLeave = "leave"
	MapClick = "click"
)

// HandleMap applies one map event and reports whether it placed the marker.
func (s *Session) HandleMap(in MapInput) (bool, Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(); err != nil {
		return false, Snapshot{}, err
	}

	var (
		placed bool
		err    error
	)
	switch in.Type {
	case MapWheel:
		err = s.engine.Wheel(in.DeltaY)
	case MapDown:
		err = s.engine.PointerDown(in.Point)
	case MapMove:
		err = s.engine.PointerMove(in.Point)
	case MapUp:
		err = s.engine.PointerUp()
	case MapLeave:
		err = s.engine.PointerLeave()
	case MapClick:
		placed, err = s.engine.Click(in.Point, in.Bounds)
	default:
		return false, Snapshot{}, ErrUnknownMapEvent
	}
	if err != nil {
		return false, Snapshot{}, err
	}
	return placed, s.snapshotLocked(), nil
}

// PlaceMarker sets the marker from image percentages.
func (s *Session) PlaceMarker(pt geogamer.Point) (bool, Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(); err != nil {
		return false, Snapshot{}, err
	}
	placed, err := s.engine.PlaceMarker(pt)
	if err != nil {
		return false, Snapshot{}, err
	}
	return placed, s.snapshotLocked(), nil
}

func (s *Session) Validate() (engine.LocationResult, Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(); err != nil {
		return engine.LocationResult{}, Snapshot{}, err
	}

	res, err := s.engine.Validate()
	if err != nil {
		return res, Snapshot{}, err
	}
	s.logger.Debug("location validated", "distance", res.Distance, "points", res.Points)
	s.enterResultLocked()
	s.publishStateLocked()
	return res, s.snapshotLocked(), nil
}

// Advance moves past a finished round.
func (s *Session) Advance() (engine.Transition, Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(); err != nil {
		return engine.Transition{}, Snapshot{}, err
	}
	return s.advanceLocked()
}

func (s *Session) advanceLocked() (engine.Transition, Snapshot, error) {
	tr, err := s.engine.Advance()
	if err != nil {
		return tr, Snapshot{}, err
	}

	switch tr.Destination {
	case engine.DestinationNextRound:
		s.stopRevealLocked()
		s.revealed = 0
		s.gen++
		s.startCountdownLocked()
		s.publishStateLocked()
	default:
		s.countdown.Cancel()
		s.publishLocked(Event{Type: EventLevelComplete, Transition: &tr})
		s.logger.Info("level complete", "level", s.engine.Level().ID, "score", s.engine.Game().TotalScore, "destination", tr.Destination)
	}
	return tr, s.snapshotLocked(), nil
}

// Close stops every timer. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.countdown.Cancel()
	s.stopRevealLocked()
}

// IdleSince returns when the session last handled a player event.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) checkLocked() error {
	if s.closed {
		return ErrSessionClosed
	}
	s.lastSeen = s.now()
	return nil
}

// enterResultLocked stops the countdown and starts counting the location
// score up, if any.
func (s *Session) enterResultLocked() {
	s.countdown.Cancel()
	s.stopRevealLocked()

	points := s.engine.Round().LocationPoints
	s.revealed = 0
	if points <= 0 {
		return
	}

	frames := scoring.RevealFrames(points, RevealSteps)
	gen := s.gen
	step := 0
	s.reveal = s.sched.Every(RevealDuration/RevealSteps, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || gen != s.gen || step >= len(frames) {
			return
		}
		s.revealed = frames[step]
		step++
		value := s.revealed
		s.publishLocked(Event{Type: EventReveal, Phase: engine.PhaseResult, Value: &value})
		if step == len(frames) {
			s.stopRevealLocked()
		}
	})
}

func (s *Session) stopRevealLocked() {
	if s.reveal != nil {
		s.reveal()
		s.reveal = nil
	}
}

func (s *Session) publishStateLocked() {
	s.publishLocked(Event{Type: EventState, Phase: s.engine.Round().Phase})
}

func (s *Session) publishLocked(ev Event) {
	if s.pub == nil {
		return
	}
	ev.TotalScore = s.engine.Game().TotalScore
	s.pub.Publish(s.ID, ev)
}

// EventName is the SSE event name the event is sent under.
func (e Event) EventName() string { return e.Type }
