// Package engine implements the round state machine: a round moves from
// Guessing to Locating to Result, and only an explicit Advance starts the
// next one.
package engine

import (
	"errors"
	"fmt"

	"github.com/playperu/geogamer/internal/geogamer"
	"github.com/playperu/geogamer/internal/mapview"
	"github.com/playperu/geogamer/internal/scoring"
)

const (
	RoundSeconds = 60
	MaxAttempts  = 3
)

var (
	ErrWrongPhase = errors.New("action not allowed in the current phase")
	ErrNoMarker   = errors.New("no marker placed")
)

type Phase string

const (
	PhaseGuessing Phase = "guessing"
	PhaseLocating Phase = "locating"
	PhaseResult   Phase = "result"
)

// RoundSession is the state of the round being played. A new one replaces
// it for every round.
type RoundSession struct {
	Index             int
	Round             geogamer.Round
	Phase             Phase
	AttemptsRemaining int
	TimeRemaining     int
	Guess             string
	GuessFound        bool
	Marker            *geogamer.Point
	NamingPoints      int
	LocationPoints    int
	Distance          float64
	Score             int
	Message           string
}

// GameSession spans a whole level.
type GameSession struct {
	LevelID     int
	TotalScore  int
	RoundIndex  int
	RoundCount  int
	RoundsFound []bool
	Complete    bool
}

// Destination tells the caller where to go after a round.
type Destination string

const (
	DestinationNextRound Destination = "next_round"
	DestinationNextLevel Destination = "next_level"
	DestinationHome      Destination = "home"
)

type Transition struct {
	Destination Destination `json:"destination"`
	LevelID     int         `json:"levelId,omitempty"`
}

type GuessResult struct {
	Correct           bool `json:"correct"`
	Points            int  `json:"points"`
	AttemptsRemaining int  `json:"attemptsRemaining"`
}

type LocationResult struct {
	Distance float64 `json:"distance"`
	Points   int     `json:"points"`
}

// Engine plays one level. It is not safe for concurrent use; callers
// serialize events.
type Engine struct {
	level     geogamer.Level
	lastLevel int
	game      GameSession
	round     RoundSession
	view      *mapview.Controller
	exit      Transition
}

// New starts the first round of level. lastLevelID is the highest level id
// in the catalog, used to decide where a finished level leads. A level
// without rounds plays the fallback round.
func New(level geogamer.Level, lastLevelID int) *Engine {
	if len(level.Rounds) == 0 {
		level.Rounds = []geogamer.Round{geogamer.FallbackRound()}
	}
	e := &Engine{
		level:     level,
		lastLevel: lastLevelID,
		game: GameSession{
			LevelID:     level.ID,
			RoundCount:  len(level.Rounds),
			RoundsFound: make([]bool, len(level.Rounds)),
		},
		view: mapview.New(),
	}
	e.startRound(0)
	return e
}

func (e *Engine) startRound(index int) {
	e.game.RoundIndex = index
	e.round = RoundSession{
		Index:             index,
		Round:             e.level.Rounds[index],
		Phase:             PhaseGuessing,
		AttemptsRemaining: MaxAttempts,
		TimeRemaining:     RoundSeconds,
	}
	e.view.Reset()
}

func (e *Engine) Level() geogamer.Level { return e.level }

// Round returns a copy of the current round state.
func (e *Engine) Round() RoundSession {
	r := e.round
	if r.Marker != nil {
		m := *r.Marker
		r.Marker = &m
	}
	return r
}

// Game returns a copy of the level state.
func (e *Engine) Game() GameSession {
	g := e.game
	g.RoundsFound = append([]bool(nil), e.game.RoundsFound...)
	return g
}

func (e *Engine) MapView() mapview.State { return e.view.State() }

// Tick accounts for one elapsed second and reports whether the state
// changed. The countdown keeps running while locating, but running out
// there has no effect: only a guessing round times out.
func (e *Engine) Tick() bool {
	if e.round.Phase == PhaseResult || e.round.TimeRemaining <= 0 {
		return false
	}
	e.round.TimeRemaining--
	if e.round.TimeRemaining == 0 && e.round.Phase == PhaseGuessing {
		e.round.Phase = PhaseResult
		e.round.Marker = nil
		e.round.Guess = ""
		e.round.Message = "Time's up! The game was: " + e.round.Round.CorrectName
	}
	return true
}

// SetGuess records the text typed so far.
func (e *Engine) SetGuess(text string) error {
	if e.round.Phase != PhaseGuessing {
		return ErrWrongPhase
	}
	e.round.Guess = text
	return nil
}

// SubmitGuess checks guess against the round's accepted names. A miss,
// blank guesses included, costs one attempt; the last miss ends the round.
func (e *Engine) SubmitGuess(guess string) (GuessResult, error) {
	if e.round.Phase != PhaseGuessing {
		return GuessResult{}, ErrWrongPhase
	}
	e.round.Guess = ""

	if e.round.Round.Matches(guess) {
		points := scoring.Naming()
		e.round.GuessFound = true
		e.round.NamingPoints = points
		e.round.Score += points
		e.game.TotalScore += points
		e.game.RoundsFound[e.round.Index] = true
		e.round.Phase = PhaseLocating
		e.view.Reset()
		return GuessResult{
			Correct:           true,
			Points:            points,
			AttemptsRemaining: e.round.AttemptsRemaining,
		}, nil
	}

	if e.round.AttemptsRemaining > 0 {
		e.round.AttemptsRemaining--
	}
	if e.round.AttemptsRemaining == 0 {
		e.round.Phase = PhaseResult
		e.round.Message = "Wrong! The game was: " + e.round.Round.CorrectName
	}
	return GuessResult{AttemptsRemaining: e.round.AttemptsRemaining}, nil
}

func (e *Engine) Wheel(deltaY float64) error {
	if e.round.Phase != PhaseLocating {
		return ErrWrongPhase
	}
	e.view.Wheel(deltaY)
	return nil
}

func (e *Engine) PointerDown(p mapview.Vec) error {
	if e.round.Phase != PhaseLocating {
		return ErrWrongPhase
	}
	e.view.PointerDown(p)
	return nil
}

func (e *Engine) PointerMove(p mapview.Vec) error {
	if e.round.Phase != PhaseLocating {
		return ErrWrongPhase
	}
	e.view.PointerMove(p)
	return nil
}

func (e *Engine) PointerUp() error {
	if e.round.Phase != PhaseLocating {
		return ErrWrongPhase
	}
	e.view.PointerUp()
	return nil
}

func (e *Engine) PointerLeave() error {
	if e.round.Phase != PhaseLocating {
		return ErrWrongPhase
	}
	e.view.PointerLeave()
	return nil
}

// Click places or moves the marker. It reports whether the click placed
// it; clicks that end a drag do not.
func (e *Engine) Click(p mapview.Vec, bounds mapview.Rect) (bool, error) {
	if e.round.Phase != PhaseLocating {
		return false, ErrWrongPhase
	}
	pt, ok := e.view.Click(p, bounds)
	if !ok {
		return false, nil
	}
	e.round.Marker = &pt
	return true, nil
}

// PlaceMarker sets the marker directly in image percentages, for clients
// that already did the pointer math.
func (e *Engine) PlaceMarker(pt geogamer.Point) (bool, error) {
	if e.round.Phase != PhaseLocating {
		return false, ErrWrongPhase
	}
	if e.view.State().Dragging || !pt.InBounds() {
		return false, nil
	}
	e.round.Marker = &pt
	return true, nil
}

// Validate scores the marker and ends the round.
func (e *Engine) Validate() (LocationResult, error) {
	if e.round.Phase != PhaseLocating {
		return LocationResult{}, ErrWrongPhase
	}
	if e.round.Marker == nil {
		return LocationResult{}, ErrNoMarker
	}
	d := scoring.Distance(*e.round.Marker, e.round.Round.Target)
	points := scoring.LocationForDistance(d)

	e.round.Distance = d
	e.round.LocationPoints = points
	e.round.Score += points
	e.game.TotalScore += points
	e.round.Phase = PhaseResult
	e.round.Message = fmt.Sprintf("Distance: %.1f%% - +%d points!", d, points)
	return LocationResult{Distance: d, Points: points}, nil
}

// Advance leaves a finished round. Within the level it starts the next
// round; past the last round it reports where the player goes next and
// leaves the state untouched.
func (e *Engine) Advance() (Transition, error) {
	if e.game.Complete {
		return e.exit, nil
	}
	if e.round.Phase != PhaseResult {
		return Transition{}, ErrWrongPhase
	}

	next := e.round.Index + 1
	if next < len(e.level.Rounds) {
		e.startRound(next)
		return Transition{Destination: DestinationNextRound, LevelID: e.level.ID}, nil
	}

	e.game.Complete = true
	if e.level.ID >= 1 && e.level.ID+1 <= e.lastLevel {
		e.exit = Transition{Destination: DestinationNextLevel, LevelID: e.level.ID + 1}
	} else {
		e.exit = Transition{Destination: DestinationHome}
	}
	return e.exit, nil
}
