package server

import (
	"github.com/playperu/geogamer/internal/assets"
	"github.com/playperu/geogamer/internal/engine"
	"github.com/playperu/geogamer/internal/geogamer"
	"github.com/playperu/geogamer/internal/mapview"
	"github.com/playperu/geogamer/internal/play"
)

// PlayStateResponse is everything a client needs to render a play session.
type PlayStateResponse struct {
	SessionID string             `json:"sessionId"`
	Level     geogamer.LevelInfo `json:"level"`
	Round     RoundState         `json:"round"`
	Game      GameState          `json:"game"`
	MapView   mapview.State      `json:"mapView"`
	Panorama  PanoramaState      `json:"panorama"`
	Countdown CountdownState     `json:"countdown"`
}

// RoundState is the round as the player may see it. The answer, the
// cover and the target stay hidden until the player has earned them.
type RoundState struct {
	Index             int             `json:"index"`
	Phase             engine.Phase    `json:"phase"`
	AttemptsRemaining int             `json:"attemptsRemaining"`
	TimeRemaining     int             `json:"timeRemaining"`
	Guess             string          `json:"guess"`
	GuessFound        bool            `json:"guessFound"`
	CorrectName       string          `json:"correctName,omitempty"`
	Marker            *geogamer.Point `json:"marker,omitempty"`
	Target            *geogamer.Point `json:"target,omitempty"`
	NamingPoints      int             `json:"namingPoints"`
	LocationPoints    int             `json:"locationPoints"`
	RevealedPoints    int             `json:"revealedPoints"`
	Distance          float64         `json:"distance"`
	Score             int             `json:"score"`
	Message           string          `json:"message,omitempty"`
	Map               assets.Image    `json:"map"`
	Cover             *assets.Image   `json:"cover,omitempty"`
}

type GameState struct {
	TotalScore  int    `json:"totalScore"`
	RoundIndex  int    `json:"roundIndex"`
	RoundCount  int    `json:"roundCount"`
	RoundsFound []bool `json:"roundsFound"`
	Complete    bool   `json:"complete"`
}

// PanoramaState drives the 360° viewer. It auto-rotates once the round is
// over.
type PanoramaState struct {
	Image      assets.Image `json:"image"`
	AutoRotate bool         `json:"autoRotate"`
}

type CountdownState struct {
	Remaining int `json:"remaining"`
	Budget    int `json:"budget"`
}

func newPlayState(snap play.Snapshot, res *assets.Resolver) PlayStateResponse {
	rs := snap.Round
	round := RoundState{
		Index:             rs.Index,
		Phase:             rs.Phase,
		AttemptsRemaining: rs.AttemptsRemaining,
		TimeRemaining:     rs.TimeRemaining,
		Guess:             rs.Guess,
		GuessFound:        rs.GuessFound,
		Marker:            rs.Marker,
		NamingPoints:      rs.NamingPoints,
		LocationPoints:    rs.LocationPoints,
		RevealedPoints:    snap.Revealed,
		Distance:          rs.Distance,
		Score:             rs.Score,
		Message:           rs.Message,
		Map:               res.Map(rs.Round.Map),
	}
	if rs.GuessFound || rs.Phase == engine.PhaseResult {
		round.CorrectName = rs.Round.CorrectName
	}
	if rs.Phase == engine.PhaseResult {
		target := rs.Round.Target
		round.Target = &target
		cover := res.Cover(rs.Round.Cover)
		round.Cover = &cover
	}

	return PlayStateResponse{
		SessionID: snap.SessionID,
		Level:     snap.Level.Info(),
		Round:     round,
		Game: GameState{
			TotalScore:  snap.Game.TotalScore,
			RoundIndex:  snap.Game.RoundIndex,
			RoundCount:  snap.Game.RoundCount,
			RoundsFound: snap.Game.RoundsFound,
			Complete:    snap.Game.Complete,
		},
		MapView: snap.MapView,
		Panorama: PanoramaState{
			Image:      res.Screenshot(rs.Round.Screenshot),
			AutoRotate: rs.Phase == engine.PhaseResult,
		},
		Countdown: CountdownState{
			Remaining: rs.TimeRemaining,
			Budget:    engine.RoundSeconds,
		},
	}
}
