// Package geogamer defines the core domain types of the game.
// It has no dependencies outside the standard library.
package geogamer

import "strings"

// Point is a position on an image expressed as percentages of its width
// and height, so it does not depend on the viewport size.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// InBounds reports whether p lies within the image.
func (p Point) InBounds() bool {
	return p.X >= 0 && p.X <= 100 && p.Y >= 0 && p.Y <= 100
}

type Round struct {
	ID               string   `json:"id"`
	CorrectName      string   `json:"correctName"`
	AlternativeNames []string `json:"alternativeNames"`
	Screenshot       string   `json:"imageFile"`
	Map              string   `json:"mapFile"`
	Cover            string   `json:"coverFile,omitempty"`
	Target           Point    `json:"mapLocation"`
}

// Matches reports whether guess names the round's game. The trimmed,
// lower-cased guess must equal a lower-cased alternative name exactly;
// alternatives are not trimmed. An empty guess never matches.
func (r Round) Matches(guess string) bool {
	guess = strings.ToLower(strings.TrimSpace(guess))
	if guess == "" {
		return false
	}
	for _, name := range r.AlternativeNames {
		if guess == strings.ToLower(name) {
			return true
		}
	}
	return false
}

type Level struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Difficulty  string  `json:"difficulty"`
	Description string  `json:"description"`
	Rounds      []Round `json:"games"`
}

// Info summarizes the level without its rounds.
func (l Level) Info() LevelInfo {
	return LevelInfo{
		ID:          l.ID,
		Name:        l.Name,
		Difficulty:  l.Difficulty,
		Description: l.Description,
		RoundCount:  len(l.Rounds),
	}
}

type LevelInfo struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Difficulty  string `json:"difficulty"`
	Description string `json:"description"`
	RoundCount  int    `json:"roundCount"`
}

// FallbackRound is played whenever round data is missing.
func FallbackRound() Round {
	return Round{
		ID:               "fallback",
		CorrectName:      "The Witcher 3",
		AlternativeNames: []string{"the witcher 3", "witcher 3"},
		Target:           Point{X: 50, Y: 50},
	}
}
