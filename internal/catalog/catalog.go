// Package catalog supplies levels and their rounds.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/playperu/geogamer/internal/geogamer"
)

var ErrNotFound = errors.New("not found")

// Provider is a read-only source of levels.
type Provider interface {
	Levels(ctx context.Context) ([]geogamer.LevelInfo, error)
	Level(ctx context.Context, id int) (geogamer.Level, error)
	LastLevelID(ctx context.Context) (int, error)
}

//go:embed games.json
var embeddedGames []byte

type document struct {
	Levels []geogamer.Level `json:"levels"`
}

// Decode reads a catalog document ({"levels": [...]}) and validates every
// level in it.
func Decode(r io.Reader) ([]geogamer.Level, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	for _, l := range doc.Levels {
		if err := Validate(l); err != nil {
			return nil, fmt.Errorf("level %d: %w", l.ID, err)
		}
	}
	slices.SortFunc(doc.Levels, func(a, b geogamer.Level) int { return a.ID - b.ID })
	return doc.Levels, nil
}

// Encode writes levels in the format Decode reads.
func Encode(w io.Writer, levels []geogamer.Level) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(document{Levels: levels})
}

// Embedded returns the catalog bundled with the binary.
func Embedded() ([]geogamer.Level, error) {
	return Decode(bytes.NewReader(embeddedGames))
}

// Validate checks a level before it is stored.
func Validate(l geogamer.Level) error {
	if l.ID < 1 {
		return errors.New("id must be a positive integer")
	}
	if strings.TrimSpace(l.Name) == "" {
		return errors.New("name is required")
	}
	seen := make(map[string]bool, len(l.Rounds))
	for i, r := range l.Rounds {
		if strings.TrimSpace(r.ID) == "" {
			return fmt.Errorf("round %d: id is required", i+1)
		}
		if seen[r.ID] {
			return fmt.Errorf("round %d: duplicate id %q", i+1, r.ID)
		}
		seen[r.ID] = true
		if strings.TrimSpace(r.CorrectName) == "" {
			return fmt.Errorf("round %d: correctName is required", i+1)
		}
		if len(r.AlternativeNames) == 0 {
			return fmt.Errorf("round %d: at least one alternative name is required", i+1)
		}
		if !r.Target.InBounds() {
			return fmt.Errorf("round %d: mapLocation must be within 0-100", i+1)
		}
	}
	return nil
}

// ResolveLevel loads level id, falling back to a one-round level holding
// the fallback round when the id is unknown.
func ResolveLevel(ctx context.Context, p Provider, id int) (geogamer.Level, error) {
	l, err := p.Level(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return geogamer.Level{
			ID:     id,
			Name:   fmt.Sprintf("Level %d", id),
			Rounds: []geogamer.Round{geogamer.FallbackRound()},
		}, nil
	}
	return l, err
}

// Static serves a fixed set of levels from memory.
type Static struct {
	levels []geogamer.Level
}

func NewStatic(levels []geogamer.Level) *Static {
	return &Static{levels: levels}
}

func (s *Static) Levels(_ context.Context) ([]geogamer.LevelInfo, error) {
	infos := make([]geogamer.LevelInfo, 0, len(s.levels))
	for _, l := range s.levels {
		infos = append(infos, l.Info())
	}
	return infos, nil
}

func (s *Static) Level(_ context.Context, id int) (geogamer.Level, error) {
	for _, l := range s.levels {
		if l.ID == id {
			return l, nil
		}
	}
	return geogamer.Level{}, ErrNotFound
}

func (s *Static) LastLevelID(_ context.Context) (int, error) {
	last := 0
	for _, l := range s.levels {
		last = max(last, l.ID)
	}
	return last, nil
}
