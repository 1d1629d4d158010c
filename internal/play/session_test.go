package play

import (
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/playperu/geogamer/internal/clock"
	"github.com/playperu/geogamer/internal/engine"
	"github.com/playperu/geogamer/internal/geogamer"
	"github.com/playperu/geogamer/internal/mapview"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(_ string, event any) {
	r.mu.Lock()
	r.events = append(r.events, event.(Event))
	r.mu.Unlock()
}

func (r *recorder) ofType(typ string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func testLevel() geogamer.Level {
	return geogamer.Level{
		ID: 1,
		Rounds: []geogamer.Round{
			{ID: "w3", CorrectName: "The Witcher 3", AlternativeNames: []string{"witcher 3", "the witcher 3"}, Target: geogamer.Point{X: 50, Y: 50}},
			{ID: "p2", CorrectName: "Portal 2", AlternativeNames: []string{"portal 2"}, Target: geogamer.Point{X: 20, Y: 20}},
		},
	}
}

func newTestRegistry(t *testing.T) (*Registry, *clock.Manual, *recorder) {
	t.Helper()
	sched := clock.NewManual()
	rec := &recorder{}
	reg := NewRegistry(slog.Default(), rec, time.Minute, WithScheduler(sched))
	return reg, sched, rec
}

func TestSessionTimesOut(t *testing.T) {
	reg, sched, rec := newTestRegistry(t)
	s := reg.Create(testLevel(), 4)

	sched.FireN(59)
	if got := s.Snapshot().Round.Phase; got != engine.PhaseGuessing {
		t.Fatalf("phase after 59s = %q", got)
	}
	sched.Fire()

	snap := s.Snapshot()
	if snap.Round.Phase != engine.PhaseResult {
		t.Fatalf("phase after 60s = %q, want result", snap.Round.Phase)
	}
	if snap.Round.TimeRemaining != 0 {
		t.Errorf("time = %d, want 0", snap.Round.TimeRemaining)
	}
	if got := sched.Active(); got != 0 {
		t.Errorf("timers still active after timeout: %d", got)
	}
	ticks := rec.ofType(EventTick)
	if len(ticks) != 60 {
		t.Fatalf("got %d tick events, want 60", len(ticks))
	}
	if last := ticks[59]; *last.Remaining != 0 || last.Phase != engine.PhaseResult {
		t.Errorf("last tick = %+v", last)
	}
}

func TestSessionResultStopsCountdown(t *testing.T) {
	reg, sched, _ := newTestRegistry(t)
	s := reg.Create(testLevel(), 4)

	sched.FireN(5)
	for _, g := range []string{"a", "b", "c"} {
		if _, _, err := s.SubmitGuess(g); err != nil {
			t.Fatalf("SubmitGuess: %v", err)
		}
	}
	if got := sched.Active(); got != 0 {
		t.Fatalf("active timers = %d, want 0", got)
	}
	sched.FireN(10)
	if got := s.Snapshot().Round.TimeRemaining; got != 55 {
		t.Errorf("time = %d, want frozen at 55", got)
	}
}

func TestSessionCountdownRunsWhileLocating(t *testing.T) {
	reg, sched, _ := newTestRegistry(t)
	s := reg.Create(testLevel(), 4)

	s.SubmitGuess("witcher 3")
	sched.FireN(100)

	snap := s.Snapshot()
	if snap.Round.Phase != engine.PhaseLocating || snap.Round.TimeRemaining != 0 {
		t.Fatalf("round = %+v", snap.Round)
	}
	if _, _, err := s.PlaceMarker(geogamer.Point{X: 50, Y: 50}); err != nil {
		t.Fatalf("PlaceMarker: %v", err)
	}
	if _, _, err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestSessionFullRound(t *testing.T) {
	reg, sched, rec := newTestRegistry(t)
	s := reg.Create(testLevel(), 4)

	res, snap, err := s.SubmitGuess("The Witcher 3 ")
	if err != nil || !res.Correct {
		t.Fatalf("SubmitGuess = %+v, %v", res, err)
	}
	if snap.Round.Phase != engine.PhaseLocating {
		t.Fatalf("phase = %q", snap.Round.Phase)
	}

	placed, _, err := s.HandleMap(MapInput{
		Type:   MapClick,
		Point:  mapview.Vec{X: 110, Y: 53},
		Bounds: mapview.Rect{Width: 200, Height: 100},
	})
	if err != nil || !placed {
		t.Fatalf("click = %v, %v", placed, err)
	}

	loc, snap, err := s.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if loc.Points != 94 || snap.Round.Score != 194 || snap.Game.TotalScore != 194 {
		t.Fatalf("points=%d round=%d total=%d", loc.Points, snap.Round.Score, snap.Game.TotalScore)
	}

	// Only the reveal task is left.
	if got := sched.Active(); got != 1 {
		t.Fatalf("active timers = %d, want 1", got)
	}
	sched.FireN(RevealSteps + 5)

	reveals := rec.ofType(EventReveal)
	if len(reveals) != RevealSteps {
		t.Fatalf("got %d reveal frames, want %d", len(reveals), RevealSteps)
	}
	if last := *reveals[len(reveals)-1].Value; last != 94 {
		t.Errorf("last reveal = %d, want 94", last)
	}
	if got := s.Snapshot().Revealed; got != 94 {
		t.Errorf("Revealed = %d, want 94", got)
	}
	if got := sched.Active(); got != 0 {
		t.Errorf("active timers = %d, want 0", got)
	}
}

func TestSessionAdvanceRestartsCountdown(t *testing.T) {
	reg, sched, rec := newTestRegistry(t)
	s := reg.Create(testLevel(), 4)

	s.SubmitGuess("witcher 3")
	s.PlaceMarker(geogamer.Point{X: 60, Y: 50})
	s.Validate()
	sched.FireN(3)

	tr, snap, err := s.Advance()
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if tr.Destination != engine.DestinationNextRound {
		t.Fatalf("destination = %q", tr.Destination)
	}
	if snap.Round.TimeRemaining != 60 || snap.Revealed != 0 {
		t.Errorf("round = %+v revealed=%d", snap.Round, snap.Revealed)
	}

	// The interrupted reveal must not deliver frames any more.
	before := len(rec.ofType(EventReveal))
	if got := sched.Active(); got != 1 {
		t.Fatalf("active timers = %d, want countdown only", got)
	}
	sched.FireN(2)
	if after := len(rec.ofType(EventReveal)); after != before {
		t.Errorf("reveal frames after advance: %d -> %d", before, after)
	}
	if got := s.Snapshot().Round.TimeRemaining; got != 58 {
		t.Errorf("time = %d, want 58", got)
	}
}

func TestSessionTickFromEndedRoundIgnored(t *testing.T) {
	reg, sched, _ := newTestRegistry(t)
	s := reg.Create(testLevel(), 4)
	first := s.countdown

	// Hold the session so the tick gets past the countdown and waits on s.mu.
	s.mu.Lock()
	done := make(chan struct{})
	go func() {
		sched.Fire()
		close(done)
	}()
	deadline := time.Now().Add(2 * time.Second)
	for first.Remaining() != 59 {
		if time.Now().After(deadline) {
			s.mu.Unlock()
			t.Fatal("tick never reached the countdown")
		}
		time.Sleep(time.Millisecond)
	}

	for _, g := range []string{"a", "b", "c"} {
		if _, err := s.engine.SubmitGuess(g); err != nil {
			s.mu.Unlock()
			t.Fatalf("SubmitGuess: %v", err)
		}
	}
	s.enterResultLocked()
	tr, _, err := s.advanceLocked()
	s.mu.Unlock()
	<-done

	if err != nil || tr.Destination != engine.DestinationNextRound {
		t.Fatalf("advance = %+v, %v", tr, err)
	}
	snap := s.Snapshot()
	if snap.Round.Index != 1 || snap.Round.TimeRemaining != 60 {
		t.Errorf("round index=%d time=%d, want 1 and 60", snap.Round.Index, snap.Round.TimeRemaining)
	}

	sched.Fire()
	if got := s.Snapshot().Round.TimeRemaining; got != 59 {
		t.Errorf("time after one tick = %d, want 59", got)
	}
}

func TestSessionLevelComplete(t *testing.T) {
	reg, sched, rec := newTestRegistry(t)
	s := reg.Create(geogamer.Level{ID: 4, Rounds: testLevel().Rounds[:1]}, 4)

	sched.FireN(60)
	tr, _, err := s.Advance()
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if tr.Destination != engine.DestinationHome {
		t.Errorf("destination = %q, want home", tr.Destination)
	}
	events := rec.ofType(EventLevelComplete)
	if len(events) != 1 || events[0].Transition.Destination != engine.DestinationHome {
		t.Errorf("level_complete events = %+v", events)
	}
}

func TestSessionWrongPhase(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	s := reg.Create(testLevel(), 4)

	if _, _, err := s.Validate(); !errors.Is(err, engine.ErrWrongPhase) {
		t.Errorf("Validate err = %v", err)
	}
	if _, _, err := s.HandleMap(MapInput{Type: "pinch"}); !errors.Is(err, ErrUnknownMapEvent) {
		t.Errorf("HandleMap err = %v", err)
	}
}

func TestSessionCloseIdempotent(t *testing.T) {
	reg, sched, _ := newTestRegistry(t)
	s := reg.Create(testLevel(), 4)

	s.Close()
	s.Close()
	if got := sched.Active(); got != 0 {
		t.Errorf("active timers = %d, want 0", got)
	}
	sched.FireN(3)
	if got := s.Snapshot().Round.TimeRemaining; got != 60 {
		t.Errorf("closed session ticked to %d", got)
	}
	if _, _, err := s.SubmitGuess("witcher 3"); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("SubmitGuess err = %v, want ErrSessionClosed", err)
	}
}

func TestRegistryGetRemove(t *testing.T) {
	reg, sched, _ := newTestRegistry(t)
	s := reg.Create(testLevel(), 4)

	got, err := reg.Get(s.ID)
	if err != nil || got != s {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if err := reg.Remove(s.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := reg.Get(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get after remove err = %v", err)
	}
	if err := reg.Remove(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second Remove err = %v", err)
	}
	if got := sched.Active(); got != 0 {
		t.Errorf("active timers = %d, want 0", got)
	}
}

func TestRegistryReap(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clockNow := func() time.Time { return now }
	sched := clock.NewManual()
	reg := NewRegistry(slog.Default(), nil, 10*time.Minute, WithScheduler(sched), WithNow(clockNow))

	idle := reg.Create(testLevel(), 4)
	now = now.Add(8 * time.Minute)
	busy := reg.Create(testLevel(), 4)
	now = now.Add(5 * time.Minute)
	busy.SetGuess("wit")

	if n := reg.Reap(); n != 1 {
		t.Fatalf("Reap() = %d, want 1", n)
	}
	if _, err := reg.Get(idle.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Error("idle session survived")
	}
	if _, err := reg.Get(busy.ID); err != nil {
		t.Error("busy session reaped")
	}
	if got := sched.Active(); got != 1 {
		t.Errorf("active timers = %d, want 1", got)
	}
}
