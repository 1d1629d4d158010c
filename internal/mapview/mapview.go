// Package mapview turns pointer events over a pannable, zoomable map image
// into a marker position, keeping click-to-place apart from drag-to-pan.
package mapview

import (
	"math"

	"github.com/playperu/geogamer/internal/geogamer"
)

const (
	MinZoom  = 1.0
	MaxZoom  = 3.0
	ZoomStep = 0.1
)

// Vec is a position or offset in client pixels.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is the bounding box of the rendered map element, in client pixels.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type State struct {
	Zoom     float64 `json:"zoom"`
	Pan      Vec     `json:"pan"`
	Dragging bool    `json:"dragging"`
}

// Controller holds the map view state for one round. The zero value is not
// ready for use; call New.
type Controller struct {
	state     State
	dragStart Vec
	panned    bool
	swallow   bool
}

func New() *Controller {
	c := &Controller{}
	c.Reset()
	return c
}

// Reset restores zoom 1, no pan and no drag.
func (c *Controller) Reset() {
	*c = Controller{state: State{Zoom: MinZoom}}
}

func (c *Controller) State() State { return c.state }

// Wheel zooms out on a positive deltaY and in on a negative one.
// The zoom only scales the rendering; markers stay in image percentages.
func (c *Controller) Wheel(deltaY float64) {
	switch {
	case deltaY > 0:
		c.setZoom(c.state.Zoom - ZoomStep)
	case deltaY < 0:
		c.setZoom(c.state.Zoom + ZoomStep)
	}
}

func (c *Controller) setZoom(z float64) {
	z = math.Round(z*10) / 10
	c.state.Zoom = math.Max(MinZoom, math.Min(MaxZoom, z))
}

// PointerDown starts a drag when the map is zoomed in. It reports whether
// a drag started.
func (c *Controller) PointerDown(p Vec) bool {
	c.swallow = false
	if c.state.Zoom <= MinZoom {
		return false
	}
	c.state.Dragging = true
	c.panned = false
	c.dragStart = Vec{X: p.X - c.state.Pan.X, Y: p.Y - c.state.Pan.Y}
	return true
}

// PointerMove pans the image while dragging. It reports whether the pan
// changed.
func (c *Controller) PointerMove(p Vec) bool {
	if !c.state.Dragging || c.state.Zoom <= MinZoom {
		return false
	}
	pan := Vec{X: p.X - c.dragStart.X, Y: p.Y - c.dragStart.Y}
	if pan == c.state.Pan {
		return false
	}
	c.state.Pan = pan
	c.panned = true
	return true
}

// PointerUp ends any drag. If the drag moved the image, the click that
// browsers fire right after is swallowed.
func (c *Controller) PointerUp() {
	if c.state.Dragging && c.panned {
		c.swallow = true
	}
	c.state.Dragging = false
	c.panned = false
}

// PointerLeave ends any drag. No click follows a leave.
func (c *Controller) PointerLeave() {
	c.state.Dragging = false
	c.panned = false
	c.swallow = false
}

// Click converts a click at client position p over the element bounds into
// a marker position. It reports false when the click belongs to a drag
// gesture or falls outside the element.
//
// The position maps straight to a percentage of the element box and
// ignores the current zoom and pan.
func (c *Controller) Click(p Vec, bounds Rect) (geogamer.Point, bool) {
	if c.state.Dragging {
		return geogamer.Point{}, false
	}
	if c.swallow {
		c.swallow = false
		return geogamer.Point{}, false
	}
	if bounds.Width <= 0 || bounds.Height <= 0 {
		return geogamer.Point{}, false
	}
	pt := geogamer.Point{
		X: (p.X - bounds.Left) / bounds.Width * 100,
		Y: (p.Y - bounds.Top) / bounds.Height * 100,
	}
	if !pt.InBounds() {
		return geogamer.Point{}, false
	}
	return pt, true
}
