package field

import (
	"encoding/json"
	"image/color"
	"sync"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/decbot-sim/fieldsim/spatialmath"
)

var (
	// Pending marks a waypoint that has not been reached yet.
	Pending = colorful.Color{R: 1, G: 1, B: 0}
	// Arrived marks a waypoint the robot has reached and dwelt at.
	Arrived = colorful.Color{R: 0, G: 1, B: 0}
)

// Marker receives pose annotations. MarkPose is fire-and-forget.
type Marker interface {
	MarkPose(pose spatialmath.Pose, c color.Color)
}

// Mark is one pose annotation.
type Mark struct {
	Pose  spatialmath.Pose
	Color colorful.Color
}

// MarshalJSON renders the color as a hex string.
func (m Mark) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Pose  spatialmath.Pose `json:"pose"`
		Color string           `json:"color"`
	}{m.Pose, m.Color.Hex()})
}

// ToColorful converts any color to a colorful.Color. A nil color becomes Pending.
func ToColorful(c color.Color) colorful.Color {
	if c == nil {
		return Pending
	}
	if cc, ok := c.(colorful.Color); ok {
		return cc
	}
	cc, ok := colorful.MakeColor(c)
	if !ok {
		// fully transparent
		return Pending
	}
	return cc
}

// MarkerBoard collects marks in the order they were made. Later marks draw over earlier ones.
type MarkerBoard struct {
	mu    sync.Mutex
	marks []Mark
}

// NewMarkerBoard returns an empty board.
func NewMarkerBoard() *MarkerBoard {
	return &MarkerBoard{}
}

// MarkPose records a mark.
func (b *MarkerBoard) MarkPose(pose spatialmath.Pose, c color.Color) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.marks = append(b.marks, Mark{Pose: pose, Color: ToColorful(c)})
}

// Clear removes all marks.
func (b *MarkerBoard) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.marks = nil
}

// Marks returns a copy of all marks.
func (b *MarkerBoard) Marks() []Mark {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Mark(nil), b.marks...)
}
