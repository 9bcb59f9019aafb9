package inject

import (
	"image/color"
	"sync"

	"github.com/decbot-sim/fieldsim/field"
	"github.com/decbot-sim/fieldsim/spatialmath"
)

// MarkerSink is an injectable visualization sink. Without an injected function it records every mark.
type MarkerSink struct {
	field.Marker
	MarkPoseFunc func(pose spatialmath.Pose, c color.Color)

	mu    sync.Mutex
	marks []field.Mark
}

// MarkPose calls the injected MarkPose or records the mark.
func (m *MarkerSink) MarkPose(pose spatialmath.Pose, c color.Color) {
	if m.MarkPoseFunc != nil {
		m.MarkPoseFunc(pose, c)
		return
	}
	if m.Marker != nil {
		m.Marker.MarkPose(pose, c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marks = append(m.marks, field.Mark{Pose: pose, Color: field.ToColorful(c)})
}

// Marks returns a copy of the recorded marks.
func (m *MarkerSink) Marks() []field.Mark {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]field.Mark(nil), m.marks...)
}
