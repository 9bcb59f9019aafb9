package telemetry

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"
)

type stringer struct{}

func (stringer) String() string { return "Leg(2)" }

func TestConsoleLastValueWins(t *testing.T) {
	c := NewConsole(clock.NewMock(), 0)
	c.AddLine("a", 1.234)
	c.AddLine("b", true)
	c.AddLine("a", 5.678)

	lines := c.Lines()
	test.That(t, lines, test.ShouldHaveLength, 2)
	test.That(t, lines[0].Label, test.ShouldEqual, "a")
	test.That(t, lines[0].Value, test.ShouldEqual, "5.68")
	test.That(t, lines[1].Label, test.ShouldEqual, "b")
	test.That(t, lines[1].Value, test.ShouldEqual, "true")
}

func TestConsoleRemoveStale(t *testing.T) {
	mockClock := clock.NewMock()
	c := NewConsole(mockClock, 0)

	c.AddLine("old", 1)
	mockClock.Add(1500 * time.Millisecond)
	c.AddLine("new", 2)
	c.RemoveStale()
	test.That(t, c.Len(), test.ShouldEqual, 2)

	mockClock.Add(600 * time.Millisecond)
	c.RemoveStale()
	test.That(t, c.Len(), test.ShouldEqual, 1)
	_, ok := c.Value("old")
	test.That(t, ok, test.ShouldBeFalse)
	v, ok := c.Value("new")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, "2.00")

	// exactly at the timeout is not stale
	mockClock.Add(1400 * time.Millisecond)
	c.RemoveStale()
	test.That(t, c.Len(), test.ShouldEqual, 1)

	c.RemoveStaleOlderThan(time.Second)
	test.That(t, c.Len(), test.ShouldEqual, 0)
}

func TestConsoleReinsertGoesLast(t *testing.T) {
	mockClock := clock.NewMock()
	c := NewConsole(mockClock, time.Second)
	c.AddLine("first", "x")
	c.AddLine("second", "y")
	mockClock.Add(2 * time.Second)
	c.AddLine("second", "z")
	c.RemoveStale()
	c.AddLine("first", "x")

	lines := c.Lines()
	test.That(t, lines, test.ShouldHaveLength, 2)
	test.That(t, lines[0].Label, test.ShouldEqual, "second")
	test.That(t, lines[1].Label, test.ShouldEqual, "first")

	c.Clear()
	test.That(t, c.Len(), test.ShouldEqual, 0)
}

func TestConsoleRendering(t *testing.T) {
	c := NewConsole(clock.NewMock(), 0)
	c.AddLine(LabelDistToTarget, 3.14159)
	c.AddLine(LabelMissionState, stringer{})

	out := c.String()
	test.That(t, out, test.ShouldContainSubstring, "dist_to_target           : 3.14")
	test.That(t, out, test.ShouldContainSubstring, ": Leg(2)")
	test.That(t, strings.Count(out, "\n"), test.ShouldEqual, 2)

	tbl := c.Table()
	test.That(t, tbl, test.ShouldContainSubstring, "dist_to_target")
	test.That(t, tbl, test.ShouldContainSubstring, "Leg(2)")
}

func TestFormatValue(t *testing.T) {
	for _, tc := range []struct {
		in  interface{}
		out string
	}{
		{1.004, "1.00"},
		{float32(2.5), "2.50"},
		{7, "7.00"},
		{int64(-3), "-3.00"},
		{"text", "text"},
		{false, "false"},
		{1500 * time.Millisecond, "1.5s"},
	} {
		test.That(t, FormatValue(tc.in), test.ShouldEqual, tc.out)
	}
}

func TestConsoleConcurrentUse(t *testing.T) {
	c := NewConsole(clock.New(), 0)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.AddLine("x", j)
				c.RemoveStale()
				_ = c.Lines()
			}
		}()
	}
	wg.Wait()
	test.That(t, c.Len(), test.ShouldEqual, 1)
}

func TestDiscard(t *testing.T) {
	Discard.AddLine("anything", 1)
	Discard.RemoveStale()
}
