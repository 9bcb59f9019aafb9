package telemetry

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
)

// DefaultStaleAfter is how long a line may go without an update before RemoveStale drops it.
const DefaultStaleAfter = 2 * time.Second

// Line is one rendered telemetry line.
type Line struct {
	Label   string    `json:"label"`
	Value   string    `json:"value"`
	Updated time.Time `json:"updated"`
}

// Console is an in-memory Sink that keeps the latest value per label in first-insertion order.
// Updating an existing label keeps its position.
type Console struct {
	mu         sync.Mutex
	clk        clock.Clock
	staleAfter time.Duration
	order      []string
	lines      map[string]*Line
}

// NewConsole returns an empty console. A non-positive staleAfter selects DefaultStaleAfter.
func NewConsole(clk clock.Clock, staleAfter time.Duration) *Console {
	if clk == nil {
		clk = clock.New()
	}
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Console{
		clk:        clk,
		staleAfter: staleAfter,
		lines:      map[string]*Line{},
	}
}

// AddLine sets the value for label, replacing any previous value.
func (c *Console) AddLine(label string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clk.Now()
	if line, ok := c.lines[label]; ok {
		line.Value = FormatValue(value)
		line.Updated = now
		return
	}
	c.order = append(c.order, label)
	c.lines[label] = &Line{Label: label, Value: FormatValue(value), Updated: now}
}

// RemoveStale drops every line not updated within the console's stale timeout.
func (c *Console) RemoveStale() {
	c.RemoveStaleOlderThan(c.staleAfter)
}

// RemoveStaleOlderThan drops every line whose last update is more than idle ago.
func (c *Console) RemoveStaleOlderThan(idle time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clk.Now()
	c.order = lo.Reject(c.order, func(label string, _ int) bool {
		if now.Sub(c.lines[label].Updated) > idle {
			delete(c.lines, label)
			return true
		}
		return false
	})
}

// Value returns the rendered value for label.
func (c *Console) Value(label string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	line, ok := c.lines[label]
	if !ok {
		return "", false
	}
	return line.Value, true
}

// Lines returns a copy of all lines in display order.
func (c *Console) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return lo.Map(c.order, func(label string, _ int) Line {
		return *c.lines[label]
	})
}

// Len returns the number of lines.
func (c *Console) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Clear drops every line.
func (c *Console) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = nil
	c.lines = map[string]*Line{}
}

// String renders the console as padded "label: value" rows.
func (c *Console) String() string {
	var sb strings.Builder
	for _, line := range c.Lines() {
		fmt.Fprintf(&sb, "%-25s: %s\n", line.Label, line.Value)
	}
	return sb.String()
}

// Table renders the console as a table.
func (c *Console) Table() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Label", "Value"})
	for _, line := range c.Lines() {
		t.AppendRow(table.Row{line.Label, line.Value})
	}
	return t.Render()
}

// FormatValue renders numbers with two decimals and everything else with its default format.
func FormatValue(value interface{}) string {
	switch v := value.(type) {
	case float64:
		return fmt.Sprintf("%.2f", v)
	case float32:
		return fmt.Sprintf("%.2f", v)
	case int:
		return fmt.Sprintf("%.2f", float64(v))
	case int32:
		return fmt.Sprintf("%.2f", float64(v))
	case int64:
		return fmt.Sprintf("%.2f", float64(v))
	case uint64:
		return fmt.Sprintf("%.2f", float64(v))
	case time.Duration:
		return v.String()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
