// Package diag provides the diagnostics observer the playout scheduler
// publishes its runtime signals to.
//
// The scheduler reports tick timing, buffer levels and frame completion
// anomalies through a narrow Graph interface so that process-wide
// diagnostics stay an injected collaborator rather than global state.
package diag

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Graph receives named diagnostic values and event tags from a scheduler
// instance. Implementations must be safe for concurrent use; the scheduler
// publishes from device callback goroutines.
type Graph interface {
	// SetValue publishes a continuously updated numeric signal.
	SetValue(name string, value float64)
	// SetTag records a single occurrence of a named event.
	SetTag(name string)
	// SetText sets the human-readable identity of the publishing instance.
	SetText(text string)
}

type nopGraph struct{}

func (nopGraph) SetValue(string, float64) {}
func (nopGraph) SetTag(string)            {}
func (nopGraph) SetText(string)           {}

// Nop returns a Graph that discards everything.
func Nop() Graph { return nopGraph{} }

// logGraph publishes diagnostics as structured log entries. Values are
// high-frequency and logged at trace level; tags mark anomalies and are
// logged at debug level.
type logGraph struct {
	mu   sync.Mutex
	text string
}

// NewLogGraph returns a Graph backed by logrus.
func NewLogGraph() Graph { return &logGraph{} }

func (g *logGraph) SetValue(name string, value float64) {
	logrus.WithFields(logrus.Fields{
		"graph": g.identity(),
		"name":  name,
		"value": value,
	}).Trace("Graph value")
}

func (g *logGraph) SetTag(name string) {
	logrus.WithFields(logrus.Fields{
		"graph": g.identity(),
		"name":  name,
	}).Debug("Graph tag")
}

func (g *logGraph) SetText(text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.text = text
}

func (g *logGraph) identity() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.text
}

// Recorder is a Graph that retains everything published to it, for use in
// tests that assert on scheduler observability behavior.
type Recorder struct {
	mu     sync.Mutex
	tags   map[string]int
	values map[string][]float64
	text   string
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		tags:   make(map[string]int),
		values: make(map[string][]float64),
	}
}

func (r *Recorder) SetValue(name string, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[name] = append(r.values[name], value)
}

func (r *Recorder) SetTag(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags[name]++
}

func (r *Recorder) SetText(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.text = text
}

// TagCount returns how many times the named tag has been set.
func (r *Recorder) TagCount(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tags[name]
}

// Values returns all values published under the given name, in order.
func (r *Recorder) Values(name string) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, len(r.values[name]))
	copy(out, r.values[name])
	return out
}

// Text returns the most recently set identity text.
func (r *Recorder) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.text
}
