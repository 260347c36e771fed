// Package metric maintains the one-minute histories published alongside expvar counters.
package metric

import (
	"expvar"
	"strings"
	"sync"
	"time"
)

// HistoryLen is the number of samples kept by a History.  One more than an hour's worth, because
// clients chart the deltas between samples.
const HistoryLen = 61

// TickerFunc is the function signature accepted by AddTickerFunc, will be called once per minute.
type TickerFunc func()

var tickerFuncChan = make(chan TickerFunc)

func init() {
	go metricsTicker(time.Minute)
}

// AddTickerFunc adds a new function callback to the list of metrics TickerFuncs that get called
// each minute.
func AddTickerFunc(f TickerFunc) {
	tickerFuncChan <- f
}

// History is a bounded list of sampled metric values.
type History struct {
	mu      sync.Mutex
	samples []string
	max     int
}

// NewHistory creates a History holding up to max samples.
func NewHistory(max int) *History {
	return &History{max: max}
}

// Push samples ev, discarding the oldest sample if full, and returns the samples as a comma
// separated string.
func (h *History) Push(ev expvar.Var) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.samples = append(h.samples, ev.String())
	if len(h.samples) > h.max {
		h.samples = h.samples[len(h.samples)-h.max:]
	}
	return strings.Join(h.samples, ",")
}

// Track publishes total and its history under the given names in m, sampling once per minute.
func Track(m *expvar.Map, name string, total *expvar.Int) {
	hist := NewHistory(HistoryLen)
	histVar := new(expvar.String)
	m.Set(name+"Total", total)
	m.Set(name+"Hist", histVar)
	AddTickerFunc(func() {
		histVar.Set(hist.Push(total))
	})
}

// metricsTicker calls the current list of TickerFuncs once per period.
func metricsTicker(period time.Duration) {
	funcs := make([]TickerFunc, 0)
	ticker := time.NewTicker(period)

	for {
		select {
		case <-ticker.C:
			for _, f := range funcs {
				f()
			}
		case f := <-tickerFuncChan:
			funcs = append(funcs, f)
		}
	}
}
