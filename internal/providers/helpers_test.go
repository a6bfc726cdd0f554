package providers

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// local mocks to avoid import cycle with testutil
type testLogger struct {
	mu    sync.Mutex
	lines []string
}

func (m *testLogger) add(level string, t TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, level+" "+t.String()+" "+fmt.Sprintf(format, args...))
}

func (m *testLogger) has(line string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Contains(m.lines, line)
}

func (m *testLogger) Errorf(t TypeEnum, f string, a ...interface{}) { m.add("error", t, f, a...) }
func (m *testLogger) Warnf(t TypeEnum, f string, a ...interface{})  { m.add("warn", t, f, a...) }
func (m *testLogger) Debugf(t TypeEnum, f string, a ...interface{}) { m.add("debug", t, f, a...) }
func (m *testLogger) Infof(t TypeEnum, f string, a ...interface{})  { m.add("info", t, f, a...) }
func (m *testLogger) Fatalf(t TypeEnum, f string, a ...interface{}) { m.add("fatal", t, f, a...) }
func (m *testLogger) Close()                                        {}

type testMetrics struct {
	noopMetrics
	hits      int
	misses    int
	requests  map[string]int
	durations int
}

func newTestMetrics() *testMetrics {
	return &testMetrics{requests: make(map[string]int)}
}

func (m *testMetrics) IncCacheHits()   { m.hits++ }
func (m *testMetrics) IncCacheMisses() { m.misses++ }
func (m *testMetrics) IncRequestsTotal(endpoint string, status int) {
	m.requests[fmt.Sprintf("%s %d", endpoint, status)]++
}
func (m *testMetrics) ObserveRequestDuration(_ string, _ time.Duration) { m.durations++ }
