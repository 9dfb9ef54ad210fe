package build

import (
	"sync"
	"time"
)

// Metrics tracks generation runs across rebuilds of the watch and serve
// commands.
type Metrics struct {
	TotalRuns       int64
	SuccessfulRuns  int64
	FailedRuns      int64
	PagesWritten    int64
	AverageDuration time.Duration
	TotalDuration   time.Duration
	LastRun         time.Time
	mutex           sync.RWMutex
}

// NewMetrics creates a new metrics tracker
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordRun records the outcome of a generation run. A nil report counts as
// a failed run.
func (m *Metrics) RecordRun(report *Report, duration time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.TotalRuns++
	m.TotalDuration += duration
	m.LastRun = time.Now()

	if report == nil || len(report.Errors) > 0 {
		m.FailedRuns++
	} else {
		m.SuccessfulRuns++
	}
	if report != nil {
		m.PagesWritten += int64(report.Pages)
	}

	if m.TotalRuns > 0 {
		m.AverageDuration = m.TotalDuration / time.Duration(m.TotalRuns)
	}
}

// GetSnapshot returns a snapshot of current metrics
func (m *Metrics) GetSnapshot() Metrics {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return Metrics{
		TotalRuns:       m.TotalRuns,
		SuccessfulRuns:  m.SuccessfulRuns,
		FailedRuns:      m.FailedRuns,
		PagesWritten:    m.PagesWritten,
		AverageDuration: m.AverageDuration,
		TotalDuration:   m.TotalDuration,
		LastRun:         m.LastRun,
	}
}

// Reset resets all metrics
func (m *Metrics) Reset() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.TotalRuns = 0
	m.SuccessfulRuns = 0
	m.FailedRuns = 0
	m.PagesWritten = 0
	m.AverageDuration = 0
	m.TotalDuration = 0
	m.LastRun = time.Time{}
}

// GetSuccessRate returns the share of runs without errors as a percentage
func (m *Metrics) GetSuccessRate() float64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.TotalRuns == 0 {
		return 0.0
	}

	return float64(m.SuccessfulRuns) / float64(m.TotalRuns) * 100.0
}
