package discovery

import (
	"sync"
	"sync/atomic"
)

// Phase lifecycle of a single scan
type Phase string

const (
	// PhaseIdle no scan has run yet
	PhaseIdle Phase = "idle"
	// PhaseScanning a scan is in progress
	PhaseScanning Phase = "scanning"
	// PhaseCompleted the last scan covered its whole target list
	PhaseCompleted Phase = "completed"
	// PhaseAborted the last scan was cut short
	PhaseAborted Phase = "aborted"
)

// ScanState shared, synchronized flags controlling an orchestrator. The
// emergency stop flag may be set from any goroutine at any time.
type ScanState struct {
	stop   atomic.Bool
	active atomic.Bool
	phase  Phase
	mux    sync.RWMutex
}

// NewScanState returns a new idle ScanState
func NewScanState() *ScanState {
	return &ScanState{
		phase: PhaseIdle,
	}
}

// EmergencyStop engages the emergency stop flag
func (s *ScanState) EmergencyStop() {
	s.stop.Store(true)
}

// ResetEmergencyStop releases the emergency stop flag
func (s *ScanState) ResetEmergencyStop() {
	s.stop.Store(false)
}

// Stopped reports whether the emergency stop flag is set
func (s *ScanState) Stopped() bool {
	return s.stop.Load()
}

// Active reports whether a scan is in progress
func (s *ScanState) Active() bool {
	return s.active.Load()
}

// Phase returns the current scan phase
func (s *ScanState) Phase() Phase {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.phase
}

// begin marks a scan active, returning false if one already is
func (s *ScanState) begin() bool {
	if !s.active.CompareAndSwap(false, true) {
		return false
	}

	s.setPhase(PhaseScanning)

	return true
}

// end records the final phase and marks the scan inactive
func (s *ScanState) end(phase Phase) {
	s.setPhase(phase)
	s.active.Store(false)
}

func (s *ScanState) setPhase(phase Phase) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.phase = phase
}
