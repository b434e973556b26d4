package mailbox

import (
	"sync"
	"time"

	"github.com/customeros/invoicextract/dto"
)

// MailboxSessionState is shared by the scheduler, the API and the session
// manager. The gate serializes mailbox sessions; the run flag keeps
// processing runs from overlapping.
type MailboxSessionState struct {
	gate sync.Mutex

	mu            sync.Mutex
	running       bool
	attempts      int
	cooldownUntil time.Time
	lastErr       error
	lastAccount   string
	lastRun       *dto.RunSummary
	lastRunAt     time.Time
}

// StateSnapshot is a point-in-time copy for status reporting.
type StateSnapshot struct {
	Running       bool            `json:"running"`
	Attempts      int             `json:"attempts"`
	CooldownUntil *time.Time      `json:"cooldownUntil,omitempty"`
	LastError     string          `json:"lastError,omitempty"`
	LastAccount   string          `json:"lastAccount,omitempty"`
	LastRunAt     *time.Time      `json:"lastRunAt,omitempty"`
	LastRun       *dto.RunSummary `json:"lastRun,omitempty"`
}

func NewMailboxSessionState() *MailboxSessionState {
	return &MailboxSessionState{}
}

// TryBeginRun claims the run flag. It returns false when a run is in flight.
func (s *MailboxSessionState) TryBeginRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *MailboxSessionState) EndRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

func (s *MailboxSessionState) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RecordRun stores the summary of the latest finished account run.
func (s *MailboxSessionState) RecordRun(summary *dto.RunSummary, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRun = summary
	s.lastRunAt = at
}

func (s *MailboxSessionState) beginSession(account string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = 0
	s.cooldownUntil = time.Time{}
	s.lastAccount = account
}

func (s *MailboxSessionState) recordFailure(attempt int, err error, cooldownUntil time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = attempt
	s.lastErr = err
	s.cooldownUntil = cooldownUntil
}

func (s *MailboxSessionState) recordSuccess(attempt int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = attempt
	s.lastErr = nil
	s.cooldownUntil = time.Time{}
}

func (s *MailboxSessionState) Snapshot() StateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StateSnapshot{
		Running:     s.running,
		Attempts:    s.attempts,
		LastAccount: s.lastAccount,
		LastRun:     s.lastRun,
	}
	if !s.cooldownUntil.IsZero() {
		t := s.cooldownUntil
		snap.CooldownUntil = &t
	}
	if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
	}
	if !s.lastRunAt.IsZero() {
		t := s.lastRunAt
		snap.LastRunAt = &t
	}
	return snap
}
