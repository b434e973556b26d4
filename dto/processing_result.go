package dto

import (
	"time"

	"github.com/customeros/invoicextract/internal/enum"
)

// ProcessingResult describes how one message was handled.
type ProcessingResult struct {
	Outcome    enum.Outcome
	Batch      string
	Document   *InvoiceDocument
	Artifacts  []UploadArtifact
	Submission *SubmissionResult
	Complete   bool
}

// RunSummary aggregates per-outcome counts for one mailbox pass.
type RunSummary struct {
	Account   string         `json:"account"`
	StartedAt time.Time      `json:"startedAt"`
	Duration  time.Duration  `json:"duration"`
	Outcomes  map[string]int `json:"outcomes"`
	Error     string         `json:"error,omitempty"`
}

func NewRunSummary(account string, startedAt time.Time) *RunSummary {
	return &RunSummary{Account: account, StartedAt: startedAt, Outcomes: map[string]int{}}
}

func (s *RunSummary) Add(outcome enum.Outcome) {
	s.Outcomes[outcome.String()]++
}

func (s *RunSummary) Total() int {
	n := 0
	for _, c := range s.Outcomes {
		n += c
	}
	return n
}
