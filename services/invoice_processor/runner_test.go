package invoice_processor

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/invoicextract/dto"
	"github.com/customeros/invoicextract/internal/enum"
	apperrors "github.com/customeros/invoicextract/internal/errors"
	"github.com/customeros/invoicextract/services/mailbox"
)

type staticAccounts struct {
	accounts []dto.MailAccountCredential
	err      error
}

func (s staticAccounts) ActiveAccounts(context.Context) ([]dto.MailAccountCredential, error) {
	return s.accounts, s.err
}

type recordingSessions struct {
	failFor map[string]error
	seen    []string
}

func (r *recordingSessions) ProcessMailbox(_ context.Context, account dto.MailAccountCredential) (*dto.RunSummary, error) {
	r.seen = append(r.seen, account.Email)
	if err := r.failFor[account.Email]; err != nil {
		return nil, err
	}
	summary := dto.NewRunSummary(account.Email, time.Now())
	summary.Add(enum.OutcomeProcessed)
	return summary, nil
}

func TestRunner_NoAccounts(t *testing.T) {
	sessions := &recordingSessions{}
	r := NewRunner(staticAccounts{}, sessions, mailbox.NewMailboxSessionState(), nopLogger())

	err := r.RunOnce(context.Background())

	assert.True(t, errors.Is(err, apperrors.ErrNoActiveAccount))
	assert.Empty(t, sessions.seen)
}

func TestRunner_AccountsFailure(t *testing.T) {
	r := NewRunner(staticAccounts{err: errors.New("401")}, &recordingSessions{}, mailbox.NewMailboxSessionState(), nopLogger())

	assert.Error(t, r.RunOnce(context.Background()))
}

func TestRunner_AccountFailureDoesNotStopOthers(t *testing.T) {
	accounts := staticAccounts{accounts: []dto.MailAccountCredential{
		{Email: "a@gmail.com", Provider: enum.ProviderGmail},
		{Email: "b@contoso.com", Provider: enum.ProviderOutlook},
	}}
	sessions := &recordingSessions{failFor: map[string]error{"a@gmail.com": errors.New("gave up")}}
	state := mailbox.NewMailboxSessionState()
	r := NewRunner(accounts, sessions, state, nopLogger())

	require.NoError(t, r.RunOnce(context.Background()))

	assert.Equal(t, []string{"a@gmail.com", "b@contoso.com"}, sessions.seen)
	snap := state.Snapshot()
	require.NotNil(t, snap.LastRun)
	assert.Equal(t, "b@contoso.com", snap.LastRun.Account)
	assert.Equal(t, 1, snap.LastRun.Outcomes["processed"])
	assert.False(t, snap.Running)
}

func TestRunner_RejectsOverlappingRun(t *testing.T) {
	state := mailbox.NewMailboxSessionState()
	require.True(t, state.TryBeginRun())
	sessions := &recordingSessions{}
	r := NewRunner(staticAccounts{accounts: []dto.MailAccountCredential{{Email: "a@gmail.com"}}}, sessions, state, nopLogger())

	err := r.RunOnce(context.Background())

	assert.True(t, errors.Is(err, apperrors.ErrRunInProgress))
	assert.Empty(t, sessions.seen)
}

func TestRunner_StartRunsInBackground(t *testing.T) {
	state := mailbox.NewMailboxSessionState()
	sessions := &recordingSessions{}
	r := NewRunner(staticAccounts{accounts: []dto.MailAccountCredential{{Email: "a@gmail.com"}}}, sessions, state, nopLogger())

	require.NoError(t, r.Start(context.Background()))
	assert.Eventually(t, func() bool { return !state.Running() }, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"a@gmail.com"}, sessions.seen)
}
