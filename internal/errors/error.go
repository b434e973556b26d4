package errors

import "github.com/pkg/errors"

var (
	// mailbox session errors
	ErrAuthentication      = errors.New("mailbox authentication failed")
	ErrOperationTimeout    = errors.New("mailbox operation timed out")
	ErrNotConnected        = errors.New("mailbox service not connected")
	ErrUnsupportedProvider = errors.New("unsupported mail provider")
	ErrFolderUnavailable   = errors.New("mailbox folder unavailable")

	// per-message pipeline errors
	ErrMessageFetch = errors.New("message fetch failed")
	ErrScratchDir   = errors.New("scratch directory unavailable")

	// collaborator errors, logged but never routed
	ErrArtifactUnavailable = errors.New("artifact unavailable")
	ErrSubmissionRejected  = errors.New("invoice submission rejected")
	ErrNoActiveAccount     = errors.New("no active mail account")
	ErrDecrypt             = errors.New("credential decryption failed")

	// run control
	ErrRunInProgress = errors.New("processing run already in progress")
)

// Kind is the retry class of a mailbox session failure.
type Kind int

const (
	KindOther Kind = iota
	KindAuthentication
	KindTimeout
	KindNotConnected
	KindUnsupportedProvider
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindTimeout:
		return "timeout"
	case KindNotConnected:
		return "not_connected"
	case KindUnsupportedProvider:
		return "unsupported_provider"
	default:
		return "other"
	}
}

// KindOf classifies err by the sentinel found in its chain.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindOther
	case errors.Is(err, ErrAuthentication):
		return KindAuthentication
	case errors.Is(err, ErrOperationTimeout):
		return KindTimeout
	case errors.Is(err, ErrNotConnected):
		return KindNotConnected
	case errors.Is(err, ErrUnsupportedProvider):
		return KindUnsupportedProvider
	default:
		return KindOther
	}
}

// Mark attaches the sentinel kind to err while keeping err's message.
func Mark(err, kind error) error {
	if err == nil {
		return nil
	}
	return &marked{cause: err, kind: kind}
}

type marked struct {
	cause error
	kind  error
}

func (m *marked) Error() string {
	return m.kind.Error() + ": " + m.cause.Error()
}

func (m *marked) Unwrap() []error {
	return []error{m.kind, m.cause}
}
