package enum

type Outcome string

const (
	OutcomeProcessed    Outcome = "processed"
	OutcomeError        Outcome = "error"
	OutcomeNoAttachment Outcome = "no_attachment"
)

func (o Outcome) String() string {
	return string(o)
}
