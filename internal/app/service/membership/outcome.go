package membership

import "github.com/fatflowers/memberlink/internal/models"

type WriteState string

const (
	WriteSkipped WriteState = "skipped"
	WriteApplied WriteState = "applied"
	WriteFailed  WriteState = "failed"
)

// WriteOutcome reports a best-effort secondary write. A failed secondary
// write never fails the operation that attempted it.
type WriteOutcome struct {
	State WriteState `json:"state"`
	Err   error      `json:"-"`
}

func skipped() WriteOutcome         { return WriteOutcome{State: WriteSkipped} }
func applied() WriteOutcome         { return WriteOutcome{State: WriteApplied} }
func failed(err error) WriteOutcome { return WriteOutcome{State: WriteFailed, Err: err} }

func (o WriteOutcome) Failed() bool  { return o.State == WriteFailed }
func (o WriteOutcome) Applied() bool { return o.State == WriteApplied }

// ReadResult is the answer to Get. Membership is nil when the user has no
// subscription. Link describes the lazy-link write, if one was attempted.
type ReadResult struct {
	Membership *models.Membership
	Link       WriteOutcome
}

// CancelResult carries the membership as it was before cancellation, so
// RenewalPeriodEnd is the date access ends.
type CancelResult struct {
	Membership *models.Membership
	LocalWrite WriteOutcome
}
