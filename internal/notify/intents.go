// Package notify carries structured notification intents from the workflow
// core to a delivery backend. Emission is fire-and-forget: a failed delivery
// never rolls back or blocks the mutation that produced the intent.
package notify

import "log"

type Kind string

const (
	KindPitchApproved    Kind = "PitchApproved"
	KindPitchDeclined    Kind = "PitchDeclined"
	KindClaimApproved    Kind = "ClaimApproved"
	KindClaimDeclined    Kind = "ClaimDeclined"
	KindContributorAdded Kind = "ContributorAdded"
	KindUserApproved     Kind = "UserApproved"
	KindUserRejected     Kind = "UserRejected"
)

// Intent is a "notify To about Kind" request. Fields hold the display values
// the template for that kind interpolates (contributor, title, staff, ...).
type Intent struct {
	Kind   Kind
	To     string
	CC     []string
	Fields map[string]string
}

type Emitter interface {
	Emit(intent Intent)
}

// LogEmitter is the fallback backend used when SMTP is not configured.
type LogEmitter struct{}

func (LogEmitter) Emit(intent Intent) {
	log.Printf("notify: %s to=%s cc=%v", intent.Kind, intent.To, intent.CC)
}
