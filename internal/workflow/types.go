package workflow

import (
	"context"
	"time"

	"github.com/southsideweekly/south-side-weekly/internal/notify"
)

// Contributor records one user's team memberships on a pitch. A user appears
// at most once in a pitch's assignment list; teams accumulate on that entry.
type Contributor struct {
	UserID string   `json:"userId"`
	Teams  []string `json:"teams"`
}

// PendingContributor is an open claim request. At most one entry per user per
// pitch; a single request may cover several teams.
type PendingContributor struct {
	UserID        string    `json:"userId"`
	Teams         []string  `json:"teams"`
	Message       string    `json:"message"`
	DateSubmitted time.Time `json:"dateSubmitted"`
}

// TeamSlot pairs a team with its remaining open position count on a pitch.
// Target is remaining, not total: approving a claim decrements it, removing a
// contributor increments it.
type TeamSlot struct {
	TeamID string `json:"teamId"`
	Target int    `json:"target"`
}

// IssueStatusEntry links a pitch to one issue. ReleaseDate is a denormalized
// copy taken when the association is created so the sort order of
// IssueStatuses stays stable even if the issue record changes later.
type IssueStatusEntry struct {
	IssueID     string      `json:"issueId"`
	IssueStatus IssueStatus `json:"issueStatus"`
	ReleaseDate time.Time   `json:"releaseDate"`
}

type Pitch struct {
	ID                      string               `json:"id"`
	Title                   string               `json:"title"`
	Description             string               `json:"description"`
	Author                  string               `json:"author"`
	Writer                  string               `json:"writer,omitempty"`
	PrimaryEditor           string               `json:"primaryEditor,omitempty"`
	SecondEditors           []string             `json:"secondEditors"`
	ThirdEditors            []string             `json:"thirdEditors"`
	ReviewedBy              string               `json:"reviewedBy,omitempty"`
	ConflictOfInterest      bool                 `json:"conflictOfInterest"`
	Status                  PitchStatus          `json:"status"`
	AssignmentStatus        AssignmentStatus     `json:"assignmentStatus"`
	AssignmentGoogleDocLink string               `json:"assignmentGoogleDocLink,omitempty"`
	AssignmentContributors  []Contributor        `json:"assignmentContributors"`
	PendingContributors     []PendingContributor `json:"pendingContributors"`
	Topics                  []string             `json:"topics"`
	Teams                   []TeamSlot           `json:"teams"`
	Deadline                *time.Time           `json:"deadline,omitempty"`
	Neighborhoods           []string             `json:"neighborhoods"`
	IssueStatuses           []IssueStatusEntry   `json:"issueStatuses"`
	EditStatus              EditStatus           `json:"editStatus"`
	FactCheckingStatus      FactCheckingStatus   `json:"factCheckingStatus"`
	FactCheckingLink        string               `json:"factCheckingLink,omitempty"`
	VisualStatus            VisualStatus         `json:"visualStatus"`
	VisualLink              string               `json:"visualLink,omitempty"`
	VisualNotes             string               `json:"visualNotes,omitempty"`
	LayoutStatus            LayoutStatus         `json:"layoutStatus"`
	LayoutNotes             string               `json:"layoutNotes,omitempty"`
	WordCount               *int                 `json:"wordCount,omitempty"`
	PageCount               *int                 `json:"pageCount,omitempty"`
	IsInternal              bool                 `json:"isInternal"`
	DeclineReasoning        string               `json:"declineReasoning,omitempty"`
	Version                 int64                `json:"-"`
	CreatedAt               time.Time            `json:"createdAt"`
	UpdatedAt               time.Time            `json:"updatedAt"`
}

// Issue is a scheduled publication. Pitches is the inverse of each pitch's
// IssueStatuses set; Reconcile keeps the two sides agreeing.
type Issue struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	ReleaseDate time.Time  `json:"releaseDate"`
	Type        IssueType  `json:"type"`
	Pitches     []string   `json:"pitches"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
	Version     int64      `json:"-"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// UserInfo and TeamInfo are the read-only catalog projections the engine
// needs for notification payloads and the Writing-team rule.
type UserInfo struct {
	ID    string
	Name  string
	Email string
	Role  string
}

type TeamInfo struct {
	ID   string
	Name string
}

// Store is the persistence surface the engine mutates. SavePitch and
// SaveIssue are expected to enforce optimistic concurrency on the record's
// Version field and return ErrVersionConflict on a stale write.
type Store interface {
	GetPitch(ctx context.Context, id string) (Pitch, error)
	SavePitch(ctx context.Context, pitch Pitch) error
	GetIssue(ctx context.Context, id string) (Issue, error)
	SaveIssue(ctx context.Context, issue Issue) error
}

// Directory is the read-only reference catalog lookup. Lookups feed display
// names into notification intents and resolve team names; they never drive
// workflow decisions beyond the Writing-team replace rule.
type Directory interface {
	LookupUser(ctx context.Context, id string) (UserInfo, error)
	LookupTeam(ctx context.Context, id string) (TeamInfo, error)
}

// Engine owns the pitch lifecycle and the claim machinery. All mutating
// operations for one pitch run under that pitch's lock, so the
// read-modify-write of targets and contributor sets is linearizable per
// pitch while different pitches proceed in parallel.
type Engine struct {
	store   Store
	dir     Directory
	emitter notify.Emitter
	locks   *lockRegistry
	now     func() time.Time
}

func NewEngine(store Store, dir Directory, emitter notify.Emitter) *Engine {
	return &Engine{
		store:   store,
		dir:     dir,
		emitter: emitter,
		locks:   newLockRegistry(),
		now:     time.Now,
	}
}
