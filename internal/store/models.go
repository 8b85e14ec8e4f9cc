package store

import "time"

// Onboarding states for contributor accounts. New sign-ups land in PENDING
// and stay there until staff review them.
const (
	OnboardingPending  = "ONBOARDING_SCHEDULED"
	OnboardingApproved = "ONBOARDED"
	OnboardingDenied   = "DENIED"
)

type User struct {
	ID               string
	Name             string
	Email            string
	PasswordHash     string
	Role             string
	OnboardingStatus string
	Teams            []string
	Interests        []string
	DeactivatedAt    *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Team is a reference-catalog entry. Pitches point at teams by id; the
// catalog is small and changes rarely.
type Team struct {
	ID        string
	Name      string
	Color     string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Interest is a topic tag users and pitches can carry.
type Interest struct {
	ID        string
	Name      string
	Color     string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PitchFilter narrows ListPitches. Zero values mean "no constraint"; Internal
// filters visibility for non-staff callers.
type PitchFilter struct {
	Status   string
	Author   string
	Internal *bool
	Limit    int
}

// IssueFilter narrows ListIssues.
type IssueFilter struct {
	Type    string
	Deleted bool
}
