package workflow

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/southsideweekly/south-side-weekly/internal/notify"
)

// SubmitClaim records a contributor's request to join one or more teams on an
// approved pitch. A request overlapping a team the user already holds, or one
// already pending, is rejected whole; a disjoint request merges into the
// user's existing pending entry so each user carries at most one.
func (e *Engine) SubmitClaim(ctx context.Context, pitchID, userID string, teams []string, message string) (Pitch, error) {
	unlock := e.locks.acquire(pitchID)
	defer unlock()

	pitch, err := e.loadPitch(ctx, pitchID)
	if err != nil {
		return Pitch{}, err
	}
	if pitch.Status != PitchApproved {
		return Pitch{}, invalidStateError("pitch is not open for claims")
	}
	teams = dedupeStrings(teams)
	if len(teams) == 0 {
		return Pitch{}, validationError("at least one team is required", nil)
	}

	if member := findContributor(&pitch, userID); member != nil {
		for _, teamID := range teams {
			if containsString(member.Teams, teamID) {
				return Pitch{}, conflictError(fmt.Sprintf("user already assigned to team %s", teamID))
			}
		}
	}
	pending := findPending(&pitch, userID)
	if pending != nil {
		for _, teamID := range teams {
			if containsString(pending.Teams, teamID) {
				return Pitch{}, conflictError(fmt.Sprintf("claim for team %s already pending", teamID))
			}
		}
		pending.Teams = append(pending.Teams, teams...)
		if strings.TrimSpace(message) != "" {
			pending.Message = message
		}
	} else {
		pitch.PendingContributors = append(pitch.PendingContributors, PendingContributor{
			UserID:        userID,
			Teams:         teams,
			Message:       message,
			DateSubmitted: e.now(),
		})
	}

	pitch.UpdatedAt = e.now()
	if err := e.savePitch(ctx, pitch); err != nil {
		return Pitch{}, err
	}
	return pitch, nil
}

// ApproveClaim grants a pending claim for the given teams, one position per
// team off the ledger. Teams not named stay pending. Approving a Writing
// claim when the pitch already has a writer replaces that writer rather than
// failing, returning their position to the ledger first.
func (e *Engine) ApproveClaim(ctx context.Context, pitchID, userID string, teams []string, staffID string) (Pitch, error) {
	unlock := e.locks.acquire(pitchID)
	defer unlock()

	pitch, err := e.loadPitch(ctx, pitchID)
	if err != nil {
		return Pitch{}, err
	}
	if pitch.Status != PitchApproved {
		return Pitch{}, invalidStateError("pitch is not open for claims")
	}
	pending := findPending(&pitch, userID)
	if pending == nil {
		return Pitch{}, notFoundError("no pending claim for user")
	}
	teams = dedupeStrings(teams)
	for _, teamID := range teams {
		if !containsString(pending.Teams, teamID) {
			return Pitch{}, validationError(fmt.Sprintf("no pending claim for team %s", teamID), nil)
		}
	}

	ledger := NewTeamTargetLedger(&pitch.Teams)
	for _, teamID := range teams {
		if e.isWritingTeam(ctx, teamID) {
			e.displaceWriter(&pitch, ledger, teamID, userID)
		}
		if err := ledger.Decrement(teamID); err != nil {
			return Pitch{}, err
		}
		addTeamMembership(&pitch, userID, teamID)
		pending.Teams = removeString(pending.Teams, teamID)
	}
	if len(pending.Teams) == 0 {
		dropPending(&pitch, userID)
	}
	if pitch.AssignmentStatus == AssignmentNone || pitch.AssignmentStatus == AssignmentUnclaimed {
		pitch.AssignmentStatus = AssignmentInProgress
	}

	pitch.UpdatedAt = e.now()
	if err := e.savePitch(ctx, pitch); err != nil {
		return Pitch{}, err
	}

	e.emitClaimDecision(ctx, notify.KindClaimApproved, pitch, userID, staffID, "")
	return pitch, nil
}

// DeclineClaim rejects a pending claim for the given teams. The entry
// survives with its remaining teams and is dropped once empty.
func (e *Engine) DeclineClaim(ctx context.Context, pitchID, userID string, teams []string, staffID string) (Pitch, error) {
	unlock := e.locks.acquire(pitchID)
	defer unlock()

	pitch, err := e.loadPitch(ctx, pitchID)
	if err != nil {
		return Pitch{}, err
	}
	if pitch.Status != PitchApproved {
		return Pitch{}, invalidStateError("pitch is not open for claims")
	}
	pending := findPending(&pitch, userID)
	if pending == nil {
		return Pitch{}, notFoundError("no pending claim for user")
	}
	teams = dedupeStrings(teams)
	for _, teamID := range teams {
		if !containsString(pending.Teams, teamID) {
			return Pitch{}, validationError(fmt.Sprintf("no pending claim for team %s", teamID), nil)
		}
	}
	for _, teamID := range teams {
		pending.Teams = removeString(pending.Teams, teamID)
	}
	if len(pending.Teams) == 0 {
		dropPending(&pitch, userID)
	}

	pitch.UpdatedAt = e.now()
	if err := e.savePitch(ctx, pitch); err != nil {
		return Pitch{}, err
	}

	e.emitClaimDecision(ctx, notify.KindClaimDeclined, pitch, userID, staffID, "")
	return pitch, nil
}

// AddContributor places a user on a team directly, bypassing the claim
// queue. The position still comes off the ledger.
func (e *Engine) AddContributor(ctx context.Context, pitchID, userID, teamID, staffID string) (Pitch, error) {
	unlock := e.locks.acquire(pitchID)
	defer unlock()

	pitch, err := e.loadPitch(ctx, pitchID)
	if err != nil {
		return Pitch{}, err
	}
	if pitch.Status != PitchApproved {
		return Pitch{}, invalidStateError("pitch is not open for claims")
	}
	if member := findContributor(&pitch, userID); member != nil && containsString(member.Teams, teamID) {
		return Pitch{}, conflictError(fmt.Sprintf("user already assigned to team %s", teamID))
	}

	ledger := NewTeamTargetLedger(&pitch.Teams)
	if e.isWritingTeam(ctx, teamID) {
		e.displaceWriter(&pitch, ledger, teamID, userID)
	}
	if err := ledger.Decrement(teamID); err != nil {
		return Pitch{}, err
	}
	addTeamMembership(&pitch, userID, teamID)
	if pitch.AssignmentStatus == AssignmentNone || pitch.AssignmentStatus == AssignmentUnclaimed {
		pitch.AssignmentStatus = AssignmentInProgress
	}

	pitch.UpdatedAt = e.now()
	if err := e.savePitch(ctx, pitch); err != nil {
		return Pitch{}, err
	}

	e.emitContributorAdded(ctx, pitch, userID, staffID)
	return pitch, nil
}

// RemoveContributor takes a user off a team and returns the position to the
// ledger. No notification is sent on removal.
func (e *Engine) RemoveContributor(ctx context.Context, pitchID, userID, teamID string) (Pitch, error) {
	unlock := e.locks.acquire(pitchID)
	defer unlock()

	pitch, err := e.loadPitch(ctx, pitchID)
	if err != nil {
		return Pitch{}, err
	}
	if pitch.Status != PitchApproved {
		return Pitch{}, invalidStateError("pitch is not open for claims")
	}
	member := findContributor(&pitch, userID)
	if member == nil || !containsString(member.Teams, teamID) {
		return Pitch{}, notFoundError("user is not assigned to team")
	}

	removeTeamMembership(&pitch, userID, teamID)
	ledger := NewTeamTargetLedger(&pitch.Teams)
	ledger.Increment(teamID)
	if pitch.Writer == userID && e.isWritingTeam(ctx, teamID) {
		pitch.Writer = ""
	}

	pitch.UpdatedAt = e.now()
	if err := e.savePitch(ctx, pitch); err != nil {
		return Pitch{}, err
	}
	return pitch, nil
}

// SetTeamTarget rewrites a team's total position count. The ledger keeps the
// open remainder, so the stored value becomes total minus seats already
// filled; a total below the filled count is rejected.
func (e *Engine) SetTeamTarget(ctx context.Context, pitchID, teamID string, total int) (Pitch, error) {
	unlock := e.locks.acquire(pitchID)
	defer unlock()

	pitch, err := e.loadPitch(ctx, pitchID)
	if err != nil {
		return Pitch{}, err
	}
	if pitch.Status != PitchApproved {
		return Pitch{}, invalidStateError("pitch is not open for claims")
	}
	if total < 0 {
		return Pitch{}, validationError("target must not be negative", total)
	}
	filled := assignedCount(&pitch, teamID)
	if total < filled {
		return Pitch{}, validationError(
			fmt.Sprintf("target %d is below the %d positions already filled", total, filled), nil)
	}

	ledger := NewTeamTargetLedger(&pitch.Teams)
	ledger.SetRemaining(teamID, total-filled)

	pitch.UpdatedAt = e.now()
	if err := e.savePitch(ctx, pitch); err != nil {
		return Pitch{}, err
	}
	return pitch, nil
}

func (e *Engine) emitClaimDecision(ctx context.Context, kind notify.Kind, pitch Pitch, userID, staffID, reasoning string) {
	contributor, ok := e.userInfo(ctx, userID)
	if !ok {
		return
	}
	editor, _ := e.userInfo(ctx, pitch.PrimaryEditor)
	staff, _ := e.userInfo(ctx, staffID)

	intent := notify.Intent{
		Kind: kind,
		To:   contributor.Email,
		Fields: map[string]string{
			"contributor":   contributor.Name,
			"title":         pitch.Title,
			"staff":         staff.Name,
			"primaryEditor": editor.Name,
		},
	}
	if kind == notify.KindClaimApproved && editor.Email != "" {
		intent.CC = []string{editor.Email}
	}
	e.emitter.Emit(intent)
}

// displaceWriter makes room for a new writer. A pitch holds one writer: if a
// different one is already on the team their position goes back to the
// ledger, and a pitch whose approval never configured a Writing slot still
// gets the single writer position.
func (e *Engine) displaceWriter(pitch *Pitch, ledger *TeamTargetLedger, teamID, userID string) {
	if pitch.Writer != "" && pitch.Writer != userID {
		if removeTeamMembership(pitch, pitch.Writer, teamID) {
			ledger.Increment(teamID)
		}
	}
	if ledger.slot(teamID) == nil {
		ledger.Increment(teamID)
	}
	pitch.Writer = userID
}

func (e *Engine) isWritingTeam(ctx context.Context, teamID string) bool {
	team, err := e.dir.LookupTeam(ctx, teamID)
	if err != nil {
		log.Printf("workflow: team lookup %s: %v", teamID, err)
		return false
	}
	return strings.EqualFold(team.Name, "Writing")
}

func findContributor(p *Pitch, userID string) *Contributor {
	for i := range p.AssignmentContributors {
		if p.AssignmentContributors[i].UserID == userID {
			return &p.AssignmentContributors[i]
		}
	}
	return nil
}

func findPending(p *Pitch, userID string) *PendingContributor {
	for i := range p.PendingContributors {
		if p.PendingContributors[i].UserID == userID {
			return &p.PendingContributors[i]
		}
	}
	return nil
}

func dropPending(p *Pitch, userID string) {
	kept := p.PendingContributors[:0]
	for _, entry := range p.PendingContributors {
		if entry.UserID != userID {
			kept = append(kept, entry)
		}
	}
	p.PendingContributors = kept
}

func addTeamMembership(p *Pitch, userID, teamID string) {
	if member := findContributor(p, userID); member != nil {
		if !containsString(member.Teams, teamID) {
			member.Teams = append(member.Teams, teamID)
		}
		return
	}
	p.AssignmentContributors = append(p.AssignmentContributors, Contributor{
		UserID: userID,
		Teams:  []string{teamID},
	})
}

// removeTeamMembership reports whether the user actually held the team.
func removeTeamMembership(p *Pitch, userID, teamID string) bool {
	member := findContributor(p, userID)
	if member == nil || !containsString(member.Teams, teamID) {
		return false
	}
	member.Teams = removeString(member.Teams, teamID)
	if len(member.Teams) == 0 {
		kept := p.AssignmentContributors[:0]
		for _, c := range p.AssignmentContributors {
			if c.UserID != userID {
				kept = append(kept, c)
			}
		}
		p.AssignmentContributors = kept
	}
	return true
}
