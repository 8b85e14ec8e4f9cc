package workflow

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/southsideweekly/south-side-weekly/internal/notify"
	"github.com/southsideweekly/south-side-weekly/internal/util"
)

type SubmitPitchInput struct {
	Title                   string
	Description             string
	Author                  string
	ConflictOfInterest      bool
	Topics                  []string
	Neighborhoods           []string
	IsInternal              bool
	AssignmentGoogleDocLink string
}

// ApprovePayload carries everything staff fix at approval time. TeamTotals
// maps team id to the total position count; entries with total <= 0 are
// dropped. IssueIDs are seeded with MAYBE_IN and the issue's release date.
type ApprovePayload struct {
	Writer        string
	PrimaryEditor string
	SecondEditors []string
	ThirdEditors  []string
	TeamTotals    map[string]int
	Deadline      *time.Time
	Neighborhoods []string
	Topics        []string
	WordCount     *int
	PageCount     *int
	IssueIDs      []string
	ReviewedBy    string
}

// ProductionUpdate is a partial update for an approved pitch. Nil pointer
// fields are left untouched; a nil IssueIDs slice leaves the associations
// alone while an empty one clears them.
type ProductionUpdate struct {
	Title                   *string
	Description             *string
	Topics                  []string
	Deadline                *time.Time
	WordCount               *int
	PageCount               *int
	IsInternal              *bool
	AssignmentStatus        *AssignmentStatus
	AssignmentGoogleDocLink *string
	EditStatus              *EditStatus
	FactCheckingStatus      *FactCheckingStatus
	FactCheckingLink        *string
	VisualStatus            *VisualStatus
	VisualLink              *string
	VisualNotes             *string
	LayoutStatus            *LayoutStatus
	LayoutNotes             *string
	IssueIDs                []string
}

// SubmitPitch creates a pitch in PENDING with each stage pipeline at its
// initial state.
func (e *Engine) SubmitPitch(ctx context.Context, input SubmitPitchInput) (Pitch, error) {
	if strings.TrimSpace(input.Title) == "" {
		return Pitch{}, validationError("title is required", nil)
	}
	if strings.TrimSpace(input.Description) == "" {
		return Pitch{}, validationError("description is required", nil)
	}
	if strings.TrimSpace(input.Author) == "" {
		return Pitch{}, validationError("author is required", nil)
	}

	now := e.now()
	pitch := Pitch{
		ID:                      util.NewID("pitch"),
		Title:                   strings.TrimSpace(input.Title),
		Description:             input.Description,
		Author:                  input.Author,
		ConflictOfInterest:      input.ConflictOfInterest,
		Status:                  PitchPending,
		AssignmentStatus:        AssignmentNone,
		AssignmentGoogleDocLink: input.AssignmentGoogleDocLink,
		AssignmentContributors:  []Contributor{},
		PendingContributors:     []PendingContributor{},
		Topics:                  dedupeStrings(input.Topics),
		Teams:                   []TeamSlot{},
		Neighborhoods:           dedupeStrings(input.Neighborhoods),
		IssueStatuses:           []IssueStatusEntry{},
		EditStatus:              EditWriterNeeded,
		FactCheckingStatus:      FactCheckNeeded,
		VisualStatus:            VisualUnassigned,
		LayoutStatus:            LayoutInProgress,
		IsInternal:              input.IsInternal,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if err := e.savePitch(ctx, pitch); err != nil {
		return Pitch{}, err
	}
	return pitch, nil
}

// Approve moves a PENDING pitch to APPROVED, fixing writer, editors, team
// targets and issue associations in one call.
func (e *Engine) Approve(ctx context.Context, pitchID string, payload ApprovePayload) (Pitch, error) {
	unlock := e.locks.acquire(pitchID)
	defer unlock()

	pitch, err := e.loadPitch(ctx, pitchID)
	if err != nil {
		return Pitch{}, err
	}
	if pitch.Status != PitchPending {
		return Pitch{}, invalidStateError("pitch has already been reviewed")
	}
	if strings.TrimSpace(payload.PrimaryEditor) == "" {
		return Pitch{}, validationError("primaryEditor is required", nil)
	}
	if payload.Deadline == nil {
		return Pitch{}, validationError("deadline is required", nil)
	}

	// Staff enter totals; the ledger stores what remains open. At approval
	// time there are normally no assignment contributors yet, so remaining
	// equals total after the clamp.
	teams := make([]TeamSlot, 0, len(payload.TeamTotals))
	for teamID, total := range payload.TeamTotals {
		if total <= 0 {
			continue
		}
		remaining := total - assignedCount(&pitch, teamID)
		if remaining < 0 {
			remaining = 0
		}
		teams = append(teams, TeamSlot{TeamID: teamID, Target: remaining})
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].TeamID < teams[j].TeamID })

	entries, err := e.seedIssueStatuses(ctx, payload.IssueIDs, IssueMaybeIn)
	if err != nil {
		return Pitch{}, err
	}

	oldIssueIDs := issueIDsOf(pitch.IssueStatuses)

	pitch.Status = PitchApproved
	pitch.Writer = payload.Writer
	pitch.PrimaryEditor = payload.PrimaryEditor
	pitch.SecondEditors = dedupeStrings(payload.SecondEditors)
	pitch.ThirdEditors = dedupeStrings(payload.ThirdEditors)
	pitch.Teams = teams
	pitch.Deadline = payload.Deadline
	pitch.ReviewedBy = payload.ReviewedBy
	pitch.IssueStatuses = entries
	if len(payload.Neighborhoods) > 0 {
		pitch.Neighborhoods = dedupeStrings(payload.Neighborhoods)
	}
	if len(payload.Topics) > 0 {
		pitch.Topics = dedupeStrings(payload.Topics)
	}
	if payload.WordCount != nil {
		pitch.WordCount = payload.WordCount
	}
	if payload.PageCount != nil {
		pitch.PageCount = payload.PageCount
	}
	pitch.UpdatedAt = e.now()

	if err := e.savePitch(ctx, pitch); err != nil {
		return Pitch{}, err
	}

	added, removed := ComputeDiff(oldIssueIDs, issueIDsOf(entries))
	if err := e.Reconcile(ctx, pitch.ID, added, removed); err != nil {
		return Pitch{}, err
	}

	e.emitPitchApproved(ctx, pitch)
	if pitch.Writer != "" && pitch.Writer != pitch.Author {
		e.emitContributorAdded(ctx, pitch, pitch.Writer, payload.ReviewedBy)
	}
	return pitch, nil
}

// Decline moves a PENDING pitch to DECLINED with optional reasoning. A
// declined pitch accepts no further mutation.
func (e *Engine) Decline(ctx context.Context, pitchID, reasoning, reviewedBy string) (Pitch, error) {
	unlock := e.locks.acquire(pitchID)
	defer unlock()

	pitch, err := e.loadPitch(ctx, pitchID)
	if err != nil {
		return Pitch{}, err
	}
	if pitch.Status != PitchPending {
		return Pitch{}, invalidStateError("pitch has already been reviewed")
	}

	pitch.Status = PitchDeclined
	pitch.DeclineReasoning = reasoning
	pitch.ReviewedBy = reviewedBy
	pitch.UpdatedAt = e.now()
	if err := e.savePitch(ctx, pitch); err != nil {
		return Pitch{}, err
	}

	e.emitPitchDeclined(ctx, pitch, reasoning)
	return pitch, nil
}

// UpdateProduction applies a partial update to an APPROVED pitch, including
// the per-stage pipelines and the issue association set. Issue ids retained
// keep their current status; ids added through this path are seeded
// DEFINITELY_IN, unlike the MAYBE_IN seed at approval.
func (e *Engine) UpdateProduction(ctx context.Context, pitchID string, update ProductionUpdate) (Pitch, error) {
	unlock := e.locks.acquire(pitchID)
	defer unlock()

	pitch, err := e.loadPitch(ctx, pitchID)
	if err != nil {
		return Pitch{}, err
	}
	if pitch.Status != PitchApproved {
		return Pitch{}, invalidStateError("pitch is not approved")
	}
	if err := validateUpdate(update); err != nil {
		return Pitch{}, err
	}

	if update.Title != nil {
		pitch.Title = *update.Title
	}
	if update.Description != nil {
		pitch.Description = *update.Description
	}
	if update.Topics != nil {
		pitch.Topics = dedupeStrings(update.Topics)
	}
	if update.Deadline != nil {
		pitch.Deadline = update.Deadline
	}
	if update.WordCount != nil {
		pitch.WordCount = update.WordCount
	}
	if update.PageCount != nil {
		pitch.PageCount = update.PageCount
	}
	if update.IsInternal != nil {
		pitch.IsInternal = *update.IsInternal
	}
	if update.AssignmentStatus != nil {
		pitch.AssignmentStatus = *update.AssignmentStatus
	}
	if update.AssignmentGoogleDocLink != nil {
		pitch.AssignmentGoogleDocLink = *update.AssignmentGoogleDocLink
	}
	if update.EditStatus != nil {
		pitch.EditStatus = *update.EditStatus
	}
	if update.FactCheckingStatus != nil {
		pitch.FactCheckingStatus = *update.FactCheckingStatus
	}
	if update.FactCheckingLink != nil {
		pitch.FactCheckingLink = *update.FactCheckingLink
	}
	if update.VisualStatus != nil {
		pitch.VisualStatus = *update.VisualStatus
	}
	if update.VisualLink != nil {
		pitch.VisualLink = *update.VisualLink
	}
	if update.VisualNotes != nil {
		pitch.VisualNotes = *update.VisualNotes
	}
	if update.LayoutStatus != nil {
		pitch.LayoutStatus = *update.LayoutStatus
	}
	if update.LayoutNotes != nil {
		pitch.LayoutNotes = *update.LayoutNotes
	}

	var added, removed []string
	if update.IssueIDs != nil {
		oldIDs := issueIDsOf(pitch.IssueStatuses)
		newIDs := dedupeStrings(update.IssueIDs)
		added, removed = ComputeDiff(oldIDs, newIDs)

		merged, err := e.mergeIssueStatuses(ctx, pitch.IssueStatuses, newIDs)
		if err != nil {
			return Pitch{}, err
		}
		pitch.IssueStatuses = merged
	}

	pitch.UpdatedAt = e.now()
	if err := e.savePitch(ctx, pitch); err != nil {
		return Pitch{}, err
	}
	if update.IssueIDs != nil {
		if err := e.Reconcile(ctx, pitch.ID, added, removed); err != nil {
			return Pitch{}, err
		}
	}
	return pitch, nil
}

func validateUpdate(update ProductionUpdate) error {
	if update.AssignmentStatus != nil && !update.AssignmentStatus.Valid() {
		return validationError("invalid assignment status", *update.AssignmentStatus)
	}
	if update.EditStatus != nil && !update.EditStatus.Valid() {
		return validationError("invalid edit status", *update.EditStatus)
	}
	if update.FactCheckingStatus != nil && !update.FactCheckingStatus.Valid() {
		return validationError("invalid fact-checking status", *update.FactCheckingStatus)
	}
	if update.VisualStatus != nil && !update.VisualStatus.Valid() {
		return validationError("invalid visual status", *update.VisualStatus)
	}
	if update.LayoutStatus != nil && !update.LayoutStatus.Valid() {
		return validationError("invalid layout status", *update.LayoutStatus)
	}
	return nil
}

func (e *Engine) loadPitch(ctx context.Context, pitchID string) (Pitch, error) {
	pitch, err := e.store.GetPitch(ctx, pitchID)
	if errors.Is(err, sql.ErrNoRows) {
		return Pitch{}, notFoundError("pitch not found")
	}
	if err != nil {
		return Pitch{}, err
	}
	return pitch, nil
}

func (e *Engine) savePitch(ctx context.Context, pitch Pitch) error {
	err := e.store.SavePitch(ctx, pitch)
	if errors.Is(err, ErrVersionConflict) {
		return conflictError("pitch was modified concurrently")
	}
	return err
}

// --- notification intents ---

func (e *Engine) emitPitchApproved(ctx context.Context, pitch Pitch) {
	author, ok := e.userInfo(ctx, pitch.Author)
	if !ok {
		return
	}
	editor, _ := e.userInfo(ctx, pitch.PrimaryEditor)
	staff, _ := e.userInfo(ctx, pitch.ReviewedBy)

	intent := notify.Intent{
		Kind: notify.KindPitchApproved,
		To:   author.Email,
		Fields: map[string]string{
			"contributor":   author.Name,
			"title":         pitch.Title,
			"description":   pitch.Description,
			"staff":         staff.Name,
			"primaryEditor": editor.Name,
			"hasWriter":     boolField(pitch.Writer != ""),
		},
	}
	if pitch.Writer != "" && editor.Email != "" {
		intent.CC = []string{editor.Email}
	}
	e.emitter.Emit(intent)
}

func (e *Engine) emitPitchDeclined(ctx context.Context, pitch Pitch, reasoning string) {
	author, ok := e.userInfo(ctx, pitch.Author)
	if !ok {
		return
	}
	staff, _ := e.userInfo(ctx, pitch.ReviewedBy)
	e.emitter.Emit(notify.Intent{
		Kind: notify.KindPitchDeclined,
		To:   author.Email,
		Fields: map[string]string{
			"contributor": author.Name,
			"title":       pitch.Title,
			"staff":       staff.Name,
			"reasoning":   reasoning,
		},
	})
}

func (e *Engine) emitContributorAdded(ctx context.Context, pitch Pitch, userID, staffID string) {
	contributor, ok := e.userInfo(ctx, userID)
	if !ok {
		return
	}
	editor, _ := e.userInfo(ctx, pitch.PrimaryEditor)
	staff, _ := e.userInfo(ctx, staffID)

	intent := notify.Intent{
		Kind: notify.KindContributorAdded,
		To:   contributor.Email,
		Fields: map[string]string{
			"contributor":   contributor.Name,
			"title":         pitch.Title,
			"staff":         staff.Name,
			"primaryEditor": editor.Name,
		},
	}
	if editor.Email != "" {
		intent.CC = []string{editor.Email}
	}
	e.emitter.Emit(intent)
}

func (e *Engine) userInfo(ctx context.Context, userID string) (UserInfo, bool) {
	if userID == "" {
		return UserInfo{}, false
	}
	info, err := e.dir.LookupUser(ctx, userID)
	if err != nil {
		log.Printf("workflow: user lookup %s: %v", userID, err)
		return UserInfo{}, false
	}
	return info, true
}

// --- small helpers shared across the engine ---

func assignedCount(p *Pitch, teamID string) int {
	count := 0
	for _, c := range p.AssignmentContributors {
		if containsString(c.Teams, teamID) {
			count++
		}
	}
	return count
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}

func removeString(items []string, target string) []string {
	out := items[:0]
	for _, item := range items {
		if item != target {
			out = append(out, item)
		}
	}
	return out
}

func dedupeStrings(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func boolField(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
