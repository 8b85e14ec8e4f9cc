package workflow

import (
	"context"
	"database/sql"
	"errors"
	"sort"
)

// ComputeDiff returns the ids present only in newIDs (added) and only in
// oldIDs (removed), both sorted. Ids in both sets are untouched.
func ComputeDiff(oldIDs, newIDs []string) (added, removed []string) {
	oldSet := make(map[string]struct{}, len(oldIDs))
	for _, id := range oldIDs {
		oldSet[id] = struct{}{}
	}
	newSet := make(map[string]struct{}, len(newIDs))
	for _, id := range newIDs {
		newSet[id] = struct{}{}
	}
	for id := range newSet {
		if _, ok := oldSet[id]; !ok {
			added = append(added, id)
		}
	}
	for id := range oldSet {
		if _, ok := newSet[id]; !ok {
			removed = append(removed, id)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

// Reconcile brings each issue's pitch list in line with the pitch's issue
// set. Both directions are idempotent: adding an id already present or
// removing one already absent is a no-op, so a retried call converges. A
// removal targeting a missing issue is skipped rather than failed.
func (e *Engine) Reconcile(ctx context.Context, pitchID string, added, removed []string) error {
	for _, issueID := range added {
		issue, err := e.loadIssue(ctx, issueID)
		if err != nil {
			return err
		}
		if containsString(issue.Pitches, pitchID) {
			continue
		}
		issue.Pitches = append(issue.Pitches, pitchID)
		if err := e.saveIssue(ctx, issue); err != nil {
			return err
		}
	}
	for _, issueID := range removed {
		issue, err := e.store.GetIssue(ctx, issueID)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return err
		}
		if !containsString(issue.Pitches, pitchID) {
			continue
		}
		issue.Pitches = removeString(issue.Pitches, pitchID)
		if err := e.saveIssue(ctx, issue); err != nil {
			return err
		}
	}
	return nil
}

// DetachIssue strips a deleted issue's id from every pitch that still
// references it. The pitches slice is the issue's own pitch list captured
// before the delete.
func (e *Engine) DetachIssue(ctx context.Context, issueID string, pitchIDs []string) error {
	for _, pitchID := range pitchIDs {
		unlock := e.locks.acquire(pitchID)
		pitch, err := e.store.GetPitch(ctx, pitchID)
		if errors.Is(err, sql.ErrNoRows) {
			unlock()
			continue
		}
		if err != nil {
			unlock()
			return err
		}
		kept := pitch.IssueStatuses[:0]
		for _, entry := range pitch.IssueStatuses {
			if entry.IssueID != issueID {
				kept = append(kept, entry)
			}
		}
		if len(kept) == len(pitch.IssueStatuses) {
			unlock()
			continue
		}
		pitch.IssueStatuses = kept
		pitch.UpdatedAt = e.now()
		err = e.savePitch(ctx, pitch)
		unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

// seedIssueStatuses builds fresh entries for the given issue ids, each at the
// given initial status and carrying the issue's release date.
func (e *Engine) seedIssueStatuses(ctx context.Context, issueIDs []string, status IssueStatus) ([]IssueStatusEntry, error) {
	entries := make([]IssueStatusEntry, 0, len(issueIDs))
	for _, issueID := range dedupeStrings(issueIDs) {
		issue, err := e.loadIssue(ctx, issueID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, IssueStatusEntry{
			IssueID:     issueID,
			IssueStatus: status,
			ReleaseDate: issue.ReleaseDate,
		})
	}
	sortIssueStatuses(entries)
	return entries, nil
}

// mergeIssueStatuses reworks the entry list toward newIDs: retained ids keep
// their current status, new ids come in as DEFINITELY_IN, dropped ids go.
func (e *Engine) mergeIssueStatuses(ctx context.Context, current []IssueStatusEntry, newIDs []string) ([]IssueStatusEntry, error) {
	existing := make(map[string]IssueStatusEntry, len(current))
	for _, entry := range current {
		existing[entry.IssueID] = entry
	}
	merged := make([]IssueStatusEntry, 0, len(newIDs))
	for _, issueID := range newIDs {
		if entry, ok := existing[issueID]; ok {
			merged = append(merged, entry)
			continue
		}
		issue, err := e.loadIssue(ctx, issueID)
		if err != nil {
			return nil, err
		}
		merged = append(merged, IssueStatusEntry{
			IssueID:     issueID,
			IssueStatus: IssueDefinitelyIn,
			ReleaseDate: issue.ReleaseDate,
		})
	}
	sortIssueStatuses(merged)
	return merged, nil
}

// sortIssueStatuses orders entries by release date ascending, ties broken by
// issue id so the order is stable across loads.
func sortIssueStatuses(entries []IssueStatusEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ReleaseDate.Equal(entries[j].ReleaseDate) {
			return entries[i].IssueID < entries[j].IssueID
		}
		return entries[i].ReleaseDate.Before(entries[j].ReleaseDate)
	})
}

func issueIDsOf(entries []IssueStatusEntry) []string {
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.IssueID)
	}
	return ids
}

func (e *Engine) loadIssue(ctx context.Context, issueID string) (Issue, error) {
	issue, err := e.store.GetIssue(ctx, issueID)
	if errors.Is(err, sql.ErrNoRows) {
		return Issue{}, notFoundError("issue not found")
	}
	if err != nil {
		return Issue{}, err
	}
	return issue, nil
}

func (e *Engine) saveIssue(ctx context.Context, issue Issue) error {
	err := e.store.SaveIssue(ctx, issue)
	if errors.Is(err, ErrVersionConflict) {
		return conflictError("issue was modified concurrently")
	}
	return err
}
