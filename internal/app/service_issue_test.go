package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/southsideweekly/south-side-weekly/internal/store"
	"github.com/southsideweekly/south-side-weekly/internal/workflow"
)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func intPtr(n int) *int { return &n }

func TestCreateIssueValidation(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, newFakeSessions())
	ctx := t.Context()
	release := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		input   IssueInput
		message string
	}{
		{"missing name", IssueInput{ReleaseDate: timePtr(release)}, "name is required"},
		{"blank name", IssueInput{Name: strPtr("   "), ReleaseDate: timePtr(release)}, "name is required"},
		{"missing release date", IssueInput{Name: strPtr("November Print")}, "releaseDate is required"},
		{"bad type", IssueInput{Name: strPtr("November Print"), ReleaseDate: timePtr(release), Type: strPtr("QUARTERLY")}, "unknown issue type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateIssue(ctx, tc.input)
			var werr *workflow.Error
			if !errors.As(err, &werr) {
				t.Fatalf("err = %v, want workflow.Error", err)
			}
			if werr.Code != workflow.CodeValidation {
				t.Errorf("code = %s, want %s", werr.Code, workflow.CodeValidation)
			}
			if !strings.Contains(werr.Message, tc.message) {
				t.Errorf("message = %q, want to contain %q", werr.Message, tc.message)
			}
		})
	}
}

func TestCreateIssueDefaultsToPrint(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, newFakeSessions())

	issue, err := svc.CreateIssue(t.Context(), IssueInput{
		Name:        strPtr("  November Print  "),
		ReleaseDate: timePtr(time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}
	if issue.Type != workflow.IssuePrint {
		t.Errorf("type = %s, want %s", issue.Type, workflow.IssuePrint)
	}
	if issue.Name != "November Print" {
		t.Errorf("name = %q, want trimmed", issue.Name)
	}
	if issue.Pitches == nil {
		t.Error("pitches should initialize to an empty slice")
	}
}

func TestUpdateIssueRejectsBlankName(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, newFakeSessions())

	issue, err := svc.CreateIssue(t.Context(), IssueInput{
		Name:        strPtr("November Print"),
		ReleaseDate: timePtr(time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}

	_, err = svc.UpdateIssue(t.Context(), issue.ID, IssueInput{Name: strPtr("  ")})
	var werr *workflow.Error
	if !errors.As(err, &werr) || werr.Code != workflow.CodeValidation {
		t.Fatalf("err = %v, want validation error", err)
	}

	updated, err := svc.UpdateIssue(t.Context(), issue.ID, IssueInput{Type: strPtr("ONLINE")})
	if err != nil {
		t.Fatalf("UpdateIssue: %v", err)
	}
	if updated.Type != workflow.IssueOnline {
		t.Errorf("type = %s, want %s", updated.Type, workflow.IssueOnline)
	}
	if updated.Name != "November Print" {
		t.Errorf("name = %q, unchanged fields should persist", updated.Name)
	}
}

func TestLineupSourceResolvesNamesAndSkipsMissing(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, newFakeSessions())

	writer := fs.addUser(store.User{
		Name:             "Jordan Reyes",
		Email:            "jordan@example.com",
		Role:             "CONTRIBUTOR",
		OnboardingStatus: store.OnboardingApproved,
	})
	editor := fs.addUser(store.User{
		Name:             "Sam Okafor",
		Email:            "sam@example.com",
		Role:             "STAFF",
		OnboardingStatus: store.OnboardingApproved,
	})

	fs.issues["issue-oct"] = workflow.Issue{
		ID:          "issue-oct",
		Name:        "October Print",
		Type:        workflow.IssuePrint,
		ReleaseDate: time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC),
		Pitches:     []string{"pitch-a", "pitch-gone", "pitch-b"},
		Version:     1,
	}
	fs.pitches["pitch-a"] = workflow.Pitch{
		ID:            "pitch-a",
		Title:         "Transit Cuts",
		Writer:        writer.ID,
		PrimaryEditor: editor.ID,
		EditStatus:    workflow.EditFirstIP,
		WordCount:     intPtr(1800),
		PageCount:     intPtr(2),
		IssueStatuses: []workflow.IssueStatusEntry{
			{IssueID: "issue-oct", IssueStatus: workflow.IssueDefinitelyIn},
		},
		Version: 1,
	}
	fs.pitches["pitch-b"] = workflow.Pitch{
		ID:     "pitch-b",
		Title:  "Bridgeport Mural",
		Writer: "user-departed",
		IssueStatuses: []workflow.IssueStatusEntry{
			{IssueID: "issue-other", IssueStatus: workflow.IssueMaybeIn},
		},
		Version: 1,
	}

	src := lineupSource{store: svc.store}

	info, err := src.GetIssueInfo(t.Context(), "issue-oct")
	if err != nil {
		t.Fatalf("GetIssueInfo: %v", err)
	}
	if info.Name != "October Print" || info.Type != "PRINT" {
		t.Errorf("unexpected issue info %+v", info)
	}

	pitches, err := src.ListIssuePitches(t.Context(), "issue-oct")
	if err != nil {
		t.Fatalf("ListIssuePitches: %v", err)
	}
	if len(pitches) != 2 {
		t.Fatalf("pitches len = %d, want 2 (missing pitch skipped)", len(pitches))
	}
	first := pitches[0]
	if first.Writer != "Jordan Reyes" || first.PrimaryEditor != "Sam Okafor" {
		t.Errorf("names not resolved: writer %q editor %q", first.Writer, first.PrimaryEditor)
	}
	if first.IssueStatus != "DEFINITELY_IN" {
		t.Errorf("issueStatus = %q, want DEFINITELY_IN", first.IssueStatus)
	}
	if first.WordCount != 1800 || first.PageCount != 2 {
		t.Errorf("counts = %d/%d, want 1800/2", first.WordCount, first.PageCount)
	}
	second := pitches[1]
	if second.Writer != "user-departed" {
		t.Errorf("unknown writer should fall back to the raw id, got %q", second.Writer)
	}
	if second.IssueStatus != "" {
		t.Errorf("issueStatus = %q, want empty for another issue's entry", second.IssueStatus)
	}
}
