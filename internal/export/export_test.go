package export

import (
	"strings"
	"testing"
	"time"
)

func TestBuildLineupGroupsAndSorts(t *testing.T) {
	issue := IssueInfo{ID: "issue-1", Name: "October Print", Type: "PRINT"}
	pitches := []PitchInfo{
		{ID: "pitch-3", Title: "Zoning Fight", IssueStatus: "MAYBE_IN", WordCount: 800, PageCount: 1},
		{ID: "pitch-1", Title: "Transit Cuts", IssueStatus: "DEFINITELY_IN", WordCount: 1200, PageCount: 2},
		{ID: "pitch-2", Title: "Bridgeport Mural", IssueStatus: "DEFINITELY_IN", WordCount: 600, PageCount: 1},
	}

	data := buildLineup(issue, pitches)

	if len(data.Confirmed) != 2 || len(data.Maybe) != 1 {
		t.Fatalf("got %d confirmed / %d maybe, want 2 / 1", len(data.Confirmed), len(data.Maybe))
	}
	if data.Confirmed[0].Title != "Bridgeport Mural" || data.Confirmed[1].Title != "Transit Cuts" {
		t.Errorf("confirmed not sorted by title: %q, %q", data.Confirmed[0].Title, data.Confirmed[1].Title)
	}
	if data.TotalWords != 2600 {
		t.Errorf("TotalWords = %d, want 2600", data.TotalWords)
	}
	if data.TotalPages != 4 {
		t.Errorf("TotalPages = %d, want 4", data.TotalPages)
	}
}

func TestRenderLineupHTML(t *testing.T) {
	data := LineupData{
		Issue: IssueInfo{
			Name:        "October Print",
			Type:        "PRINT",
			ReleaseDate: time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC),
		},
		Confirmed: []PitchInfo{
			{
				Title:              "Transit Cuts",
				Description:        "Service reductions on the south lakefront",
				Writer:             "Jordan Reyes",
				PrimaryEditor:      "Sam Okafor",
				EditStatus:         "1st In Progress",
				FactCheckingStatus: "Needs FC",
				WordCount:          1200,
			},
		},
		TotalWords: 1200,
	}

	html, err := RenderLineupHTML(data)
	if err != nil {
		t.Fatalf("RenderLineupHTML() error = %v", err)
	}

	for _, want := range []string{
		"October Print",
		"releases October 15, 2026",
		"Transit Cuts",
		"Jordan Reyes",
		"1st In Progress",
		"Needs FC",
		"Nothing tentatively slotted",
		"1200 words",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered lineup missing %q", want)
		}
	}
}

func TestRenderLineupHTMLEscapesDescriptions(t *testing.T) {
	data := LineupData{
		Issue: IssueInfo{Name: "Weekly"},
		Maybe: []PitchInfo{
			{Title: "Injection", Description: "<script>alert(1)</script>", PrimaryEditor: "Ed"},
		},
	}

	html, err := RenderLineupHTML(data)
	if err != nil {
		t.Fatalf("RenderLineupHTML() error = %v", err)
	}
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("description rendered as raw HTML")
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Error("description should be escaped")
	}
}

func TestRenderLineupHTMLZeroReleaseDate(t *testing.T) {
	html, err := RenderLineupHTML(LineupData{Issue: IssueInfo{Name: "Unscheduled"}})
	if err != nil {
		t.Fatalf("RenderLineupHTML() error = %v", err)
	}
	if !strings.Contains(html, "releases TBD") {
		t.Error("zero release date should render as TBD")
	}
}

func TestStageLabel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"DEFINITELY_IN", "Definitely In"},
		{"PUSH", "Push"},
		{"Needs FC", "Needs FC"},
		{"1st In Progress", "1st In Progress"},
		{"", "—"},
	}
	for _, tt := range tests {
		if got := stageLabel(tt.input); got != tt.expected {
			t.Errorf("stageLabel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"October Print-lineup", "October-Print-lineup"},
		{"Vol. 12 No. 3", "Vol-12-No-3"},
		{"Special!@#$%Chars", "SpecialChars"},
		{"", "lineup"},
		{"Very Long Issue Name That Exceeds Fifty Characters In Total", "Very-Long-Issue-Name-That-Exceeds-Fifty-Characters"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := sanitizeFilename(tt.input)
			if result != tt.expected {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello world", "hello%20world"},
		{"test+sign", "test%2Bsign"},
		{"special<>", "special%3C%3E"},
		{"normal-text.txt", "normal-text.txt"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := percentEncodeForDataURL(tt.input)
			if result != tt.expected {
				t.Errorf("percentEncodeForDataURL(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
