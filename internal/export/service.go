package export

import (
	"context"
	"fmt"
	"sort"
)

// DataStore defines the data access the exporter needs.
type DataStore interface {
	GetIssueInfo(ctx context.Context, issueID string) (IssueInfo, error)
	ListIssuePitches(ctx context.Context, issueID string) ([]PitchInfo, error)
}

// Service generates printable exports of issue lineups.
type Service struct {
	store DataStore
}

// NewService creates a new export service.
func NewService(store DataStore) *Service {
	return &Service{store: store}
}

// ExportIssueLineup renders the lineup of an issue as a PDF. Pitches are
// split into a confirmed section and a maybe section, each sorted by title.
func (s *Service) ExportIssueLineup(ctx context.Context, issueID string) (*Result, error) {
	issue, err := s.store.GetIssueInfo(ctx, issueID)
	if err != nil {
		return nil, fmt.Errorf("get issue: %w", err)
	}

	pitches, err := s.store.ListIssuePitches(ctx, issueID)
	if err != nil {
		return nil, fmt.Errorf("list issue pitches: %w", err)
	}

	data := buildLineup(issue, pitches)

	html, err := RenderLineupHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	return exportPDF(html, issue.Name+"-lineup")
}

func buildLineup(issue IssueInfo, pitches []PitchInfo) LineupData {
	data := LineupData{Issue: issue}
	for _, p := range pitches {
		if p.IssueStatus == "DEFINITELY_IN" {
			data.Confirmed = append(data.Confirmed, p)
		} else {
			data.Maybe = append(data.Maybe, p)
		}
		data.TotalWords += p.WordCount
		data.TotalPages += p.PageCount
	}
	sortPitches(data.Confirmed)
	sortPitches(data.Maybe)
	return data
}

func sortPitches(pitches []PitchInfo) {
	sort.Slice(pitches, func(i, j int) bool {
		if pitches[i].Title != pitches[j].Title {
			return pitches[i].Title < pitches[j].Title
		}
		return pitches[i].ID < pitches[j].ID
	})
}
