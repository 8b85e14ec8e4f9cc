package search

// Result is a single search hit returned to the caller.
type Result struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Snippet    string `json:"snippet"`
	Status     string `json:"status"`
	IsInternal bool   `json:"isInternal"`
}

// Query describes a search request. IncludeInternal is false for callers who
// may not see internal pitches.
type Query struct {
	Text            string
	FilterStatus    string // empty = all statuses
	IncludeInternal bool
	Limit           int
	Offset          int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search over pitches.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// PitchRecord is the data we index for a pitch.
type PitchRecord struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Status        string   `json:"status"`
	Topics        []string `json:"topics"`
	Neighborhoods []string `json:"neighborhoods"`
	IsInternal    bool     `json:"isInternal"`
}
