package app

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/southsideweekly/south-side-weekly/internal/auth"
	"github.com/southsideweekly/south-side-weekly/internal/authpw"
	"github.com/southsideweekly/south-side-weekly/internal/config"
	"github.com/southsideweekly/south-side-weekly/internal/export"
	"github.com/southsideweekly/south-side-weekly/internal/notify"
	"github.com/southsideweekly/south-side-weekly/internal/session"
	"github.com/southsideweekly/south-side-weekly/internal/store"
	"github.com/southsideweekly/south-side-weekly/internal/util"
	"github.com/southsideweekly/south-side-weekly/internal/workflow"
)

// uniqueViolation mimics a pgx duplicate-key error so store.IsUniqueViolation
// recognizes it.
type uniqueViolation struct{}

func (uniqueViolation) Error() string    { return "duplicate key value violates unique constraint" }
func (uniqueViolation) SQLState() string { return "23505" }

// fakeStore is an in-memory stand-in for the Postgres store. It backs the
// workflow engine, the catalog lookups and the auth user store at once.
type fakeStore struct {
	mu      sync.Mutex
	pitches map[string]workflow.Pitch
	issues  map[string]workflow.Issue
	users   map[string]store.User
	byEmail map[string]string
	teams   map[string]store.Team
	pingErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		pitches: make(map[string]workflow.Pitch),
		issues:  make(map[string]workflow.Issue),
		users:   make(map[string]store.User),
		byEmail: make(map[string]string),
		teams:   make(map[string]store.Team),
	}
}

func cloneRecord[T any](in T) T {
	raw, _ := json.Marshal(in)
	var out T
	_ = json.Unmarshal(raw, &out)
	return out
}

func (f *fakeStore) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeStore) GetPitch(ctx context.Context, id string) (workflow.Pitch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pitch, ok := f.pitches[id]
	if !ok {
		return workflow.Pitch{}, sql.ErrNoRows
	}
	version := pitch.Version
	pitch = cloneRecord(pitch)
	pitch.Version = version
	return pitch, nil
}

func (f *fakeStore) SavePitch(ctx context.Context, pitch workflow.Pitch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, exists := f.pitches[pitch.ID]
	if pitch.Version == 0 {
		if exists {
			return workflow.ErrVersionConflict
		}
	} else if !exists || current.Version != pitch.Version {
		return workflow.ErrVersionConflict
	}
	version := pitch.Version + 1
	pitch = cloneRecord(pitch)
	pitch.Version = version
	f.pitches[pitch.ID] = pitch
	return nil
}

func (f *fakeStore) ListPitches(ctx context.Context, filter store.PitchFilter) ([]workflow.Pitch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []workflow.Pitch{}
	for _, p := range f.pitches {
		if filter.Status != "" && string(p.Status) != filter.Status {
			continue
		}
		if filter.Author != "" && p.Author != filter.Author {
			continue
		}
		if filter.Internal != nil && p.IsInternal != *filter.Internal {
			continue
		}
		out = append(out, cloneRecord(p))
	}
	return out, nil
}

func (f *fakeStore) GetIssue(ctx context.Context, id string) (workflow.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.issues[id]
	if !ok || issue.DeletedAt != nil {
		return workflow.Issue{}, sql.ErrNoRows
	}
	version := issue.Version
	issue = cloneRecord(issue)
	issue.Version = version
	return issue, nil
}

func (f *fakeStore) SaveIssue(ctx context.Context, issue workflow.Issue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, exists := f.issues[issue.ID]
	if issue.Version != 0 && (!exists || current.Version != issue.Version) {
		return workflow.ErrVersionConflict
	}
	version := issue.Version + 1
	issue = cloneRecord(issue)
	issue.Version = version
	f.issues[issue.ID] = issue
	return nil
}

func (f *fakeStore) ListIssues(ctx context.Context, filter store.IssueFilter) ([]workflow.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []workflow.Issue{}
	for _, issue := range f.issues {
		if issue.DeletedAt != nil && !filter.Deleted {
			continue
		}
		if filter.Type != "" && string(issue.Type) != filter.Type {
			continue
		}
		out = append(out, cloneRecord(issue))
	}
	return out, nil
}

func (f *fakeStore) SoftDeleteIssue(ctx context.Context, id string, at time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.issues[id]
	if !ok || issue.DeletedAt != nil {
		return nil, sql.ErrNoRows
	}
	issue.DeletedAt = &at
	f.issues[id] = issue
	return append([]string{}, issue.Pitches...), nil
}

func (f *fakeStore) LookupUser(ctx context.Context, id string) (workflow.UserInfo, error) {
	user, err := f.GetUserByID(ctx, id)
	if err != nil {
		return workflow.UserInfo{}, err
	}
	return workflow.UserInfo{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}, nil
}

func (f *fakeStore) LookupTeam(ctx context.Context, id string) (workflow.TeamInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	team, ok := f.teams[id]
	if !ok {
		return workflow.TeamInfo{}, sql.ErrNoRows
	}
	return workflow.TeamInfo{ID: team.ID, Name: team.Name}, nil
}

func (f *fakeStore) GetUserByID(ctx context.Context, id string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return f.users[id], nil
}

func (f *fakeStore) InsertUser(ctx context.Context, user store.User) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byEmail[user.Email]; exists {
		return store.User{}, uniqueViolation{}
	}
	if user.ID == "" {
		user.ID = util.NewID("user")
	}
	if user.OnboardingStatus == "" {
		user.OnboardingStatus = store.OnboardingPending
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	f.users[user.ID] = user
	f.byEmail[user.Email] = user.ID
	return user, nil
}

func (f *fakeStore) SetOnboardingStatus(ctx context.Context, userID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return sql.ErrNoRows
	}
	user.OnboardingStatus = status
	f.users[userID] = user
	return nil
}

func (f *fakeStore) ListUsersByOnboarding(ctx context.Context, status string) ([]store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []store.User{}
	for _, user := range f.users {
		if user.OnboardingStatus == status {
			out = append(out, user)
		}
	}
	return out, nil
}

func (f *fakeStore) ListTeams(ctx context.Context) ([]store.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []store.Team{}
	for _, team := range f.teams {
		out = append(out, team)
	}
	return out, nil
}

func (f *fakeStore) UpsertTeam(ctx context.Context, team store.Team) (store.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if team.ID == "" {
		team.ID = util.NewID("team")
	}
	f.teams[team.ID] = team
	return team, nil
}

func (f *fakeStore) ListInterests(ctx context.Context) ([]store.Interest, error) {
	return []store.Interest{}, nil
}

func (f *fakeStore) UpsertInterest(ctx context.Context, interest store.Interest) (store.Interest, error) {
	if interest.ID == "" {
		interest.ID = util.NewID("interest")
	}
	return interest, nil
}

// addUser seeds an account directly, bypassing sign-up.
func (f *fakeStore) addUser(user store.User) store.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == "" {
		user.ID = util.NewID("user")
	}
	f.users[user.ID] = user
	if user.Email != "" {
		f.byEmail[user.Email] = user.ID
	}
	return user
}

// fakeSessions keeps refresh sessions in a map. Expiry is not simulated.
type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]session.TokenData
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[string]session.TokenData)}
}

func (f *fakeSessions) SaveRefreshSession(ctx context.Context, tokenHash string, data session.TokenData, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[tokenHash] = data
	return nil
}

func (f *fakeSessions) LookupRefreshSession(ctx context.Context, tokenHash string) (session.TokenData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.sessions[tokenHash]
	if !ok {
		return session.TokenData{}, session.ErrNotFound
	}
	return data, nil
}

func (f *fakeSessions) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, tokenHash)
	return nil
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:  "test-secret",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	}
}

// doJSON runs one request against the handler and returns the recorder plus
// the decoded body.
func doJSON(handler http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var decoded map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &decoded)
	return rr, decoded
}

// accessToken mints a token for a seeded user the way issueSession would.
func accessToken(t *testing.T, svc *Service, user store.User) string {
	t.Helper()
	token, err := auth.IssueToken([]byte(svc.cfg.JWTSecret), auth.Claims{
		Sub:  user.ID,
		Name: user.Name,
		Role: user.Role,
		Exp:  time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func newTestService(fs *fakeStore, sessions *fakeSessions) *Service {
	emitter := notify.LogEmitter{}
	svc := &Service{
		cfg:      testConfig(),
		store:    fs,
		engine:   workflow.NewEngine(fs, fs, emitter),
		authpw:   authpw.NewService(fs, emitter),
		sessions: sessions,
	}
	svc.exporter = export.NewService(lineupSource{store: fs})
	return svc
}
