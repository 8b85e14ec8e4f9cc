package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/southsideweekly/south-side-weekly/internal/auth"
	"github.com/southsideweekly/south-side-weekly/internal/authpw"
	"github.com/southsideweekly/south-side-weekly/internal/config"
	"github.com/southsideweekly/south-side-weekly/internal/export"
	"github.com/southsideweekly/south-side-weekly/internal/notify"
	"github.com/southsideweekly/south-side-weekly/internal/rbac"
	"github.com/southsideweekly/south-side-weekly/internal/search"
	"github.com/southsideweekly/south-side-weekly/internal/session"
	"github.com/southsideweekly/south-side-weekly/internal/store"
	"github.com/southsideweekly/south-side-weekly/internal/util"
	"github.com/southsideweekly/south-side-weekly/internal/workflow"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Role         string
	ExpiresAt    time.Time
}

type dataStore interface {
	GetPitch(ctx context.Context, id string) (workflow.Pitch, error)
	ListPitches(ctx context.Context, filter store.PitchFilter) ([]workflow.Pitch, error)
	GetIssue(ctx context.Context, id string) (workflow.Issue, error)
	SaveIssue(ctx context.Context, issue workflow.Issue) error
	ListIssues(ctx context.Context, filter store.IssueFilter) ([]workflow.Issue, error)
	SoftDeleteIssue(ctx context.Context, id string, at time.Time) ([]string, error)
	GetUserByID(ctx context.Context, id string) (store.User, error)
	ListTeams(ctx context.Context) ([]store.Team, error)
	UpsertTeam(ctx context.Context, team store.Team) (store.Team, error)
	ListInterests(ctx context.Context) ([]store.Interest, error)
	UpsertInterest(ctx context.Context, interest store.Interest) (store.Interest, error)
	Ping(ctx context.Context) error
}

type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash string, data session.TokenData, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (session.TokenData, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type Service struct {
	cfg      config.Config
	store    dataStore
	engine   *workflow.Engine
	authpw   *authpw.Service
	sessions sessionStore
	search   *search.Service
	exporter *export.Service
}

func New(cfg config.Config, pg *store.PostgresStore, sessions *session.RedisStore, searchSvc *search.Service, emitter notify.Emitter) *Service {
	if emitter == nil {
		emitter = notify.LogEmitter{}
	}
	svc := &Service{
		cfg:      cfg,
		store:    pg,
		engine:   workflow.NewEngine(pg, pg, emitter),
		authpw:   authpw.NewService(pg, emitter),
		sessions: sessions,
		search:   searchSvc,
	}
	svc.exporter = export.NewService(lineupSource{store: svc.store})
	return svc
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) Can(role string, action rbac.Action) bool {
	return rbac.Can(rbac.Normalize(role), action)
}

// --- sessions ---

func (s *Service) SignUp(ctx context.Context, req authpw.SignUpRequest) (store.User, error) {
	return s.authpw.SignUp(ctx, req)
}

// SignIn authenticates and opens a session. Accounts still in onboarding
// review get authpw.ErrNotOnboarded instead of a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	user, err := s.authpw.SignIn(ctx, authpw.SignInRequest{Email: email, Password: password})
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

// Refresh rotates a refresh token: the presented token is revoked and a fresh
// pair is issued. Role changes and deactivation take effect here because the
// user record is re-read.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	data, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	user, err := s.store.GetUserByID(ctx, data.UserID)
	if err != nil {
		return Session{}, err
	}
	if user.DeactivatedAt != nil {
		return Session{}, session.ErrNotFound
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:  user.ID,
		Name: user.Name,
		Role: user.Role,
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), session.TokenData{
		UserID: user.ID,
		Name:   user.Name,
		Role:   user.Role,
	}, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.Name,
		Role:         user.Role,
		ExpiresAt:    expiresAt,
	}, nil
}

// SessionFromToken validates an access token. It works from the claims alone;
// role changes propagate at the next refresh.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		UserID:    claims.Sub,
		UserName:  claims.Name,
		Role:      claims.Role,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

// --- onboarding review ---

func (s *Service) PendingUsers(ctx context.Context) ([]store.User, error) {
	return s.authpw.PendingUsers(ctx)
}

func (s *Service) ApproveUser(ctx context.Context, userID string) (store.User, error) {
	return s.authpw.ApproveUser(ctx, userID)
}

func (s *Service) DenyUser(ctx context.Context, userID, reasoning string) (store.User, error) {
	return s.authpw.DenyUser(ctx, userID, reasoning)
}

// --- pitches ---

func (s *Service) SubmitPitch(ctx context.Context, input workflow.SubmitPitchInput) (workflow.Pitch, error) {
	pitch, err := s.engine.SubmitPitch(ctx, input)
	if err != nil {
		return workflow.Pitch{}, err
	}
	s.indexPitch(pitch)
	return pitch, nil
}

func (s *Service) GetPitch(ctx context.Context, id string) (workflow.Pitch, error) {
	return s.store.GetPitch(ctx, id)
}

func (s *Service) ListPitches(ctx context.Context, filter store.PitchFilter) ([]workflow.Pitch, error) {
	return s.store.ListPitches(ctx, filter)
}

func (s *Service) ApprovePitch(ctx context.Context, pitchID string, payload workflow.ApprovePayload) (workflow.Pitch, error) {
	pitch, err := s.engine.Approve(ctx, pitchID, payload)
	if err != nil {
		return workflow.Pitch{}, err
	}
	s.indexPitch(pitch)
	return pitch, nil
}

func (s *Service) DeclinePitch(ctx context.Context, pitchID, reasoning, reviewedBy string) (workflow.Pitch, error) {
	pitch, err := s.engine.Decline(ctx, pitchID, reasoning, reviewedBy)
	if err != nil {
		return workflow.Pitch{}, err
	}
	s.indexPitch(pitch)
	return pitch, nil
}

func (s *Service) UpdateProduction(ctx context.Context, pitchID string, update workflow.ProductionUpdate) (workflow.Pitch, error) {
	pitch, err := s.engine.UpdateProduction(ctx, pitchID, update)
	if err != nil {
		return workflow.Pitch{}, err
	}
	s.indexPitch(pitch)
	return pitch, nil
}

// --- claims ---

func (s *Service) SubmitClaim(ctx context.Context, pitchID, userID string, teams []string, message string) (workflow.Pitch, error) {
	return s.engine.SubmitClaim(ctx, pitchID, userID, teams, message)
}

func (s *Service) ApproveClaim(ctx context.Context, pitchID, userID string, teams []string, staffID string) (workflow.Pitch, error) {
	return s.engine.ApproveClaim(ctx, pitchID, userID, teams, staffID)
}

func (s *Service) DeclineClaim(ctx context.Context, pitchID, userID string, teams []string, staffID string) (workflow.Pitch, error) {
	return s.engine.DeclineClaim(ctx, pitchID, userID, teams, staffID)
}

func (s *Service) AddContributor(ctx context.Context, pitchID, userID, teamID, staffID string) (workflow.Pitch, error) {
	return s.engine.AddContributor(ctx, pitchID, userID, teamID, staffID)
}

func (s *Service) RemoveContributor(ctx context.Context, pitchID, userID, teamID string) (workflow.Pitch, error) {
	return s.engine.RemoveContributor(ctx, pitchID, userID, teamID)
}

func (s *Service) SetTeamTarget(ctx context.Context, pitchID, teamID string, total int) (workflow.Pitch, error) {
	return s.engine.SetTeamTarget(ctx, pitchID, teamID, total)
}

// --- issues ---

type IssueInput struct {
	Name        *string
	ReleaseDate *time.Time
	Type        *string
}

func (s *Service) CreateIssue(ctx context.Context, input IssueInput) (workflow.Issue, error) {
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return workflow.Issue{}, &workflow.Error{Status: http.StatusUnprocessableEntity, Code: workflow.CodeValidation, Message: "name is required"}
	}
	if input.ReleaseDate == nil {
		return workflow.Issue{}, &workflow.Error{Status: http.StatusUnprocessableEntity, Code: workflow.CodeValidation, Message: "releaseDate is required"}
	}
	issueType := workflow.IssuePrint
	if input.Type != nil {
		issueType = workflow.IssueType(*input.Type)
	}
	if !issueType.Valid() {
		return workflow.Issue{}, &workflow.Error{Status: http.StatusUnprocessableEntity, Code: workflow.CodeValidation, Message: fmt.Sprintf("unknown issue type %q", issueType)}
	}

	now := time.Now()
	issue := workflow.Issue{
		ID:          util.NewID("issue"),
		Name:        strings.TrimSpace(*input.Name),
		ReleaseDate: *input.ReleaseDate,
		Type:        issueType,
		Pitches:     []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.SaveIssue(ctx, issue); err != nil {
		return workflow.Issue{}, err
	}
	return issue, nil
}

func (s *Service) UpdateIssue(ctx context.Context, id string, input IssueInput) (workflow.Issue, error) {
	issue, err := s.store.GetIssue(ctx, id)
	if err != nil {
		return workflow.Issue{}, err
	}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return workflow.Issue{}, &workflow.Error{Status: http.StatusUnprocessableEntity, Code: workflow.CodeValidation, Message: "name cannot be empty"}
		}
		issue.Name = strings.TrimSpace(*input.Name)
	}
	if input.ReleaseDate != nil {
		issue.ReleaseDate = *input.ReleaseDate
	}
	if input.Type != nil {
		issueType := workflow.IssueType(*input.Type)
		if !issueType.Valid() {
			return workflow.Issue{}, &workflow.Error{Status: http.StatusUnprocessableEntity, Code: workflow.CodeValidation, Message: fmt.Sprintf("unknown issue type %q", issueType)}
		}
		issue.Type = issueType
	}
	issue.UpdatedAt = time.Now()
	if err := s.store.SaveIssue(ctx, issue); err != nil {
		return workflow.Issue{}, err
	}
	return issue, nil
}

func (s *Service) GetIssue(ctx context.Context, id string) (workflow.Issue, error) {
	return s.store.GetIssue(ctx, id)
}

func (s *Service) ListIssues(ctx context.Context, filter store.IssueFilter) ([]workflow.Issue, error) {
	return s.store.ListIssues(ctx, filter)
}

// DeleteIssue soft-deletes the issue and strips it from every pitch that
// referenced it.
func (s *Service) DeleteIssue(ctx context.Context, id string) error {
	pitchIDs, err := s.store.SoftDeleteIssue(ctx, id, time.Now())
	if err != nil {
		return err
	}
	return s.engine.DetachIssue(ctx, id, pitchIDs)
}

// --- catalogs ---

func (s *Service) ListTeams(ctx context.Context) ([]store.Team, error) {
	return s.store.ListTeams(ctx)
}

func (s *Service) UpsertTeam(ctx context.Context, team store.Team) (store.Team, error) {
	if strings.TrimSpace(team.Name) == "" {
		return store.Team{}, &workflow.Error{Status: http.StatusUnprocessableEntity, Code: workflow.CodeValidation, Message: "team name is required"}
	}
	return s.store.UpsertTeam(ctx, team)
}

func (s *Service) ListInterests(ctx context.Context) ([]store.Interest, error) {
	return s.store.ListInterests(ctx)
}

func (s *Service) UpsertInterest(ctx context.Context, interest store.Interest) (store.Interest, error) {
	if strings.TrimSpace(interest.Name) == "" {
		return store.Interest{}, &workflow.Error{Status: http.StatusUnprocessableEntity, Code: workflow.CodeValidation, Message: "interest name is required"}
	}
	return s.store.UpsertInterest(ctx, interest)
}

// --- search ---

func (s *Service) Search(q search.Query) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}
	}
	return s.search.Search(q)
}

func (s *Service) indexPitch(p workflow.Pitch) {
	if s.search == nil {
		return
	}
	s.search.IndexPitch(search.PitchRecord{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		Status:        string(p.Status),
		Topics:        p.Topics,
		Neighborhoods: p.Neighborhoods,
		IsInternal:    p.IsInternal,
	})
}

// --- export ---

func (s *Service) ExportIssueLineup(ctx context.Context, issueID string) (*export.Result, error) {
	return s.exporter.ExportIssueLineup(ctx, issueID)
}

// lineupSource adapts the store to the exporter's read model. Pitches that
// disappeared between the issue read and the pitch reads are skipped.
type lineupSource struct {
	store dataStore
}

func (l lineupSource) GetIssueInfo(ctx context.Context, issueID string) (export.IssueInfo, error) {
	issue, err := l.store.GetIssue(ctx, issueID)
	if err != nil {
		return export.IssueInfo{}, err
	}
	return export.IssueInfo{
		ID:          issue.ID,
		Name:        issue.Name,
		Type:        string(issue.Type),
		ReleaseDate: issue.ReleaseDate,
	}, nil
}

func (l lineupSource) ListIssuePitches(ctx context.Context, issueID string) ([]export.PitchInfo, error) {
	issue, err := l.store.GetIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}

	infos := make([]export.PitchInfo, 0, len(issue.Pitches))
	for _, pitchID := range issue.Pitches {
		pitch, err := l.store.GetPitch(ctx, pitchID)
		if err != nil {
			continue
		}
		info := export.PitchInfo{
			ID:                 pitch.ID,
			Title:              pitch.Title,
			Description:        pitch.Description,
			Writer:             l.userName(ctx, pitch.Writer),
			PrimaryEditor:      l.userName(ctx, pitch.PrimaryEditor),
			EditStatus:         string(pitch.EditStatus),
			FactCheckingStatus: string(pitch.FactCheckingStatus),
			VisualStatus:       string(pitch.VisualStatus),
			LayoutStatus:       string(pitch.LayoutStatus),
		}
		if pitch.WordCount != nil {
			info.WordCount = *pitch.WordCount
		}
		if pitch.PageCount != nil {
			info.PageCount = *pitch.PageCount
		}
		for _, entry := range pitch.IssueStatuses {
			if entry.IssueID == issueID {
				info.IssueStatus = string(entry.IssueStatus)
				break
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (l lineupSource) userName(ctx context.Context, userID string) string {
	if userID == "" {
		return ""
	}
	user, err := l.store.GetUserByID(ctx, userID)
	if err != nil {
		return userID
	}
	return user.Name
}
