package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/southsideweekly/south-side-weekly/internal/util"
	"github.com/southsideweekly/south-side-weekly/internal/workflow"
)

// PostgresStore persists pitches and issues as JSONB documents alongside
// denormalized filter columns, and the user/team/interest catalogs as plain
// rows. It implements both workflow.Store and workflow.Directory.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- pitches ---

func (s *PostgresStore) GetPitch(ctx context.Context, id string) (workflow.Pitch, error) {
	var (
		doc     []byte
		version int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT doc, version FROM pitches WHERE id=$1`, id).Scan(&doc, &version)
	if err != nil {
		return workflow.Pitch{}, err
	}
	var pitch workflow.Pitch
	if err := json.Unmarshal(doc, &pitch); err != nil {
		return workflow.Pitch{}, fmt.Errorf("decode pitch %s: %w", id, err)
	}
	pitch.Version = version
	return pitch, nil
}

// SavePitch inserts on version zero and otherwise updates with an optimistic
// check against the stored version. A lost check surfaces as
// workflow.ErrVersionConflict so the caller can distinguish it from a miss.
func (s *PostgresStore) SavePitch(ctx context.Context, pitch workflow.Pitch) error {
	doc, err := json.Marshal(pitch)
	if err != nil {
		return fmt.Errorf("encode pitch %s: %w", pitch.ID, err)
	}

	if pitch.Version == 0 {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO pitches (id, title, status, author, is_internal, doc, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $8)
		`, pitch.ID, pitch.Title, string(pitch.Status), pitch.Author, pitch.IsInternal, doc, pitch.CreatedAt, pitch.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert pitch: %w", err)
		}
		return nil
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE pitches
		SET title=$2, status=$3, author=$4, is_internal=$5, doc=$6, version=version+1, updated_at=$7
		WHERE id=$1 AND version=$8
	`, pitch.ID, pitch.Title, string(pitch.Status), pitch.Author, pitch.IsInternal, doc, pitch.UpdatedAt, pitch.Version)
	if err != nil {
		return fmt.Errorf("update pitch: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update pitch: %w", err)
	}
	if rows == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM pitches WHERE id=$1)`, pitch.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check pitch: %w", err)
		}
		if exists {
			return workflow.ErrVersionConflict
		}
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) ListPitches(ctx context.Context, filter PitchFilter) ([]workflow.Pitch, error) {
	query := `SELECT doc, version FROM pitches WHERE 1=1`
	args := []any{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status=$%d", len(args))
	}
	if filter.Author != "" {
		args = append(args, filter.Author)
		query += fmt.Sprintf(" AND author=$%d", len(args))
	}
	if filter.Internal != nil {
		args = append(args, *filter.Internal)
		query += fmt.Sprintf(" AND is_internal=$%d", len(args))
	}
	query += " ORDER BY updated_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pitches: %w", err)
	}
	defer rows.Close()
	return scanPitches(rows)
}

// SearchPitches runs a Postgres full-text query over title and description,
// the fallback path when no external search index is configured.
func (s *PostgresStore) SearchPitches(ctx context.Context, query string, limit int) ([]workflow.Pitch, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc, version
		FROM pitches
		WHERE search @@ plainto_tsquery('english', $1)
		ORDER BY ts_rank(search, plainto_tsquery('english', $1)) DESC
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search pitches: %w", err)
	}
	defer rows.Close()
	return scanPitches(rows)
}

func scanPitches(rows *sql.Rows) ([]workflow.Pitch, error) {
	items := make([]workflow.Pitch, 0)
	for rows.Next() {
		var (
			doc     []byte
			version int64
		)
		if err := rows.Scan(&doc, &version); err != nil {
			return nil, fmt.Errorf("scan pitch: %w", err)
		}
		var pitch workflow.Pitch
		if err := json.Unmarshal(doc, &pitch); err != nil {
			return nil, fmt.Errorf("decode pitch: %w", err)
		}
		pitch.Version = version
		items = append(items, pitch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pitches: %w", err)
	}
	return items, nil
}

// --- issues ---

func (s *PostgresStore) GetIssue(ctx context.Context, id string) (workflow.Issue, error) {
	var (
		doc     []byte
		version int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT doc, version FROM issues WHERE id=$1 AND deleted_at IS NULL`, id).Scan(&doc, &version)
	if err != nil {
		return workflow.Issue{}, err
	}
	var issue workflow.Issue
	if err := json.Unmarshal(doc, &issue); err != nil {
		return workflow.Issue{}, fmt.Errorf("decode issue %s: %w", id, err)
	}
	issue.Version = version
	return issue, nil
}

func (s *PostgresStore) SaveIssue(ctx context.Context, issue workflow.Issue) error {
	doc, err := json.Marshal(issue)
	if err != nil {
		return fmt.Errorf("encode issue %s: %w", issue.ID, err)
	}

	if issue.Version == 0 {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO issues (id, name, release_date, type, doc, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, 1, $6, $7)
		`, issue.ID, issue.Name, issue.ReleaseDate, string(issue.Type), doc, issue.CreatedAt, issue.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert issue: %w", err)
		}
		return nil
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE issues
		SET name=$2, release_date=$3, type=$4, doc=$5, version=version+1, updated_at=$6
		WHERE id=$1 AND version=$7 AND deleted_at IS NULL
	`, issue.ID, issue.Name, issue.ReleaseDate, string(issue.Type), doc, issue.UpdatedAt, issue.Version)
	if err != nil {
		return fmt.Errorf("update issue: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update issue: %w", err)
	}
	if rows == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM issues WHERE id=$1 AND deleted_at IS NULL)`, issue.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check issue: %w", err)
		}
		if exists {
			return workflow.ErrVersionConflict
		}
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) ListIssues(ctx context.Context, filter IssueFilter) ([]workflow.Issue, error) {
	query := `SELECT doc, version FROM issues WHERE 1=1`
	args := []any{}
	if !filter.Deleted {
		query += " AND deleted_at IS NULL"
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(" AND type=$%d", len(args))
	}
	query += " ORDER BY release_date ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	items := make([]workflow.Issue, 0)
	for rows.Next() {
		var (
			doc     []byte
			version int64
		)
		if err := rows.Scan(&doc, &version); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		var issue workflow.Issue
		if err := json.Unmarshal(doc, &issue); err != nil {
			return nil, fmt.Errorf("decode issue: %w", err)
		}
		issue.Version = version
		items = append(items, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issues: %w", err)
	}
	return items, nil
}

// SoftDeleteIssue marks the issue deleted and returns the pitch ids it still
// referenced so the caller can detach them.
func (s *PostgresStore) SoftDeleteIssue(ctx context.Context, id string, at time.Time) ([]string, error) {
	issue, err := s.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE issues SET deleted_at=$2 WHERE id=$1 AND deleted_at IS NULL`, id, at)
	if err != nil {
		return nil, fmt.Errorf("delete issue: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("delete issue: %w", err)
	}
	if rows == 0 {
		return nil, sql.ErrNoRows
	}
	return issue.Pitches, nil
}

// --- directory (workflow.Directory) ---

func (s *PostgresStore) LookupUser(ctx context.Context, id string) (workflow.UserInfo, error) {
	var info workflow.UserInfo
	err := s.db.QueryRowContext(ctx, `SELECT id, name, email, role FROM users WHERE id=$1`, id).
		Scan(&info.ID, &info.Name, &info.Email, &info.Role)
	if err != nil {
		return workflow.UserInfo{}, err
	}
	return info, nil
}

func (s *PostgresStore) LookupTeam(ctx context.Context, id string) (workflow.TeamInfo, error) {
	var info workflow.TeamInfo
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM teams WHERE id=$1`, id).
		Scan(&info.ID, &info.Name)
	if err != nil {
		return workflow.TeamInfo{}, err
	}
	return info, nil
}

// --- users ---

func (s *PostgresStore) InsertUser(ctx context.Context, user User) (User, error) {
	if user.ID == "" {
		user.ID = util.NewID("user")
	}
	if user.OnboardingStatus == "" {
		user.OnboardingStatus = OnboardingPending
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, onboarding_status, teams, interests)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.OnboardingStatus,
		jsonColumn(user.Teams), jsonColumn(user.Interests)).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	return s.getUser(ctx, `WHERE id=$1`, id)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return s.getUser(ctx, `WHERE LOWER(email)=LOWER($1)`, email)
}

func (s *PostgresStore) getUser(ctx context.Context, where string, arg any) (User, error) {
	var (
		user      User
		teams     []byte
		interests []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, onboarding_status, teams, interests, deactivated_at, created_at, updated_at
		FROM users `+where, arg).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role,
		&user.OnboardingStatus, &teams, &interests, &user.DeactivatedAt, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	if err := json.Unmarshal(teams, &user.Teams); err != nil {
		return User{}, fmt.Errorf("decode user teams: %w", err)
	}
	if err := json.Unmarshal(interests, &user.Interests); err != nil {
		return User{}, fmt.Errorf("decode user interests: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) SetOnboardingStatus(ctx context.Context, userID, status string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET onboarding_status=$2, updated_at=NOW() WHERE id=$1`, userID, status)
	if err != nil {
		return fmt.Errorf("set onboarding status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set onboarding status: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) ListUsersByOnboarding(ctx context.Context, status string) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, password_hash, role, onboarding_status, teams, interests, deactivated_at, created_at, updated_at
		FROM users
		WHERE onboarding_status=$1
		ORDER BY created_at ASC
	`, status)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	items := make([]User, 0)
	for rows.Next() {
		var (
			user      User
			teams     []byte
			interests []byte
		)
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role,
			&user.OnboardingStatus, &teams, &interests, &user.DeactivatedAt, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		if err := json.Unmarshal(teams, &user.Teams); err != nil {
			return nil, fmt.Errorf("decode user teams: %w", err)
		}
		if err := json.Unmarshal(interests, &user.Interests); err != nil {
			return nil, fmt.Errorf("decode user interests: %w", err)
		}
		items = append(items, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return items, nil
}

// --- reference catalogs ---

func (s *PostgresStore) ListTeams(ctx context.Context) ([]Team, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, color, active, created_at, updated_at FROM teams ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	items := make([]Team, 0)
	for rows.Next() {
		var team Team
		if err := rows.Scan(&team.ID, &team.Name, &team.Color, &team.Active, &team.CreatedAt, &team.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		items = append(items, team)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teams: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpsertTeam(ctx context.Context, team Team) (Team, error) {
	if team.ID == "" {
		team.ID = util.NewID("team")
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO teams (id, name, color, active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET color=EXCLUDED.color, active=EXCLUDED.active, updated_at=NOW()
		RETURNING id, created_at, updated_at
	`, team.ID, team.Name, team.Color, team.Active).Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		return Team{}, fmt.Errorf("upsert team: %w", err)
	}
	return team, nil
}

func (s *PostgresStore) ListInterests(ctx context.Context) ([]Interest, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, color, active, created_at, updated_at FROM interests ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list interests: %w", err)
	}
	defer rows.Close()

	items := make([]Interest, 0)
	for rows.Next() {
		var interest Interest
		if err := rows.Scan(&interest.ID, &interest.Name, &interest.Color, &interest.Active, &interest.CreatedAt, &interest.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan interest: %w", err)
		}
		items = append(items, interest)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interests: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpsertInterest(ctx context.Context, interest Interest) (Interest, error) {
	if interest.ID == "" {
		interest.ID = util.NewID("interest")
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO interests (id, name, color, active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET color=EXCLUDED.color, active=EXCLUDED.active, updated_at=NOW()
		RETURNING id, created_at, updated_at
	`, interest.ID, interest.Name, interest.Color, interest.Active).Scan(&interest.ID, &interest.CreatedAt, &interest.UpdatedAt)
	if err != nil {
		return Interest{}, fmt.Errorf("upsert interest: %w", err)
	}
	return interest, nil
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// failure, used to map duplicate emails and team names to a conflict.
func IsUniqueViolation(err error) bool {
	var sqlErr interface{ SQLState() string }
	return errors.As(err, &sqlErr) && sqlErr.SQLState() == "23505"
}

func jsonColumn(items []string) []byte {
	if items == nil {
		items = []string{}
	}
	data, _ := json.Marshal(items)
	return data
}
