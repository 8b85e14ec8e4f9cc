package authpw

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/southsideweekly/south-side-weekly/internal/notify"
	"github.com/southsideweekly/south-side-weekly/internal/store"
)

// mockUserStore is an in-memory implementation of UserStore for testing
type mockUserStore struct {
	users      map[string]store.User
	emailIndex map[string]string // lowercase email -> userID
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		users:      make(map[string]store.User),
		emailIndex: make(map[string]string),
	}
}

// uniqueViolation mimics a Postgres duplicate-key error.
type uniqueViolation struct{}

func (uniqueViolation) Error() string    { return "duplicate key value violates unique constraint" }
func (uniqueViolation) SQLState() string { return "23505" }

func (m *mockUserStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	if userID, ok := m.emailIndex[strings.ToLower(email)]; ok {
		return m.users[userID], nil
	}
	return store.User{}, sql.ErrNoRows
}

func (m *mockUserStore) GetUserByID(_ context.Context, id string) (store.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return store.User{}, sql.ErrNoRows
}

func (m *mockUserStore) InsertUser(_ context.Context, user store.User) (store.User, error) {
	if _, ok := m.emailIndex[strings.ToLower(user.Email)]; ok {
		return store.User{}, uniqueViolation{}
	}
	if user.ID == "" {
		user.ID = "user-" + user.Email
	}
	m.users[user.ID] = user
	m.emailIndex[strings.ToLower(user.Email)] = user.ID
	return user, nil
}

func (m *mockUserStore) SetOnboardingStatus(_ context.Context, userID, status string) error {
	user, ok := m.users[userID]
	if !ok {
		return sql.ErrNoRows
	}
	user.OnboardingStatus = status
	m.users[userID] = user
	return nil
}

func (m *mockUserStore) ListUsersByOnboarding(_ context.Context, status string) ([]store.User, error) {
	var out []store.User
	for _, user := range m.users {
		if user.OnboardingStatus == status {
			out = append(out, user)
		}
	}
	return out, nil
}

type recordingEmitter struct {
	mu      sync.Mutex
	intents []notify.Intent
}

func (r *recordingEmitter) Emit(intent notify.Intent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents = append(r.intents, intent)
}

func newTestService() (*Service, *mockUserStore, *recordingEmitter) {
	mock := newMockUserStore()
	emitter := &recordingEmitter{}
	return NewService(mock, emitter), mock, emitter
}

func TestSignUpCreatesPendingAccount(t *testing.T) {
	svc, _, _ := newTestService()

	user, err := svc.SignUp(context.Background(), SignUpRequest{
		Email: "Ada@Example.com", Password: "hunter2hunter2", Name: "Ada Author",
	})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Errorf("email = %s, want lowercased", user.Email)
	}
	if user.OnboardingStatus != store.OnboardingPending {
		t.Errorf("onboarding = %s, want %s", user.OnboardingStatus, store.OnboardingPending)
	}
	if user.Role != "TBD" {
		t.Errorf("role = %s, want TBD", user.Role)
	}
	if user.PasswordHash == "hunter2hunter2" {
		t.Error("password stored in plain text")
	}
}

func TestSignUpValidation(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.SignUp(context.Background(), SignUpRequest{Email: "a@b.c", Password: "short", Name: "A"}); err == nil {
		t.Error("short password accepted")
	}
	if _, err := svc.SignUp(context.Background(), SignUpRequest{Password: "hunter2hunter2", Name: "A"}); err == nil {
		t.Error("missing email accepted")
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()

	req := SignUpRequest{Email: "ada@example.com", Password: "hunter2hunter2", Name: "Ada"}
	if _, err := svc.SignUp(context.Background(), req); err != nil {
		t.Fatalf("first SignUp() error = %v", err)
	}
	if _, err := svc.SignUp(context.Background(), req); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("second SignUp() error = %v, want ErrEmailTaken", err)
	}
}

func TestSignInLifecycle(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	user, err := svc.SignUp(ctx, SignUpRequest{Email: "ada@example.com", Password: "hunter2hunter2", Name: "Ada"})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	// Pending accounts authenticate but cannot enter.
	if _, err := svc.SignIn(ctx, SignInRequest{Email: "ada@example.com", Password: "hunter2hunter2"}); !errors.Is(err, ErrNotOnboarded) {
		t.Fatalf("pending SignIn() error = %v, want ErrNotOnboarded", err)
	}

	if _, err := svc.ApproveUser(ctx, user.ID); err != nil {
		t.Fatalf("ApproveUser() error = %v", err)
	}

	signedIn, err := svc.SignIn(ctx, SignInRequest{Email: "ada@example.com", Password: "hunter2hunter2"})
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if signedIn.ID != user.ID {
		t.Errorf("signed-in id = %s, want %s", signedIn.ID, user.ID)
	}

	if _, err := svc.SignIn(ctx, SignInRequest{Email: "ada@example.com", Password: "wrong-password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("bad password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.SignIn(ctx, SignInRequest{Email: "nobody@example.com", Password: "hunter2hunter2"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email error = %v, want ErrInvalidCredentials", err)
	}
}

func TestOnboardingReviewEmitsIntents(t *testing.T) {
	svc, _, emitter := newTestService()
	ctx := context.Background()

	approved, err := svc.SignUp(ctx, SignUpRequest{Email: "ada@example.com", Password: "hunter2hunter2", Name: "Ada"})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	denied, err := svc.SignUp(ctx, SignUpRequest{Email: "bob@example.com", Password: "hunter2hunter2", Name: "Bob"})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	pending, err := svc.PendingUsers(ctx)
	if err != nil {
		t.Fatalf("PendingUsers() error = %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}

	if _, err := svc.ApproveUser(ctx, approved.ID); err != nil {
		t.Fatalf("ApproveUser() error = %v", err)
	}
	if _, err := svc.DenyUser(ctx, denied.ID, "no open positions"); err != nil {
		t.Fatalf("DenyUser() error = %v", err)
	}

	pending, _ = svc.PendingUsers(ctx)
	if len(pending) != 0 {
		t.Errorf("pending after review = %d, want 0", len(pending))
	}

	kinds := map[notify.Kind]string{}
	emitter.mu.Lock()
	for _, intent := range emitter.intents {
		kinds[intent.Kind] = intent.To
	}
	emitter.mu.Unlock()
	if kinds[notify.KindUserApproved] != "ada@example.com" {
		t.Errorf("UserApproved sent to %q", kinds[notify.KindUserApproved])
	}
	if kinds[notify.KindUserRejected] != "bob@example.com" {
		t.Errorf("UserRejected sent to %q", kinds[notify.KindUserRejected])
	}
}
