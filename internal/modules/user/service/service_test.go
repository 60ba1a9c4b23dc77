package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"hmcc.com/communityplatform/internal/config"
	"hmcc.com/communityplatform/internal/entity"
	"hmcc.com/communityplatform/internal/modules/user/dto"
	"hmcc.com/communityplatform/internal/modules/user/repository"
	"hmcc.com/communityplatform/pkg/apperror"
)

type fakeUserRepo struct {
	users  map[string]*entity.User // keyed by email
	resets map[uuid.UUID]*entity.PasswordReset

	lastRecords repository.RegistrationRecords
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:  make(map[string]*entity.User),
		resets: make(map[uuid.UUID]*entity.PasswordReset),
	}
}

func (f *fakeUserRepo) Create(_ context.Context, user *entity.User, records repository.RegistrationRecords) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.users[user.Email] = user
	f.lastRecords = records
	return nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*entity.User, error) {
	for _, u := range f.users {
		if u.ID.String() == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindAll(_ context.Context, role, status, search string, limit, offset int) ([]*entity.User, int64, error) {
	var out []*entity.User
	for _, u := range f.users {
		if role != "" && u.Role != role {
			continue
		}
		if status != "" && u.Status != status {
			continue
		}
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *entity.User) error {
	f.users[user.Email] = user
	return nil
}

func (f *fakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	for _, u := range f.users {
		if u.ID == id {
			u.LastLogin = &at
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	for _, u := range f.users {
		if u.ID == id {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	for _, u := range f.users {
		if u.ID == id {
			u.Status = status
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	for email, u := range f.users {
		if u.ID == id {
			delete(f.users, email)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) CountByStatus(_ context.Context, status string) (int64, error) {
	var n int64
	for _, u := range f.users {
		if u.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeUserRepo) CountByRole(_ context.Context, role string) (int64, error) {
	var n int64
	for _, u := range f.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (f *fakeUserRepo) SaveFellowProfile(_ context.Context, _ *entity.FellowProfile) error { return nil }
func (f *fakeUserRepo) SaveMentorProfile(_ context.Context, _ *entity.MentorProfile) error { return nil }

func (f *fakeUserRepo) UpsertPasswordReset(_ context.Context, reset *entity.PasswordReset) error {
	f.resets[reset.UserID] = reset
	return nil
}

func (f *fakeUserRepo) FindPasswordReset(_ context.Context, userID uuid.UUID) (*entity.PasswordReset, error) {
	if r, ok := f.resets[userID]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) DeletePasswordReset(_ context.Context, userID uuid.UUID) error {
	delete(f.resets, userID)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-access-secret",
		JWTRefreshSecret:   "test-refresh-secret",
		AccessTokenTTL:     time.Hour,
		RefreshTokenTTL:    24 * time.Hour,
		ResetTokenTTL:      time.Hour,
		BcryptCost:         bcrypt.MinCost,
		AllowedEmailDomain: "hacettepe.edu.tr",
		RateLimitForgot:    time.Minute,
	}
}

func newTestService(repo repository.UserRepository) AuthService {
	return NewAuthService(repo, nil, nil, testConfig())
}

func seedUser(t *testing.T, repo *fakeUserRepo, email, password, role, status string) *entity.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &entity.User{
		ID:           uuid.New(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Status:       status,
	}
	repo.users[email] = user
	return user
}

func TestRegisterEnforcesEmailDomain(t *testing.T) {
	svc := newTestService(newFakeUserRepo())

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name:     "Ada",
		Email:    "ada@gmail.com",
		Password: "secret123",
		Role:     entity.RoleFellow,
	})
	if !errors.Is(err, apperror.ErrEmailDomainNotAllowed) {
		t.Fatalf("expected ErrEmailDomainNotAllowed, got %v", err)
	}
}

func TestRegisterMentorMayUseAnyEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)

	resp, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name:     "Grace",
		Email:    "grace@bigcorp.com",
		Password: "secret123",
		Role:     entity.RoleMentor,
		Title:    "Staff Engineer",
		Company:  "BigCorp",
	})
	if err != nil {
		t.Fatalf("register mentor: %v", err)
	}
	if resp.User.Status != entity.StatusPending {
		t.Fatalf("new accounts must start PENDING, got %s", resp.User.Status)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected a token pair in the registration response")
	}
	if repo.lastRecords.Mentor == nil {
		t.Fatal("expected a mentor profile to be created with the user")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "ada@hacettepe.edu.tr", "pw", entity.RoleFellow, entity.StatusActive)
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name:     "Ada Again",
		Email:    "ada@hacettepe.edu.tr",
		Password: "secret123",
	})
	if !errors.Is(err, apperror.ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}
}

func TestRegisterCommunityAdminRequiresCommunityName(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name:     "Deniz",
		Email:    "deniz@hacettepe.edu.tr",
		Password: "secret123",
		Role:     entity.RoleCommunityAdmin,
	})
	if !errors.Is(err, apperror.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	_, err = svc.Register(context.Background(), dto.RegisterRequest{
		Name:          "Deniz",
		Email:         "deniz@hacettepe.edu.tr",
		Password:      "secret123",
		Role:          entity.RoleCommunityAdmin,
		CommunityName: "Chess Club",
	})
	if err != nil {
		t.Fatalf("register community admin: %v", err)
	}
	community := repo.lastRecords.Community
	if community == nil {
		t.Fatal("expected a community to be created alongside the user")
	}
	if community.Status != entity.CommunityStatusPending {
		t.Fatalf("new communities must start PENDING, got %s", community.Status)
	}
	if community.Slug != "chess-club" {
		t.Fatalf("unexpected slug %q", community.Slug)
	}
}

func TestLoginStatusGates(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "pending@hacettepe.edu.tr", "pw123456", entity.RoleFellow, entity.StatusPending)
	seedUser(t, repo, "banned@hacettepe.edu.tr", "pw123456", entity.RoleFellow, entity.StatusSuspended)
	seedUser(t, repo, "ok@hacettepe.edu.tr", "pw123456", entity.RoleFellow, entity.StatusActive)
	svc := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.Login(ctx, dto.LoginRequest{Email: "nobody@hacettepe.edu.tr", Password: "pw123456"}); !errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, dto.LoginRequest{Email: "ok@hacettepe.edu.tr", Password: "wrong"}); !errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, dto.LoginRequest{Email: "pending@hacettepe.edu.tr", Password: "pw123456"}); !errors.Is(err, apperror.ErrAccountPending) {
		t.Fatalf("pending account: expected ErrAccountPending, got %v", err)
	}
	if _, err := svc.Login(ctx, dto.LoginRequest{Email: "banned@hacettepe.edu.tr", Password: "pw123456"}); !errors.Is(err, apperror.ErrAccountInactive) {
		t.Fatalf("suspended account: expected ErrAccountInactive, got %v", err)
	}

	resp, err := svc.Login(ctx, dto.LoginRequest{Email: "ok@hacettepe.edu.tr", Password: "pw123456"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.User.LastLogin == nil {
		t.Fatal("expected last login to be recorded")
	}
	if resp.User.PasswordHash != "" {
		t.Fatal("password hash must not leak in responses")
	}
}

func TestRefreshRotatesPair(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "ok@hacettepe.edu.tr", "pw123456", entity.RoleFellow, entity.StatusActive)
	svc := newTestService(repo)
	ctx := context.Background()

	resp, err := svc.Login(ctx, dto.LoginRequest{Email: "ok@hacettepe.edu.tr", Password: "pw123456"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	pair, err := svc.Refresh(ctx, resp.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected a fresh token pair")
	}

	// Access tokens are signed with a different secret and must not pass as
	// refresh tokens.
	if _, err := svc.Refresh(ctx, resp.AccessToken); !errors.Is(err, apperror.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for an access token, got %v", err)
	}
}

func TestRefreshRejectsNonActiveUser(t *testing.T) {
	repo := newFakeUserRepo()
	user := seedUser(t, repo, "ok@hacettepe.edu.tr", "pw123456", entity.RoleFellow, entity.StatusActive)
	svc := newTestService(repo)
	ctx := context.Background()

	resp, err := svc.Login(ctx, dto.LoginRequest{Email: "ok@hacettepe.edu.tr", Password: "pw123456"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	user.Status = entity.StatusSuspended
	if _, err := svc.Refresh(ctx, resp.RefreshToken); !errors.Is(err, apperror.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after suspension, got %v", err)
	}
}

func TestForgotPasswordUnknownEmailIsSilent(t *testing.T) {
	svc := newTestService(newFakeUserRepo())

	token, err := svc.ForgotPassword(context.Background(), "ghost@hacettepe.edu.tr")
	if err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	if token != "" {
		t.Fatal("unknown email must not yield a token")
	}
}

func TestResetPasswordFlow(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "ok@hacettepe.edu.tr", "oldpw1234", entity.RoleFellow, entity.StatusActive)
	svc := newTestService(repo)
	ctx := context.Background()

	token, err := svc.ForgotPassword(ctx, "ok@hacettepe.edu.tr")
	if err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	if token == "" {
		t.Fatal("expected a reset token")
	}

	if err := svc.ResetPassword(ctx, token, "newpw1234"); err != nil {
		t.Fatalf("reset password: %v", err)
	}
	if _, err := svc.Login(ctx, dto.LoginRequest{Email: "ok@hacettepe.edu.tr", Password: "newpw1234"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := svc.Login(ctx, dto.LoginRequest{Email: "ok@hacettepe.edu.tr", Password: "oldpw1234"}); !errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}

	// The token is single use.
	if err := svc.ResetPassword(ctx, token, "another123"); !errors.Is(err, apperror.ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken on reuse, got %v", err)
	}
}

func TestResetPasswordSupersededTokenRejected(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "ok@hacettepe.edu.tr", "oldpw1234", entity.RoleFellow, entity.StatusActive)
	svc := newTestService(repo)
	ctx := context.Background()

	first, err := svc.ForgotPassword(ctx, "ok@hacettepe.edu.tr")
	if err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	// Signed in the same second, tokens would collide; force distinct iat.
	time.Sleep(1100 * time.Millisecond)
	second, err := svc.ForgotPassword(ctx, "ok@hacettepe.edu.tr")
	if err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct reset tokens")
	}

	if err := svc.ResetPassword(ctx, first, "newpw1234"); !errors.Is(err, apperror.ErrInvalidResetToken) {
		t.Fatalf("superseded token must be rejected, got %v", err)
	}
	if err := svc.ResetPassword(ctx, second, "newpw1234"); err != nil {
		t.Fatalf("latest token must work: %v", err)
	}
}

func TestResetPasswordRejectsAccessToken(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "ok@hacettepe.edu.tr", "pw123456", entity.RoleFellow, entity.StatusActive)
	svc := newTestService(repo)
	ctx := context.Background()

	resp, err := svc.Login(ctx, dto.LoginRequest{Email: "ok@hacettepe.edu.tr", Password: "pw123456"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.ResetPassword(ctx, resp.AccessToken, "newpw1234"); !errors.Is(err, apperror.ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken for an access token, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	repo := newFakeUserRepo()
	user := seedUser(t, repo, "ok@hacettepe.edu.tr", "current12", entity.RoleFellow, entity.StatusActive)
	svc := newTestService(repo)
	ctx := context.Background()

	if err := svc.ChangePassword(ctx, user.ID, "wrong", "next12345"); !errors.Is(err, apperror.ErrIncorrectPassword) {
		t.Fatalf("expected ErrIncorrectPassword, got %v", err)
	}
	if err := svc.ChangePassword(ctx, user.ID, "current12", "next12345"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := svc.Login(ctx, dto.LoginRequest{Email: "ok@hacettepe.edu.tr", Password: "next12345"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}
