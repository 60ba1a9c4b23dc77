package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"hmcc.com/communityplatform/internal/entity"
	userrepo "hmcc.com/communityplatform/internal/modules/user/repository"
	"hmcc.com/communityplatform/pkg/apperror"
	commonDto "hmcc.com/communityplatform/pkg/dto"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*entity.User
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*entity.User, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	if u, ok := f.users[parsed]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	u, ok := f.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Status = status
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.users, id)
	return nil
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

func (f *fakeUserRepo) Create(context.Context, *entity.User, userrepo.RegistrationRecords) error {
	return nil
}
func (f *fakeUserRepo) FindByEmail(context.Context, string) (*entity.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeUserRepo) Update(context.Context, *entity.User) error                     { return nil }
func (f *fakeUserRepo) UpdateLastLogin(context.Context, uuid.UUID, time.Time) error    { return nil }
func (f *fakeUserRepo) UpdatePassword(context.Context, uuid.UUID, string) error        { return nil }
func (f *fakeUserRepo) SaveFellowProfile(context.Context, *entity.FellowProfile) error { return nil }
func (f *fakeUserRepo) SaveMentorProfile(context.Context, *entity.MentorProfile) error { return nil }
func (f *fakeUserRepo) UpsertPasswordReset(context.Context, *entity.PasswordReset) error {
	return nil
}
func (f *fakeUserRepo) FindPasswordReset(context.Context, uuid.UUID) (*entity.PasswordReset, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeUserRepo) DeletePasswordReset(context.Context, uuid.UUID) error { return nil }

type notificationRecorder struct {
	sent []*entity.Notification
}

func (r *notificationRecorder) Notify(_ context.Context, notification *entity.Notification) error {
	r.sent = append(r.sent, notification)
	return nil
}

func (r *notificationRecorder) GetNotifications(context.Context, uuid.UUID, int, int) ([]entity.Notification, commonDto.PaginationMeta, error) {
	return nil, commonDto.PaginationMeta{}, nil
}
func (r *notificationRecorder) MarkAsRead(context.Context, uuid.UUID, uuid.UUID) error { return nil }
func (r *notificationRecorder) MarkAllAsRead(context.Context, uuid.UUID) error         { return nil }
func (r *notificationRecorder) UnreadCount(context.Context, uuid.UUID) (int64, error)  { return 0, nil }

func newAdminFixture(seed ...*entity.User) (*fakeUserRepo, *notificationRecorder, AdminService) {
	repo := &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
	for _, u := range seed {
		repo.users[u.ID] = u
	}
	recorder := &notificationRecorder{}
	return repo, recorder, NewAdminService(repo, recorder, nil)
}

func pendingUser() *entity.User {
	return &entity.User{
		ID:     uuid.New(),
		Name:   "Applicant",
		Email:  "applicant@hacettepe.edu.tr",
		Role:   entity.RoleFellow,
		Status: entity.StatusPending,
	}
}

func TestApproveUserActivatesAndNotifies(t *testing.T) {
	user := pendingUser()
	repo, recorder, svc := newAdminFixture(user)
	actor := uuid.New()
	ctx := context.Background()

	if err := svc.ApproveUser(ctx, actor, user.ID); err != nil {
		t.Fatalf("approve user: %v", err)
	}
	if repo.users[user.ID].Status != entity.StatusActive {
		t.Fatalf("expected ACTIVE, got %s", repo.users[user.ID].Status)
	}
	if len(recorder.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(recorder.sent))
	}
	if recorder.sent[0].Type != entity.NotificationAccountApproved {
		t.Fatalf("expected %s, got %s", entity.NotificationAccountApproved, recorder.sent[0].Type)
	}
	if recorder.sent[0].ActorID != actor {
		t.Fatal("the approving administrator must be recorded as the actor")
	}

	if err := svc.ApproveUser(ctx, actor, user.ID); !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("expected ErrConflict on re-approval, got %v", err)
	}
}

func TestRejectUserDeactivatesWithDistinctNotification(t *testing.T) {
	user := pendingUser()
	repo, recorder, svc := newAdminFixture(user)
	ctx := context.Background()

	if err := svc.RejectUser(ctx, uuid.New(), user.ID, "missing student id"); err != nil {
		t.Fatalf("reject user: %v", err)
	}
	if repo.users[user.ID].Status != entity.StatusInactive {
		t.Fatalf("expected INACTIVE, got %s", repo.users[user.ID].Status)
	}
	if len(recorder.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(recorder.sent))
	}
	notif := recorder.sent[0]
	if notif.Type != entity.NotificationAccountRejected {
		t.Fatalf("a rejection must not reuse the approval type, got %s", notif.Type)
	}
	if notif.Message != "Your registration was not approved: missing student id" {
		t.Fatalf("unexpected message %q", notif.Message)
	}
}

func TestGuardsProtectSelfAndSuperAdmin(t *testing.T) {
	admin := &entity.User{ID: uuid.New(), Role: entity.RoleUserAdmin, Status: entity.StatusActive}
	root := &entity.User{ID: uuid.New(), Role: entity.RoleSuperAdmin, Status: entity.StatusActive}
	_, _, svc := newAdminFixture(admin, root)
	ctx := context.Background()

	if err := svc.SuspendUser(ctx, admin.ID, admin.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("self-suspension: expected ErrForbidden, got %v", err)
	}
	if err := svc.SuspendUser(ctx, admin.ID, root.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("suspending a super admin: expected ErrForbidden, got %v", err)
	}
	if err := svc.DeleteUser(ctx, admin.ID, root.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("deleting a super admin: expected ErrForbidden, got %v", err)
	}
}

func TestApproveUnknownUser(t *testing.T) {
	_, _, svc := newAdminFixture()

	err := svc.ApproveUser(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
