package community

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"hmcc.com/communityplatform/internal/entity"
	"hmcc.com/communityplatform/internal/modules/community/dto"
	communityRepo "hmcc.com/communityplatform/internal/modules/community/repository"
	"hmcc.com/communityplatform/pkg/apperror"
	commonDto "hmcc.com/communityplatform/pkg/dto"
)

type fakeCommunityRepo struct {
	communities map[uuid.UUID]*entity.Community
	members     []*entity.CommunityMember
}

func newFakeCommunityRepo() *fakeCommunityRepo {
	return &fakeCommunityRepo{communities: make(map[uuid.UUID]*entity.Community)}
}

func (f *fakeCommunityRepo) Create(_ context.Context, community *entity.Community, creatorID uuid.UUID) error {
	if community.ID == uuid.Nil {
		community.ID = uuid.New()
	}
	community.CreatedAt = time.Now()
	f.communities[community.ID] = community
	f.members = append(f.members, &entity.CommunityMember{
		ID:          uuid.New(),
		CommunityID: community.ID,
		UserID:      creatorID,
		Role:        entity.CommunityMemberRoleAdmin,
	})
	return nil
}

func (f *fakeCommunityRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Community, error) {
	if c, ok := f.communities[id]; ok {
		return c, nil
	}
	return nil, apperror.ErrNotFound
}

func (f *fakeCommunityRepo) FindBySlug(_ context.Context, slug string) (*entity.Community, error) {
	for _, c := range f.communities {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (f *fakeCommunityRepo) FindAll(_ context.Context, filter communityRepo.CommunityFilter) ([]entity.Community, int64, error) {
	var out []entity.Community
	for _, c := range f.communities {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (f *fakeCommunityRepo) Update(_ context.Context, community *entity.Community) error {
	f.communities[community.ID] = community
	return nil
}

func (f *fakeCommunityRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	c, ok := f.communities[id]
	if !ok {
		return apperror.ErrNotFound
	}
	c.Status = status
	return nil
}

func (f *fakeCommunityRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.communities, id)
	return nil
}

func (f *fakeCommunityRepo) AddMember(_ context.Context, member *entity.CommunityMember) error {
	if member.ID == uuid.Nil {
		member.ID = uuid.New()
	}
	f.members = append(f.members, member)
	return nil
}

func (f *fakeCommunityRepo) RemoveMember(_ context.Context, communityID, userID uuid.UUID) error {
	for i, m := range f.members {
		if m.CommunityID == communityID && m.UserID == userID {
			f.members = append(f.members[:i], f.members[i+1:]...)
			return nil
		}
	}
	return apperror.ErrNotFound
}

func (f *fakeCommunityRepo) FindMember(_ context.Context, communityID, userID uuid.UUID) (*entity.CommunityMember, error) {
	for _, m := range f.members {
		if m.CommunityID == communityID && m.UserID == userID {
			return m, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (f *fakeCommunityRepo) ListMembers(_ context.Context, communityID uuid.UUID, limit, offset int) ([]entity.CommunityMember, int64, error) {
	var out []entity.CommunityMember
	for _, m := range f.members {
		if m.CommunityID == communityID {
			out = append(out, *m)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeCommunityRepo) CountMembers(_ context.Context, communityID uuid.UUID) (int64, error) {
	var n int64
	for _, m := range f.members {
		if m.CommunityID == communityID {
			n++
		}
	}
	return n, nil
}

func (f *fakeCommunityRepo) ListMemberships(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, m := range f.members {
		if m.UserID == userID {
			out = append(out, m.CommunityID)
		}
	}
	return out, nil
}

// notificationRecorder captures notifications instead of persisting them.
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

func newCommunityFixture() (*fakeCommunityRepo, *notificationRecorder, CommunityService) {
	repo := newFakeCommunityRepo()
	recorder := &notificationRecorder{}
	return repo, recorder, NewCommunityService(repo, nil, recorder)
}

func TestCreateCommunityStartsPending(t *testing.T) {
	_, _, svc := newCommunityFixture()
	creator := uuid.New()

	resp, err := svc.CreateCommunity(context.Background(), creator, dto.CreateCommunityRequest{
		Name:        "Hiking Society",
		Description: "Weekend trails around Ankara",
	})
	if err != nil {
		t.Fatalf("create community: %v", err)
	}
	if resp.Status != entity.CommunityStatusPending {
		t.Fatalf("new communities must be PENDING, got %s", resp.Status)
	}
	if resp.Slug != "hiking-society" {
		t.Fatalf("unexpected slug %q", resp.Slug)
	}
	if !resp.IsMember || resp.MemberCount != 1 {
		t.Fatal("the creator must be the first member")
	}
	if resp.Category != "Social" {
		t.Fatalf("expected default category Social, got %q", resp.Category)
	}
}

func TestCreateCommunityDuplicateName(t *testing.T) {
	_, _, svc := newCommunityFixture()
	ctx := context.Background()

	if _, err := svc.CreateCommunity(ctx, uuid.New(), dto.CreateCommunityRequest{Name: "Hiking Society", Description: "first"}); err != nil {
		t.Fatalf("create community: %v", err)
	}
	// Same slug after normalization.
	_, err := svc.CreateCommunity(ctx, uuid.New(), dto.CreateCommunityRequest{Name: "HIKING SOCIETY", Description: "second"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestJoinRequiresActiveCommunity(t *testing.T) {
	_, _, svc := newCommunityFixture()
	ctx := context.Background()

	resp, err := svc.CreateCommunity(ctx, uuid.New(), dto.CreateCommunityRequest{Name: "Book Club", Description: "reads"})
	if err != nil {
		t.Fatalf("create community: %v", err)
	}

	// Pending communities are invisible to joiners.
	if err := svc.Join(ctx, uuid.New(), resp.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a pending community, got %v", err)
	}

	if err := svc.Approve(ctx, uuid.New(), resp.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	member := uuid.New()
	if err := svc.Join(ctx, member, resp.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := svc.Join(ctx, member, resp.ID); !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("expected ErrConflict on double join, got %v", err)
	}
}

func TestLeaveBlocksCommunityAdmin(t *testing.T) {
	_, _, svc := newCommunityFixture()
	ctx := context.Background()
	creator := uuid.New()

	resp, err := svc.CreateCommunity(ctx, creator, dto.CreateCommunityRequest{Name: "Chess Club", Description: "blitz"})
	if err != nil {
		t.Fatalf("create community: %v", err)
	}
	if err := svc.Approve(ctx, uuid.New(), resp.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if err := svc.Leave(ctx, creator, resp.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for the admin, got %v", err)
	}

	member := uuid.New()
	if err := svc.Join(ctx, member, resp.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := svc.Leave(ctx, member, resp.ID); err != nil {
		t.Fatalf("leave: %v", err)
	}
}

func TestApproveNotifiesAdminAndActivates(t *testing.T) {
	repo, recorder, svc := newCommunityFixture()
	ctx := context.Background()
	creator := uuid.New()
	approver := uuid.New()

	resp, err := svc.CreateCommunity(ctx, creator, dto.CreateCommunityRequest{Name: "Film Society", Description: "screenings"})
	if err != nil {
		t.Fatalf("create community: %v", err)
	}

	if err := svc.Approve(ctx, approver, resp.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if repo.communities[resp.ID].Status != entity.CommunityStatusActive {
		t.Fatalf("expected ACTIVE, got %s", repo.communities[resp.ID].Status)
	}

	if len(recorder.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(recorder.sent))
	}
	notif := recorder.sent[0]
	if notif.UserID != creator {
		t.Fatal("the community admin must be the one notified")
	}
	if notif.ActorID != approver {
		t.Fatal("the approving administrator must be recorded as the actor")
	}
	if notif.Type != entity.NotificationCommunityApproved {
		t.Fatalf("unexpected notification type %s", notif.Type)
	}

	// A second approval is a no-op conflict.
	if err := svc.Approve(ctx, approver, resp.ID); !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("expected ErrConflict on re-approval, got %v", err)
	}
}

func TestRejectArchivesPendingCommunity(t *testing.T) {
	repo, recorder, svc := newCommunityFixture()
	ctx := context.Background()

	resp, err := svc.CreateCommunity(ctx, uuid.New(), dto.CreateCommunityRequest{Name: "Robotics", Description: "bots"})
	if err != nil {
		t.Fatalf("create community: %v", err)
	}

	if err := svc.Reject(ctx, uuid.New(), resp.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if repo.communities[resp.ID].Status != entity.CommunityStatusArchived {
		t.Fatalf("expected ARCHIVED, got %s", repo.communities[resp.ID].Status)
	}
	if len(recorder.sent) != 0 {
		t.Fatal("a rejection must not notify anyone")
	}
}

func TestUpdateCommunityRequiresAdminMembership(t *testing.T) {
	_, _, svc := newCommunityFixture()
	ctx := context.Background()
	creator := uuid.New()

	resp, err := svc.CreateCommunity(ctx, creator, dto.CreateCommunityRequest{Name: "Debate Team", Description: "argue"})
	if err != nil {
		t.Fatalf("create community: %v", err)
	}
	if err := svc.Approve(ctx, uuid.New(), resp.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	stranger := uuid.New()
	newName := "Debate Society"
	if _, err := svc.UpdateCommunity(ctx, stranger, resp.ID, dto.UpdateCommunityRequest{Name: &newName}); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for a non-admin, got %v", err)
	}

	member := uuid.New()
	if err := svc.Join(ctx, member, resp.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := svc.UpdateCommunity(ctx, member, resp.ID, dto.UpdateCommunityRequest{Name: &newName}); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for a plain member, got %v", err)
	}

	updated, err := svc.UpdateCommunity(ctx, creator, resp.ID, dto.UpdateCommunityRequest{Name: &newName})
	if err != nil {
		t.Fatalf("update as admin: %v", err)
	}
	if updated.Name != newName {
		t.Fatalf("expected name %q, got %q", newName, updated.Name)
	}
}
