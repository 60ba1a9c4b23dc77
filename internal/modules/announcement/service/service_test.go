package announcement

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"hmcc.com/communityplatform/internal/entity"
	"hmcc.com/communityplatform/internal/modules/announcement/dto"
	"hmcc.com/communityplatform/pkg/apperror"
)

type fakeAnnouncementRepo struct {
	announcements map[uuid.UUID]*entity.Announcement
}

func newFakeAnnouncementRepo() *fakeAnnouncementRepo {
	return &fakeAnnouncementRepo{announcements: make(map[uuid.UUID]*entity.Announcement)}
}

func (f *fakeAnnouncementRepo) Create(_ context.Context, announcement *entity.Announcement) error {
	if announcement.ID == uuid.Nil {
		announcement.ID = uuid.New()
	}
	announcement.CreatedAt = time.Now()
	f.announcements[announcement.ID] = announcement
	return nil
}

func (f *fakeAnnouncementRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Announcement, error) {
	if a, ok := f.announcements[id]; ok {
		return a, nil
	}
	return nil, apperror.ErrNotFound
}

func (f *fakeAnnouncementRepo) FindActiveForAudiences(_ context.Context, audiences []string, limit, offset int) ([]entity.Announcement, int64, error) {
	var out []entity.Announcement
	for _, a := range f.announcements {
		if a.Status != entity.AnnouncementStatusActive {
			continue
		}
		for _, audience := range audiences {
			if a.Audience == audience {
				out = append(out, *a)
				break
			}
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeAnnouncementRepo) FindAll(_ context.Context, limit, offset int) ([]entity.Announcement, int64, error) {
	var out []entity.Announcement
	for _, a := range f.announcements {
		out = append(out, *a)
	}
	return out, int64(len(out)), nil
}

func (f *fakeAnnouncementRepo) Update(_ context.Context, announcement *entity.Announcement) error {
	f.announcements[announcement.ID] = announcement
	return nil
}

func (f *fakeAnnouncementRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.announcements, id)
	return nil
}

func TestAudiencesForRole(t *testing.T) {
	cases := []struct {
		role string
		want []string
	}{
		{entity.RoleSuperAdmin, []string{entity.AudienceAll, entity.AudienceFellows, entity.AudienceMentors}},
		{entity.RoleContentAdmin, []string{entity.AudienceAll, entity.AudienceFellows, entity.AudienceMentors}},
		{entity.RoleFellow, []string{entity.AudienceAll, entity.AudienceFellows}},
		{entity.RoleMentor, []string{entity.AudienceAll, entity.AudienceMentors}},
		{entity.RoleCommunityAdmin, []string{entity.AudienceAll}},
		{entity.RoleUser, []string{entity.AudienceAll}},
		{"", []string{entity.AudienceAll}},
	}

	for _, tc := range cases {
		got := audiencesForRole(tc.role)
		sort.Strings(got)
		want := append([]string(nil), tc.want...)
		sort.Strings(want)
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Errorf("audiencesForRole(%q) = %v, want %v", tc.role, got, tc.want)
		}
	}
}

func TestCreateStripsMarkup(t *testing.T) {
	repo := newFakeAnnouncementRepo()
	svc := NewAnnouncementService(repo, nil, time.Minute)

	resp, err := svc.Create(context.Background(), uuid.New(), dto.CreateAnnouncementRequest{
		Title: `Maintenance <script>alert(1)</script> window`,
		Body:  `Systems go down at <b>22:00</b><script>steal()</script>.`,
	})
	if err != nil {
		t.Fatalf("create announcement: %v", err)
	}
	if strings.Contains(resp.Title, "<script>") || strings.Contains(resp.Body, "<script>") {
		t.Fatalf("script tags must be stripped, got title %q body %q", resp.Title, resp.Body)
	}
	if !strings.Contains(resp.Body, "<b>22:00</b>") {
		t.Fatalf("benign formatting must survive, got body %q", resp.Body)
	}
	if resp.Audience != entity.AudienceAll {
		t.Fatalf("expected default audience ALL, got %q", resp.Audience)
	}
}

func TestUpdateStripsMarkup(t *testing.T) {
	repo := newFakeAnnouncementRepo()
	svc := NewAnnouncementService(repo, nil, time.Minute)
	ctx := context.Background()

	created, err := svc.Create(ctx, uuid.New(), dto.CreateAnnouncementRequest{
		Title: "Library hours",
		Body:  "Open until midnight during finals.",
	})
	if err != nil {
		t.Fatalf("create announcement: %v", err)
	}

	body := `New hours<script>document.cookie</script> apply`
	updated, err := svc.Update(ctx, created.ID, dto.UpdateAnnouncementRequest{Body: &body})
	if err != nil {
		t.Fatalf("update announcement: %v", err)
	}
	if strings.Contains(updated.Body, "<script>") {
		t.Fatalf("script tags must be stripped on update, got %q", updated.Body)
	}
}
