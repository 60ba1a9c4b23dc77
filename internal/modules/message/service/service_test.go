package message

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
)

type fakeMessageRepo struct {
	conversations map[uuid.UUID]*entity.Conversation
	participants  []*entity.ConversationParticipant
	messages      []*entity.Message
	users         map[uuid.UUID]*entity.User
}

func newFakeMessageRepo(users map[uuid.UUID]*entity.User) *fakeMessageRepo {
	return &fakeMessageRepo{
		conversations: make(map[uuid.UUID]*entity.Conversation),
		users:         users,
	}
}

func (f *fakeMessageRepo) FindConversationBetween(_ context.Context, userA, userB uuid.UUID) (*entity.Conversation, error) {
	for id, c := range f.conversations {
		var foundA, foundB bool
		for _, p := range f.participants {
			if p.ConversationID != id {
				continue
			}
			if p.UserID == userA {
				foundA = true
			}
			if p.UserID == userB {
				foundB = true
			}
		}
		if foundA && foundB {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeMessageRepo) CreateConversation(_ context.Context, userA, userB uuid.UUID) (*entity.Conversation, error) {
	conversation := &entity.Conversation{ID: uuid.New(), CreatedAt: time.Now()}
	f.conversations[conversation.ID] = conversation
	f.participants = append(f.participants,
		&entity.ConversationParticipant{ID: uuid.New(), ConversationID: conversation.ID, UserID: userA},
		&entity.ConversationParticipant{ID: uuid.New(), ConversationID: conversation.ID, UserID: userB},
	)
	return conversation, nil
}

func (f *fakeMessageRepo) FindParticipant(_ context.Context, conversationID, userID uuid.UUID) (*entity.ConversationParticipant, error) {
	for _, p := range f.participants {
		if p.ConversationID == conversationID && p.UserID == userID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeMessageRepo) FindOtherParticipant(_ context.Context, conversationID, userID uuid.UUID) (*entity.ConversationParticipant, error) {
	for _, p := range f.participants {
		if p.ConversationID == conversationID && p.UserID != userID {
			copied := *p
			copied.User = f.users[p.UserID]
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeMessageRepo) ListParticipations(_ context.Context, userID uuid.UUID, limit, offset int) ([]entity.ConversationParticipant, int64, error) {
	var out []entity.ConversationParticipant
	for _, p := range f.participants {
		if p.UserID != userID {
			continue
		}
		copied := *p
		copied.Conversation = f.conversations[p.ConversationID]
		out = append(out, copied)
	}
	return out, int64(len(out)), nil
}

func (f *fakeMessageRepo) DeleteParticipant(_ context.Context, id uuid.UUID) error {
	for i, p := range f.participants {
		if p.ID == id {
			f.participants = append(f.participants[:i], f.participants[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeMessageRepo) CreateMessage(_ context.Context, message *entity.Message) error {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	message.CreatedAt = time.Now()
	f.messages = append(f.messages, message)

	conversation := f.conversations[message.ConversationID]
	conversation.LastMessage = &message.Content
	conversation.LastMessageAt = &message.CreatedAt

	for _, p := range f.participants {
		if p.ConversationID == message.ConversationID && p.UserID != message.SenderID {
			p.UnreadCount++
		}
	}
	return nil
}

func (f *fakeMessageRepo) FindMessageByID(_ context.Context, id uuid.UUID) (*entity.Message, error) {
	for _, m := range f.messages {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeMessageRepo) ListMessages(_ context.Context, conversationID uuid.UUID, limit, offset int) ([]entity.Message, int64, error) {
	var out []entity.Message
	for i := len(f.messages) - 1; i >= 0; i-- { // newest first
		if f.messages[i].ConversationID == conversationID {
			out = append(out, *f.messages[i])
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeMessageRepo) FindLastMessage(_ context.Context, conversationID uuid.UUID) (*entity.Message, error) {
	for i := len(f.messages) - 1; i >= 0; i-- {
		if f.messages[i].ConversationID == conversationID {
			return f.messages[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeMessageRepo) MarkConversationRead(_ context.Context, conversationID, userID uuid.UUID) error {
	for _, m := range f.messages {
		if m.ConversationID == conversationID && m.SenderID != userID {
			m.IsRead = true
		}
	}
	for _, p := range f.participants {
		if p.ConversationID == conversationID && p.UserID == userID {
			p.UnreadCount = 0
		}
	}
	return nil
}

// stubUserRepo serves FindByID lookups; nothing else is reached from the
// messaging paths.
type stubUserRepo struct {
	users map[uuid.UUID]*entity.User
}

func (s *stubUserRepo) FindByID(_ context.Context, id string) (*entity.User, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	if u, ok := s.users[parsed]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) Create(context.Context, *entity.User, userrepo.RegistrationRecords) error {
	return nil
}
func (s *stubUserRepo) FindByEmail(context.Context, string) (*entity.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (s *stubUserRepo) FindAll(context.Context, string, string, string, int, int) ([]*entity.User, int64, error) {
	return nil, 0, nil
}
func (s *stubUserRepo) Update(context.Context, *entity.User) error                    { return nil }
func (s *stubUserRepo) UpdateLastLogin(context.Context, uuid.UUID, time.Time) error   { return nil }
func (s *stubUserRepo) UpdatePassword(context.Context, uuid.UUID, string) error       { return nil }
func (s *stubUserRepo) UpdateStatus(context.Context, uuid.UUID, string) error         { return nil }
func (s *stubUserRepo) Delete(context.Context, uuid.UUID) error                       { return nil }
func (s *stubUserRepo) CountByStatus(context.Context, string) (int64, error)          { return 0, nil }
func (s *stubUserRepo) CountByRole(context.Context, string) (int64, error)            { return 0, nil }
func (s *stubUserRepo) SaveFellowProfile(context.Context, *entity.FellowProfile) error { return nil }
func (s *stubUserRepo) SaveMentorProfile(context.Context, *entity.MentorProfile) error { return nil }
func (s *stubUserRepo) UpsertPasswordReset(context.Context, *entity.PasswordReset) error {
	return nil
}
func (s *stubUserRepo) FindPasswordReset(context.Context, uuid.UUID) (*entity.PasswordReset, error) {
	return nil, gorm.ErrRecordNotFound
}
func (s *stubUserRepo) DeletePasswordReset(context.Context, uuid.UUID) error { return nil }

func newMessagingFixture() (*fakeMessageRepo, MessageService, uuid.UUID, uuid.UUID) {
	alice := uuid.New()
	bob := uuid.New()
	users := map[uuid.UUID]*entity.User{
		alice: {ID: alice, Name: "Alice"},
		bob:   {ID: bob, Name: "Bob"},
	}
	repo := newFakeMessageRepo(users)
	svc := NewMessageService(repo, &stubUserRepo{users: users}, nil)
	return repo, svc, alice, bob
}

func TestFindOrCreateConversationIsIdempotent(t *testing.T) {
	_, svc, alice, bob := newMessagingFixture()
	ctx := context.Background()

	first, created, err := svc.FindOrCreateConversation(ctx, alice, bob)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	if !created {
		t.Fatal("first call must create the conversation")
	}

	// Same pair again, from either side, must return the existing thread.
	second, created, err := svc.FindOrCreateConversation(ctx, alice, bob)
	if err != nil {
		t.Fatalf("repeat call: %v", err)
	}
	if created {
		t.Fatal("repeat call must not create a second conversation")
	}
	if second.ID != first.ID {
		t.Fatalf("expected conversation %s, got %s", first.ID, second.ID)
	}

	reversed, created, err := svc.FindOrCreateConversation(ctx, bob, alice)
	if err != nil {
		t.Fatalf("reversed call: %v", err)
	}
	if created || reversed.ID != first.ID {
		t.Fatal("participant order must not matter")
	}
}

func TestFindOrCreateConversationRejectsSelf(t *testing.T) {
	_, svc, alice, _ := newMessagingFixture()

	_, _, err := svc.FindOrCreateConversation(context.Background(), alice, alice)
	if !errors.Is(err, apperror.ErrSelfConversation) {
		t.Fatalf("expected ErrSelfConversation, got %v", err)
	}
}

func TestFindOrCreateConversationUnknownUser(t *testing.T) {
	_, svc, alice, _ := newMessagingFixture()

	_, _, err := svc.FindOrCreateConversation(context.Background(), alice, uuid.New())
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSendMessageIncrementsRecipientUnread(t *testing.T) {
	repo, svc, alice, bob := newMessagingFixture()
	ctx := context.Background()

	conversation, _, err := svc.FindOrCreateConversation(ctx, alice, bob)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	if _, err := svc.SendMessage(ctx, conversation.ID, alice, "hey"); err != nil {
		t.Fatalf("send message: %v", err)
	}
	if _, err := svc.SendMessage(ctx, conversation.ID, alice, "you there?"); err != nil {
		t.Fatalf("send message: %v", err)
	}

	bobSide, err := repo.FindParticipant(ctx, conversation.ID, bob)
	if err != nil {
		t.Fatalf("find participant: %v", err)
	}
	if bobSide.UnreadCount != 2 {
		t.Fatalf("expected unread count 2 for the recipient, got %d", bobSide.UnreadCount)
	}

	aliceSide, err := repo.FindParticipant(ctx, conversation.ID, alice)
	if err != nil {
		t.Fatalf("find participant: %v", err)
	}
	if aliceSide.UnreadCount != 0 {
		t.Fatalf("sender's own unread count must stay 0, got %d", aliceSide.UnreadCount)
	}
}

func TestSendMessageRequiresParticipation(t *testing.T) {
	_, svc, alice, bob := newMessagingFixture()
	ctx := context.Background()

	conversation, _, err := svc.FindOrCreateConversation(ctx, alice, bob)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	if _, err := svc.SendMessage(ctx, conversation.ID, uuid.New(), "let me in"); !errors.Is(err, apperror.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
}

func TestMarkReadResetsCounterAndFlags(t *testing.T) {
	repo, svc, alice, bob := newMessagingFixture()
	ctx := context.Background()

	conversation, _, err := svc.FindOrCreateConversation(ctx, alice, bob)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	if _, err := svc.SendMessage(ctx, conversation.ID, alice, "hello"); err != nil {
		t.Fatalf("send message: %v", err)
	}

	if err := svc.MarkRead(ctx, conversation.ID, bob); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	bobSide, _ := repo.FindParticipant(ctx, conversation.ID, bob)
	if bobSide.UnreadCount != 0 {
		t.Fatalf("expected unread count 0 after mark read, got %d", bobSide.UnreadCount)
	}
	for _, m := range repo.messages {
		if !m.IsRead {
			t.Fatal("expected every received message flagged read")
		}
	}
}

func TestListMessagesReturnsOldestFirst(t *testing.T) {
	_, svc, alice, bob := newMessagingFixture()
	ctx := context.Background()

	conversation, _, err := svc.FindOrCreateConversation(ctx, alice, bob)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	for _, content := range []string{"one", "two", "three"} {
		if _, err := svc.SendMessage(ctx, conversation.ID, alice, content); err != nil {
			t.Fatalf("send message: %v", err)
		}
	}

	messages, meta, err := svc.ListMessages(ctx, conversation.ID, bob, 1, 50)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if meta.TotalItems != 3 {
		t.Fatalf("expected 3 messages total, got %d", meta.TotalItems)
	}
	if messages[0].Content != "one" || messages[2].Content != "three" {
		t.Fatalf("expected oldest-first ordering, got %q ... %q", messages[0].Content, messages[2].Content)
	}
}

func TestLeaveConversationRemovesOnlyOwnSide(t *testing.T) {
	repo, svc, alice, bob := newMessagingFixture()
	ctx := context.Background()

	conversation, _, err := svc.FindOrCreateConversation(ctx, alice, bob)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	if err := svc.LeaveConversation(ctx, conversation.ID, alice); err != nil {
		t.Fatalf("leave conversation: %v", err)
	}

	if err := svc.VerifyParticipant(ctx, conversation.ID, alice); !errors.Is(err, apperror.ErrNotParticipant) {
		t.Fatalf("expected alice gone, got %v", err)
	}
	if err := svc.VerifyParticipant(ctx, conversation.ID, bob); err != nil {
		t.Fatalf("bob must remain a participant: %v", err)
	}
	if _, ok := repo.conversations[conversation.ID]; !ok {
		t.Fatal("the conversation itself must survive a leave")
	}

	// A second leave by the same user is a not-participant error.
	if err := svc.LeaveConversation(ctx, conversation.ID, alice); !errors.Is(err, apperror.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
}

func TestListConversationsCarriesUnreadAndPreview(t *testing.T) {
	_, svc, alice, bob := newMessagingFixture()
	ctx := context.Background()

	conversation, _, err := svc.FindOrCreateConversation(ctx, alice, bob)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	if _, err := svc.SendMessage(ctx, conversation.ID, alice, "latest"); err != nil {
		t.Fatalf("send message: %v", err)
	}

	summaries, _, err := svc.ListConversations(ctx, bob, 1, 20)
	if err != nil {
		t.Fatalf("list conversations: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(summaries))
	}
	summary := summaries[0]
	if summary.UnreadCount != 1 {
		t.Fatalf("expected unread count 1, got %d", summary.UnreadCount)
	}
	if summary.LastMessage == nil || summary.LastMessage.Content != "latest" {
		t.Fatal("expected a last-message preview")
	}
	if summary.OtherUser == nil || summary.OtherUser.Name != "Alice" {
		t.Fatal("expected the other participant's summary")
	}
}
