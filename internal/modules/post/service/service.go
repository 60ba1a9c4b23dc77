package post

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"hmcc.com/communityplatform/internal/entity"
	communityRepo "hmcc.com/communityplatform/internal/modules/community/repository"
	notification "hmcc.com/communityplatform/internal/modules/notification/service"
	"hmcc.com/communityplatform/internal/modules/post/dto"
	postRepo "hmcc.com/communityplatform/internal/modules/post/repository"
	search "hmcc.com/communityplatform/internal/modules/search/service"
	"hmcc.com/communityplatform/internal/ratelimit"
	"hmcc.com/communityplatform/pkg/apperror"
	commonDto "hmcc.com/communityplatform/pkg/dto"
)

type PostService interface {
	ListPosts(ctx context.Context, viewerID uuid.UUID, filter dto.ListPostsFilter) ([]dto.PostResponse, commonDto.PaginationMeta, error)
	GetPost(ctx context.Context, viewerID, id uuid.UUID) (*dto.PostResponse, error)
	CreatePost(ctx context.Context, authorID uuid.UUID, req dto.CreatePostRequest) (*dto.PostResponse, error)
	UpdatePost(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID, req dto.UpdatePostRequest) (*dto.PostResponse, error)
	DeletePost(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID) error
	Like(ctx context.Context, userID, id uuid.UUID) error
	Unlike(ctx context.Context, userID, id uuid.UUID) error
	AddComment(ctx context.Context, authorID, postID uuid.UUID, req dto.CreateCommentRequest) (*dto.CommentResponse, error)
	DeleteComment(ctx context.Context, actorID uuid.UUID, actorRole string, commentID uuid.UUID) error
	ListComments(ctx context.Context, postID uuid.UUID, page, limit int) ([]dto.CommentResponse, commonDto.PaginationMeta, error)
}

type postService struct {
	repo          postRepo.PostRepository
	communities   communityRepo.CommunityRepository
	notifications notification.NotificationService
	search        search.SearchService
	redisClient   *redis.Client
	sanitizer     *bluemonday.Policy
	postCooldown  time.Duration
}

func NewPostService(repo postRepo.PostRepository, communities communityRepo.CommunityRepository, notifications notification.NotificationService, searchSvc search.SearchService, redisClient *redis.Client, postCooldown time.Duration) PostService {
	return &postService{
		repo:          repo,
		communities:   communities,
		notifications: notifications,
		search:        searchSvc,
		redisClient:   redisClient,
		sanitizer:     bluemonday.UGCPolicy(),
		postCooldown:  postCooldown,
	}
}

func (s *postService) ListPosts(ctx context.Context, viewerID uuid.UUID, filter dto.ListPostsFilter) ([]dto.PostResponse, commonDto.PaginationMeta, error) {
	filter.Normalize(20)

	repoFilter := postRepo.PostFilter{
		Limit:  filter.Limit,
		Offset: filter.Offset(),
	}
	if filter.CommunityID != "" {
		id, err := uuid.Parse(filter.CommunityID)
		if err != nil {
			return nil, commonDto.PaginationMeta{}, apperror.ErrInvalidInput
		}
		repoFilter.CommunityID = &id
	}
	if filter.AuthorID != "" {
		id, err := uuid.Parse(filter.AuthorID)
		if err != nil {
			return nil, commonDto.PaginationMeta{}, apperror.ErrInvalidInput
		}
		repoFilter.AuthorID = &id
	}

	posts, total, err := s.repo.FindAll(ctx, repoFilter)
	if err != nil {
		return nil, commonDto.PaginationMeta{}, err
	}

	postIDs := make([]uuid.UUID, 0, len(posts))
	for i := range posts {
		postIDs = append(postIDs, posts[i].ID)
	}
	likedIDs, err := s.repo.ListLikedPostIDs(ctx, viewerID, postIDs)
	if err != nil {
		return nil, commonDto.PaginationMeta{}, err
	}
	liked := make(map[uuid.UUID]bool, len(likedIDs))
	for _, id := range likedIDs {
		liked[id] = true
	}

	responses := make([]dto.PostResponse, 0, len(posts))
	for i := range posts {
		responses = append(responses, toPostResponse(&posts[i], liked[posts[i].ID]))
	}
	return responses, commonDto.NewPaginationMeta(filter.Page, filter.Limit, total), nil
}

func (s *postService) GetPost(ctx context.Context, viewerID, id uuid.UUID) (*dto.PostResponse, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	isLiked := false
	if viewerID != uuid.Nil {
		if _, err := s.repo.FindLike(ctx, id, viewerID); err == nil {
			isLiked = true
		}
	}
	resp := toPostResponse(post, isLiked)
	return &resp, nil
}

func (s *postService) CreatePost(ctx context.Context, authorID uuid.UUID, req dto.CreatePostRequest) (*dto.PostResponse, error) {
	allowed, err := ratelimit.CheckAndSet(ctx, s.redisClient, authorID.String(), "post", s.postCooldown)
	if err != nil {
		return nil, fmt.Errorf("failed to check rate limit: %w", err)
	}
	if !allowed {
		ttl, _ := ratelimit.TTL(ctx, s.redisClient, authorID.String(), "post")
		return nil, apperror.New(0,
			fmt.Sprintf("you are posting too fast, please wait %.0f seconds", ttl.Seconds()),
			apperror.ErrRateLimitExceeded)
	}

	created := false
	defer func() {
		if !created {
			_ = ratelimit.Clear(ctx, s.redisClient, authorID.String(), "post")
		}
	}()

	if req.CommunityID != nil {
		// Posting into a community requires membership.
		if _, err := s.communities.FindMember(ctx, *req.CommunityID, authorID); err != nil {
			return nil, apperror.ErrForbidden
		}
	}

	post := &entity.Post{
		AuthorID:    authorID,
		CommunityID: req.CommunityID,
		Content:     s.sanitizer.Sanitize(req.Content),
		ImageURL:    req.ImageURL,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}
	created = true

	if s.search != nil {
		if err := s.search.IndexPost(post); err != nil {
			log.Printf("Failed to index post %s: %v", post.ID, err)
		}
	}

	// Reload to include the author summary.
	return s.GetPost(ctx, authorID, post.ID)
}

func (s *postService) UpdatePost(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID, req dto.UpdatePostRequest) (*dto.PostResponse, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != actorID && !entity.IsAdminRole(actorRole) {
		return nil, apperror.ErrForbidden
	}

	if req.Content != nil {
		post.Content = s.sanitizer.Sanitize(*req.Content)
	}
	if err := s.repo.Update(ctx, post); err != nil {
		return nil, err
	}

	if s.search != nil {
		if err := s.search.IndexPost(post); err != nil {
			log.Printf("Failed to index post %s: %v", post.ID, err)
		}
	}
	return s.GetPost(ctx, actorID, post.ID)
}

func (s *postService) DeletePost(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID) error {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != actorID && !entity.IsAdminRole(actorRole) {
		return apperror.ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.search != nil {
		if err := s.search.DeletePost(id.String()); err != nil {
			log.Printf("Failed to remove post %s from index: %v", id, err)
		}
	}
	return nil
}

func (s *postService) Like(ctx context.Context, userID, id uuid.UUID) error {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.repo.FindLike(ctx, id, userID); err == nil {
		return apperror.New(0, "you have already liked this post", apperror.ErrConflict)
	}

	if err := s.repo.AddLike(ctx, id, userID); err != nil {
		return err
	}

	if post.AuthorID != userID {
		s.notify(ctx, &entity.Notification{
			UserID:     post.AuthorID,
			ActorID:    userID,
			EntityID:   post.ID,
			EntityType: "post",
			Type:       entity.NotificationPostLike,
			Message:    "Someone liked your post",
		})
	}
	return nil
}

func (s *postService) Unlike(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.RemoveLike(ctx, id, userID)
}

func (s *postService) AddComment(ctx context.Context, authorID, postID uuid.UUID, req dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment := &entity.Comment{
		PostID:   postID,
		AuthorID: authorID,
		Content:  s.sanitizer.Sanitize(req.Content),
	}
	if err := s.repo.AddComment(ctx, comment); err != nil {
		return nil, err
	}

	if post.AuthorID != authorID {
		s.notify(ctx, &entity.Notification{
			UserID:     post.AuthorID,
			ActorID:    authorID,
			EntityID:   post.ID,
			EntityType: "post",
			Type:       entity.NotificationPostComment,
			Message:    "Someone commented on your post",
		})
	}

	reloaded, err := s.repo.FindCommentByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	resp := toCommentResponse(reloaded)
	return &resp, nil
}

func (s *postService) DeleteComment(ctx context.Context, actorID uuid.UUID, actorRole string, commentID uuid.UUID) error {
	comment, err := s.repo.FindCommentByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != actorID && !entity.IsAdminRole(actorRole) {
		return apperror.ErrForbidden
	}
	return s.repo.DeleteComment(ctx, commentID)
}

func (s *postService) ListComments(ctx context.Context, postID uuid.UUID, page, limit int) ([]dto.CommentResponse, commonDto.PaginationMeta, error) {
	if _, err := s.repo.FindByID(ctx, postID); err != nil {
		return nil, commonDto.PaginationMeta{}, err
	}

	comments, total, err := s.repo.ListComments(ctx, postID, limit, (page-1)*limit)
	if err != nil {
		return nil, commonDto.PaginationMeta{}, err
	}

	responses := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		responses = append(responses, toCommentResponse(&comments[i]))
	}
	return responses, commonDto.NewPaginationMeta(page, limit, total), nil
}

func (s *postService) notify(ctx context.Context, notif *entity.Notification) {
	if s.notifications == nil {
		return
	}
	if err := s.notifications.Notify(ctx, notif); err != nil {
		log.Printf("Failed to send notification to %s: %v", notif.UserID, err)
	}
}

func toPostResponse(post *entity.Post, isLiked bool) dto.PostResponse {
	resp := dto.PostResponse{
		ID:           post.ID,
		CommunityID:  post.CommunityID,
		Content:      post.Content,
		ImageURL:     post.ImageURL,
		LikeCount:    post.LikeCount,
		CommentCount: post.CommentCount,
		IsLiked:      isLiked,
		CreatedAt:    post.CreatedAt,
		UpdatedAt:    post.UpdatedAt,
	}
	if post.Author != nil {
		resp.Author = commonDto.UserSummary{
			ID:        post.Author.ID,
			Name:      post.Author.Name,
			AvatarURL: post.Author.AvatarURL,
		}
	}
	return resp
}

func toCommentResponse(comment *entity.Comment) dto.CommentResponse {
	resp := dto.CommentResponse{
		ID:        comment.ID,
		PostID:    comment.PostID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}
	if comment.Author != nil {
		resp.Author = commonDto.UserSummary{
			ID:        comment.Author.ID,
			Name:      comment.Author.Name,
			AvatarURL: comment.Author.AvatarURL,
		}
	}
	return resp
}
