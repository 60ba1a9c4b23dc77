package search

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"hmcc.com/communityplatform/internal/entity"
)

const (
	IndexUsers       = "users"
	IndexPosts       = "posts"
	IndexEvents      = "events"
	IndexCommunities = "communities"
)

// SearchService keeps the Meilisearch indexes in sync with the database and
// answers global search queries. A nil SearchService disables search.
type SearchService interface {
	IndexUser(user *entity.User) error
	IndexPost(post *entity.Post) error
	IndexEvent(event *entity.Event) error
	IndexCommunity(community *entity.Community) error
	DeleteUser(id string) error
	DeletePost(id string) error
	DeleteEvent(id string) error
	DeleteCommunity(id string) error
	Search(ctx context.Context, query string, types []string, limit int) (map[string][]map[string]any, error)
}

type searchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewSearchService(client meilisearch.ServiceManager) SearchService {
	s := &searchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	return s
}

func (s *searchService) initIndexes() {
	sortable := map[string][]string{
		IndexPosts:       {"created_at"},
		IndexEvents:      {"starts_at"},
		IndexCommunities: {"member_count"},
	}
	for index, attrs := range sortable {
		attrsCopy := attrs
		if _, err := s.client.Index(index).UpdateSortableAttributes(&attrsCopy); err != nil {
			log.Printf("Failed to update %s sortable attributes: %v", index, err)
		}
	}

	filterable := map[string][]string{
		IndexUsers:       {"role"},
		IndexPosts:       {"author_id", "community_id"},
		IndexEvents:      {"community_id"},
		IndexCommunities: {"category", "status"},
	}
	for index, attrs := range filterable {
		attrsInterface := make([]any, len(attrs))
		for i, v := range attrs {
			attrsInterface[i] = v
		}
		if _, err := s.client.Index(index).UpdateFilterableAttributes(&attrsInterface); err != nil {
			log.Printf("Failed to update %s filterable attributes: %v", index, err)
		}
	}
}

// cleanText strips markup from user-authored content before indexing.
func (s *searchService) cleanText(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(raw)))
}

func (s *searchService) IndexUser(user *entity.User) error {
	doc := map[string]any{
		"id":         user.ID.String(),
		"name":       user.Name,
		"role":       user.Role,
		"avatar_url": user.AvatarURL,
	}
	if user.Mentor != nil {
		doc["title"] = user.Mentor.Title
		doc["company"] = user.Mentor.Company
	}
	_, err := s.client.Index(IndexUsers).AddDocuments([]map[string]any{doc}, strPtr("id"))
	return err
}

func (s *searchService) IndexPost(post *entity.Post) error {
	doc := map[string]any{
		"id":         post.ID.String(),
		"content":    s.cleanText(post.Content),
		"author_id":  post.AuthorID.String(),
		"created_at": post.CreatedAt.Unix(),
	}
	if post.CommunityID != nil {
		doc["community_id"] = post.CommunityID.String()
	}
	_, err := s.client.Index(IndexPosts).AddDocuments([]map[string]any{doc}, strPtr("id"))
	return err
}

func (s *searchService) IndexEvent(event *entity.Event) error {
	doc := map[string]any{
		"id":          event.ID.String(),
		"title":       event.Title,
		"description": s.cleanText(event.Description),
		"location":    event.Location,
		"starts_at":   event.StartsAt.Unix(),
	}
	if event.CommunityID != nil {
		doc["community_id"] = event.CommunityID.String()
	}
	_, err := s.client.Index(IndexEvents).AddDocuments([]map[string]any{doc}, strPtr("id"))
	return err
}

func (s *searchService) IndexCommunity(community *entity.Community) error {
	doc := map[string]any{
		"id":          community.ID.String(),
		"name":        community.Name,
		"slug":        community.Slug,
		"description": s.cleanText(community.Description),
		"category":    community.Category,
		"status":      community.Status,
	}
	_, err := s.client.Index(IndexCommunities).AddDocuments([]map[string]any{doc}, strPtr("id"))
	return err
}

func (s *searchService) deleteDoc(index, id string) error {
	_, err := s.client.Index(index).DeleteDocument(id)
	return err
}

func (s *searchService) DeleteUser(id string) error      { return s.deleteDoc(IndexUsers, id) }
func (s *searchService) DeletePost(id string) error      { return s.deleteDoc(IndexPosts, id) }
func (s *searchService) DeleteEvent(id string) error     { return s.deleteDoc(IndexEvents, id) }
func (s *searchService) DeleteCommunity(id string) error { return s.deleteDoc(IndexCommunities, id) }

// Search queries the requested indexes (all of them when types is empty) and
// groups hits per index.
func (s *searchService) Search(ctx context.Context, query string, types []string, limit int) (map[string][]map[string]any, error) {
	if limit < 1 {
		limit = 10
	}
	if len(types) == 0 {
		types = []string{IndexUsers, IndexPosts, IndexEvents, IndexCommunities}
	}

	results := make(map[string][]map[string]any, len(types))
	for _, index := range types {
		switch index {
		case IndexUsers, IndexPosts, IndexEvents, IndexCommunities:
		default:
			return nil, fmt.Errorf("unknown search type: %s", index)
		}

		resp, err := s.client.Index(index).SearchWithContext(ctx, query, &meilisearch.SearchRequest{
			Limit: int64(limit),
		})
		if err != nil {
			return nil, fmt.Errorf("search on %s failed: %w", index, err)
		}

		hits := make([]map[string]any, 0, len(resp.Hits))
		for _, hit := range resp.Hits {
			doc := make(map[string]any, len(hit))
			if err := hit.Decode(&doc); err == nil {
				hits = append(hits, doc)
			}
		}
		results[index] = hits
	}

	return results, nil
}

func strPtr(s string) *string {
	return &s
}
