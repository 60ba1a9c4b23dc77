package server

import (
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"hmcc.com/communityplatform/internal/config"
)

func routeSet(engine *gin.Engine) map[string]bool {
	set := make(map[string]bool)
	for _, r := range engine.Routes() {
		set[r.Method+" "+r.Path] = true
	}
	return set
}

// The paths below are the client contract; renaming any of them breaks
// deployed frontends.
func TestRouteSurface(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := NewServer(&config.Config{}, &gorm.DB{Config: &gorm.Config{}}, nil)
	routes := routeSet(srv.engine)

	expected := []string{
		"GET /health",

		"POST /api/auth/register",
		"POST /api/auth/login",
		"POST /api/auth/refresh",
		"POST /api/auth/forgot-password",
		"POST /api/auth/reset-password",
		"PUT /api/auth/change-password",
		"GET /api/auth/me",
		"PUT /api/auth/profile",

		"GET /api/messages/conversations",
		"POST /api/messages/conversations",
		"GET /api/messages/:conversationId",
		"PUT /api/messages/:conversationId/read",
		"DELETE /api/messages/:conversationId",
		"POST /api/messages",
		"GET /api/messages/ws",

		"GET /api/notifications",
		"GET /api/notifications/unread-count",
		"PUT /api/notifications/:id/read",
		"PUT /api/notifications/read-all",
		"GET /api/notifications/ws",

		"GET /api/communities",
		"POST /api/communities/:id/join",
		"GET /api/events",
		"GET /api/posts",
		"GET /api/announcements",
		"GET /api/mentors",
		"GET /api/search",
		"GET /api/discover",
		"POST /api/upload",

		"GET /api/admin/users/pending",
		"PUT /api/admin/users/:id/approve",
		"GET /api/admin/communities/pending",
		"GET /api/admin/stats",
	}

	for _, route := range expected {
		if !routes[route] {
			t.Errorf("missing route %s", route)
		}
	}

	// Mutations must not linger on their old methods.
	for _, route := range []string{
		"POST /api/auth/change-password",
		"PUT /api/profile",
		"GET /api/messages/conversations/:conversationId",
	} {
		if routes[route] {
			t.Errorf("unexpected route %s", route)
		}
	}
}
