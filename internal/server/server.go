package server

import (
	"log"
	"strings"
	"time"

	"hmcc.com/communityplatform/internal/config"
	"hmcc.com/communityplatform/internal/entity"
	"hmcc.com/communityplatform/internal/middleware"
	"hmcc.com/communityplatform/pkg/storage"

	adminHttp "hmcc.com/communityplatform/internal/modules/admin/delivery/http"
	adminService "hmcc.com/communityplatform/internal/modules/admin/service"

	announcementHttp "hmcc.com/communityplatform/internal/modules/announcement/delivery/http"
	announcementRepo "hmcc.com/communityplatform/internal/modules/announcement/repository"
	announcementService "hmcc.com/communityplatform/internal/modules/announcement/service"

	attachmentHttp "hmcc.com/communityplatform/internal/modules/attachment/delivery/http"
	attachmentRepo "hmcc.com/communityplatform/internal/modules/attachment/repository"
	attachmentService "hmcc.com/communityplatform/internal/modules/attachment/service"

	communityHttp "hmcc.com/communityplatform/internal/modules/community/delivery/http"
	communityRepo "hmcc.com/communityplatform/internal/modules/community/repository"
	communityService "hmcc.com/communityplatform/internal/modules/community/service"

	discoverHttp "hmcc.com/communityplatform/internal/modules/discover/delivery/http"
	discoverService "hmcc.com/communityplatform/internal/modules/discover/service"

	eventHttp "hmcc.com/communityplatform/internal/modules/event/delivery/http"
	eventRepo "hmcc.com/communityplatform/internal/modules/event/repository"
	eventService "hmcc.com/communityplatform/internal/modules/event/service"

	mentorHttp "hmcc.com/communityplatform/internal/modules/mentor/delivery/http"
	mentorRepo "hmcc.com/communityplatform/internal/modules/mentor/repository"
	mentorService "hmcc.com/communityplatform/internal/modules/mentor/service"

	messageHttp "hmcc.com/communityplatform/internal/modules/message/delivery/http"
	messageWs "hmcc.com/communityplatform/internal/modules/message/delivery/ws"
	messageRepo "hmcc.com/communityplatform/internal/modules/message/repository"
	messageService "hmcc.com/communityplatform/internal/modules/message/service"

	notifHttp "hmcc.com/communityplatform/internal/modules/notification/delivery/http"
	notifRepo "hmcc.com/communityplatform/internal/modules/notification/repository"
	notifService "hmcc.com/communityplatform/internal/modules/notification/service"

	postHttp "hmcc.com/communityplatform/internal/modules/post/delivery/http"
	postRepo "hmcc.com/communityplatform/internal/modules/post/repository"
	postService "hmcc.com/communityplatform/internal/modules/post/service"

	searchHttp "hmcc.com/communityplatform/internal/modules/search/delivery/http"
	searchService "hmcc.com/communityplatform/internal/modules/search/service"

	userHttp "hmcc.com/communityplatform/internal/modules/user/delivery/http"
	userRepo "hmcc.com/communityplatform/internal/modules/user/repository"
	userService "hmcc.com/communityplatform/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	users := userRepo.NewUserRepository(db)

	fileStorage, err := storage.NewCloudinaryStorage(cfg.CloudinaryUploadFolder)
	if err != nil {
		// Uploads degrade gracefully; everything else keeps working.
		log.Printf("Cloudinary storage unavailable: %v", err)
		fileStorage = nil
	}

	var searchSvc searchService.SearchService
	if cfg.MeiliSearchHost != "" {
		meiliClient := meilisearch.New(cfg.MeiliSearchHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
		searchSvc = searchService.NewSearchService(meiliClient)
	}

	authSvc := userService.NewAuthService(users, searchSvc, redisClient, cfg)
	authHandler := userHttp.NewAuthHandler(authSvc, cfg.AppEnv != "production")

	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, redisClient)
	notificationHandler := notifHttp.NewNotificationHandler(notificationSvc, redisClient)

	adminSvc := adminService.NewAdminService(users, notificationSvc, searchSvc)
	adminHandler := adminHttp.NewAdminHandler(adminSvc)

	communities := communityRepo.NewCommunityRepository(db)
	communitySvc := communityService.NewCommunityService(communities, searchSvc, notificationSvc)
	communityHandler := communityHttp.NewCommunityHandler(communitySvc)

	events := eventRepo.NewEventRepository(db)
	eventSvc := eventService.NewEventService(events, communities, searchSvc, notificationSvc)
	eventHandler := eventHttp.NewEventHandler(eventSvc)

	posts := postRepo.NewPostRepository(db)
	postSvc := postService.NewPostService(posts, communities, notificationSvc, searchSvc, redisClient, cfg.RateLimitPost)
	postHandler := postHttp.NewPostHandler(postSvc)

	announcements := announcementRepo.NewAnnouncementRepository(db)
	announcementSvc := announcementService.NewAnnouncementService(announcements, redisClient, cfg.RateLimitPost)
	announcementHandler := announcementHttp.NewAnnouncementHandler(announcementSvc)

	mentors := mentorRepo.NewMentorRepository(db)
	mentorSvc := mentorService.NewMentorService(mentors)
	mentorHandler := mentorHttp.NewMentorHandler(mentorSvc)

	messages := messageRepo.NewMessageRepository(db)
	messageSvc := messageService.NewMessageService(messages, users, redisClient)
	messageHandler := messageHttp.NewMessageHandler(messageSvc)
	messageWsHandler := messageWs.NewHandler(messageSvc, redisClient)

	attachments := attachmentRepo.NewAttachmentRepository(db)
	attachmentSvc := attachmentService.NewAttachmentService(attachments, fileStorage)
	attachmentHandler := attachmentHttp.NewAttachmentHandler(attachmentSvc)

	searchHandler := searchHttp.NewSearchHandler(searchSvc)

	discoverSvc := discoverService.NewDiscoverService(communitySvc, eventSvc, mentorSvc)
	discoverHandler := discoverHttp.NewDiscoverHandler(discoverSvc)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	setupCORS(router, cfg.AllowedOrigins)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authMiddleware := middleware.NewAuthMiddleware(users, cfg.JWTSecret)

	memberRoles := []string{
		entity.RoleSuperAdmin, entity.RoleContentAdmin, entity.RoleUserAdmin,
		entity.RoleAnalyticsAdmin, entity.RoleMentor, entity.RoleFellow,
		entity.RoleCommunityAdmin, entity.RoleUser,
	}

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.PUT("/auth/change-password", authHandler.ChangePassword)
		protected.GET("/auth/me", authHandler.GetCurrentUser)
		protected.PUT("/auth/profile", authHandler.UpdateProfile)
		protected.GET("/users/:id", authHandler.GetUserByID)

		// Messaging
		protected.GET("/messages/conversations", messageHandler.ListConversations)
		protected.POST("/messages/conversations", messageHandler.CreateConversation)
		protected.GET("/messages/:conversationId", messageHandler.GetMessages)
		protected.PUT("/messages/:conversationId/read", messageHandler.MarkRead)
		protected.DELETE("/messages/:conversationId", messageHandler.LeaveConversation)
		protected.POST("/messages", messageHandler.SendMessage)
		protected.GET("/messages/ws", messageWsHandler.HandleWebSocket)

		// Notifications
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)

		// Communities
		protected.GET("/communities", communityHandler.ListCommunities)
		protected.POST("/communities", communityHandler.CreateCommunity)
		protected.GET("/communities/:id", communityHandler.GetCommunity)
		protected.PUT("/communities/:id", communityHandler.UpdateCommunity)
		protected.DELETE("/communities/:id", communityHandler.DeleteCommunity)
		protected.POST("/communities/:id/join", communityHandler.Join)
		protected.POST("/communities/:id/leave", communityHandler.Leave)
		protected.GET("/communities/:id/members", communityHandler.ListMembers)

		// Events
		protected.GET("/events", eventHandler.ListEvents)
		protected.GET("/events/:id", eventHandler.GetEvent)
		protected.GET("/events/:id/attendees", eventHandler.ListAttendees)
		protected.POST("/events/:id/register", eventHandler.Register)
		protected.DELETE("/events/:id/register", eventHandler.Unregister)
		protected.POST("/events", authMiddleware.RequireRoles(memberRoles...), eventHandler.CreateEvent)
		protected.PUT("/events/:id", authMiddleware.RequireRoles(memberRoles...), eventHandler.UpdateEvent)
		protected.DELETE("/events/:id", authMiddleware.RequireRoles(memberRoles...), eventHandler.DeleteEvent)

		// Posts
		protected.GET("/posts", postHandler.ListPosts)
		protected.POST("/posts", postHandler.CreatePost)
		protected.GET("/posts/:id", postHandler.GetPost)
		protected.PUT("/posts/:id", authMiddleware.RequireRoles(memberRoles...), postHandler.UpdatePost)
		protected.DELETE("/posts/:id", authMiddleware.RequireRoles(memberRoles...), postHandler.DeletePost)
		protected.POST("/posts/:id/like", postHandler.Like)
		protected.DELETE("/posts/:id/like", postHandler.Unlike)
		protected.GET("/posts/:id/comments", postHandler.ListComments)
		protected.POST("/posts/:id/comments", postHandler.AddComment)
		protected.DELETE("/comments/:commentId", authMiddleware.RequireRoles(memberRoles...), postHandler.DeleteComment)

		// Announcements (audience scoped to the caller's role)
		protected.GET("/announcements", authMiddleware.RequireRoles(memberRoles...), announcementHandler.ListAnnouncements)
		protected.GET("/announcements/:id", announcementHandler.GetAnnouncement)

		// Mentors directory
		protected.GET("/mentors", mentorHandler.ListMentors)
		protected.GET("/mentors/:id", mentorHandler.GetMentor)

		// Search and discovery
		protected.GET("/search", searchHandler.Search)
		protected.GET("/discover", discoverHandler.Discover)

		// Uploads
		protected.POST("/upload", attachmentHandler.Upload)
		protected.DELETE("/upload/:id", attachmentHandler.Delete)

		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.GET("/users", authHandler.ListUsers)
			adminGroup.GET("/users/pending", adminHandler.ListPendingUsers)
			adminGroup.PUT("/users/:id/approve", adminHandler.ApproveUser)
			adminGroup.PUT("/users/:id/reject", adminHandler.RejectUser)
			adminGroup.PUT("/users/:id/suspend", adminHandler.SuspendUser)
			adminGroup.PUT("/users/:id/reactivate", adminHandler.ReactivateUser)
			adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)

			adminGroup.GET("/communities/pending", communityHandler.ListPendingCommunities)
			adminGroup.PUT("/communities/:id/approve", communityHandler.ApproveCommunity)
			adminGroup.PUT("/communities/:id/reject", communityHandler.RejectCommunity)

			adminGroup.GET("/stats", adminHandler.Stats)

			announcementsAdmin := adminGroup.Group("/announcements")
			announcementsAdmin.Use(authMiddleware.RequireRoles(entity.RoleSuperAdmin, entity.RoleContentAdmin))
			{
				announcementsAdmin.GET("", announcementHandler.ListAllAnnouncements)
				announcementsAdmin.POST("", announcementHandler.CreateAnnouncement)
				announcementsAdmin.PUT("/:id", announcementHandler.UpdateAnnouncement)
				announcementsAdmin.DELETE("/:id", announcementHandler.DeleteAnnouncement)
			}
		}
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	origins := []string{"http://localhost:3000"}
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
