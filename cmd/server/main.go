package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"hmcc.com/communityplatform/internal/config"
	"hmcc.com/communityplatform/internal/entity"
	"hmcc.com/communityplatform/internal/server"
	"hmcc.com/communityplatform/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(database.Options{
		Host:         cfg.DBHost,
		Port:         cfg.DBPort,
		User:         cfg.DBUser,
		Password:     cfg.DBPass,
		Name:         cfg.DBName,
		SSLMode:      cfg.DBSSLMode,
		MaxOpenConns: cfg.DBPoolSize,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	if cfg.AppEnv == "development" {
		if err := seedSuperAdmin(db, cfg.BcryptCost); err != nil {
			log.Fatalf("failed to seed super admin: %v", err)
		}
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			// Realtime fan-out and rate limiting need redis; the REST API
			// itself does not.
			log.Printf("Redis unavailable, live features disabled: %v", err)
			redisClient = nil
		}
	} else {
		log.Println("REDIS_URL not set, live features disabled")
	}

	srv := server.NewServer(cfg, db, redisClient)
	log.Printf("Listening on :%s", cfg.Port)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.FellowProfile{},
		&entity.MentorProfile{},
		&entity.PasswordReset{},
		&entity.Community{},
		&entity.CommunityMember{},
		&entity.Event{},
		&entity.EventAttendee{},
		&entity.Post{},
		&entity.Comment{},
		&entity.Like{},
		&entity.Announcement{},
		&entity.Notification{},
		&entity.Conversation{},
		&entity.ConversationParticipant{},
		&entity.Message{},
		&entity.Attachment{},
	)
}

func seedSuperAdmin(db *gorm.DB, bcryptCost int) error {
	var count int64
	if err := db.Model(&entity.User{}).
		Where("role = ?", entity.RoleSuperAdmin).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcryptCost)
	if err != nil {
		return err
	}

	admin := entity.User{
		Name:         "Platform Admin",
		Email:        "admin@hacettepe.edu.tr",
		PasswordHash: string(hash),
		Role:         entity.RoleSuperAdmin,
		Status:       entity.StatusActive,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Println("Seeded super admin: admin@hacettepe.edu.tr / admin123")
	return nil
}
