package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"hmcc.com/communityplatform/internal/config"
	"hmcc.com/communityplatform/internal/entity"
	search "hmcc.com/communityplatform/internal/modules/search/service"
	"hmcc.com/communityplatform/internal/modules/user/dto"
	"hmcc.com/communityplatform/internal/modules/user/repository"
	"hmcc.com/communityplatform/internal/ratelimit"
	"hmcc.com/communityplatform/pkg/apperror"
	pkgdto "hmcc.com/communityplatform/pkg/dto"
)

type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenPair, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error

	GetCurrentUser(ctx context.Context, userID uuid.UUID) (*entity.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req dto.UpdateProfileRequest) (*entity.User, error)
	ListUsers(ctx context.Context, filter dto.ListUsersFilter) ([]*entity.User, pkgdto.PaginationMeta, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

type authService struct {
	repo         repository.UserRepository
	tokens       *tokenIssuer
	search       search.SearchService
	redisClient  *redis.Client
	bcryptCost   int
	domain       string
	forgotWindow time.Duration
}

func NewAuthService(repo repository.UserRepository, searchSvc search.SearchService, redisClient *redis.Client, cfg *config.Config) AuthService {
	return &authService{
		repo:         repo,
		search:       searchSvc,
		redisClient:  redisClient,
		bcryptCost:   cfg.BcryptCost,
		domain:       cfg.AllowedEmailDomain,
		forgotWindow: cfg.RateLimitForgot,
		tokens: newTokenIssuer(
			cfg.JWTSecret,
			cfg.JWTRefreshSecret,
			cfg.AccessTokenTTL,
			cfg.RefreshTokenTTL,
			cfg.ResetTokenTTL,
		),
	}
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	role := req.Role
	if role == "" {
		role = entity.RoleFellow
	}
	if !entity.IsValidRole(role) {
		return nil, apperror.ErrInvalidInput
	}

	// Mentors may register with any (company) email; everyone else must use
	// the institutional domain.
	if role != entity.RoleMentor && !strings.HasSuffix(strings.ToLower(req.Email), "@"+s.domain) {
		return nil, apperror.ErrEmailDomainNotAllowed
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, apperror.ErrDuplicateAccount
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashed),
		Role:         role,
		Status:       entity.StatusPending, // needs admin approval
	}

	records, err := buildRegistrationRecords(role, req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, user, records); err != nil {
		return nil, err
	}

	if s.search != nil {
		if err := s.search.IndexUser(user); err != nil {
			log.Printf("failed to index user %s: %v", user.ID, err)
		}
	}

	pair, err := s.tokens.Pair(user.ID)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return &dto.AuthResponse{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
	}, nil
}

func buildRegistrationRecords(role string, req dto.RegisterRequest) (repository.RegistrationRecords, error) {
	var records repository.RegistrationRecords

	switch role {
	case entity.RoleFellow:
		records.Fellow = &entity.FellowProfile{
			Team:       optional(req.Team),
			Department: optional(req.Department),
			Bio:        optional(req.Bio),
			Interests:  toJSON(req.Interests),
		}
	case entity.RoleMentor:
		records.Mentor = &entity.MentorProfile{
			Title:      req.Title,
			Company:    req.Company,
			Expertise:  toJSON(req.Expertise),
			Bio:        req.Bio,
			Experience: req.Experience,
		}
	case entity.RoleCommunityAdmin:
		if req.CommunityName == "" {
			return records, apperror.New(0, "community_name is required for community admins", apperror.ErrInvalidInput)
		}
		category := req.Category
		if category == "" {
			category = "Social"
		}
		records.Community = &entity.Community{
			Name:        req.CommunityName,
			Slug:        slugify(req.CommunityName),
			Description: req.Bio,
			Category:    category,
			Status:      entity.CommunityStatusPending,
		}
		records.CommunityAdmin = &entity.CommunityMember{
			Role: entity.CommunityMemberRoleAdmin,
		}
	}

	return records, nil
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	switch user.Status {
	case entity.StatusActive:
		// ok
	case entity.StatusPending:
		return nil, apperror.ErrAccountPending
	default:
		return nil, apperror.ErrAccountInactive
	}

	now := time.Now()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now

	pair, err := s.tokens.Pair(user.ID)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return &dto.AuthResponse{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
	}, nil
}

// Refresh rotates the token pair. The old refresh token stays valid until it
// expires; logout is client-side only.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenPair, error) {
	userID, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, userID.String())
	if err != nil || user.Status != entity.StatusActive {
		return nil, apperror.ErrInvalidToken
	}

	pair, err := s.tokens.Pair(user.ID)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// ForgotPassword returns the minted reset token, or "" when the email is
// unknown. The handler reports success either way so addresses cannot be
// enumerated. Requests are rate limited per email address, known or not.
func (s *authService) ForgotPassword(ctx context.Context, email string) (string, error) {
	subject := strings.ToLower(email)
	allowed, err := ratelimit.CheckAndSet(ctx, s.redisClient, subject, "forgot_password", s.forgotWindow)
	if err != nil {
		return "", fmt.Errorf("failed to check rate limit: %w", err)
	}
	if !allowed {
		return "", apperror.New(0,
			"a reset was requested recently, please wait before trying again",
			apperror.ErrRateLimitExceeded)
	}

	issued := false
	defer func() {
		if !issued {
			_ = ratelimit.Clear(ctx, s.redisClient, subject, "forgot_password")
		}
	}()

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The lock stays so unknown addresses behave exactly like
			// known ones on repeat requests.
			issued = true
			return "", nil
		}
		return "", err
	}

	token, expiresAt, err := s.tokens.ResetToken(user.ID)
	if err != nil {
		return "", err
	}

	if err := s.repo.UpsertPasswordReset(ctx, &entity.PasswordReset{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: expiresAt,
	}); err != nil {
		return "", err
	}

	issued = true
	return token, nil
}

func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := s.tokens.VerifyReset(token)
	if err != nil {
		return err
	}

	// The presented token must still be the one on file: a token superseded
	// by a newer forgot-password call is rejected even if its signature and
	// expiry check out.
	reset, err := s.repo.FindPasswordReset(ctx, userID)
	if err != nil {
		return apperror.ErrInvalidResetToken
	}
	if reset.Token != token || time.Now().After(reset.ExpiresAt) {
		return apperror.ErrInvalidResetToken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return err
	}

	if err := s.repo.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		return err
	}

	return s.repo.DeletePasswordReset(ctx, userID)
}

func (s *authService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.repo.FindByID(ctx, userID.String())
	if err != nil {
		return apperror.ErrNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return apperror.ErrIncorrectPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return err
	}

	return s.repo.UpdatePassword(ctx, userID, string(hashed))
}

func (s *authService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, userID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID uuid.UUID, req dto.UpdateProfileRequest) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, userID.String())
	if err != nil {
		return nil, apperror.ErrNotFound
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.AvatarURL != nil {
		user.AvatarURL = req.AvatarURL
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	switch {
	case user.Role == entity.RoleFellow && user.Fellow != nil:
		if req.Bio != nil {
			user.Fellow.Bio = req.Bio
		}
		if req.Team != nil {
			user.Fellow.Team = req.Team
		}
		if req.Department != nil {
			user.Fellow.Department = req.Department
		}
		if req.Interests != nil {
			user.Fellow.Interests = toJSON(*req.Interests)
		}
		if err := s.repo.SaveFellowProfile(ctx, user.Fellow); err != nil {
			return nil, err
		}
	case user.Role == entity.RoleMentor && user.Mentor != nil:
		if req.Bio != nil {
			user.Mentor.Bio = *req.Bio
		}
		if req.Title != nil {
			user.Mentor.Title = *req.Title
		}
		if req.Company != nil {
			user.Mentor.Company = *req.Company
		}
		if req.Expertise != nil {
			user.Mentor.Expertise = toJSON(*req.Expertise)
		}
		if req.Experience != nil {
			user.Mentor.Experience = *req.Experience
		}
		if err := s.repo.SaveMentorProfile(ctx, user.Mentor); err != nil {
			return nil, err
		}
	}

	if s.search != nil {
		if err := s.search.IndexUser(user); err != nil {
			log.Printf("failed to reindex user %s: %v", user.ID, err)
		}
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) ListUsers(ctx context.Context, filter dto.ListUsersFilter) ([]*entity.User, pkgdto.PaginationMeta, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}

	users, total, err := s.repo.FindAll(ctx, filter.Role, filter.Status, filter.Search, limit, (page-1)*limit)
	if err != nil {
		return nil, pkgdto.PaginationMeta{}, err
	}

	for _, u := range users {
		u.PasswordHash = ""
	}

	return users, pkgdto.NewPaginationMeta(page, limit, total), nil
}

func (s *authService) GetUserByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return s.GetCurrentUser(ctx, id)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toJSON(values []string) datatypes.JSON {
	if len(values) == 0 {
		return nil
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

func slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}
