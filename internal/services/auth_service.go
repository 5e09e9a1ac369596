package services

import (
	"context"
	"errors"
	"strings"

	"apimarket_backend/internal/auth"
	"apimarket_backend/internal/dto"
	"apimarket_backend/internal/logger"
	"apimarket_backend/internal/models"
	"apimarket_backend/internal/repositories"
	"apimarket_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type AuthService interface {
	Register(db *gorm.DB, req *dto.RegisterRequest) (*models.User, error)
	Login(db *gorm.DB, req *dto.LoginRequest) (*dto.LoginResponse, error)
	// RefreshToken отзывает старый refresh и выдает новую пару
	RefreshToken(ctx context.Context, db *gorm.DB, refreshToken string) (*auth.TokenPair, error)
	Logout(ctx context.Context, db *gorm.DB, userID, refreshToken string) error
	// Authenticate разбирает access-токен и загружает активного пользователя
	Authenticate(db *gorm.DB, accessToken string) (*models.User, error)
	GetProfile(db *gorm.DB, userID string) (*models.User, error)
	UpdateProfile(db *gorm.DB, userID string, req *dto.UpdateProfileRequest) (*models.User, error)
	// EnsureAdmin создает staff+superuser, если пользователя с таким email нет
	EnsureAdmin(db *gorm.DB, email, username, password string) (bool, error)
}

type authService struct {
	userRepo  repositories.UserRepository
	tokens    *auth.TokenManager
	blacklist auth.Blacklist
}

func NewAuthService(userRepo repositories.UserRepository, tokens *auth.TokenManager, blacklist auth.Blacklist) AuthService {
	return &authService{
		userRepo:  userRepo,
		tokens:    tokens,
		blacklist: blacklist,
	}
}

func (s *authService) Register(db *gorm.DB, req *dto.RegisterRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, fieldError("password", err.Error())
	}
	if err := s.ensureUnique(db, username, email, ""); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.userRepo.Create(db, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.ErrAlreadyExists.WithDetails(map[string][]string{
				"detail": {"A user with that username or email already exists."},
			})
		}
		return nil, apperrors.InternalError(err)
	}

	logger.Info("User registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// ensureUnique проверяет username и email, включая удаленные учетные записи
func (s *authService) ensureUnique(db *gorm.DB, username, email, exceptID string) error {
	details := map[string][]string{}
	if username != "" {
		taken, err := s.userRepo.UsernameTaken(db, username, exceptID)
		if err != nil {
			return apperrors.InternalError(err)
		}
		if taken {
			details["username"] = []string{"A user with that username already exists."}
		}
	}
	if email != "" {
		taken, err := s.userRepo.EmailTaken(db, email, exceptID)
		if err != nil {
			return apperrors.InternalError(err)
		}
		if taken {
			details["email"] = []string{"A user with that email already exists."}
		}
	}
	if len(details) > 0 {
		return apperrors.InvalidInput(details)
	}
	return nil
}

func (s *authService) Login(db *gorm.DB, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.FindByIdentifier(db, strings.TrimSpace(req.Identifier))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.InternalError(err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrUserInactive
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.LoginResponse{User: user, Tokens: pair}, nil
}

func (s *authService) RefreshToken(ctx context.Context, db *gorm.DB, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.parseRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(db, claims.UserID, false)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.InternalError(err)
	}
	if !user.IsActive {
		return nil, apperrors.ErrUserInactive
	}

	// ротация: старый refresh больше не принимается
	if err := s.blacklist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return nil, apperrors.InternalError(err)
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return pair, nil
}

func (s *authService) Logout(ctx context.Context, db *gorm.DB, userID, refreshToken string) error {
	claims, err := s.parseRefresh(ctx, refreshToken)
	if err != nil {
		return err
	}
	if claims.UserID != userID {
		return apperrors.ErrInvalidToken
	}
	if err := s.blacklist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperrors.InternalError(err)
	}
	logger.CtxInfo(ctx, "User logged out", "user_id", userID)
	return nil
}

func (s *authService) parseRefresh(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.tokens.Parse(token, auth.TokenTypeRefresh)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if revoked {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

func (s *authService) Authenticate(db *gorm.DB, accessToken string) (*models.User, error) {
	claims, err := s.tokens.Parse(accessToken, auth.TokenTypeAccess)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	user, err := s.userRepo.FindByID(db, claims.UserID, false)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.InternalError(err)
	}
	if !user.IsActive {
		return nil, apperrors.ErrUserInactive
	}
	return user, nil
}

func (s *authService) GetProfile(db *gorm.DB, userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(db, userID, false)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return user, nil
}

func (s *authService) UpdateProfile(db *gorm.DB, userID string, req *dto.UpdateProfileRequest) (*models.User, error) {
	user, err := s.userRepo.FindByID(db, userID, false)
	if err != nil {
		return nil, mapRepoError(err)
	}

	var username, email string
	if req.Username != nil && strings.TrimSpace(*req.Username) != user.Username {
		username = strings.TrimSpace(*req.Username)
	}
	if req.Email != nil && !strings.EqualFold(strings.TrimSpace(*req.Email), user.Email) {
		email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if err := s.ensureUnique(db, username, email, user.ID); err != nil {
		return nil, err
	}

	if username != "" {
		user.Username = username
	}
	if email != "" {
		user.Email = email
		user.EmailVerified = false
	}
	if req.Avatar != nil {
		user.Avatar = *req.Avatar
	}

	if err := s.userRepo.Update(db, user); err != nil {
		return nil, mapRepoError(err)
	}
	return user, nil
}

func (s *authService) EnsureAdmin(db *gorm.DB, email, username, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.userRepo.FindByEmail(db, email); err == nil {
		return false, nil
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return false, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}
	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}

	admin := &models.User{
		Username:      username,
		Email:         email,
		PasswordHash:  hash,
		IsStaff:       true,
		IsSuperuser:   true,
		IsActive:      true,
		EmailVerified: true,
	}
	if err := s.userRepo.Create(db, admin); err != nil {
		return false, err
	}
	logger.Info("First admin created", "email", email)
	return true, nil
}
