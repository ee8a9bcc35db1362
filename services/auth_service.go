package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/karthikosa11/smartcal-nutrition-tracker/models"
	"github.com/karthikosa11/smartcal-nutrition-tracker/utils"
)

type AuthService struct {
	db     *gorm.DB
	tokens *utils.TokenIssuer
	store  TokenStore
}

func NewAuthService(db *gorm.DB, tokens *utils.TokenIssuer, store TokenStore) *AuthService {
	if store == nil {
		store = NewMemoryTokenStore()
	}
	return &AuthService{db: db, tokens: tokens, store: store}
}

type (
	SignupInput  = models.SignupInput
	ProfileInput = models.ProfileInput
)

// Session is the result of a successful signup or login.
type Session struct {
	User  *models.User
	Token string
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := utils.Validate(in); err != nil {
		return nil, err
	}

	target := models.DefaultCalorieTarget
	if in.DailyCalorieTarget != nil {
		target = *in.DailyCalorieTarget
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Username:           in.Username,
		Email:              in.Email,
		PasswordHash:       hash,
		Role:               models.RoleUser,
		DailyCalorieTarget: target,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).
			Where("username = ? OR email = ?", in.Username, in.Email).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return models.ErrConflict
		}
		return tx.Create(user).Error
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, models.ErrConflict
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.issue(user)
}

// Login accepts either the username or the email as identifier.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, models.Invalid("Username and password are required")
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, identifier).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, models.ErrInvalidCredentials
	}
	return s.issue(&user)
}

func (s *AuthService) issue(u *models.User) (*Session, error) {
	token, _, err := s.tokens.GenerateJWT(u)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token}, nil
}

// Authenticate validates a bearer token, including revocation.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*utils.Claims, error) {
	claims, err := s.tokens.ParseJWT(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.store.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, models.ErrUnauthorized
	}
	return claims, nil
}

// Verify returns the current state of the token's user.
func (s *AuthService) Verify(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, claims.UserID)
}

func (s *AuthService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.User, error) {
	if in.Username == nil && in.Email == nil && in.DailyCalorieTarget == nil {
		return nil, models.Invalid("No fields to update")
	}
	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		in.Username = &name
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		in.Email = &email
	}
	if err := utils.Validate(in); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Username != nil {
		updates["username"] = *in.Username
	}
	if in.Email != nil {
		updates["email"] = *in.Email
	}
	if in.DailyCalorieTarget != nil {
		updates["daily_calorie_target"] = *in.DailyCalorieTarget
	}

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return err
		}

		username, _ := updates["username"].(string)
		email, _ := updates["email"].(string)
		if username != "" || email != "" {
			if username == "" {
				username = user.Username
			}
			if email == "" {
				email = user.Email
			}
			var n int64
			if err := tx.Model(&models.User{}).
				Where("(username = ? OR email = ?) AND id <> ?", username, email, userID).
				Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return models.ErrConflict
			}
		}

		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&user, "id = ?", userID).Error
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, models.ErrNotFound
	case errors.Is(err, models.ErrConflict), errors.Is(err, gorm.ErrDuplicatedKey):
		return nil, models.ErrConflict
	case err != nil:
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &user, nil
}

// Logout revokes the presented token until it expires.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.Authenticate(ctx, token)
	if err != nil {
		return err
	}
	until := time.Now().Add(time.Hour)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	return s.store.Revoke(ctx, claims.ID, until)
}
