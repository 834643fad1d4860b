package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/classroom-signal-board/internal/dto"
	"github.com/noah-isme/classroom-signal-board/internal/models"
	appErrors "github.com/noah-isme/classroom-signal-board/pkg/errors"
)

const sessionIssuer = "classroom-signal-board"

// SessionConfig defines token issuance settings.
type SessionConfig struct {
	Secret         string
	Expiry         time.Duration
	TeacherPINHash string
	MaxNameLength  int
}

// SessionService issues and validates the board session tokens that replace
// the name a student typed on the entry view.
type SessionService struct {
	validator *validator.Validate
	logger    *zap.Logger
	config    SessionConfig
	now       func() time.Time
}

// NewSessionService constructs a SessionService.
func NewSessionService(validate *validator.Validate, logger *zap.Logger, config SessionConfig) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.Expiry <= 0 {
		config.Expiry = 12 * time.Hour
	}
	if config.MaxNameLength <= 0 {
		config.MaxNameLength = 64
	}
	return &SessionService{validator: validate, logger: logger, config: config, now: time.Now}
}

// StartStudent issues a student token for the trimmed name.
func (s *SessionService) StartStudent(ctx context.Context, req dto.StudentSessionRequest) (*dto.SessionResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "student name is required")
	}
	if utf8.RuneCountInString(req.Name) > s.config.MaxNameLength {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student name must be at most %d characters", s.config.MaxNameLength))
	}
	resp, err := s.issue(models.RoleStudent, req.Name)
	if err != nil {
		return nil, err
	}
	s.logger.Info("student session started", zap.String("student", req.Name))
	return resp, nil
}

// StartTeacher issues a teacher token. The PIN is only checked when a hash is configured.
func (s *SessionService) StartTeacher(ctx context.Context, req dto.TeacherSessionRequest) (*dto.SessionResponse, error) {
	if s.config.TeacherPINHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(s.config.TeacherPINHash), []byte(req.PIN)); err != nil {
			s.logger.Warn("teacher pin rejected")
			return nil, appErrors.ErrInvalidPIN
		}
	}
	resp, err := s.issue(models.RoleTeacher, "")
	if err != nil {
		return nil, err
	}
	s.logger.Info("teacher session started")
	return resp, nil
}

// ValidateToken parses and verifies a session token.
func (s *SessionService) ValidateToken(tokenString string) (*models.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *SessionService) issue(role models.SessionRole, name string) (*dto.SessionResponse, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.Expiry)
	claims := &models.SessionClaims{
		Name: name,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   string(role),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign session")
	}
	return &dto.SessionResponse{Token: signed, Role: string(role), Name: name, ExpiresAt: expiresAt}, nil
}
