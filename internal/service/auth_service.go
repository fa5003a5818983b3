package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/prapars-lang/kai/internal/dto"
	"github.com/prapars-lang/kai/internal/repository"
)

// ErrInvalidCredentials indicates a failed PIN check. The same error covers
// an unknown username so login probes cannot enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid username or pin")

const tokenLifetime = 12 * time.Hour

// AuthService signs teachers in with a username and PIN.
type AuthService interface {
	Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error)
}

type authService struct {
	teachers  repository.TeacherRepository
	secret    []byte
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService constructs the auth service.
func NewAuthService(teachers repository.TeacherRepository, jwtSecret string, validate *validator.Validate, logger zerolog.Logger) AuthService {
	return &authService{
		teachers:  teachers,
		secret:    []byte(jwtSecret),
		validator: validate,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LoginResponse{}, err
	}

	teacher, err := s.teachers.GetByUsername(ctx, payload.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LoginResponse{}, ErrInvalidCredentials
		}
		return dto.LoginResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(teacher.PINHash), []byte(payload.PIN)); err != nil {
		s.logger.Warn().Str("username", payload.Username).Msg("rejected login attempt")
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	issued := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  teacher.ID,
		"name": teacher.Name,
		"iat":  issued.Unix(),
		"exp":  issued.Add(tokenLifetime).Unix(),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	s.logger.Info().Str("username", payload.Username).Msg("teacher signed in")

	return dto.LoginResponse{TeacherName: teacher.Name, Token: signed}, nil
}
