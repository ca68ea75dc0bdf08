package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/fjj-brasileirao/utils"
	"github.com/jonboulle/clockwork"
)

const AdminTokenTTL = 24 * time.Hour

type AdminToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthService проверяет общий пароль администратора и выдаёт JWT.
type AuthService interface {
	Login(ctx context.Context, password string) (*AdminToken, error)
}

type authService struct {
	passwordHash string
	jwtSecret    []byte
	clock        clockwork.Clock
	logger       *slog.Logger
}

func NewAuthService(passwordHash string, jwtSecret []byte, clock clockwork.Clock, logger *slog.Logger) AuthService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &authService{
		passwordHash: passwordHash,
		jwtSecret:    jwtSecret,
		clock:        clock,
		logger:       logger,
	}
}

func (s *authService) Login(ctx context.Context, password string) (*AdminToken, error) {
	if password == "" || !utils.CheckPasswordHash(password, s.passwordHash) {
		s.logger.WarnContext(ctx, "admin login rejected")
		return nil, ErrInvalidAdminPassword
	}

	now := s.clock.Now().UTC()
	token, err := utils.GenerateJWT(s.jwtSecret, utils.RoleAdmin, utils.RoleAdmin, now, AdminTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue admin token: %w", err)
	}
	return &AdminToken{Token: token, ExpiresAt: now.Add(AdminTokenTTL)}, nil
}
