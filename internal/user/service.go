package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"workshopflow/internal/logger"
	"workshopflow/internal/metrics"
	myMiddleware "workshopflow/internal/middleware"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrInvalidInput = errors.New("invalid registration")
)

const (
	msgInvalidCredentials = "Invalid email or password"
	minPasswordLength     = 6
)

type Claims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	repo      *Repository
	jwtSecret []byte
	tokenTTL  time.Duration
	log       *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time

	mu      sync.Mutex
	// revoked maps token ids to their expiry so entries can be pruned
	revoked map[string]time.Time
}

func NewService(repo *Repository, secret string, tokenTTL time.Duration, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:      repo,
		jwtSecret: []byte(secret),
		tokenTTL:  tokenTTL,
		log:       log.WithComponent("auth"),
		metrics:   m,
		now:       time.Now,
		revoked:   make(map[string]time.Time),
	}
}

func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*Profile, error) {
	email := strings.TrimSpace(req.Email)
	fullName := strings.TrimSpace(req.FullName)
	role := req.Role
	if role == "" {
		role = RoleStudent
	}

	switch {
	case !strings.Contains(email, "@"):
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	case len(req.Password) < minPasswordLength:
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	case fullName == "":
		return nil, fmt.Errorf("%w: full name is required", ErrInvalidInput)
	case !role.Valid():
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.CreateUser(ctx, &User{
		Email:        email,
		FullName:     fullName,
		Role:         role,
		PasswordHash: string(hashedPwd),
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("user registered", "user_id", u.ID, "role", u.Role)
	p := u.Profile()
	return &p, nil
}

// Login reports credential problems through LoginResult; the error return is
// reserved for storage or signing failures.
func (s *Service) Login(ctx context.Context, email, password string, role Role) (*LoginResult, error) {
	u, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, ErrUserNotFound) {
		s.metrics.LoginResult("failure")
		return &LoginResult{Message: msgInvalidCredentials}, nil
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.metrics.LoginResult("failure")
		return &LoginResult{Message: msgInvalidCredentials}, nil
	}
	if role != "" && role != u.Role {
		s.metrics.LoginResult("failure")
		return &LoginResult{Message: fmt.Sprintf("This account is not registered as %s", role)}, nil
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:   u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    "workshopflow",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	})
	ss, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	s.metrics.LoginResult("success")
	p := u.Profile()
	return &LoginResult{Success: true, AccessToken: ss, User: &p}, nil
}

func (s *Service) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateToken implements middleware.TokenValidator.
func (s *Service) ValidateToken(tokenString string) (myMiddleware.Identity, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return myMiddleware.Identity{}, err
	}

	s.mu.Lock()
	_, revoked := s.revoked[claims.ID]
	s.mu.Unlock()
	if revoked {
		return myMiddleware.Identity{}, ErrInvalidToken
	}

	return myMiddleware.Identity{
		UserID:   claims.UserID,
		Email:    claims.Email,
		FullName: claims.FullName,
		Role:     string(claims.Role),
		TokenID:  claims.ID,
	}, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *Service) Logout(tokenString string) error {
	claims, err := s.parse(tokenString)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, exp := range s.revoked {
		if exp.Before(now) {
			delete(s.revoked, id)
		}
	}
	s.revoked[claims.ID] = claims.ExpiresAt.Time
	s.log.Info("user logged out", "user_id", claims.UserID)
	return nil
}
