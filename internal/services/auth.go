package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/skillify/skillify-backend/internal/errs"
	"github.com/skillify/skillify-backend/internal/logger"
	"github.com/skillify/skillify-backend/internal/repos"
	"github.com/skillify/skillify-backend/internal/requestdata"
	"github.com/skillify/skillify-backend/internal/types"
)

type AuthService interface {
	Register(ctx context.Context, name, email, password, role string) (*types.User, error)
	Login(ctx context.Context, email, password string) (string, *types.User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*types.User, []*types.Course, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
	db             *gorm.DB
	log            *logger.Logger
	userRepo       repos.UserRepo
	enrollmentRepo repos.EnrollmentRepo
	jwtSecretKey   string
	accessTTL      time.Duration
}

func NewAuthService(
	db *gorm.DB,
	baseLog *logger.Logger,
	userRepo repos.UserRepo,
	enrollmentRepo repos.EnrollmentRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
) AuthService {
	serviceLog := baseLog.With("service", "AuthService")
	return &authService{
		db:             db,
		log:            serviceLog,
		userRepo:       userRepo,
		enrollmentRepo: enrollmentRepo,
		jwtSecretKey:   jwtSecretKey,
		accessTTL:      accessTTL,
	}
}

func (as *authService) Register(ctx context.Context, name, email, password, role string) (*types.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("name, email and password are required: %w", errs.ErrInvalidArgument)
	}
	if role == "" {
		role = types.RoleStudent
	}
	if role != types.RoleStudent && role != types.RoleInstructor {
		return nil, fmt.Errorf("unknown role %q: %w", role, errs.ErrInvalidArgument)
	}

	if _, err := as.userRepo.GetByEmail(ctx, nil, email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", errs.ErrInvalidArgument)
	} else if !errors.Is(err, errs.ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &types.User{
		ID:       uuid.New(),
		Name:     name,
		Email:    email,
		Password: string(hash),
		Role:     role,
	}
	if _, err := as.userRepo.Create(ctx, nil, []*types.User{user}); err != nil {
		as.log.Error("Register user create failed", "error", err, "email", email)
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (string, *types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := as.userRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return "", nil, fmt.Errorf("invalid email or password: %w", errs.ErrUnauthorized)
		}
		return "", nil, fmt.Errorf("load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", nil, fmt.Errorf("invalid email or password: %w", errs.ErrUnauthorized)
	}

	token, err := as.generateAccessToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("generate access token: %w", err)
	}
	return token, user, nil
}

func (as *authService) GetProfile(ctx context.Context, userID uuid.UUID) (*types.User, []*types.Course, error) {
	user, err := as.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, nil, fmt.Errorf("user %s: %w", userID, errs.ErrNotFound)
		}
		return nil, nil, fmt.Errorf("load user: %w", err)
	}

	enrollments, err := as.enrollmentRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load enrollments: %w", err)
	}
	courses := make([]*types.Course, 0, len(enrollments))
	for _, enrollment := range enrollments {
		if enrollment.Course != nil {
			courses = append(courses, enrollment.Course)
		}
	}
	return user, courses, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil || !token.Valid {
		return ctx, fmt.Errorf("invalid token: %w", errs.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return ctx, fmt.Errorf("invalid claims: %w", errs.ErrUnauthorized)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("invalid subject: %w", errs.ErrUnauthorized)
	}

	user, err := as.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return ctx, fmt.Errorf("token subject: %w", errs.ErrUnauthorized)
	}

	rd := &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      user.ID,
		Role:        user.Role,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}
