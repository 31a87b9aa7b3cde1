package student

import (
	"context"
	"fmt"
	"strings"
	"time"

	studentRepo "campushub/database/repository/student"
	"campushub/models"
	"campushub/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// DefaultStudentService is the production implementation.
type DefaultStudentService struct {
	Repo   studentRepo.StudentRepository
	Logger *zap.Logger
}

// Register creates a new student account and signs it in.
func (s *DefaultStudentService) Register(reg models.StudentRegistration) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(reg.Email))

	existing, err := s.Repo.GetByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("an account with email %s already exists", email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	st := &models.Student{
		ID:           uuid.New().String(),
		Name:         reg.Name,
		Email:        email,
		PasswordHash: string(hash),
		Program:      reg.Program,
		Role:         models.RoleStudent,
	}
	if err := s.Repo.Create(st); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.Logger.Info("student registered", zap.String("studentID", st.ID))
	return s.issueToken(st)
}

// Authenticate verifies credentials and issues a fresh token.
func (s *DefaultStudentService) Authenticate(email, password string) (*models.AuthResponse, error) {
	st, err := s.Repo.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if st == nil {
		return nil, fmt.Errorf("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(st.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid email or password")
	}
	return s.issueToken(st)
}

// issueToken signs a JWT, stores its hash for revocation checks and caches it.
func (s *DefaultStudentService) issueToken(st *models.Student) (*models.AuthResponse, error) {
	token, err := utils.GenerateToken(st.ID, st.Email, utils.AuthTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	st.TokenHash = utils.HashToken(token)
	if err := s.Repo.Update(st); err != nil {
		return nil, fmt.Errorf("failed to store token hash: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := utils.GetAuthCacheClient().Set(ctx, utils.AuthCachePrefix+st.ID, st.TokenHash, utils.AuthCacheTTL).Err(); err != nil {
		s.Logger.Warn("failed to cache auth token", zap.String("studentID", st.ID), zap.Error(err))
	}

	return &models.AuthResponse{Token: token, Student: *st}, nil
}

// GetStudentByID fetches an account by id.
func (s *DefaultStudentService) GetStudentByID(id string) (*models.Student, error) {
	st, err := s.Repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, fmt.Errorf("student %s not found", id)
	}
	return st, nil
}

// UpdateFCMToken stores the device token used for payment pushes.
func (s *DefaultStudentService) UpdateFCMToken(id, token string) error {
	st, err := s.GetStudentByID(id)
	if err != nil {
		return err
	}
	st.FCMToken = token
	return s.Repo.Update(st)
}
