package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/coursedesk/coursedesk-api/internal/models"
	appErrors "github.com/coursedesk/coursedesk-api/pkg/errors"
)

type studentProfileReader interface {
	FindProfileByUserID(ctx context.Context, userID string) (*models.StudentProfile, error)
}

// StudentService covers student-facing profile reads.
type StudentService struct {
	repo   studentProfileReader
	logger *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(repo studentProfileReader, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, logger: logger}
}

// GetMyProfile returns the acting student's profile with user fields.
func (s *StudentService) GetMyProfile(ctx context.Context, userID string) (*models.StudentProfile, error) {
	profile, err := s.repo.FindProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	return profile, nil
}
