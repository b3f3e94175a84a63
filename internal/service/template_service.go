package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sealdesk/sealdesk/internal/domain"
	"github.com/sealdesk/sealdesk/internal/repository"
	"github.com/sealdesk/sealdesk/internal/storage"
)

// TemplateService owns template CRUD and the source-document upload path.
// Every operation is scoped to the caller's account.
type TemplateService struct {
	templates repository.TemplateRepository
	blobs     storage.Storage
	logger    *zap.Logger
}

func NewTemplateService(
	templates repository.TemplateRepository,
	blobs storage.Storage,
	logger *zap.Logger,
) *TemplateService {
	return &TemplateService{templates: templates, blobs: blobs, logger: logger}
}

// UploadDocument stores a source document and returns the storage key a
// subsequent Create or Update can reference.
func (s *TemplateService) UploadDocument(ctx context.Context, accountID, filename string, r io.Reader, contentType string) (string, error) {
	key := fmt.Sprintf("%s/documents/%s-%s", accountID, uuid.New().String(), filename)
	if err := s.blobs.Put(ctx, key, r, contentType); err != nil {
		return "", fmt.Errorf("upload document: %w", err)
	}
	return key, nil
}

func (s *TemplateService) Create(ctx context.Context, accountID string, req domain.SaveTemplateRequest) (*domain.Template, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	t := &domain.Template{
		ID:          uuid.New().String(),
		AccountID:   accountID,
		Name:        req.Name,
		DocumentKey: req.DocumentKey,
		Fields:      req.Fields,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.templates.Create(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("template created",
		zap.String("template_id", t.ID),
		zap.String("account_id", accountID))
	return t, nil
}

func (s *TemplateService) Get(ctx context.Context, accountID, id string) (*domain.Template, error) {
	return s.templates.GetByID(ctx, accountID, id)
}

func (s *TemplateService) List(ctx context.Context, accountID string, f domain.TemplateFilter) ([]*domain.Template, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	return s.templates.List(ctx, accountID, f)
}

func (s *TemplateService) Update(ctx context.Context, accountID, id string, req domain.SaveTemplateRequest) (*domain.Template, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t, err := s.templates.GetByID(ctx, accountID, id)
	if err != nil {
		return nil, err
	}

	t.Name = req.Name
	t.Fields = req.Fields
	if req.DocumentKey != "" {
		t.DocumentKey = req.DocumentKey
	}
	t.UpdatedAt = time.Now().UTC()

	if err := s.templates.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes the template row and then its stored document. A blob
// cleanup failure is logged but not surfaced; the row is already gone.
func (s *TemplateService) Delete(ctx context.Context, accountID, id string) error {
	t, err := s.templates.GetByID(ctx, accountID, id)
	if err != nil {
		return err
	}
	if err := s.templates.Delete(ctx, accountID, id); err != nil {
		return err
	}
	if t.DocumentKey != "" {
		if err := s.blobs.Delete(ctx, t.DocumentKey); err != nil {
			s.logger.Warn("orphaned template document",
				zap.String("key", t.DocumentKey), zap.Error(err))
		}
	}
	return nil
}
