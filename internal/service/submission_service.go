package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sealdesk/sealdesk/internal/domain"
	"github.com/sealdesk/sealdesk/internal/mailer"
	"github.com/sealdesk/sealdesk/internal/queue"
	"github.com/sealdesk/sealdesk/internal/repository"
)

// signatureFeeCents is the usage charge enqueued for every completed signature.
const signatureFeeCents = 150

// SubmissionService owns the signing workflow: creating submissions,
// the public signer path, and enqueueing usage charges on completion.
type SubmissionService struct {
	submissions repository.SubmissionRepository
	templates   repository.TemplateRepository
	payments    *queue.PaymentQueue
	mail        mailer.Mailer
	logger      *zap.Logger
}

func NewSubmissionService(
	submissions repository.SubmissionRepository,
	templates repository.TemplateRepository,
	payments *queue.PaymentQueue,
	mail mailer.Mailer,
	logger *zap.Logger,
) *SubmissionService {
	return &SubmissionService{
		submissions: submissions,
		templates:   templates,
		payments:    payments,
		mail:        mail,
		logger:      logger,
	}
}

// Create instantiates a workflow from a template, assigns each signer an
// access slug, and sends invitation emails in the background.
func (s *SubmissionService) Create(ctx context.Context, accountID string, req domain.CreateSubmissionRequest) (*domain.Submission, []*domain.Submitter, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	tmpl, err := s.templates.GetByID(ctx, accountID, req.TemplateID)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	sub := &domain.Submission{
		ID:         uuid.New().String(),
		AccountID:  accountID,
		TemplateID: tmpl.ID,
		Status:     domain.SubmissionPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	submitters := make([]*domain.Submitter, 0, len(req.Submitters))
	for _, r := range req.Submitters {
		submitters = append(submitters, &domain.Submitter{
			ID:           uuid.New().String(),
			SubmissionID: sub.ID,
			AccountID:    accountID,
			Email:        r.Email,
			Name:         r.Name,
			Slug:         uuid.New().String(),
			Status:       domain.SubmitterPending,
			Reminders:    req.Reminders,
			CreatedAt:    now,
		})
	}

	if err := s.submissions.CreateWithSubmitters(ctx, sub, submitters); err != nil {
		return nil, nil, err
	}

	s.logger.Info("submission created",
		zap.String("submission_id", sub.ID),
		zap.String("account_id", accountID),
		zap.Int("submitters", len(submitters)))

	// Invitations go out asynchronously; a delivery failure must not fail
	// the create call.
	go func(name string, subs []*domain.Submitter) {
		sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		for _, sm := range subs {
			if err := s.mail.SendInvitation(sendCtx, sm, name); err != nil {
				s.logger.Warn("invitation email failed",
					zap.String("submitter_id", sm.ID), zap.Error(err))
			}
		}
	}(tmpl.Name, submitters)

	return sub, submitters, nil
}

func (s *SubmissionService) Get(ctx context.Context, accountID, id string) (*domain.Submission, []*domain.Submitter, error) {
	return s.submissions.GetByID(ctx, accountID, id)
}

func (s *SubmissionService) List(ctx context.Context, accountID string, f domain.SubmissionFilter) ([]*domain.Submission, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	return s.submissions.List(ctx, accountID, f)
}

func (s *SubmissionService) Archive(ctx context.Context, accountID, id string) error {
	return s.submissions.Archive(ctx, accountID, id)
}

// OpenBySlug resolves a signer link and records the first open. The status
// transition only applies to pending submitters; later opens are reads.
func (s *SubmissionService) OpenBySlug(ctx context.Context, slug string) (*domain.Submitter, error) {
	sub, err := s.submissions.GetSubmitterBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if sub.Status == domain.SubmitterPending {
		if err := s.submissions.MarkSubmitterOpened(ctx, sub.ID); err != nil {
			return nil, err
		}
		sub.Status = domain.SubmitterOpened
	}
	return sub, nil
}

// Complete finalizes one signer and enqueues the usage charge. The enqueue
// always succeeds; persistence happens later in the batch processor.
func (s *SubmissionService) Complete(ctx context.Context, slug string) (*domain.Submitter, error) {
	sub, err := s.submissions.GetSubmitterBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	switch sub.Status {
	case domain.SubmitterCompleted:
		return nil, domain.ErrAlreadyCompleted
	case domain.SubmitterDeclined:
		return nil, domain.ErrAlreadyDeclined
	}

	now := time.Now().UTC()
	if err := s.submissions.CompleteSubmitter(ctx, sub.ID, now); err != nil {
		return nil, err
	}
	sub.Status = domain.SubmitterCompleted
	sub.CompletedAt = &now

	s.payments.Enqueue(domain.Payment{
		AccountID:    sub.AccountID,
		SubmissionID: sub.SubmissionID,
		Kind:         domain.PaymentSignatureCompleted,
		AmountCents:  signatureFeeCents,
		Currency:     "usd",
		OccurredAt:   now,
	})

	s.logger.Info("signature completed",
		zap.String("submitter_id", sub.ID),
		zap.String("submission_id", sub.SubmissionID))
	return sub, nil
}

// Decline marks one signer as declined. Declined submitters are terminal and
// drop out of the reminder sequence.
func (s *SubmissionService) Decline(ctx context.Context, slug string) (*domain.Submitter, error) {
	sub, err := s.submissions.GetSubmitterBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	switch sub.Status {
	case domain.SubmitterCompleted:
		return nil, domain.ErrAlreadyCompleted
	case domain.SubmitterDeclined:
		return nil, domain.ErrAlreadyDeclined
	}

	if err := s.submissions.DeclineSubmitter(ctx, sub.ID); err != nil {
		return nil, err
	}
	sub.Status = domain.SubmitterDeclined
	return sub, nil
}
