package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sealdesk/sealdesk/internal/domain"
	"github.com/sealdesk/sealdesk/internal/queue"
	"github.com/sealdesk/sealdesk/internal/repository"
	"github.com/sealdesk/sealdesk/internal/service"
)

const testAccount = "acc-1"

type submissionFixture struct {
	svc  *service.SubmissionService
	subs *repository.MockSubmissionRepository
	tmpl *domain.Template
	q    *queue.PaymentQueue
	mail *mockMailer
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	t.Helper()

	templates := repository.NewMockTemplateRepository()
	tmpl := &domain.Template{
		ID:        "tpl-1",
		AccountID: testAccount,
		Name:      "NDA",
		CreatedAt: time.Now().UTC(),
	}
	if err := templates.Create(context.Background(), tmpl); err != nil {
		t.Fatalf("seed template: %v", err)
	}

	subs := repository.NewMockSubmissionRepository()
	q := queue.New()
	mail := newMockMailer()
	svc := service.NewSubmissionService(subs, templates, q, mail, zap.NewNop())
	return &submissionFixture{svc: svc, subs: subs, tmpl: tmpl, q: q, mail: mail}
}

func waitForInvitations(t *testing.T, m *mockMailer, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if m.invitationCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("invitation count = %d, want %d", m.invitationCount(), want)
}

func TestSubmissionService_Create(t *testing.T) {
	f := newSubmissionFixture(t)

	sub, submitters, err := f.svc.Create(context.Background(), testAccount, domain.CreateSubmissionRequest{
		TemplateID: f.tmpl.ID,
		Submitters: []domain.NewSubmitterRequest{
			{Email: "a@example.com", Name: "A"},
			{Email: "b@example.com", Name: "B"},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sub.Status != domain.SubmissionPending {
		t.Fatalf("status = %s, want pending", sub.Status)
	}
	if len(submitters) != 2 {
		t.Fatalf("submitters = %d, want 2", len(submitters))
	}
	if submitters[0].Slug == "" || submitters[0].Slug == submitters[1].Slug {
		t.Fatal("submitter slugs must be unique and non-empty")
	}
	for _, sm := range submitters {
		if sm.AccountID != testAccount {
			t.Fatalf("submitter account = %s, want %s", sm.AccountID, testAccount)
		}
	}

	waitForInvitations(t, f.mail, 2)
}

func TestSubmissionService_CreateUnknownTemplate(t *testing.T) {
	f := newSubmissionFixture(t)

	_, _, err := f.svc.Create(context.Background(), testAccount, domain.CreateSubmissionRequest{
		TemplateID: "tpl-missing",
		Submitters: []domain.NewSubmitterRequest{{Email: "a@example.com", Name: "A"}},
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSubmissionService_CreateValidation(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Create(ctx, testAccount, domain.CreateSubmissionRequest{TemplateID: f.tmpl.ID})
	if !errors.Is(err, domain.ErrNoSubmitters) {
		t.Fatalf("empty submitters: err = %v, want ErrNoSubmitters", err)
	}

	many := make([]domain.NewSubmitterRequest, 51)
	for i := range many {
		many[i] = domain.NewSubmitterRequest{Email: "a@example.com", Name: "A"}
	}
	_, _, err = f.svc.Create(ctx, testAccount, domain.CreateSubmissionRequest{
		TemplateID: f.tmpl.ID, Submitters: many,
	})
	if !errors.Is(err, domain.ErrTooManySubmitters) {
		t.Fatalf("51 submitters: err = %v, want ErrTooManySubmitters", err)
	}
}

func TestSubmissionService_InvitationFailureDoesNotFailCreate(t *testing.T) {
	f := newSubmissionFixture(t)
	f.mail.sendErr = errors.New("smtp down")

	_, _, err := f.svc.Create(context.Background(), testAccount, domain.CreateSubmissionRequest{
		TemplateID: f.tmpl.ID,
		Submitters: []domain.NewSubmitterRequest{{Email: "a@example.com", Name: "A"}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestSubmissionService_OpenBySlug(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	_, submitters, err := f.svc.Create(ctx, testAccount, domain.CreateSubmissionRequest{
		TemplateID: f.tmpl.ID,
		Submitters: []domain.NewSubmitterRequest{{Email: "a@example.com", Name: "A"}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	opened, err := f.svc.OpenBySlug(ctx, submitters[0].Slug)
	if err != nil {
		t.Fatalf("OpenBySlug: %v", err)
	}
	if opened.Status != domain.SubmitterOpened {
		t.Fatalf("status = %s, want opened", opened.Status)
	}

	if _, err := f.svc.OpenBySlug(ctx, "no-such-slug"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown slug: err = %v, want ErrNotFound", err)
	}
}

func TestSubmissionService_CompleteEnqueuesPayment(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	sub, submitters, err := f.svc.Create(ctx, testAccount, domain.CreateSubmissionRequest{
		TemplateID: f.tmpl.ID,
		Submitters: []domain.NewSubmitterRequest{{Email: "a@example.com", Name: "A"}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	done, err := f.svc.Complete(ctx, submitters[0].Slug)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.Status != domain.SubmitterCompleted || done.CompletedAt == nil {
		t.Fatalf("submitter = %+v, want completed with timestamp", done)
	}

	if f.q.Len() != 1 {
		t.Fatalf("queue length = %d, want 1", f.q.Len())
	}
	batch := f.q.DrainBatch(1)
	p := batch[0]
	if p.Kind != domain.PaymentSignatureCompleted {
		t.Fatalf("payment kind = %s, want signature_completed", p.Kind)
	}
	if p.AccountID != testAccount || p.SubmissionID != sub.ID {
		t.Fatalf("payment attribution = %+v", p)
	}
	if p.AmountCents <= 0 || p.Currency == "" {
		t.Fatalf("payment amount = %d %s", p.AmountCents, p.Currency)
	}
}

func TestSubmissionService_CompleteTerminalStates(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	_, submitters, err := f.svc.Create(ctx, testAccount, domain.CreateSubmissionRequest{
		TemplateID: f.tmpl.ID,
		Submitters: []domain.NewSubmitterRequest{
			{Email: "a@example.com", Name: "A"},
			{Email: "b@example.com", Name: "B"},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := f.svc.Complete(ctx, submitters[0].Slug); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if _, err := f.svc.Complete(ctx, submitters[0].Slug); !errors.Is(err, domain.ErrAlreadyCompleted) {
		t.Fatalf("second Complete: err = %v, want ErrAlreadyCompleted", err)
	}
	if _, err := f.svc.Decline(ctx, submitters[0].Slug); !errors.Is(err, domain.ErrAlreadyCompleted) {
		t.Fatalf("Decline after Complete: err = %v, want ErrAlreadyCompleted", err)
	}

	if _, err := f.svc.Decline(ctx, submitters[1].Slug); err != nil {
		t.Fatalf("Decline: %v", err)
	}
	if _, err := f.svc.Complete(ctx, submitters[1].Slug); !errors.Is(err, domain.ErrAlreadyDeclined) {
		t.Fatalf("Complete after Decline: err = %v, want ErrAlreadyDeclined", err)
	}

	// Only the one successful completion produced a charge.
	if f.q.Len() != 1 {
		t.Fatalf("queue length = %d, want 1", f.q.Len())
	}
}

// TestSubmissionService_ConcurrentCompleteChargesOnce races several completes
// for a single signer. The repository's status guard lets exactly one
// transition through, so exactly one charge lands on the queue.
func TestSubmissionService_ConcurrentCompleteChargesOnce(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	_, submitters, err := f.svc.Create(ctx, testAccount, domain.CreateSubmissionRequest{
		TemplateID: f.tmpl.ID,
		Submitters: []domain.NewSubmitterRequest{{Email: "a@example.com", Name: "A"}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	slug := submitters[0].Slug

	const racers = 8
	errs := make(chan error, racers)
	var wg sync.WaitGroup
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func() {
			defer wg.Done()
			_, err := f.svc.Complete(ctx, slug)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	completed := 0
	for err := range errs {
		switch {
		case err == nil:
			completed++
		case errors.Is(err, domain.ErrAlreadyCompleted):
		default:
			t.Fatalf("Complete: %v", err)
		}
	}
	if completed != 1 {
		t.Fatalf("%d completes succeeded, want exactly 1", completed)
	}
	if f.q.Len() != 1 {
		t.Fatalf("queue length = %d, want 1", f.q.Len())
	}
}

func TestSubmissionService_CompletingAllSubmittersCompletesSubmission(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	sub, submitters, err := f.svc.Create(ctx, testAccount, domain.CreateSubmissionRequest{
		TemplateID: f.tmpl.ID,
		Submitters: []domain.NewSubmitterRequest{
			{Email: "a@example.com", Name: "A"},
			{Email: "b@example.com", Name: "B"},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, sm := range submitters {
		if _, err := f.svc.Complete(ctx, sm.Slug); err != nil {
			t.Fatalf("Complete %s: %v", sm.ID, err)
		}
	}

	got, _, err := f.svc.Get(ctx, testAccount, sub.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.SubmissionCompleted {
		t.Fatalf("submission status = %s, want completed", got.Status)
	}
}

func TestSubmissionService_Archive(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	sub, _, err := f.svc.Create(ctx, testAccount, domain.CreateSubmissionRequest{
		TemplateID: f.tmpl.ID,
		Submitters: []domain.NewSubmitterRequest{{Email: "a@example.com", Name: "A"}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := f.svc.Archive(ctx, testAccount, sub.ID); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	got, _, err := f.svc.Get(ctx, testAccount, sub.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.SubmissionArchived {
		t.Fatalf("status = %s, want archived", got.Status)
	}

	// Cross-tenant access is indistinguishable from absence.
	if err := f.svc.Archive(ctx, "acc-other", sub.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("cross-tenant Archive: err = %v, want ErrNotFound", err)
	}
}
