package service

import (
	"context"
	"strings"
	"time"

	"github.com/bookhive/lending-service/internal/catalog"
	"github.com/bookhive/lending-service/internal/errs"
	"github.com/bookhive/lending-service/internal/model"
	"github.com/bookhive/lending-service/internal/repository"
	"github.com/bookhive/lending-service/pkg/kafka"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// LoanPeriodDays is both the initial borrowing period and the
	// extension granted by a renewal.
	LoanPeriodDays = 14

	// FinePerDay is charged per started day overdue on return.
	FinePerDay = 10
)

// Enqueuer publishes messages to the broker. Nil-able in tests.
type Enqueuer interface {
	Enqueue(topic string, v any) error
}

// LoanService is the loan ledger: the only writer of loan rows and of
// lending-driven book status changes.
type LoanService struct {
	log    *zap.Logger
	loans  repository.LoanRepository
	users  repository.UserRepository
	books  catalog.Store
	events Enqueuer
}

func NewLoanService(loans repository.LoanRepository, users repository.UserRepository, books catalog.Store, events Enqueuer, log *zap.Logger) *LoanService {
	return &LoanService{
		log:    log,
		loans:  loans,
		users:  users,
		books:  books,
		events: events,
	}
}

// Borrow creates a loan for (user, book) and flips the book to borrowed.
// The catalog write is ordered strictly after the loan insert; if the
// guarded catalog update loses a race the loan is rolled back, so a failed
// borrow never leaves either store modified.
func (s *LoanService) Borrow(ctx context.Context, req model.CreateLoanRequest) (model.CreateLoanResponse, error) {
	user, err := s.users.GetByUid(ctx, req.UserUid)
	if err != nil {
		return model.CreateLoanResponse{}, err
	}
	if !user.IsActive {
		return model.CreateLoanResponse{}, errs.ErrUserInactive
	}

	book, err := s.books.Get(ctx, req.BookUid)
	if err != nil {
		return model.CreateLoanResponse{}, err
	}
	if book.Status != model.BookStatusAvailable {
		return model.CreateLoanResponse{}, errors.Wrapf(errs.ErrBookNotAvailable, "status %q", book.Status)
	}

	now := time.Now().UTC()
	due := now.AddDate(0, 0, LoanPeriodDays)
	if req.DueDate != nil {
		due = req.DueDate.UTC()
	}

	loan, err := s.loans.CreateLoan(ctx, model.Loan{
		LoanUid:      uuid.NewString(),
		UserID:       user.ID,
		BookUid:      book.BookUid,
		BookTitle:    book.Title,
		BookAuthor:   strings.Join(book.Authors, ", "),
		BookISBN:     book.ISBN,
		Status:       model.LoanStatusActive,
		BorrowedDate: now,
		DueDate:      due,
		MaxRenewals:  model.DefaultMaxRenewals,
	})
	if err != nil {
		return model.CreateLoanResponse{}, err
	}
	loan.UserUid = user.UserUid

	updated, err := s.books.BorrowCAS(ctx, book.BookUid)
	if err != nil {
		// concurrent borrow won between the availability check and the
		// guarded update: compensate by removing the loan again
		if delErr := s.loans.DeleteLoan(ctx, loan.LoanUid); delErr != nil {
			s.log.Warn("borrow rollback", zap.String("loanUid", loan.LoanUid), zap.Error(delErr))
		}
		return model.CreateLoanResponse{}, err
	}

	s.publish(model.LoanEventBorrowed, loan)

	return model.CreateLoanResponse{Loan: loan, Book: updated}, nil
}

// Return closes the matching live loan and puts the book back to available.
// A second return finds no live loan and fails with not-found.
func (s *LoanService) Return(ctx context.Context, loanUid, userUid string) (model.Loan, error) {
	user, err := s.users.GetByUid(ctx, userUid)
	if err != nil {
		return model.Loan{}, err
	}

	loan, err := s.loans.Return(ctx, loanUid, user.ID, FinePerDay)
	if err != nil {
		return model.Loan{}, err
	}
	loan.UserUid = user.UserUid

	if err := s.books.SetStatus(ctx, loan.BookUid, model.BookStatusAvailable); err != nil {
		s.log.Warn("book release deferred", zap.String("bookUid", loan.BookUid), zap.Error(err))
		s.enqueueRelease(loan.BookUid)
	}

	s.publish(model.LoanEventReturned, loan)

	return loan, nil
}

// Renew extends the due date by LoanPeriodDays from the current due date.
// Allowed while the loan is active or renewed and under its renewal cap.
func (s *LoanService) Renew(ctx context.Context, loanUid, userUid string) (model.Loan, error) {
	user, err := s.users.GetByUid(ctx, userUid)
	if err != nil {
		return model.Loan{}, err
	}

	loan, err := s.loans.Renew(ctx, loanUid, user.ID, LoanPeriodDays)
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			return model.Loan{}, err
		}
		// no row matched: either the loan does not exist for this user or
		// it is out of renewals / already closed
		if _, getErr := s.loans.GetByUid(ctx, loanUid, user.ID); getErr != nil {
			return model.Loan{}, getErr
		}
		return model.Loan{}, errs.ErrRenewNotAllowed
	}
	loan.UserUid = user.UserUid

	s.publish(model.LoanEventRenewed, loan)

	return loan, nil
}

func (s *LoanService) ListLoans(ctx context.Context) ([]model.LoanWithUser, error) {
	return s.loans.ListLoans(ctx)
}

func (s *LoanService) ListOverdue(ctx context.Context) ([]model.LoanWithUser, error) {
	return s.loans.ListOverdue(ctx)
}

// ListUserLoans returns the user's live loans, each enriched with its catalog
// document. Book lookups fan out concurrently; a vanished document leaves the
// loan's Book nil instead of failing the listing.
func (s *LoanService) ListUserLoans(ctx context.Context, userUid string) ([]model.UserLoan, error) {
	user, err := s.users.GetByUid(ctx, userUid)
	if err != nil {
		return nil, err
	}

	live, err := s.loans.ListUserLive(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	items := make([]model.UserLoan, len(live))
	gg, ctx := errgroup.WithContext(ctx)
	for i, loan := range live {
		i, loan := i, loan
		gg.Go(func() error {
			items[i].Loan = loan
			book, err := s.books.Get(ctx, loan.BookUid)
			if err != nil {
				if errors.Is(err, errs.ErrBookNotFound) {
					return nil
				}
				return err
			}
			items[i].Book = &book
			return nil
		})
	}
	if err := gg.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *LoanService) publish(eventType string, loan model.Loan) {
	if s.events == nil {
		return
	}
	event := model.LoanEvent{
		Type:       eventType,
		LoanUid:    loan.LoanUid,
		BookUid:    loan.BookUid,
		UserUid:    loan.UserUid,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.Enqueue(kafka.LoanEventsTopic, event); err != nil {
		s.log.Warn("publish loan event", zap.String("type", eventType), zap.Error(err))
	}
}

func (s *LoanService) enqueueRelease(bookUid string) {
	if s.events == nil {
		return
	}
	msg := model.SetBookStatus{BookUid: bookUid, Status: model.BookStatusAvailable}
	if err := s.events.Enqueue(kafka.CatalogTopic, msg); err != nil {
		s.log.Warn("enqueue book release", zap.String("bookUid", bookUid), zap.Error(err))
	}
}
