package service

import (
	"context"
	"time"

	"github.com/bookhive/lending-service/internal/catalog"
	"github.com/bookhive/lending-service/internal/errs"
	"github.com/bookhive/lending-service/internal/model"
	"github.com/bookhive/lending-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CatalogService struct {
	log   *zap.Logger
	books catalog.Store
	loans repository.LoanRepository
}

func NewCatalogService(books catalog.Store, loans repository.LoanRepository, log *zap.Logger) *CatalogService {
	return &CatalogService{
		log:   log,
		books: books,
		loans: loans,
	}
}

// CreateBook registers a new catalog document. Derived fields are computed
// here, before persistence, instead of in store hooks.
func (s *CatalogService) CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error) {
	acquired := time.Now().UTC()
	if req.AcquisitionDate != nil {
		acquired = req.AcquisitionDate.UTC()
	}
	condition := req.Condition
	if condition == "" {
		condition = model.BookConditionGood
	}

	return s.books.Insert(ctx, model.Book{
		BookUid:         uuid.NewString(),
		Title:           req.Title,
		Authors:         req.Authors,
		ISBN:            req.ISBN,
		Status:          model.BookStatusAvailable,
		Location:        req.Location,
		AcquisitionDate: acquired,
		Condition:       condition,
	})
}

func (s *CatalogService) GetBook(ctx context.Context, bookUid string) (model.Book, error) {
	return s.books.Get(ctx, bookUid)
}

func (s *CatalogService) ListBooks(ctx context.Context, status model.BookStatus, page, size int) (model.ListBooks, error) {
	return s.books.List(ctx, status, page, size)
}

// UpdateBook applies a librarian edit to the document, status included.
func (s *CatalogService) UpdateBook(ctx context.Context, bookUid string, req model.UpdateBookRequest) (model.Book, error) {
	book, err := s.books.Get(ctx, bookUid)
	if err != nil {
		return model.Book{}, err
	}

	if req.Title != nil {
		book.Title = *req.Title
	}
	if len(req.Authors) > 0 {
		book.Authors = req.Authors
	}
	if req.ISBN != nil {
		book.ISBN = *req.ISBN
	}
	if req.Status != nil {
		book.Status = *req.Status
	}
	if req.Location != nil {
		book.Location = *req.Location
	}
	if req.Condition != nil {
		book.Condition = *req.Condition
	}

	if err := s.books.Replace(ctx, book); err != nil {
		return model.Book{}, err
	}
	return book, nil
}

// DeleteBook refuses to remove a document that a live loan still references.
func (s *CatalogService) DeleteBook(ctx context.Context, bookUid string) error {
	onLoan, err := s.loans.HasLiveForBook(ctx, bookUid)
	if err != nil {
		return err
	}
	if onLoan {
		return errs.ErrBookOnLoan
	}
	return s.books.Delete(ctx, bookUid)
}

// SetBookStatus re-applies a deferred availability write from the broker.
func (s *CatalogService) SetBookStatus(ctx context.Context, bookUid string, status model.BookStatus) error {
	return s.books.SetStatus(ctx, bookUid, status)
}
