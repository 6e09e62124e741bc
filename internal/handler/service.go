package handler

import (
	"context"

	"github.com/bookhive/lending-service/internal/model"
	"github.com/bookhive/lending-service/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type LoanService interface {
	Borrow(ctx context.Context, req model.CreateLoanRequest) (model.CreateLoanResponse, error)
	Return(ctx context.Context, loanUid, userUid string) (model.Loan, error)
	Renew(ctx context.Context, loanUid, userUid string) (model.Loan, error)
	ListLoans(ctx context.Context) ([]model.LoanWithUser, error)
	ListOverdue(ctx context.Context) ([]model.LoanWithUser, error)
	ListUserLoans(ctx context.Context, userUid string) ([]model.UserLoan, error)
}

type CatalogService interface {
	CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error)
	GetBook(ctx context.Context, bookUid string) (model.Book, error)
	ListBooks(ctx context.Context, status model.BookStatus, page, size int) (model.ListBooks, error)
	UpdateBook(ctx context.Context, bookUid string, req model.UpdateBookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, bookUid string) error
	SetBookStatus(ctx context.Context, bookUid string, status model.BookStatus) error
}

type IdentityService interface {
	Register(ctx context.Context, req model.RegisterRequest) (model.User, error)
	Login(ctx context.Context, req model.AuthRequest) (model.AuthResponse, error)
	GetUser(ctx context.Context, userUid string) (model.User, error)
}

var (
	_ LoanService     = (*service.LoanService)(nil)
	_ CatalogService  = (*service.CatalogService)(nil)
	_ IdentityService = (*service.IdentityService)(nil)
)
