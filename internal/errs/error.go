package errs

import (
	"errors"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrUserInactive     = errors.New("user is not active")
	ErrBookNotFound     = errors.New("book not found")
	ErrLoanNotFound     = errors.New("loan not found")
	ErrBookNotAvailable = errors.New("book is not available")
	ErrLoanExists       = errors.New("user already has an active loan for this book")
	ErrRenewNotAllowed  = errors.New("renewal limit reached or loan is not active")
	ErrBookOnLoan       = errors.New("book has an active loan")
	ErrUserExists       = errors.New("username or email already taken")
	ErrBadCredentials   = errors.New("invalid credentials")
)
