package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bookhive/lending-service/internal/errs"
	"github.com/bookhive/lending-service/internal/model"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type LoanRepository interface {
	CreateLoan(ctx context.Context, loan model.Loan) (model.Loan, error)
	DeleteLoan(ctx context.Context, loanUid string) error
	GetByUid(ctx context.Context, loanUid string, userID int) (model.Loan, error)
	ListLoans(ctx context.Context) ([]model.LoanWithUser, error)
	ListUserLive(ctx context.Context, userID int) ([]model.Loan, error)
	ListOverdue(ctx context.Context) ([]model.LoanWithUser, error)
	HasLiveForBook(ctx context.Context, bookUid string) (bool, error)
	Return(ctx context.Context, loanUid string, userID int, finePerDay float64) (model.Loan, error)
	Renew(ctx context.Context, loanUid string, userID, extendDays int) (model.Loan, error)
}

type loanRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewLoanRepository(db *sqlx.DB, log *zap.Logger) (*loanRepository, error) {
	return &loanRepository{
		db:  db,
		log: log.Named("loan-repo"),
	}, nil
}

func (r *loanRepository) CreateLoan(ctx context.Context, loan model.Loan) (model.Loan, error) {
	q, args, err := qb.Insert(loansTableName).
		Columns("loan_uid", "user_id", "book_uid", "book_title", "book_author", "book_isbn",
			"status", "borrowed_date", "due_date", "max_renewals").
		Values(loan.LoanUid, loan.UserID, loan.BookUid, loan.BookTitle, loan.BookAuthor, loan.BookISBN,
			loan.Status, loan.BorrowedDate, loan.DueDate, loan.MaxRenewals).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Loan{}, err
	}

	var created model.Loan
	if err := r.db.GetContext(ctx, &created, q, args...); err != nil {
		if isUniqueViolation(err) {
			return model.Loan{}, errs.ErrLoanExists
		}
		r.log.Error("CreateLoan", zap.String("q", q), zap.Error(err))
		return model.Loan{}, err
	}
	return created, nil
}

// DeleteLoan removes a loan created by a borrow whose catalog write lost the
// race. It is the only path that physically deletes a loan row.
func (r *loanRepository) DeleteLoan(ctx context.Context, loanUid string) error {
	q, args, err := qb.Delete(loansTableName).
		Where(sq.Eq{"loan_uid": loanUid}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	return err
}

func (r *loanRepository) GetByUid(ctx context.Context, loanUid string, userID int) (model.Loan, error) {
	q, args, err := qb.Select("l.*", "u.user_uid").
		From(loansTableName + " l").
		Join(fmt.Sprintf("%s u on u.id = l.user_id", usersTableName)).
		Where(sq.Eq{"loan_uid": loanUid}).
		Where(sq.Eq{"user_id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Loan{}, err
	}

	var loan model.Loan
	if err := r.db.GetContext(ctx, &loan, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Loan{}, errs.ErrLoanNotFound
		}
		return model.Loan{}, err
	}
	return loan, nil
}

func (r *loanRepository) ListLoans(ctx context.Context) ([]model.LoanWithUser, error) {
	q, args, err := qb.Select("l.*", "u.user_uid", "u.username", "u.email").
		From(loansTableName + " l").
		Join(fmt.Sprintf("%s u on u.id = l.user_id", usersTableName)).
		OrderBy("l.borrowed_date desc").
		ToSql()
	if err != nil {
		return nil, err
	}

	var loans []model.LoanWithUser
	if err := r.db.SelectContext(ctx, &loans, q, args...); err != nil {
		return nil, err
	}
	return loans, nil
}

func (r *loanRepository) ListUserLive(ctx context.Context, userID int) ([]model.Loan, error) {
	q, args, err := qb.Select("l.*", "u.user_uid").
		From(loansTableName + " l").
		Join(fmt.Sprintf("%s u on u.id = l.user_id", usersTableName)).
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Eq{"status": []model.LoanStatus{model.LoanStatusActive, model.LoanStatusRenewed}}).
		OrderBy("l.due_date").
		ToSql()
	if err != nil {
		return nil, err
	}

	var loans []model.Loan
	if err := r.db.SelectContext(ctx, &loans, q, args...); err != nil {
		return nil, err
	}
	return loans, nil
}

func (r *loanRepository) ListOverdue(ctx context.Context) ([]model.LoanWithUser, error) {
	q, args, err := qb.Select("l.*", "u.user_uid", "u.username", "u.email").
		From(loansTableName + " l").
		Join(fmt.Sprintf("%s u on u.id = l.user_id", usersTableName)).
		Where(sq.Eq{"status": []model.LoanStatus{model.LoanStatusActive, model.LoanStatusRenewed}}).
		Where("due_date < now()").
		OrderBy("l.due_date").
		ToSql()
	if err != nil {
		return nil, err
	}

	var loans []model.LoanWithUser
	if err := r.db.SelectContext(ctx, &loans, q, args...); err != nil {
		return nil, err
	}
	return loans, nil
}

func (r *loanRepository) HasLiveForBook(ctx context.Context, bookUid string) (bool, error) {
	q := `
	select exists(
		select 1 from loans
		where book_uid = $1 and status in ('active', 'renewed'))`

	var exists bool
	if err := r.db.QueryRowContext(ctx, q, bookUid).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *loanRepository) Return(ctx context.Context, loanUid string, userID int, finePerDay float64) (model.Loan, error) {
	q := `
	update loans
	set status = 'returned',
	    returned_date = now(),
	    late_fees = case when now() > due_date
	        then greatest(1, ceil(extract(epoch from now() - due_date) / 86400)) * $3
	        else 0 end
	where loan_uid = $1 and user_id = $2 and status in ('active', 'renewed')
	returning *`

	var loan model.Loan
	if err := r.db.GetContext(ctx, &loan, q, loanUid, userID, finePerDay); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Loan{}, errs.ErrLoanNotFound
		}
		return model.Loan{}, err
	}
	return loan, nil
}

func (r *loanRepository) Renew(ctx context.Context, loanUid string, userID, extendDays int) (model.Loan, error) {
	q := `
	update loans
	set status = 'renewed',
	    renewal_count = renewal_count + 1,
	    due_date = due_date + make_interval(days => $3)
	where loan_uid = $1 and user_id = $2
	  and status in ('active', 'renewed')
	  and renewal_count < max_renewals
	returning *`

	var loan model.Loan
	if err := r.db.GetContext(ctx, &loan, q, loanUid, userID, extendDays); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Loan{}, errs.ErrNotFound
		}
		return model.Loan{}, err
	}
	return loan, nil
}
