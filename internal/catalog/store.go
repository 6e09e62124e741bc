// Package catalog is the book document store. Books are kept as whole jsonb
// documents in the book_documents collection, keyed by book_uid, so the
// catalog stays schemaless while users and loans live in relational tables.
package catalog

import (
	"context"
	"database/sql"

	"github.com/bookhive/lending-service/internal/errs"
	"github.com/bookhive/lending-service/internal/model"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Store interface {
	Insert(ctx context.Context, book model.Book) (model.Book, error)
	Get(ctx context.Context, bookUid string) (model.Book, error)
	List(ctx context.Context, status model.BookStatus, page, size int) (model.ListBooks, error)
	Replace(ctx context.Context, book model.Book) error
	BorrowCAS(ctx context.Context, bookUid string) (model.Book, error)
	SetStatus(ctx context.Context, bookUid string, status model.BookStatus) error
	Delete(ctx context.Context, bookUid string) error
}

const bookTableName = "book_documents"

var (
	dialect = goqu.Dialect("postgres")
	json    = jsoniter.ConfigCompatibleWithStandardLibrary
)

type store struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewStore(db *sqlx.DB, log *zap.Logger) (*store, error) {
	return &store{
		db:  db,
		log: log.Named("catalog"),
	}, nil
}

func (s *store) Insert(ctx context.Context, book model.Book) (model.Book, error) {
	doc, err := json.Marshal(book)
	if err != nil {
		return model.Book{}, errors.Wrap(err, "marshal book doc")
	}

	q, args, err := dialect.Insert(bookTableName).
		Rows(goqu.Record{
			"book_uid": book.BookUid,
			"doc":      goqu.L("?::jsonb", string(doc)),
		}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return model.Book{}, err
	}

	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		s.log.Error("Insert", zap.String("q", q), zap.Error(err))
		return model.Book{}, err
	}
	return book, nil
}

func (s *store) Get(ctx context.Context, bookUid string) (model.Book, error) {
	q, args, err := dialect.From(bookTableName).
		Select("doc").
		Where(goqu.C("book_uid").Eq(bookUid)).
		Limit(1).
		Prepared(true).
		ToSQL()
	if err != nil {
		return model.Book{}, err
	}

	var doc []byte
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrBookNotFound
		}
		return model.Book{}, err
	}
	return unmarshalBook(doc)
}

func (s *store) List(ctx context.Context, status model.BookStatus, page, size int) (model.ListBooks, error) {
	ds := dialect.From(bookTableName).
		Select("doc").
		Order(goqu.L("doc ->> 'title'").Asc())

	if status != "" {
		ds = ds.Where(goqu.L("doc ->> 'status'").Eq(string(status)))
	}
	if page != 0 && size != 0 {
		ds = ds.Limit(uint(size)).Offset(uint((page - 1) * size))
	}

	q, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return model.ListBooks{}, err
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return model.ListBooks{}, err
	}
	defer rows.Close() //nolint:errcheck

	books := make([]model.Book, 0)
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return model.ListBooks{}, err
		}
		book, err := unmarshalBook(doc)
		if err != nil {
			return model.ListBooks{}, err
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return model.ListBooks{}, err
	}

	return model.ListBooks{
		Paging: model.Paging{
			Page:          page,
			PageSize:      size,
			TotalElements: len(books),
		},
		Items: books,
	}, nil
}

func (s *store) Replace(ctx context.Context, book model.Book) error {
	doc, err := json.Marshal(book)
	if err != nil {
		return errors.Wrap(err, "marshal book doc")
	}

	q, args, err := dialect.Update(bookTableName).
		Set(goqu.Record{
			"doc":        goqu.L("?::jsonb", string(doc)),
			"updated_at": goqu.L("now()"),
		}).
		Where(goqu.C("book_uid").Eq(book.BookUid)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.ErrBookNotFound
	}
	return nil
}

// BorrowCAS flips an available book to borrowed and bumps totalBorrows in a
// single guarded update. Zero rows means a concurrent borrow already took the
// copy; the caller treats that as the conflict signal.
func (s *store) BorrowCAS(ctx context.Context, bookUid string) (model.Book, error) {
	q, args, err := dialect.Update(bookTableName).
		Set(goqu.Record{
			"doc": goqu.L(
				"jsonb_set(doc || ?::jsonb, '{totalBorrows}', to_jsonb(coalesce((doc ->> 'totalBorrows')::int, 0) + 1))",
				statusPatch(model.BookStatusBorrowed)),
			"updated_at": goqu.L("now()"),
		}).
		Where(
			goqu.C("book_uid").Eq(bookUid),
			goqu.L("doc ->> 'status'").Eq(string(model.BookStatusAvailable)),
		).
		Returning("doc").
		Prepared(true).
		ToSQL()
	if err != nil {
		return model.Book{}, err
	}

	var doc []byte
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrBookNotAvailable
		}
		s.log.Error("BorrowCAS", zap.String("q", q), zap.Error(err))
		return model.Book{}, err
	}
	return unmarshalBook(doc)
}

func (s *store) SetStatus(ctx context.Context, bookUid string, status model.BookStatus) error {
	q, args, err := dialect.Update(bookTableName).
		Set(goqu.Record{
			"doc":        goqu.L("doc || ?::jsonb", statusPatch(status)),
			"updated_at": goqu.L("now()"),
		}).
		Where(goqu.C("book_uid").Eq(bookUid)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.ErrBookNotFound
	}
	return nil
}

func (s *store) Delete(ctx context.Context, bookUid string) error {
	q, args, err := dialect.Delete(bookTableName).
		Where(goqu.C("book_uid").Eq(bookUid)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.ErrBookNotFound
	}
	return nil
}

func statusPatch(status model.BookStatus) string {
	patch, _ := json.Marshal(map[string]model.BookStatus{"status": status}) //nolint:errcheck
	return string(patch)
}

func unmarshalBook(doc []byte) (model.Book, error) {
	var book model.Book
	if err := json.Unmarshal(doc, &book); err != nil {
		return model.Book{}, errors.Wrap(err, "unmarshal book doc")
	}
	return book, nil
}
