package model

import (
	"time"
)

type BookStatus string

const (
	BookStatusAvailable   BookStatus = "available"
	BookStatusBorrowed    BookStatus = "borrowed"
	BookStatusReserved    BookStatus = "reserved"
	BookStatusDamaged     BookStatus = "damaged"
	BookStatusLost        BookStatus = "lost"
	BookStatusMaintenance BookStatus = "maintenance"
)

type BookCondition string

const (
	BookConditionNew  BookCondition = "new"
	BookConditionGood BookCondition = "good"
	BookConditionWorn BookCondition = "worn"
	BookConditionPoor BookCondition = "poor"
)

// Book is the catalog document. It is stored as a whole in the
// book_documents collection; only the Loan Ledger and librarian edits
// mutate Status.
type Book struct {
	BookUid         string        `json:"bookUid"`
	Title           string        `json:"title"`
	Authors         []string      `json:"authors"`
	ISBN            string        `json:"isbn,omitempty"`
	Status          BookStatus    `json:"status"`
	Location        string        `json:"location,omitempty"`
	AcquisitionDate time.Time     `json:"acquisitionDate"`
	Condition       BookCondition `json:"condition"`
	TotalBorrows    int           `json:"totalBorrows"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleLibrarian Role = "librarian"
	RoleAdmin     Role = "admin"
)

type User struct {
	ID           int       `json:"-" db:"id"`
	UserUid      string    `json:"userUid" db:"user_uid"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	IsActive     bool      `json:"isActive" db:"is_active"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

type LoanStatus string

const (
	LoanStatusActive   LoanStatus = "active"
	LoanStatusReturned LoanStatus = "returned"
	LoanStatusOverdue  LoanStatus = "overdue"
	LoanStatusRenewed  LoanStatus = "renewed"
)

// DefaultMaxRenewals caps how many times a loan's due date may be extended.
const DefaultMaxRenewals = 2

// Loan ties a user to a book copy for a bounded period. BookUid is a
// reference into the catalog document store, not a relational FK.
type Loan struct {
	ID           int        `json:"-" db:"id"`
	LoanUid      string     `json:"loanUid" db:"loan_uid"`
	UserID       int        `json:"-" db:"user_id"`
	UserUid      string     `json:"userUid" db:"user_uid"`
	BookUid      string     `json:"bookUid" db:"book_uid"`
	BookTitle    string     `json:"bookTitle" db:"book_title"`
	BookAuthor   string     `json:"bookAuthor" db:"book_author"`
	BookISBN     string     `json:"bookIsbn,omitempty" db:"book_isbn"`
	Status       LoanStatus `json:"status" db:"status"`
	BorrowedDate time.Time  `json:"borrowedDate" db:"borrowed_date"`
	DueDate      time.Time  `json:"dueDate" db:"due_date"`
	ReturnedDate *time.Time `json:"returnedDate,omitempty" db:"returned_date"`
	RenewalCount int        `json:"renewalCount" db:"renewal_count"`
	MaxRenewals  int        `json:"maxRenewals" db:"max_renewals"`
	LateFees     float64    `json:"lateFees" db:"late_fees"`
}

// LoanWithUser embeds the owning user's summary for listing endpoints.
type LoanWithUser struct {
	Loan
	Username string `json:"username" db:"username"`
	Email    string `json:"email" db:"email"`
}

// UserLoan is a live loan enriched with its catalog document. Book is nil
// when the referenced document no longer exists.
type UserLoan struct {
	Loan
	Book *Book `json:"book,omitempty"`
}

type Paging struct {
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
	TotalElements int `json:"totalElements"`
}

type ListBooks struct {
	Paging `json:",inline"`
	Items  []Book `json:"items"`
}

type CreateLoanRequest struct {
	BookUid string     `json:"bookId" validate:"required,uuid4"`
	UserUid string     `json:"userId" validate:"required,uuid4"`
	DueDate *time.Time `json:"dueDate,omitempty"`
}

type CreateLoanResponse struct {
	Loan Loan `json:"loan"`
	Book Book `json:"book"`
}

type ReturnLoanRequest struct {
	UserUid string `json:"userId" validate:"required,uuid4"`
}

type RenewLoanRequest struct {
	UserUid string `json:"userId" validate:"required,uuid4"`
}

type CreateBookRequest struct {
	Title           string        `json:"title" validate:"required"`
	Authors         []string      `json:"authors" validate:"required,min=1,dive,required"`
	ISBN            string        `json:"isbn"`
	Location        string        `json:"location"`
	AcquisitionDate *time.Time    `json:"acquisitionDate"`
	Condition       BookCondition `json:"condition" validate:"omitempty,oneof=new good worn poor"`
}

type UpdateBookRequest struct {
	Title     *string       `json:"title"`
	Authors   []string      `json:"authors"`
	ISBN      *string       `json:"isbn"`
	Status    *BookStatus   `json:"status" validate:"omitempty,oneof=available borrowed reserved damaged lost maintenance"`
	Location  *string       `json:"location"`
	Condition *BookCondition `json:"condition" validate:"omitempty,oneof=new good worn poor"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     Role   `json:"role" validate:"omitempty,oneof=user librarian admin"`
}

type AuthRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// SetBookStatus is the deferred catalog write re-applied by the kafka consumer.
type SetBookStatus struct {
	BookUid string     `json:"bookUid"`
	Status  BookStatus `json:"status"`
}

type LoanEvent struct {
	Type       string    `json:"type"`
	LoanUid    string    `json:"loanUid"`
	BookUid    string    `json:"bookUid"`
	UserUid    string    `json:"userUid"`
	OccurredAt time.Time `json:"occurredAt"`
}

const (
	LoanEventBorrowed = "loan.borrowed"
	LoanEventReturned = "loan.returned"
	LoanEventRenewed  = "loan.renewed"
)

// Response is the JSON envelope every endpoint answers with.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

func OK(data interface{}) Response {
	return Response{Success: true, Data: data}
}

func OKMsg(data interface{}, msg string) Response {
	return Response{Success: true, Data: data, Message: msg}
}

func Fail(err string) Response {
	return Response{Success: false, Error: err}
}
