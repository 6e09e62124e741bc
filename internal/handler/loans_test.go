package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bookhive/lending-service/internal/errs"
	"github.com/bookhive/lending-service/internal/handler"
	"github.com/bookhive/lending-service/internal/model"
	"github.com/bookhive/lending-service/pkg/auth"
	"github.com/bookhive/lending-service/pkg/validate"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	service_mocks "github.com/bookhive/lending-service/internal/handler/mocks"
)

const (
	testUserUid = "9a3d1731-3f5a-4a4c-9b0e-6f1e4b2f8a3d"
	testBookUid = "f7cdc58f-2caf-4b15-9727-f89dcc629b27"
	testLoanUid = "83575e12-7ce0-48ee-9931-51919ff3c9ee"
)

func newTestEcho(h *handler.Handler) *echo.Echo {
	e := echo.New()
	e.Validator = validate.NewCustomValidator()
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(e, zap.NewExample().Named("test"))
	return e
}

func TestHandler_CreateLoan(t *testing.T) {
	t.Parallel()

	borrowed := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	okResp := model.CreateLoanResponse{
		Loan: model.Loan{
			LoanUid:      testLoanUid,
			UserUid:      testUserUid,
			BookUid:      testBookUid,
			BookTitle:    "The Go Programming Language",
			BookAuthor:   "Alan A. A. Donovan, Brian W. Kernighan",
			Status:       model.LoanStatusActive,
			BorrowedDate: borrowed,
			DueDate:      borrowed.AddDate(0, 0, 14),
			MaxRenewals:  2,
		},
		Book: model.Book{
			BookUid:         testBookUid,
			Title:           "The Go Programming Language",
			Authors:         []string{"Alan A. A. Donovan", "Brian W. Kernighan"},
			Status:          model.BookStatusBorrowed,
			AcquisitionDate: time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC),
			Condition:       model.BookConditionGood,
			TotalBorrows:    3,
		},
	}

	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockLoanService)

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			body: `{"bookId":"` + testBookUid + `","userId":"` + testUserUid + `"}`,
			mockBehavior: func(r *service_mocks.MockLoanService) {
				r.EXPECT().
					Borrow(context.Background(), model.CreateLoanRequest{BookUid: testBookUid, UserUid: testUserUid}).
					Return(okResp, nil)
			},
			response: response{
				expectedCode: http.StatusCreated,
				expectedBody: `{"success":true,"data":{"loan":{"loanUid":"` + testLoanUid + `","userUid":"` + testUserUid + `","bookUid":"` + testBookUid + `","bookTitle":"The Go Programming Language","bookAuthor":"Alan A. A. Donovan, Brian W. Kernighan","status":"active","borrowedDate":"2024-04-01T10:00:00Z","dueDate":"2024-04-15T10:00:00Z","renewalCount":0,"maxRenewals":2,"lateFees":0},"book":{"bookUid":"` + testBookUid + `","title":"The Go Programming Language","authors":["Alan A. A. Donovan","Brian W. Kernighan"],"status":"borrowed","acquisitionDate":"2023-09-01T00:00:00Z","condition":"good","totalBorrows":3}},"message":"book borrowed"}`,
			},
		},
		{
			name: "err. user not found",
			body: `{"bookId":"` + testBookUid + `","userId":"` + testUserUid + `"}`,
			mockBehavior: func(r *service_mocks.MockLoanService) {
				r.EXPECT().
					Borrow(context.Background(), gomock.Any()).
					Return(model.CreateLoanResponse{}, errs.ErrUserNotFound)
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"success":false,"error":"user not found"}`,
			},
		},
		{
			name: "err. book not available",
			body: `{"bookId":"` + testBookUid + `","userId":"` + testUserUid + `"}`,
			mockBehavior: func(r *service_mocks.MockLoanService) {
				r.EXPECT().
					Borrow(context.Background(), gomock.Any()).
					Return(model.CreateLoanResponse{}, errors.Wrapf(errs.ErrBookNotAvailable, "status %q", model.BookStatusBorrowed))
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"success":false,"error":"status \"borrowed\": book is not available"}`,
			},
		},
		{
			name: "err. duplicate active loan",
			body: `{"bookId":"` + testBookUid + `","userId":"` + testUserUid + `"}`,
			mockBehavior: func(r *service_mocks.MockLoanService) {
				r.EXPECT().
					Borrow(context.Background(), gomock.Any()).
					Return(model.CreateLoanResponse{}, errs.ErrLoanExists)
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"success":false,"error":"user already has an active loan for this book"}`,
			},
		},
		{
			name:         "err. bookId required",
			body:         `{"userId":"` + testUserUid + `"}`,
			mockBehavior: func(r *service_mocks.MockLoanService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"success":false,"error":"Key: 'CreateLoanRequest.BookUid' Error:Field validation for 'BookUid' failed on the 'required' tag"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockLoanService(c)
			tt.mockBehavior(svc)

			h := handler.New(svc, nil, nil, auth.Config{}, zap.NewExample().Named("test"))
			e := newTestEcho(h)
			e.POST("/loans", h.CreateLoan)

			r := httptest.NewRequest(http.MethodPost, "/loans", strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_RenewLoan(t *testing.T) {
	t.Parallel()

	borrowed := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	renewed := model.Loan{
		LoanUid:      testLoanUid,
		UserUid:      testUserUid,
		BookUid:      testBookUid,
		BookTitle:    "The Go Programming Language",
		BookAuthor:   "Alan A. A. Donovan, Brian W. Kernighan",
		Status:       model.LoanStatusRenewed,
		BorrowedDate: borrowed,
		DueDate:      borrowed.AddDate(0, 0, 28),
		RenewalCount: 1,
		MaxRenewals:  2,
	}

	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockLoanService)

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockLoanService) {
				r.EXPECT().
					Renew(context.Background(), testLoanUid, testUserUid).
					Return(renewed, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"success":true,"data":{"loanUid":"` + testLoanUid + `","userUid":"` + testUserUid + `","bookUid":"` + testBookUid + `","bookTitle":"The Go Programming Language","bookAuthor":"Alan A. A. Donovan, Brian W. Kernighan","status":"renewed","borrowedDate":"2024-04-01T10:00:00Z","dueDate":"2024-04-29T10:00:00Z","renewalCount":1,"maxRenewals":2,"lateFees":0},"message":"loan renewed"}`,
			},
		},
		{
			name: "err. renewal limit reached",
			mockBehavior: func(r *service_mocks.MockLoanService) {
				r.EXPECT().
					Renew(context.Background(), testLoanUid, testUserUid).
					Return(model.Loan{}, errs.ErrRenewNotAllowed)
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"success":false,"error":"renewal limit reached or loan is not active"}`,
			},
		},
		{
			name: "err. loan not found",
			mockBehavior: func(r *service_mocks.MockLoanService) {
				r.EXPECT().
					Renew(context.Background(), testLoanUid, testUserUid).
					Return(model.Loan{}, errs.ErrLoanNotFound)
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"success":false,"error":"loan not found"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockLoanService(c)
			tt.mockBehavior(svc)

			h := handler.New(svc, nil, nil, auth.Config{}, zap.NewExample().Named("test"))
			e := newTestEcho(h)
			e.PATCH("/loans/:loanUid/renew", h.RenewLoan)

			r := httptest.NewRequest(http.MethodPatch, "/loans/"+testLoanUid+"/renew",
				strings.NewReader(`{"userId":"`+testUserUid+`"}`))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_ReturnLoan(t *testing.T) {
	t.Parallel()

	borrowed := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	returnedAt := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	returned := model.Loan{
		LoanUid:      testLoanUid,
		UserUid:      testUserUid,
		BookUid:      testBookUid,
		BookTitle:    "The Go Programming Language",
		BookAuthor:   "Alan A. A. Donovan, Brian W. Kernighan",
		Status:       model.LoanStatusReturned,
		BorrowedDate: borrowed,
		DueDate:      borrowed.AddDate(0, 0, 14),
		ReturnedDate: &returnedAt,
		MaxRenewals:  2,
	}

	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockLoanService)

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockLoanService) {
				r.EXPECT().
					Return(context.Background(), testLoanUid, testUserUid).
					Return(returned, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"success":true,"data":{"loanUid":"` + testLoanUid + `","userUid":"` + testUserUid + `","bookUid":"` + testBookUid + `","bookTitle":"The Go Programming Language","bookAuthor":"Alan A. A. Donovan, Brian W. Kernighan","status":"returned","borrowedDate":"2024-04-01T10:00:00Z","dueDate":"2024-04-15T10:00:00Z","returnedDate":"2024-04-10T12:00:00Z","renewalCount":0,"maxRenewals":2,"lateFees":0},"message":"book returned"}`,
			},
		},
		{
			name: "err. already returned",
			mockBehavior: func(r *service_mocks.MockLoanService) {
				r.EXPECT().
					Return(context.Background(), testLoanUid, testUserUid).
					Return(model.Loan{}, errs.ErrLoanNotFound)
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"success":false,"error":"loan not found"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockLoanService(c)
			tt.mockBehavior(svc)

			h := handler.New(svc, nil, nil, auth.Config{}, zap.NewExample().Named("test"))
			e := newTestEcho(h)
			e.PATCH("/loans/:loanUid/return", h.ReturnLoan)

			r := httptest.NewRequest(http.MethodPatch, "/loans/"+testLoanUid+"/return",
				strings.NewReader(`{"userId":"`+testUserUid+`"}`))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}
