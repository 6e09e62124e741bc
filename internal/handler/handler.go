package handler

import (
	"fmt"
	"net/http"

	"github.com/bookhive/lending-service/internal/model"
	"github.com/bookhive/lending-service/pkg/auth"
	"github.com/bookhive/lending-service/pkg/validate"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Handler struct {
	loanSvc     LoanService
	catalogSvc  CatalogService
	identitySvc IdentityService
	authCfg     auth.Config
	log         *zap.Logger
}

func New(loanSvc LoanService, catalogSvc CatalogService, identitySvc IdentityService, authCfg auth.Config, log *zap.Logger) *Handler {
	return &Handler{
		loanSvc:     loanSvc,
		catalogSvc:  catalogSvc,
		identitySvc: identitySvc,
		authCfg:     authCfg,
		log:         log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))
	e.HTTPErrorHandler = NewHTTPErrorHandler(e, h.log)

	base := e.Group("", newRateLimiterMW(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(requestLoggerConfig(h.log)),
		middleware.RequestID(),
		newRateLimiterMW(apiRPS),
	)

	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)

	api.GET("/books", h.GetBooks)
	api.GET("/books/:bookUid", h.GetBook)

	authed := api.Group("", h.jwtAuth)
	authed.GET("/users/:userUid", h.GetUser)

	authed.POST("/loans", h.CreateLoan)
	authed.GET("/loans/user/:userUid", h.GetUserLoans)
	authed.PATCH("/loans/:loanUid/return", h.ReturnLoan)
	authed.PATCH("/loans/:loanUid/renew", h.RenewLoan)

	librarian := authed.Group("", requireRole(model.RoleLibrarian, model.RoleAdmin))
	librarian.GET("/loans", h.GetLoans)
	librarian.GET("/loans/overdue", h.GetOverdueLoans)
	librarian.POST("/books", h.CreateBook)
	librarian.PATCH("/books/:bookUid", h.UpdateBook)
	librarian.DELETE("/books/:bookUid", h.DeleteBook)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// NewHTTPErrorHandler renders every error through the JSON envelope
// { success, error } so handlers can keep returning echo.NewHTTPError.
func NewHTTPErrorHandler(e *echo.Echo, log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := "internal server error"
		if httpErr, ok := err.(*echo.HTTPError); ok {
			code = httpErr.Code
			switch m := httpErr.Message.(type) {
			case string:
				msg = m
			case error:
				msg = m.Error()
			default:
				msg = fmt.Sprintf("%v", m)
			}
		}
		if code >= http.StatusInternalServerError {
			log.Error("request failed", zap.Error(err))
			msg = "internal server error"
		}

		if c.Request().Method == http.MethodHead {
			if err := c.NoContent(code); err != nil {
				e.Logger.Error(err)
			}
			return
		}
		if err := c.JSON(code, model.Fail(msg)); err != nil {
			e.Logger.Error(err)
		}
	}
}
