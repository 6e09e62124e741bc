package handler

import (
	"net/http"

	"github.com/bookhive/lending-service/internal/errs"
	"github.com/bookhive/lending-service/internal/model"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

func (h *Handler) Register(c echo.Context) error {
	var req model.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	user, err := h.identitySvc.Register(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, errs.ErrUserExists) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, model.OKMsg(user, "user registered"))
}

func (h *Handler) Login(c echo.Context) error {
	var req model.AuthRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	resp, err := h.identitySvc.Login(c.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrBadCredentials):
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		case errors.Is(err, errs.ErrUserInactive):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, model.OK(resp))
}

func (h *Handler) GetUser(c echo.Context) error {
	userUid := c.Param("userUid")
	if userUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "userUid is empty")
	}

	user, err := h.identitySvc.GetUser(c.Request().Context(), userUid)
	if err != nil {
		if errors.Is(err, errs.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, model.OK(user))
}
