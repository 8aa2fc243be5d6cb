package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/middleware"
	"github.com/flicky/go-storefront/internal/service"
)

var notFoundErrors = []error{
	service.ErrProductNotFound,
	service.ErrImageNotFound,
	service.ErrCategoryNotFound,
	service.ErrCartItemNotFound,
	service.ErrAddressNotFound,
	service.ErrOrderNotFound,
	service.ErrCustomerNotFound,
}

var conflictErrors = []error{
	service.ErrInvalidTransition,
	service.ErrStatusUnchanged,
	service.ErrCategoryInUse,
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, service.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrOrderAccessDenied):
		return http.StatusForbidden
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return http.StatusNotFound
		}
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return http.StatusConflict
		}
	}
	return http.StatusInternalServerError
}

// respondError writes err as JSON. Internal errors are logged with the
// request id and replaced by a generic message.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		middleware.RequestLogger(c).Error("request failed",
			"method", c.Request.Method, "route", c.FullPath(), "error", err)
		c.JSON(status, dto.ErrorResponse{Error: "internal server error"})
		return
	}

	resp := dto.ErrorResponse{Error: err.Error()}
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		resp.Error, resp.Field = verr.Message, verr.Field
	}
	c.JSON(status, resp)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
}

// pathID parses a uuid path parameter, answering 400 when it is malformed.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid " + name, Field: name})
		return uuid.Nil, false
	}
	return id, true
}
