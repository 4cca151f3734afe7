package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pharmacy/analytics/internal/domain/shared"
	"github.com/pharmacy/analytics/internal/infrastructure/logger"
	"github.com/pharmacy/analytics/internal/interfaces/http/dto"
	"github.com/pharmacy/analytics/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(logger.GinRequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with window meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, meta *dto.Meta) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, meta))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(code, message, getRequestID(c), nil))
}

// BindQuery binds and validates query parameters, answering 400 on failure
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// HandleError converts domain errors to their mapped status and hides everything else behind a 500
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := getRequestID(c)

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		statusCode := dto.GetHTTPStatus(domainErr.Code)
		if statusCode >= http.StatusInternalServerError {
			_ = c.Error(err)
			logger.FromContext(c.Request.Context()).Warn("Request failed",
				zap.String("code", domainErr.Code),
				zap.Error(err),
			)
		}
		var details any
		if len(domainErr.Details) > 0 {
			details = domainErr.Details
		}
		c.JSON(statusCode, dto.NewErrorResponse(domainErr.Code, domainErr.Message, requestID, details))
		return
	}

	_ = c.Error(err)
	log := logger.FromContext(c.Request.Context())
	if errors.Is(err, context.DeadlineExceeded) {
		log.Warn("Request deadline exceeded", zap.Error(err))
		c.JSON(dto.GetHTTPStatus(dto.ErrCodeTimeout), dto.NewErrorResponse(
			dto.ErrCodeTimeout,
			"The request took too long to complete",
			requestID,
			nil,
		))
		return
	}

	log.Error("Unexpected error handling request", zap.Error(err))
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
		dto.ErrCodeInternal,
		"An unexpected error occurred",
		requestID,
		nil,
	))
}
