package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"household-planner/internal/model"
	"household-planner/internal/recurrence"
	"household-planner/internal/service"
)

// Response is the envelope of every successful reply.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ErrorResponse is the envelope of every failed reply.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

func Error(c *gin.Context, code int, message string, detail string) {
	status := http.StatusInternalServerError
	if code >= 400 && code < 600 {
		status = code
	}
	c.JSON(status, ErrorResponse{Code: code, Message: message, Detail: detail})
}

// fail maps service errors to HTTP statuses.
func fail(c *gin.Context, err error) {
	var ruleErr *recurrence.InvalidRuleError
	switch {
	case errors.Is(err, model.ErrNotFound):
		Error(c, http.StatusNotFound, "not found", err.Error())
	case errors.As(err, &ruleErr):
		Error(c, http.StatusBadRequest, "invalid recurrence", ruleErr.Error())
	case errors.Is(err, model.ErrInvalidStatus), errors.Is(err, service.ErrValidation):
		Error(c, http.StatusBadRequest, "invalid request", err.Error())
	case errors.Is(err, service.ErrNoMembers):
		Error(c, http.StatusConflict, "household has no members", err.Error())
	default:
		_ = c.Error(err)
		Error(c, http.StatusInternalServerError, "internal error", "")
	}
}
