package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/LovationAdmin/trainer-api/services"
	"github.com/LovationAdmin/trainer-api/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// abortError writes the {error, ...extra} envelope and stops the chain.
func abortError(c *gin.Context, status int, message string, extra gin.H) {
	body := gin.H{}
	for k, v := range extra {
		body[k] = v
	}
	body["error"] = message
	c.AbortWithStatusJSON(status, body)
}

// respondError maps service errors to status codes. Unexpected errors are
// logged and replaced by a generic message.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		abortError(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, services.ErrNotFound):
		abortError(c, http.StatusNotFound, err.Error(), nil)
	default:
		utils.SafeError("%s %s failed: %v", c.Request.Method, c.Request.URL.RequestURI(), err)
		abortError(c, http.StatusInternalServerError, "internal server error", nil)
	}
}

// bindJSON decodes the request body into req and writes a 400 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, io.EOF):
		abortError(c, http.StatusBadRequest, "request body is required", nil)
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		abortError(c, http.StatusBadRequest, "invalid JSON body", nil)
	case errors.As(err, &typeErr):
		abortError(c, http.StatusBadRequest, "invalid value for "+typeErr.Field, nil)
	case errors.As(err, &validationErrs):
		abortError(c, http.StatusBadRequest, validationMessage(validationErrs[0]), nil)
	default:
		abortError(c, http.StatusBadRequest, err.Error(), nil)
	}
	return false
}
