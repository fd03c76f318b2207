package api

import (
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"eventhub-backend/internal/apperr"
	"eventhub-backend/internal/pagination"
)

// respond writes a success envelope.
func respond(c *gin.Context, status int, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["success"] = true
	c.JSON(status, body)
}

// writeError writes the failure envelope for err. Only application errors
// reach the client verbatim; the cause of anything else is echoed in
// development only.
func writeError(c *gin.Context, log logrus.FieldLogger, dev bool, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		body := gin.H{"success": false, "message": appErr.Message, "code": appErr.Code}
		if dev && appErr.Err != nil {
			body["error"] = appErr.Err.Error()
		}
		c.AbortWithStatusJSON(appErr.StatusCode, body)
		return
	}

	log.WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	}).Error("Unhandled error")

	body := gin.H{"success": false, "message": "Server error", "code": apperr.CodeInternal}
	if dev {
		body["error"] = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, body)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	writeError(c, h.log, h.dev, err)
}

// bindError turns a gin binding failure into a validation error naming the
// first offending field.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperr.Validation(fieldMessage(verrs[0]))
	}
	return apperr.Validation("Invalid request body")
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Please provide a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s cannot exceed %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s cannot exceed %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "hhmm":
		return fmt.Sprintf("%s must be a time in HH:MM format", field)
	case "event_category":
		return "Invalid category"
	case "currency":
		return "Invalid currency"
	case "rsvp_status":
		return "Status must be attending, maybe or not_attending"
	case "report_reason":
		return "Reason must be spam, inappropriate, harassment or other"
	}
	return fmt.Sprintf("%s is invalid", field)
}

// pathID parses a uuid path parameter.
func pathID(c *gin.Context, name, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.Validation("Invalid " + what + " id")
	}
	return id, nil
}

func pageParams(c *gin.Context, defaultLimit int) pagination.Params {
	return pagination.Parse(c.Query("page"), c.Query("limit"), defaultLimit)
}

// parseDate accepts RFC3339 or YYYY-MM-DD.
func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return t, nil
	}
	t, err = time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return time.Time{}, apperr.Validation("Invalid date format (use RFC3339 or YYYY-MM-DD)")
	}
	return t, nil
}

func queryInt(c *gin.Context, name string, def int) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
