package handler

import (
	"errors"
	"fmt"
	"net/http"

	"ezcode-server/internal/models"
	"ezcode-server/internal/selection"
	"ezcode-server/internal/session"
	"ezcode-server/internal/submission"
	"ezcode-server/internal/tools"
	"ezcode-server/internal/wizard"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var errResp models.ErrorResponse
	var paymentErr *submission.PaymentError
	var incomplete *wizard.IncompleteDraftError

	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "Session not found"}
	case errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "Resource not found"}
	case errors.Is(err, selection.ErrUnknownSet):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "Unknown selection set"}
	case errors.Is(err, selection.ErrCapacityExceeded):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeCapacityExceeded, Message: err.Error()}
	case errors.Is(err, selection.ErrInvalidEntry):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Tool id is required"}
	case errors.Is(err, wizard.ErrStepOutOfRange):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()}
	case errors.Is(err, wizard.ErrEmptyFieldName):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()}
	case errors.Is(err, wizard.ErrNotAtPaymentStep), errors.Is(err, wizard.ErrAlreadySubmitted):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeInvalidState, Message: err.Error()}
	case errors.As(err, &incomplete):
		statusCode = http.StatusUnprocessableEntity
		errResp = models.ErrorResponse{
			Code:    models.ErrCodeValidation,
			Message: fmt.Sprintf("Step %d (%s) is incomplete", incomplete.Step, incomplete.Step),
			Errors:  incomplete.Errors,
		}
	case errors.As(err, &paymentErr):
		statusCode = http.StatusPaymentRequired
		errResp = models.ErrorResponse{Code: models.ErrCodeSubmission, Message: "Payment details are invalid", Errors: paymentErr.Fields}
	case errors.Is(err, wizard.ErrSubmissionFailed):
		statusCode = http.StatusBadGateway
		errResp = models.ErrorResponse{Code: models.ErrCodeSubmission, Message: "Submission could not be completed, please try again"}
	case errors.Is(err, submission.ErrInvalidStatus):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()}
	case errors.Is(err, submission.ErrInvalidStatusTransition):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeInvalidState, Message: err.Error()}
	case errors.Is(err, models.ErrTokenExpired):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeTokenExpired, Message: "Token has expired"}
	case errors.Is(err, models.ErrTokenInvalid), errors.Is(err, models.ErrTokenMalformed), errors.Is(err, models.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeUnauthorized, Message: "Token is invalid or malformed"}
	case errors.Is(err, models.ErrForbidden):
		statusCode = http.StatusForbidden
		errResp = models.ErrorResponse{Code: models.ErrCodeForbidden, Message: "Insufficient permissions"}
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrBadRequest):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()}
	case errors.Is(err, tools.ErrDuplicateReview):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeConflict, Message: "You have already reviewed this tool"}
	case errors.Is(err, models.ErrConflict):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeConflict, Message: err.Error()}
	default:
		zap.L().Error("Unhandled internal error in handleServiceError", zap.String("path", c.Request.URL.Path), zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeInternal, Message: "An unexpected internal error occurred"}
	}

	c.AbortWithStatusJSON(statusCode, errResp)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: msg})
}

// validationFailed - шаг мастера заполнен не полностью.
func validationFailed(c *gin.Context, errs wizard.ValidationErrors) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, models.ErrorResponse{
		Code:    models.ErrCodeValidation,
		Message: "Please complete the required fields",
		Errors:  errs,
	})
}
