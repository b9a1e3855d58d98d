package handler

import (
	"errors"
	"net/http"
	"strconv"

	"ezcode-server/internal/models"
	"ezcode-server/internal/wizard"

	"github.com/gin-gonic/gin"
)

func (h *Handler) getWizardState(c *gin.Context) {
	sc, ok := h.sessionFromPath(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sc.Wizard.State())
}

func (h *Handler) updateField(c *gin.Context) {
	sc, ok := h.sessionFromPath(c)
	if !ok {
		return
	}
	var req updateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if err := sc.Wizard.UpdateField(c.Request.Context(), c.Param("field"), req.Value); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sc.Wizard.State())
}

// updateFields принимает объект поле -> значение.
func (h *Handler) updateFields(c *gin.Context) {
	sc, ok := h.sessionFromPath(c)
	if !ok {
		return
	}
	var values map[string]any
	if err := c.ShouldBindJSON(&values); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if err := sc.Wizard.UpdateFields(c.Request.Context(), values); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sc.Wizard.State())
}

func (h *Handler) validateStep(c *gin.Context) {
	sc, ok := h.sessionFromPath(c)
	if !ok {
		return
	}
	n, err := strconv.Atoi(c.Param("step"))
	if err != nil {
		badRequest(c, "Step must be a number")
		return
	}
	step := wizard.Step(n)
	errs, err := sc.Wizard.ValidateStep(step)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stepValidationResponse{Step: step, Valid: errs.Valid(), Errors: errs})
}

func (h *Handler) goNext(c *gin.Context) {
	sc, ok := h.sessionFromPath(c)
	if !ok {
		return
	}
	errs, err := sc.Wizard.GoNext()
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if !errs.Valid() {
		validationFailed(c, errs)
		return
	}
	c.JSON(http.StatusOK, sc.Wizard.State())
}

func (h *Handler) goPrevious(c *gin.Context) {
	sc, ok := h.sessionFromPath(c)
	if !ok {
		return
	}
	if err := sc.Wizard.GoPrevious(); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sc.Wizard.State())
}

func (h *Handler) jumpToStep(c *gin.Context) {
	sc, ok := h.sessionFromPath(c)
	if !ok {
		return
	}
	var req jumpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	errs, err := sc.Wizard.JumpToStep(wizard.Step(req.Step))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if !errs.Valid() {
		validationFailed(c, errs)
		return
	}
	c.JSON(http.StatusOK, sc.Wizard.State())
}

func (h *Handler) submitWizard(c *gin.Context) {
	sc, ok := h.sessionFromPath(c)
	if !ok {
		return
	}
	var payment models.PaymentData
	if err := c.ShouldBindJSON(&payment); err != nil {
		badRequest(c, "Invalid payment data: "+err.Error())
		return
	}
	receipt, err := sc.Wizard.Submit(c.Request.Context(), payment)
	if err != nil {
		if errors.Is(err, wizard.ErrSubmissionFailed) {
			submitFailuresTotal.Inc()
		}
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

func (h *Handler) resetWizard(c *gin.Context) {
	sc, ok := h.sessionFromPath(c)
	if !ok {
		return
	}
	sc.Wizard.Reset(c.Request.Context())
	c.JSON(http.StatusOK, sc.Wizard.State())
}
