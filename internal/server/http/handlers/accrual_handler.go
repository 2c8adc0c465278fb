package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/rewardengine/internal/domain/errors"
	"github.com/polkiloo/rewardengine/internal/server/http/dto"
)

// AccrualHandler accepts finalized orders for crediting.
type AccrualHandler struct {
	facade AccrualFacade
}

// NewAccrualHandler constructs AccrualHandler.
func NewAccrualHandler(facade AccrualFacade) *AccrualHandler {
	return &AccrualHandler{facade: facade}
}

// Submit handles POST /api/accruals. The caller is the storefront backend
// holding a service token, so user_id is taken from the body as is.
func (h *AccrualHandler) Submit(c *gin.Context) {
	var req dto.AccrualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	entry, created, err := h.facade.SubmitOrder(c.Request.Context(), req.Snapshot())
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInvalidLineInput):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, domainErrors.ErrAccrualDeferred):
			c.Status(http.StatusAccepted)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, dto.NewLedgerEntryResponse(*entry))
}
