package api

import (
	"net/http"

	reqdto "groupbuy/internal/handler/dto/request"
	resdto "groupbuy/internal/handler/dto/response"
	"groupbuy/internal/handler/httperr"
	"groupbuy/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

type ValidationHandler struct {
	cmds commands.ValidationCommands
}

func NewValidationHandler(cmds commands.ValidationCommands) *ValidationHandler {
	return &ValidationHandler{cmds: cmds}
}

// @Summary Validate pickup
// @Description Validate a scanned QR token at the merchant's store and return the shopper's user ID
// @Tags validations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.ValidateRequest true "Validate request"
// @Success 200 {object} resdto.ValidateResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /validations [post]
func (h *ValidationHandler) Validate(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	var req reqdto.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	result, err := h.cmds.Validate(c.Request.Context(), sess, req.QRToken)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromValidateResult(result))
}
