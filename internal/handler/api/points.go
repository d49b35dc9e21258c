package api

import (
	"net/http"

	"groupbuy/internal/domain/points"
	reqdto "groupbuy/internal/handler/dto/request"
	resdto "groupbuy/internal/handler/dto/response"
	"groupbuy/internal/handler/httperr"
	"groupbuy/internal/usecase/commands"
	"groupbuy/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type PointsHandler struct {
	cmds commands.PointsCommands
	q    queries.UserQueries
}

func NewPointsHandler(cmds commands.PointsCommands, q queries.UserQueries) *PointsHandler {
	return &PointsHandler{cmds: cmds, q: q}
}

// @Summary Points balance
// @Description Get the caller's points balance and tier
// @Tags points
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.BalanceResponse
// @Failure 401 {object} httperr.Response
// @Router /points [get]
func (h *PointsHandler) Balance(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	u, err := h.q.GetCurrentUser(c.Request.Context(), sess.UserID)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromBalance(points.Balance{UserID: u.ID, Points: u.Points}))
}

// @Summary Share award
// @Description Award points for sharing. Each ref is credited once per user.
// @Tags points
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.ShareRequest true "Share request"
// @Success 200 {object} resdto.AwardResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Router /points/share [post]
func (h *PointsHandler) Share(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	var req reqdto.ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	result, err := h.cmds.Share(c.Request.Context(), sess, req.Ref)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromAwardResult(result))
}

// @Summary Daily open award
// @Description Award points for the first app open of the day
// @Tags points
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.AwardResponse
// @Failure 401 {object} httperr.Response
// @Router /points/daily-open [post]
func (h *PointsHandler) DailyOpen(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	result, err := h.cmds.DailyOpen(c.Request.Context(), sess)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromAwardResult(result))
}
