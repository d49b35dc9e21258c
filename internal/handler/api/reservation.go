package api

import (
	"net/http"
	"strconv"

	reqdto "groupbuy/internal/handler/dto/request"
	resdto "groupbuy/internal/handler/dto/response"
	"groupbuy/internal/handler/httperr"
	"groupbuy/internal/pkg/qr"
	"groupbuy/internal/usecase/commands"
	"groupbuy/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
	minQRSize            = 128
	maxQRSize            = 1024
)

type ReservationHandler struct {
	cmds commands.ReservationCommands
	q    queries.ReservationQueries
}

func NewReservationHandler(cmds commands.ReservationCommands, q queries.ReservationQueries) *ReservationHandler {
	return &ReservationHandler{cmds: cmds, q: q}
}

// @Summary Reserve units
// @Description Join an offer or add units to the caller's reservation. Replays of the same Idempotency-Key return the stored result.
// @Tags reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offer ID"
// @Param Idempotency-Key header string false "UUID identifying this request"
// @Param request body reqdto.ReserveRequest true "Reserve request"
// @Success 200 {object} resdto.ReserveResponse
// @Success 201 {object} resdto.ReserveResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /offers/{id}/reservations [post]
func (h *ReservationHandler) Reserve(c *gin.Context) {
	offerID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	var req reqdto.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	var key uuid.UUID
	if raw := c.GetHeader(headerIdempotencyKey); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid Idempotency-Key", nil)
			return
		}
		key = parsed
	}

	result, err := h.cmds.Reserve(c.Request.Context(), sess, commands.ReserveParams{
		OfferID:        offerID,
		Units:          *req.Units,
		IdempotencyKey: key,
	})
	if err != nil {
		httperr.Abort(c, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	if result.IsReplayed {
		c.Header(headerReplayed, "true")
	}
	c.JSON(status, resdto.FromReserveResult(result))
}

// @Summary Cancel reservation
// @Description Cancel the caller's reservation on an ACTIVE offer. A cancelled reservation cannot be resumed.
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offer ID"
// @Success 200 {object} resdto.CancelResponse
// @Failure 401 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /offers/{id}/reservations/mine [delete]
func (h *ReservationHandler) Cancel(c *gin.Context) {
	offerID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	result, err := h.cmds.Cancel(c.Request.Context(), sess, offerID)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromCancelResult(result))
}

// @Summary Get my reservation
// @Description Get the caller's reservation on an offer
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offer ID"
// @Success 200 {object} resdto.ReservationResponse
// @Failure 401 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /offers/{id}/reservations/mine [get]
func (h *ReservationHandler) GetMine(c *gin.Context) {
	offerID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	view, err := h.q.GetMine(c.Request.Context(), sess, offerID)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromReservationView(view))
}

// @Summary List my reservations
// @Description List the caller's reservations newest first with keyset pagination
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max items (default 20)"
// @Param after query string false "Cursor for keyset pagination"
// @Success 200 {object} resdto.ReservationListResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Router /reservations [get]
func (h *ReservationHandler) ListMine(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	page, err := h.q.ListMine(c.Request.Context(), sess, c.Query("after"), limitQuery(c))
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromReservationPage(page))
}

// @Summary Reservation QR code
// @Description Render the reservation's pickup token as a PNG QR code (owner only)
// @Tags reservations
// @Produce png
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Param size query int false "Image size in pixels (128-1024)"
// @Success 200 {file} binary
// @Failure 401 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /reservations/{id}/qr.png [get]
func (h *ReservationHandler) QRCode(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	token, err := h.q.Token(c.Request.Context(), sess, id)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	size := qr.DefaultSize
	if v := c.Query("size"); v != "" {
		if iv, e := strconv.Atoi(v); e == nil {
			size = min(max(iv, minQRSize), maxQRSize)
		}
	}
	png, err := qr.PNG(token, size)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal error", nil)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}
