package api

import (
	"net/http"

	reqdto "groupbuy/internal/handler/dto/request"
	resdto "groupbuy/internal/handler/dto/response"
	"groupbuy/internal/handler/httperr"
	"groupbuy/internal/handler/middleware"
	"groupbuy/internal/usecase/commands"
	"groupbuy/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OfferHandler struct {
	cmds commands.OfferCommands
	q    queries.OfferQueries
}

func NewOfferHandler(cmds commands.OfferCommands, q queries.OfferQueries) *OfferHandler {
	return &OfferHandler{cmds: cmds, q: q}
}

// @Summary Create offer
// @Description Create a group-buy offer for the merchant's store
// @Tags offers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateOfferRequest true "Create offer request"
// @Success 201 {object} resdto.OfferResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Router /offers [post]
func (h *OfferHandler) Create(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	var req reqdto.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	params, err := req.ToParams()
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	o, err := h.cmds.Create(c.Request.Context(), sess, params)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.Header("Location", "/api/offers/"+o.ID().String())
	c.JSON(http.StatusCreated, resdto.FromOffer(o, true))
}

// @Summary List offers
// @Description List offers newest first with keyset pagination
// @Tags offers
// @Produce json
// @Param status query string false "ACTIVE, PICKUP, COMPLETED or EXPIRED"
// @Param store_id query string false "Store ID"
// @Param limit query int false "Max items (default 20)"
// @Param after query string false "Cursor for keyset pagination"
// @Success 200 {object} resdto.OfferListResponse
// @Failure 400 {object} httperr.Response
// @Router /offers [get]
func (h *OfferHandler) List(c *gin.Context) {
	p := queries.ListOffersParams{
		Status: c.Query("status"),
		Cursor: c.Query("after"),
		Limit:  limitQuery(c),
	}
	if v := c.Query("store_id"); v != "" {
		storeID, err := uuid.Parse(v)
		if err != nil {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid store_id", nil)
			return
		}
		p.StoreID = &storeID
	}
	page, err := h.q.List(c.Request.Context(), p)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromOfferPage(page))
}

// @Summary Get offer
// @Description Get an offer with its counters. The owning merchant also sees the offer QR code.
// @Tags offers
// @Produce json
// @Param id path string true "Offer ID"
// @Success 200 {object} resdto.OfferResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /offers/{id} [get]
func (h *OfferHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	sess, _ := middleware.GetSession(c)
	view, err := h.q.Get(c.Request.Context(), sess, id)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromOfferView(view))
}

// @Summary List offer reservations
// @Description List every reservation of an offer (owning merchant only)
// @Tags offers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offer ID"
// @Success 200 {array} resdto.ReservationResponse
// @Failure 401 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /offers/{id}/reservations [get]
func (h *OfferHandler) ListReservations(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	items, err := h.q.ListReservations(c.Request.Context(), sess, id)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromReservationViews(items))
}
