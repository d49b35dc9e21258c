//go:build unit

package api_test

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"testing"

	"groupbuy/internal/domain/allocation"
	"groupbuy/internal/domain/offer"
	"groupbuy/internal/domain/reservation"
	"groupbuy/internal/domain/tier"
	"groupbuy/internal/domain/user"
	"groupbuy/internal/handler/api"
	reqdto "groupbuy/internal/handler/dto/request"
	resdto "groupbuy/internal/handler/dto/response"
	"groupbuy/internal/infra"
	"groupbuy/internal/usecase/commands"
	"groupbuy/internal/usecase/queries"
	"groupbuy/tests/common/builder"
	"groupbuy/tests/common/httptest"
	"groupbuy/tests/common/testutil"
	commandsmock "groupbuy/tests/mock/commands"
	queriesmock "groupbuy/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ReservationHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockReservationCommands
	mockQueries  *queriesmock.MockReservationQueries
	handler      *api.ReservationHandler
	shopper      *builder.UserBuilder
	offerID      uuid.UUID
}

func (s *ReservationHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockReservationCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockReservationQueries(s.mockCtrl)
	s.handler = api.NewReservationHandler(s.mockCommands, s.mockQueries)
	s.shopper = builder.NewUserBuilder().WithEmail("shopper@example.com")
	s.offerID = uuid.New()

	auth := withSession(s.shopper)
	s.router.POST("/offers/:id/reservations", auth, s.handler.Reserve)
	s.router.DELETE("/offers/:id/reservations/mine", auth, s.handler.Cancel)
	s.router.GET("/offers/:id/reservations/mine", auth, s.handler.GetMine)
	s.router.GET("/reservations", auth, s.handler.ListMine)
	s.router.GET("/reservations/:id/qr.png", auth, s.handler.QRCode)
}

func (s *ReservationHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestReservationHandlerSuite(t *testing.T) {
	suite.Run(t, new(ReservationHandlerTestSuite))
}

func (s *ReservationHandlerTestSuite) reserveURL() string {
	return "/offers/" + s.offerID.String() + "/reservations"
}

func (s *ReservationHandlerTestSuite) reserveResult(created bool) *commands.ReserveResult {
	o := builder.NewOfferBuilder().With(func(b *builder.OfferBuilder) { b.ID = s.offerID }).WithReserved(2).BuildDomain()
	r := builder.NewReservationBuilder().ForOffer(s.offerID).ForUser(s.shopper.ID).WithUnits(2).BuildDomain()
	return &commands.ReserveResult{Offer: o, Reservation: r, Created: created, PointsAwarded: 5}
}

func (s *ReservationHandlerTestSuite) TestReserve() {
	reqBody := reqdto.ReserveRequest{Units: testutil.Ptr(2)}

	s.Run("success: 201 Created for a new reservation, qr code hidden", func() {
		s.mockCommands.EXPECT().Reserve(gomock.Any(), s.shopper.BuildSession(), commands.ReserveParams{OfferID: s.offerID, Units: 2}).
			Return(s.reserveResult(true), nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, s.reserveURL(), reqBody, "bearer-token")

		var body resdto.ReserveResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &body)
		s.Equal(2, body.Reservation.Units)
		s.Equal(int64(5), body.PointsAwarded)
		s.Equal(8, body.Offer.AvailableUnits)
		s.Nil(body.Offer.QRCode)
		s.NotContains(rec.Body.String(), "qrCode")
	})

	s.Run("success: 200 OK when units are added to an existing reservation", func() {
		s.mockCommands.EXPECT().Reserve(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(s.reserveResult(false), nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, s.reserveURL(), reqBody, "bearer-token")
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	s.Run("success: idempotency key is forwarded and replays are flagged", func() {
		key := uuid.New()
		replay := s.reserveResult(false)
		replay.IsReplayed = true
		s.mockCommands.EXPECT().Reserve(gomock.Any(), gomock.Any(), commands.ReserveParams{OfferID: s.offerID, Units: 2, IdempotencyKey: key}).
			Return(replay, nil).Times(1)

		rec := performWithHeaders(s.T(), s.router, http.MethodPost, s.reserveURL(), reqBody, map[string]string{"Idempotency-Key": key.String()})
		s.Equal(http.StatusOK, rec.Code)
		httptest.AssertHeaders(s.T(), rec, map[string]string{"Idempotent-Replayed": "true"})
	})

	s.Run("error: 400 on malformed idempotency key", func() {
		rec := performWithHeaders(s.T(), s.router, http.MethodPost, s.reserveURL(), reqBody, map[string]string{"Idempotency-Key": "not-a-uuid"})
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid Idempotency-Key")
	})

	s.Run("error: 400 on validation errors", func() {
		cases := []struct {
			name   string
			mutate func(map[string]any)
		}{
			{"units missing", testutil.Field("units", nil)},
			{"units not a number", testutil.Field("units", "two")},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, s.reserveURL(), testutil.DtoMap(s.T(), reqBody, tc.mutate), "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request")
			})
		}
	})

	s.Run("error: 400 invalid quantity comes from the engine", func() {
		for name, units := range map[string]int{"units zero": 0, "units negative": -1} {
			s.Run(name, func() {
				s.mockCommands.EXPECT().Reserve(gomock.Any(), gomock.Any(), commands.ReserveParams{OfferID: s.offerID, Units: units}).
					Return(nil, allocation.ErrInvalidQuantity).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, s.reserveURL(), reqdto.ReserveRequest{Units: testutil.Ptr(units)}, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "units must be at least 1")
			})
		}
	})

	s.Run("error: 400 on malformed offer id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/offers/nope/reservations", reqBody, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid id")
	})

	s.Run("error: 401 without a session", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, s.reserveURL(), reqBody, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Unauthorized")
	})

	s.Run("error: maps engine errors to statuses and details", func() {
		testCases := []struct {
			name           string
			err            error
			expectedStatus int
			expectedMsg    string
			expectedDetail map[string]any
		}{
			{
				name:           "tier cap exceeded",
				err:            &allocation.TierCapExceededError{Tier: tier.Bronze, Cap: 2, Requested: 3},
				expectedStatus: http.StatusUnprocessableEntity,
				expectedMsg:    "exceed the tier cap",
				expectedDetail: map[string]any{"tier": "BRONZE", "cap": float64(2), "requested": float64(3)},
			},
			{
				name:           "insufficient capacity",
				err:            &allocation.CapacityError{Available: 1},
				expectedStatus: http.StatusConflict,
				expectedMsg:    "not enough units",
				expectedDetail: map[string]any{"available": float64(1)},
			},
			{
				name:           "offer not active",
				err:            &allocation.OfferNotActiveError{Status: offer.StatusExpired},
				expectedStatus: http.StatusConflict,
				expectedMsg:    "not accepting reservations",
				expectedDetail: map[string]any{"status": "EXPIRED"},
			},
			{
				name:           "cancelled reservation cannot resume",
				err:            allocation.ErrCannotResume,
				expectedStatus: http.StatusConflict,
				expectedMsg:    "cannot be resumed",
			},
			{
				name:           "idempotency key reused",
				err:            commands.ErrIdempotencyKeyReused,
				expectedStatus: http.StatusConflict,
				expectedMsg:    "different request",
			},
			{
				name:           "offer not found",
				err:            offer.ErrNotFound,
				expectedStatus: http.StatusNotFound,
				expectedMsg:    "offer not found",
			},
			{
				name:           "not a shopper",
				err:            user.ErrNotShopper,
				expectedStatus: http.StatusForbidden,
				expectedMsg:    "shopper role is required",
			},
			{
				name:           "store unavailable",
				err:            infra.RepositoryErrorOf(infra.KindUnavailable, "connection refused"),
				expectedStatus: http.StatusServiceUnavailable,
				expectedMsg:    "Service temporarily unavailable",
			},
			{
				name:           "unclassified error",
				err:            errors.New("boom"),
				expectedStatus: http.StatusInternalServerError,
				expectedMsg:    "Internal error",
			},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().Reserve(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, tc.err).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, s.reserveURL(), reqBody, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, tc.expectedMsg)
				if tc.expectedDetail != nil {
					var body struct {
						Detail map[string]any `json:"detail"`
					}
					s.Require().NoError(httptest.DecodeResponseBody(s.T(), rec.Body, &body))
					s.Equal(tc.expectedDetail, body.Detail)
				}
			})
		}
	})
}

func (s *ReservationHandlerTestSuite) TestCancel() {
	url := "/offers/" + s.offerID.String() + "/reservations/mine"

	s.Run("success: returns the cancelled reservation and released offer", func() {
		o := builder.NewOfferBuilder().With(func(b *builder.OfferBuilder) { b.ID = s.offerID }).BuildDomain()
		r := builder.NewReservationBuilder().ForOffer(s.offerID).WithStatus(reservation.StatusCancelled).BuildDomain()
		s.mockCommands.EXPECT().Cancel(gomock.Any(), s.shopper.BuildSession(), s.offerID).
			Return(&commands.CancelResult{Offer: o, Reservation: r}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, url, nil, "bearer-token")

		var body resdto.CancelResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("CANCELLED", body.Reservation.Status)
		s.Equal(10, body.Offer.AvailableUnits)
	})

	s.Run("error: 409 once the offer left ACTIVE", func() {
		s.mockCommands.EXPECT().Cancel(gomock.Any(), gomock.Any(), s.offerID).
			Return(nil, &allocation.OfferNotActiveError{Status: offer.StatusPickup}).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "status is PICKUP")
	})

	s.Run("error: 404 without a reservation", func() {
		s.mockCommands.EXPECT().Cancel(gomock.Any(), gomock.Any(), s.offerID).
			Return(nil, reservation.ErrNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "reservation not found")
	})
}

func (s *ReservationHandlerTestSuite) TestGetMine() {
	url := "/offers/" + s.offerID.String() + "/reservations/mine"

	s.Run("success: returns the caller's reservation", func() {
		view := builder.NewReservationBuilder().ForOffer(s.offerID).ForUser(s.shopper.ID).WithUnits(3).BuildReadModel()
		s.mockQueries.EXPECT().GetMine(gomock.Any(), s.shopper.BuildSession(), s.offerID).Return(view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

		var body resdto.ReservationResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(view.ID, body.ID)
		s.Equal(3, body.Units)
		s.Equal("25.5", body.TotalPrice.String())
	})
}

func (s *ReservationHandlerTestSuite) TestListMine() {
	s.Run("success: forwards cursor and clamps limit", func() {
		next := "next-cursor"
		view := builder.NewReservationBuilder().ForUser(s.shopper.ID).BuildReadModel()
		s.mockQueries.EXPECT().ListMine(gomock.Any(), gomock.Any(), "abc", queries.MaxListLimit).
			Return(&queries.ReservationPage{Items: []*queries.ReservationView{view}, NextCursor: &next}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, fmt.Sprintf("/reservations?after=abc&limit=%d", queries.MaxListLimit+50), nil, "bearer-token")

		var body resdto.ReservationListResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Len(body.Reservations, 1)
		s.Require().NotNil(body.NextCursor)
		s.Equal(next, *body.NextCursor)
	})

	s.Run("error: 400 on a bad cursor", func() {
		s.mockQueries.EXPECT().ListMine(gomock.Any(), gomock.Any(), "garbage", gomock.Any()).
			Return(nil, queries.ErrInvalidCursor).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/reservations?after=garbage", nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "")
	})
}

func (s *ReservationHandlerTestSuite) TestQRCode() {
	resID := uuid.New()
	url := "/reservations/" + resID.String() + "/qr.png"

	s.Run("success: renders a png of the token", func() {
		s.mockQueries.EXPECT().Token(gomock.Any(), gomock.Any(), resID).Return(resID.String(), nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url+"?size=4000", nil, "bearer-token")
		s.Equal(http.StatusOK, rec.Code)
		httptest.AssertHeaders(s.T(), rec, map[string]string{"Content-Type": "image/png", "Cache-Control": "no-store"})

		img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
		s.Require().NoError(err)
		s.Equal(1024, img.Bounds().Dx())
	})

	s.Run("error: 403 for another user's reservation", func() {
		s.mockQueries.EXPECT().Token(gomock.Any(), gomock.Any(), resID).Return("", queries.ErrReservationAccess).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")
		s.Equal(http.StatusForbidden, rec.Code)
	})
}
