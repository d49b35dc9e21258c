//go:build unit

package api_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"groupbuy/internal/domain/offer"
	"groupbuy/internal/domain/user"
	"groupbuy/internal/handler/api"
	resdto "groupbuy/internal/handler/dto/response"
	"groupbuy/internal/handler/middleware"
	"groupbuy/internal/usecase/commands"
	"groupbuy/internal/usecase/queries"
	"groupbuy/tests/common/builder"
	"groupbuy/tests/common/httptest"
	"groupbuy/tests/common/testutil"
	commandsmock "groupbuy/tests/mock/commands"
	queriesmock "groupbuy/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type OfferHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockOfferCommands
	mockQueries  *queriesmock.MockOfferQueries
	handler      *api.OfferHandler
	merchant     *builder.UserBuilder
	storeID      uuid.UUID
}

func (s *OfferHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockOfferCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockOfferQueries(s.mockCtrl)
	s.handler = api.NewOfferHandler(s.mockCommands, s.mockQueries)
	s.storeID = uuid.New()
	s.merchant = builder.NewUserBuilder().WithEmail("merchant@example.com").AsMerchant(s.storeID)

	auth := withSession(s.merchant)
	s.router.POST("/offers", auth, s.handler.Create)
	s.router.GET("/offers", s.handler.List)
	s.router.GET("/offers/:id", auth, s.handler.Get)
	s.router.GET("/offers/:id/reservations", auth, s.handler.ListReservations)
}

func (s *OfferHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestOfferHandlerSuite(t *testing.T) {
	suite.Run(t, new(OfferHandlerTestSuite))
}

type testCaseOffer struct {
	name       string
	mutate     func(m map[string]any)
	expectCode int
}

func (s *OfferHandlerTestSuite) TestCreate() {
	url := "/offers"
	ob := builder.NewOfferBuilder().WithStore(s.storeID)
	reqBody := ob.BuildDTO()
	created := ob.BuildDomain()

	s.Run("success: 201 Created with location and qr code", func() {
		s.mockCommands.EXPECT().Create(gomock.Any(), s.merchant.BuildSession(), gomock.Any()).
			DoAndReturn(func(_ any, _ user.Session, p commands.CreateOfferParams) (*offer.Offer, error) {
				s.Equal(reqBody.ProductName, p.ProductName)
				s.True(reqBody.GroupPrice.Equal(p.GroupPrice))
				s.True(reqBody.ExpiresAt.Equal(p.ExpiresAt))
				return created, nil
			}).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")

		var body resdto.OfferResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &body)
		s.Equal(created.ID(), body.ID)
		s.Equal("ACTIVE", body.Status)
		s.Require().NotNil(body.QRCode)
		s.Equal(created.QRCode(), *body.QRCode)
		httptest.AssertHeaders(s.T(), rec, map[string]string{"Location": "/api/offers/" + created.ID().String()})
	})

	s.Run("success: product name is trimmed", func() {
		s.mockCommands.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, _ user.Session, p commands.CreateOfferParams) (*offer.Offer, error) {
				s.Equal("Bread Box", p.ProductName)
				return created, nil
			}).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url,
			testutil.DtoMap(s.T(), reqBody, testutil.Field("productName", "  Bread Box  ")), "bearer-token")
		s.Equal(http.StatusCreated, rec.Code)
	})

	s.Run("error: 400 Bad Request on validation errors", func() {
		cases := []testCaseOffer{
			{name: "targetUnits boundary OK (1)", mutate: testutil.Field("targetUnits", 1), expectCode: http.StatusCreated},
			{name: "targetUnits boundary invalid (0)", mutate: testutil.Field("targetUnits", 0), expectCode: http.StatusBadRequest},
			{name: "productName length OK (200 chars)", mutate: testutil.Field("productName", strings.Repeat("a", 200)), expectCode: http.StatusCreated},
			{name: "productName length invalid (201 chars)", mutate: testutil.Field("productName", strings.Repeat("a", 201)), expectCode: http.StatusBadRequest},
			{name: "missing field: productName", mutate: testutil.Field("productName", nil), expectCode: http.StatusBadRequest},
			{name: "missing field: expiresAt", mutate: testutil.Field("expiresAt", nil), expectCode: http.StatusBadRequest},
			{name: "malformed price", mutate: testutil.Field("groupPrice", "cheap"), expectCode: http.StatusBadRequest},
		}

		for _, tc := range cases {
			s.Run(tc.name, func() {
				if tc.expectCode == http.StatusCreated {
					s.mockCommands.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(created, nil)
				}
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, testutil.DtoMap(s.T(), reqBody, tc.mutate), "bearer-token")
				s.Equal(tc.expectCode, rec.Code, rec.Body.String())
			})
		}
	})

	s.Run("error: domain validation surfaces as 400", func() {
		s.mockCommands.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, offer.ErrInvalidPrice).Times(1)

		body := testutil.DtoMap(s.T(), reqBody, testutil.Field("groupPrice", decimal.NewFromInt(20)))
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "group price must be positive")
	})

	s.Run("error: 403 for a merchant without a store", func() {
		s.mockCommands.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, user.ErrNotMerchant).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusForbidden, "merchant role")
	})
}

func (s *OfferHandlerTestSuite) TestList() {
	s.Run("success: forwards filters", func() {
		view := builder.NewOfferBuilder().WithStore(s.storeID).WithReserved(4).BuildReadModel()
		view.QRCode = nil
		s.mockQueries.EXPECT().List(gomock.Any(), queries.ListOffersParams{
			Status: "ACTIVE", StoreID: &s.storeID, Cursor: "c1", Limit: 5,
		}).Return(&queries.OfferPage{Items: []*queries.OfferView{view}}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet,
			"/offers?status=ACTIVE&store_id="+s.storeID.String()+"&after=c1&limit=5", nil, "")

		var body resdto.OfferListResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Require().Len(body.Offers, 1)
		s.Equal(6, body.Offers[0].AvailableUnits)
		s.Nil(body.NextCursor)
	})

	s.Run("error: 400 on malformed store id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/offers?store_id=nope", nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid store_id")
	})

	s.Run("error: 400 on unknown status", func() {
		s.mockQueries.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, offer.ErrInvalidStatus).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/offers?status=OPEN", nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "invalid offer status")
	})
}

func (s *OfferHandlerTestSuite) TestGet() {
	view := builder.NewOfferBuilder().WithStore(s.storeID).BuildReadModel()

	s.Run("success: session is passed so the owner sees the code", func() {
		s.mockQueries.EXPECT().Get(gomock.Any(), s.merchant.BuildSession(), view.ID).Return(view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/offers/"+view.ID.String(), nil, "bearer-token")

		var body resdto.OfferResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(view.QRCode, body.QRCode)
	})

	s.Run("success: anonymous callers get a zero session", func() {
		s.mockQueries.EXPECT().Get(gomock.Any(), user.Session{}, view.ID).Return(view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/offers/"+view.ID.String(), nil, "")
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("error: 404 for an unknown offer", func() {
		s.mockQueries.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, offer.ErrNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/offers/"+uuid.NewString(), nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "offer not found")
	})
}

func (s *OfferHandlerTestSuite) TestListReservations() {
	offerID := uuid.New()
	url := "/offers/" + offerID.String() + "/reservations"

	s.Run("success: lists participants for the owner", func() {
		views := []*queries.ReservationView{
			builder.NewReservationBuilder().ForOffer(offerID).WithUnits(2).BuildReadModel(),
			builder.NewReservationBuilder().ForOffer(offerID).ValidatedOn(time.Now()).BuildReadModel(),
		}
		s.mockQueries.EXPECT().ListReservations(gomock.Any(), s.merchant.BuildSession(), offerID).Return(views, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

		var body []resdto.ReservationResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Require().Len(body, 2)
		s.Equal("VALIDATED", body[1].Status)
		s.Equal("shopper@example.com", body[0].UserEmail)
	})

	s.Run("error: 403 for another store's offer", func() {
		s.mockQueries.EXPECT().ListReservations(gomock.Any(), gomock.Any(), offerID).Return(nil, queries.ErrNotOfferOwner).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("error: 401 without a session", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "")
		s.Equal(http.StatusUnauthorized, rec.Code)
	})
}

// The session set by OptionalAuth reaches the handler untouched.
func TestOfferGet_OptionalSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	q := queriesmock.NewMockOfferQueries(ctrl)
	h := api.NewOfferHandler(commandsmock.NewMockOfferCommands(ctrl), q)

	sess := user.NewSession(uuid.New(), user.RoleShopper, nil)
	id := uuid.New()
	q.EXPECT().Get(gomock.Any(), sess, id).Return(builder.NewOfferBuilder().BuildReadModel(), nil)

	r := gin.New()
	r.GET("/offers/:id", func(c *gin.Context) { middleware.SetSession(c, sess) }, h.Get)
	rec := httptest.PerformRequest(t, r, http.MethodGet, "/offers/"+id.String(), nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
