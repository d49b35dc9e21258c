//go:build unit

package api_test

import (
	"net/http"
	"strings"
	"testing"

	"groupbuy/internal/domain/points"
	"groupbuy/internal/handler/api"
	reqdto "groupbuy/internal/handler/dto/request"
	resdto "groupbuy/internal/handler/dto/response"
	"groupbuy/internal/usecase/commands"
	"groupbuy/tests/common/builder"
	"groupbuy/tests/common/httptest"
	commandsmock "groupbuy/tests/mock/commands"
	queriesmock "groupbuy/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type PointsHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockPointsCommands
	mockQueries  *queriesmock.MockUserQueries
	shopper      *builder.UserBuilder
}

func (s *PointsHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockPointsCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockUserQueries(s.mockCtrl)
	s.shopper = builder.NewUserBuilder().WithPoints(195)

	h := api.NewPointsHandler(s.mockCommands, s.mockQueries)
	auth := withSession(s.shopper)
	s.router.GET("/points", auth, h.Balance)
	s.router.POST("/points/share", auth, h.Share)
	s.router.POST("/points/daily-open", auth, h.DailyOpen)
}

func (s *PointsHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestPointsHandlerSuite(t *testing.T) {
	suite.Run(t, new(PointsHandlerTestSuite))
}

func (s *PointsHandlerTestSuite) TestBalance() {
	s.Run("success: tier is derived from points", func() {
		s.mockQueries.EXPECT().GetCurrentUser(gomock.Any(), s.shopper.ID).Return(s.shopper.BuildReadModel(), nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/points", nil, "bearer-token")

		var body resdto.BalanceResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(int64(195), body.Points)
		s.Equal("SILVER", body.Tier)
		s.Equal(4, body.TierCap)
	})

	s.Run("error: 401 without a session", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/points", nil, "")
		s.Equal(http.StatusUnauthorized, rec.Code)
	})
}

func (s *PointsHandlerTestSuite) TestShare() {
	s.Run("success: credits the share award", func() {
		s.mockCommands.EXPECT().Share(gomock.Any(), s.shopper.BuildSession(), "offer-123").
			Return(&commands.AwardResult{
				Balance: points.Balance{UserID: s.shopper.ID, Points: 200},
				Applied: true,
				Amount:  5,
			}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/points/share", reqdto.ShareRequest{Ref: "offer-123"}, "bearer-token")

		var body resdto.AwardResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.True(body.Applied)
		s.Equal(int64(5), body.Amount)
		s.Equal("GOLD", body.Balance.Tier)
	})

	s.Run("error: 400 on request validation", func() {
		for name, ref := range map[string]string{"missing ref": "", "ref too long": strings.Repeat("r", 201)} {
			s.Run(name, func() {
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/points/share", reqdto.ShareRequest{Ref: ref}, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request")
			})
		}
	})
}

func (s *PointsHandlerTestSuite) TestDailyOpen() {
	s.Run("success: second open of the day is not applied", func() {
		s.mockCommands.EXPECT().DailyOpen(gomock.Any(), s.shopper.BuildSession()).
			Return(&commands.AwardResult{
				Balance: points.Balance{UserID: s.shopper.ID, Points: 195},
				Applied: false,
				Amount:  0,
			}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/points/daily-open", nil, "bearer-token")

		var body resdto.AwardResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.False(body.Applied)
		s.Equal(int64(195), body.Balance.Points)
	})
}
