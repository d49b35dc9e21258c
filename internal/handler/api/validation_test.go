//go:build unit

package api_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"groupbuy/internal/domain/offer"
	"groupbuy/internal/domain/validation"
	"groupbuy/internal/handler/api"
	reqdto "groupbuy/internal/handler/dto/request"
	resdto "groupbuy/internal/handler/dto/response"
	"groupbuy/internal/usecase/commands"
	"groupbuy/tests/common/builder"
	"groupbuy/tests/common/httptest"
	commandsmock "groupbuy/tests/mock/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ValidationHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockValidationCommands
	merchant     *builder.UserBuilder
	storeID      uuid.UUID
}

func (s *ValidationHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockValidationCommands(s.mockCtrl)
	s.storeID = uuid.New()
	s.merchant = builder.NewUserBuilder().WithEmail("merchant@example.com").AsMerchant(s.storeID)

	h := api.NewValidationHandler(s.mockCommands)
	s.router.POST("/validations", withSession(s.merchant), h.Validate)
}

func (s *ValidationHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestValidationHandlerSuite(t *testing.T) {
	suite.Run(t, new(ValidationHandlerTestSuite))
}

func (s *ValidationHandlerTestSuite) TestValidate() {
	url := "/validations"
	resID := uuid.New()
	token := validation.ForReservation(resID).String()

	s.Run("success: returns the shopper and the completed offer", func() {
		o := builder.NewOfferBuilder().WithStore(s.storeID).WithTarget(2).WithReserved(2).WithValidated(2).
			WithStatus(offer.StatusCompleted).BuildDomain()
		userID := uuid.New()
		s.mockCommands.EXPECT().Validate(gomock.Any(), s.merchant.BuildSession(), token).
			Return(&commands.ValidateResult{
				UserID: userID, ReservationID: resID, OfferID: o.ID(), Units: 1, Offer: o, Completed: true,
			}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqdto.ValidateRequest{QRToken: token}, "bearer-token")

		var body resdto.ValidateResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(userID, body.UserID)
		s.Equal(resID, body.ReservationID)
		s.True(body.Completed)
		s.Equal("COMPLETED", body.Offer.Status)
		s.Require().NotNil(body.Offer.QRCode)
		s.Equal(o.QRCode(), *body.Offer.QRCode)
	})

	s.Run("error: 400 on request validation", func() {
		for name, qr := range map[string]string{"empty": "", "too long": strings.Repeat("x", 129)} {
			s.Run(name, func() {
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqdto.ValidateRequest{QRToken: qr}, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request")
			})
		}
	})

	s.Run("error: 401 without a session", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqdto.ValidateRequest{QRToken: token}, "")
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("error: maps validator errors", func() {
		testCases := []struct {
			name           string
			err            error
			expectedStatus int
			expectedMsg    string
			expectedDetail map[string]any
		}{
			{
				name:           "offer not in pickup",
				err:            &validation.OfferNotInPickupError{Status: offer.StatusActive},
				expectedStatus: http.StatusConflict,
				expectedMsg:    "status is ACTIVE",
				expectedDetail: map[string]any{"status": "ACTIVE"},
			},
			{name: "unknown token", err: validation.ErrTokenNotFound, expectedStatus: http.StatusNotFound, expectedMsg: "does not resolve"},
			{name: "another store", err: validation.ErrWrongStore, expectedStatus: http.StatusForbidden, expectedMsg: "another store"},
			{name: "malformed token", err: validation.ErrMalformedToken, expectedStatus: http.StatusBadRequest, expectedMsg: "malformed qr token"},
			{name: "unexpected", err: errors.New("boom"), expectedStatus: http.StatusInternalServerError, expectedMsg: "Internal error"},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().Validate(gomock.Any(), gomock.Any(), token).Return(nil, tc.err).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqdto.ValidateRequest{QRToken: token}, "bearer-token")
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
