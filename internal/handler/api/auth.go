package api

import (
	"errors"
	"net/http"

	"groupbuy/internal/domain/auth"
	reqdto "groupbuy/internal/handler/dto/request"
	resdto "groupbuy/internal/handler/dto/response"
	"groupbuy/internal/handler/httperr"
	"groupbuy/internal/pkg/config"
	"groupbuy/internal/pkg/cookie"
	"groupbuy/internal/pkg/jwt"
	"groupbuy/internal/usecase/commands"
	"groupbuy/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	cmds       commands.AuthCommands
	q          queries.UserQueries
	jwtService *jwt.Service
	cfg        config.Config
}

func NewAuthHandler(cmds commands.AuthCommands, q queries.UserQueries, jwtService *jwt.Service, cfg config.Config) *AuthHandler {
	return &AuthHandler{
		cmds:       cmds,
		q:          q,
		jwtService: jwtService,
		cfg:        cfg,
	}
}

// @Summary User login
// @Description Login with email and password. The access token is also set as an HttpOnly cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body reqdto.LoginRequest true "Login request"
// @Success 200 {object} resdto.LoginResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req reqdto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	result, err := h.cmds.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			httperr.AbortWithError(c, http.StatusUnauthorized, err, "Invalid email or password", nil)
		case errors.Is(err, auth.ErrInactiveUser):
			httperr.AbortWithError(c, http.StatusForbidden, err, "Account is inactive", nil)
		default:
			httperr.Abort(c, err)
		}
		return
	}

	u, err := h.q.GetCurrentUser(c.Request.Context(), result.UserID)
	if err != nil {
		httperr.Abort(c, err)
		return
	}

	cookie.SetAccessToken(c, h.cfg.Cookie, result.AccessToken, h.jwtService.Duration())
	c.JSON(http.StatusOK, resdto.LoginResponse{
		AccessToken: result.AccessToken,
		User:        resdto.FromUserView(u),
	})
}

// @Summary User logout
// @Description Clear the access token cookie
// @Tags auth
// @Security BearerAuth
// @Success 204 "No Content"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	cookie.ClearAccessToken(c, h.cfg.Cookie)
	c.Status(http.StatusNoContent)
}

// @Summary Current user
// @Description Get the authenticated user with points and tier
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.UserResponse
// @Failure 401 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	u, err := h.q.GetCurrentUser(c.Request.Context(), sess.UserID)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromUserView(u))
}
