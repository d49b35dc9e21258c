package api

import (
	"net/http"
	"strconv"

	"groupbuy/internal/domain/user"
	"groupbuy/internal/handler/httperr"
	"groupbuy/internal/handler/middleware"
	"groupbuy/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func requireSession(c *gin.Context) (user.Session, bool) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, user.ErrNoSession, "Unauthorized", nil)
		return user.Session{}, false
	}
	return sess, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}

func limitQuery(c *gin.Context) int {
	limit := queries.DefaultListLimit
	if v := c.Query("limit"); v != "" {
		if iv, e := strconv.Atoi(v); e == nil {
			limit = queries.ValidateLimit(iv)
		}
	}
	return limit
}
