package response

import (
	"groupbuy/internal/domain/tier"
	"groupbuy/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type LoginResponse struct {
	AccessToken string        `json:"accessToken"`
	User        *UserResponse `json:"user"`
}

type UserResponse struct {
	ID      uuid.UUID  `json:"id"`
	Email   string     `json:"email"`
	Role    string     `json:"role"`
	StoreID *uuid.UUID `json:"storeId,omitempty"`
	Points  int64      `json:"points"`
	Tier    string     `json:"tier"`
	TierCap int        `json:"tierCap"`
}

func FromUserView(v *queries.AuthorizedUserView) *UserResponse {
	var resp UserResponse
	_ = copier.Copy(&resp, v)
	t := tier.FromPoints(v.Points)
	resp.Tier = t.String()
	resp.TierCap = t.Cap()
	return &resp
}
