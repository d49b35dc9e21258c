package response

import (
	"groupbuy/internal/domain/points"
	"groupbuy/internal/usecase/commands"
)

type BalanceResponse struct {
	Points  int64  `json:"points"`
	Tier    string `json:"tier"`
	TierCap int    `json:"tierCap"`
}

type AwardResponse struct {
	Applied bool             `json:"applied"`
	Amount  int64            `json:"amount"`
	Balance *BalanceResponse `json:"balance"`
}

func FromBalance(b points.Balance) *BalanceResponse {
	t := b.Tier()
	return &BalanceResponse{Points: b.Points, Tier: t.String(), TierCap: t.Cap()}
}

func FromAwardResult(res *commands.AwardResult) *AwardResponse {
	return &AwardResponse{
		Applied: res.Applied,
		Amount:  res.Amount,
		Balance: FromBalance(res.Balance),
	}
}
