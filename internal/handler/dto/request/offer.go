package request

import (
	"strings"
	"time"

	"groupbuy/internal/usecase/commands"

	"github.com/jinzhu/copier"
	"github.com/shopspring/decimal"
)

type CreateOfferRequest struct {
	ProductName string `json:"productName" binding:"required,max=200"`
	// Prices are checked by the offer itself.
	NormalPrice decimal.Decimal `json:"normalPrice"`
	GroupPrice  decimal.Decimal `json:"groupPrice"`
	TargetUnits int             `json:"targetUnits" binding:"required,min=1,max=100000"`
	ExpiresAt   time.Time       `json:"expiresAt" binding:"required"`
}

func (r CreateOfferRequest) ToParams() (commands.CreateOfferParams, error) {
	var p commands.CreateOfferParams
	if err := copier.Copy(&p, &r); err != nil {
		return commands.CreateOfferParams{}, err
	}
	p.ProductName = strings.TrimSpace(p.ProductName)
	return p, nil
}
