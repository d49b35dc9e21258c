package response

import (
	"time"

	"groupbuy/internal/domain/offer"
	"groupbuy/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/shopspring/decimal"
)

type OfferResponse struct {
	ID             uuid.UUID       `json:"id"`
	StoreID        uuid.UUID       `json:"storeId"`
	ProductName    string          `json:"productName"`
	NormalPrice    decimal.Decimal `json:"normalPrice"`
	GroupPrice     decimal.Decimal `json:"groupPrice"`
	TargetUnits    int             `json:"targetUnits"`
	ReservedUnits  int             `json:"reservedUnits"`
	ValidatedUnits int             `json:"validatedUnits"`
	AvailableUnits int             `json:"availableUnits"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
	ExpiresAt      time.Time       `json:"expiresAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	QRCode         *uuid.UUID      `json:"qrCode,omitempty"`
}

type OfferListResponse struct {
	Offers     []*OfferResponse `json:"offers"`
	NextCursor *string          `json:"nextCursor,omitempty"`
}

func FromOfferView(v *queries.OfferView) *OfferResponse {
	var resp OfferResponse
	_ = copier.Copy(&resp, v)
	resp.AvailableUnits = v.AvailableUnits()
	return &resp
}

func FromOfferPage(p *queries.OfferPage) *OfferListResponse {
	resp := &OfferListResponse{
		Offers:     make([]*OfferResponse, 0, len(p.Items)),
		NextCursor: p.NextCursor,
	}
	for _, v := range p.Items {
		resp.Offers = append(resp.Offers, FromOfferView(v))
	}
	return resp
}

// FromOffer renders an entity returned by a command. The QR code is only
// included when withCode is set.
func FromOffer(o *offer.Offer, withCode bool) *OfferResponse {
	resp := &OfferResponse{
		ID:             o.ID(),
		StoreID:        o.StoreID(),
		ProductName:    o.ProductName(),
		NormalPrice:    o.NormalPrice(),
		GroupPrice:     o.GroupPrice(),
		TargetUnits:    o.TargetUnits(),
		ReservedUnits:  o.ReservedUnits(),
		ValidatedUnits: o.ValidatedUnits(),
		AvailableUnits: o.Available(),
		Status:         o.Status().String(),
		CreatedAt:      o.CreatedAt(),
		ExpiresAt:      o.ExpiresAt(),
		UpdatedAt:      o.UpdatedAt(),
	}
	if withCode {
		code := o.QRCode()
		resp.QRCode = &code
	}
	return resp
}
