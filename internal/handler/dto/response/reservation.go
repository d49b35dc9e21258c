package response

import (
	"time"

	"groupbuy/internal/domain/reservation"
	"groupbuy/internal/usecase/commands"
	"groupbuy/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/shopspring/decimal"
)

type ReservationResponse struct {
	ID            uuid.UUID       `json:"id"`
	OfferID       uuid.UUID       `json:"offerId"`
	ProductName   string          `json:"productName,omitempty"`
	UserID        uuid.UUID       `json:"userId"`
	UserEmail     string          `json:"userEmail,omitempty"`
	Units         int             `json:"units"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	LevelSnapshot string          `json:"levelSnapshot"`
	Status        string          `json:"status"`
	ReservedAt    time.Time       `json:"reservedAt"`
	ValidatedAt   *time.Time      `json:"validatedAt,omitempty"`
	CancelledAt   *time.Time      `json:"cancelledAt,omitempty"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type ReservationListResponse struct {
	Reservations []*ReservationResponse `json:"reservations"`
	NextCursor   *string                `json:"nextCursor,omitempty"`
}

type ReserveResponse struct {
	Reservation   *ReservationResponse `json:"reservation"`
	Offer         *OfferResponse       `json:"offer"`
	ReachedTarget bool                 `json:"reachedTarget"`
	PointsAwarded int64                `json:"pointsAwarded"`
}

type CancelResponse struct {
	Reservation *ReservationResponse `json:"reservation"`
	Offer       *OfferResponse       `json:"offer"`
}

type ValidateResponse struct {
	UserID        uuid.UUID      `json:"userId"`
	ReservationID uuid.UUID      `json:"reservationId"`
	Units         int            `json:"units"`
	Offer         *OfferResponse `json:"offer"`
	Completed     bool           `json:"completed"`
}

func FromReservationView(v *queries.ReservationView) *ReservationResponse {
	var resp ReservationResponse
	_ = copier.Copy(&resp, v)
	return &resp
}

func FromReservationViews(items []*queries.ReservationView) []*ReservationResponse {
	out := make([]*ReservationResponse, 0, len(items))
	for _, v := range items {
		out = append(out, FromReservationView(v))
	}
	return out
}

func FromReservationPage(p *queries.ReservationPage) *ReservationListResponse {
	return &ReservationListResponse{
		Reservations: FromReservationViews(p.Items),
		NextCursor:   p.NextCursor,
	}
}

func FromReservation(r *reservation.Reservation) *ReservationResponse {
	return &ReservationResponse{
		ID:            r.ID(),
		OfferID:       r.OfferID(),
		UserID:        r.UserID(),
		Units:         r.Units(),
		TotalPrice:    r.TotalPrice(),
		LevelSnapshot: r.LevelSnapshot().String(),
		Status:        r.Status().String(),
		ReservedAt:    r.ReservedAt(),
		ValidatedAt:   r.ValidatedAt(),
		CancelledAt:   r.CancelledAt(),
		UpdatedAt:     r.UpdatedAt(),
	}
}

func FromReserveResult(res *commands.ReserveResult) *ReserveResponse {
	return &ReserveResponse{
		Reservation:   FromReservation(res.Reservation),
		Offer:         FromOffer(res.Offer, false),
		ReachedTarget: res.ReachedTarget,
		PointsAwarded: res.PointsAwarded,
	}
}

func FromCancelResult(res *commands.CancelResult) *CancelResponse {
	return &CancelResponse{
		Reservation: FromReservation(res.Reservation),
		Offer:       FromOffer(res.Offer, false),
	}
}

func FromValidateResult(res *commands.ValidateResult) *ValidateResponse {
	return &ValidateResponse{
		UserID:        res.UserID,
		ReservationID: res.ReservationID,
		Units:         res.Units,
		Offer:         FromOffer(res.Offer, true),
		Completed:     res.Completed,
	}
}
