package validation

import (
	"strings"

	"github.com/google/uuid"
)

const participantSep = ":"

// Token is a parsed QR payload. It has one of two forms: a bare reservation
// id, or an offer qr code plus the participant's user id.
type Token struct {
	reservationID uuid.UUID
	offerCode     uuid.UUID
	userID        uuid.UUID
}

func ParseToken(raw string) (Token, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Token{}, ErrMalformedToken
	}

	if code, user, ok := strings.Cut(raw, participantSep); ok {
		offerCode, err := uuid.Parse(code)
		if err != nil {
			return Token{}, ErrMalformedToken
		}
		userID, err := uuid.Parse(user)
		if err != nil {
			return Token{}, ErrMalformedToken
		}
		if offerCode == uuid.Nil || userID == uuid.Nil {
			return Token{}, ErrMalformedToken
		}
		return Token{offerCode: offerCode, userID: userID}, nil
	}

	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return Token{}, ErrMalformedToken
	}
	return Token{reservationID: id}, nil
}

func ForReservation(reservationID uuid.UUID) Token {
	return Token{reservationID: reservationID}
}

func ForParticipant(offerCode, userID uuid.UUID) Token {
	return Token{offerCode: offerCode, userID: userID}
}

// IsDirect reports whether the token names the reservation itself.
func (t Token) IsDirect() bool { return t.reservationID != uuid.Nil }

func (t Token) ReservationID() uuid.UUID { return t.reservationID }
func (t Token) OfferCode() uuid.UUID     { return t.offerCode }
func (t Token) UserID() uuid.UUID        { return t.userID }

func (t Token) String() string {
	if t.IsDirect() {
		return t.reservationID.String()
	}
	return t.offerCode.String() + participantSep + t.userID.String()
}
