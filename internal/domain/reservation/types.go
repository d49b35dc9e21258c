package reservation

type Status string

const (
	StatusReserved  Status = "RESERVED"
	StatusValidated Status = "VALIDATED"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusReserved, StatusValidated, StatusExpired, StatusCancelled:
		return true
	default:
		return false
	}
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}
