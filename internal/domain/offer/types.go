package offer

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusPickup    Status = "PICKUP"
	StatusCompleted Status = "COMPLETED"
	StatusExpired   Status = "EXPIRED"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusPickup, StatusCompleted, StatusExpired:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition can leave this status.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusExpired
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}
