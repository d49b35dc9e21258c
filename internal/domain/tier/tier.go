package tier

type Tier string

const (
	Bronze Tier = "BRONZE"
	Silver Tier = "SILVER"
	Gold   Tier = "GOLD"
)

const (
	silverThreshold = 100
	goldThreshold   = 200
)

var caps = map[Tier]int{
	Bronze: 2,
	Silver: 4,
	Gold:   6,
}

// FromPoints maps accumulated loyalty points to a tier. Negative input is treated as zero.
func FromPoints(points int64) Tier {
	switch {
	case points >= goldThreshold:
		return Gold
	case points >= silverThreshold:
		return Silver
	default:
		return Bronze
	}
}

// CapFor returns the per-offer unit cap for the given points balance.
func CapFor(points int64) int {
	return FromPoints(points).Cap()
}

// Cap is the maximum number of units a holder may reserve on a single offer.
func (t Tier) Cap() int {
	return caps[t]
}

func (t Tier) String() string {
	return string(t)
}

func (t Tier) IsValid() bool {
	_, ok := caps[t]
	return ok
}

func Parse(s string) (Tier, bool) {
	t := Tier(s)
	return t, t.IsValid()
}
