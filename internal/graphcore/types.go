package graphcore

// Usage is the CRD access tag a field declares against its data object.
// The zero value is Create. Usage values impose the total order
// Create < Read < Destroy via Rank.
type Usage int

const (
	Create Usage = iota
	Read
	Destroy
)

func (u Usage) String() string {
	switch u {
	case Create:
		return "Create"
	case Read:
		return "Read"
	case Destroy:
		return "Destroy"
	default:
		return "Unknown"
	}
}

// Rank returns the CRD ordering position of u; Create < Read < Destroy.
func (u Usage) Rank() int {
	return int(u)
}

// TrustLevel ranks a link for blame purposes only; it never affects
// validity.
type TrustLevel int

const (
	Low TrustLevel = iota
	Middle
	High
)

func (t TrustLevel) String() string {
	switch t {
	case Low:
		return "Low"
	case Middle:
		return "Middle"
	case High:
		return "High"
	default:
		return "Unknown"
	}
}

// StepLink is a recorded explicit ordering constraint between two steps.
type StepLink struct {
	Before int
	After  int
	Trust  TrustLevel
}

// FieldLink is a recorded field-equivalence link.
type FieldLink struct {
	F1    int
	F2    int
	Trust TrustLevel
}
