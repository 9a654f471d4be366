package parts

import "fmt"

// Kind is the type of a physical part.
type Kind string

const (
	KindAntenna   Kind = "ANTENNA"
	KindLNA       Kind = "LNA"
	KindCoax      Kind = "COAX"
	KindBackboard Kind = "BACKBOARD"
	KindSNAP      Kind = "SNAP"
)

// AllKinds lists every kind in assembly order.
var AllKinds = []Kind{KindAntenna, KindLNA, KindCoax, KindBackboard, KindSNAP}

// ParseKind accepts a kind name in any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(Normalize(s))
	for _, known := range AllKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown part kind %q", s)
}

func (k Kind) String() string {
	return string(k)
}
