package norm

import (
	"fmt"
	"math"
	"strings"
)

// Stretch maps a value already scaled to [0, 1] onto [0, 1].
type Stretch int

const (
	Linear Stretch = iota
	Sqrt
	Arcsinh
	Log
	Squared
)

const logBase = 1000.0

var stretchNames = map[Stretch]string{
	Linear:  "linear",
	Sqrt:    "sqrt",
	Arcsinh: "arcsinh",
	Log:     "log",
	Squared: "squared",
}

func (s Stretch) String() string {
	if name, ok := stretchNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Stretch(%d)", int(s))
}

// ParseStretch converts a stretch name into a Stretch.
func ParseStretch(name string) (Stretch, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range stretchNames {
		if n == name {
			return s, nil
		}
	}
	return Linear, fmt.Errorf("unknown stretch %q", name)
}

func (s Stretch) apply(x float64) float64 {
	switch s {
	case Sqrt:
		return math.Sqrt(x)
	case Arcsinh:
		return math.Asinh(10*x) / math.Asinh(10)
	case Log:
		return math.Log(logBase*x+1) / math.Log(logBase+1)
	case Squared:
		return x * x
	default:
		return x
	}
}
