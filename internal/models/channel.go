package models

import "fmt"

// Channel is one of the three color planes of a composite image.
type Channel int

const (
	Red Channel = iota
	Green
	Blue
)

// Channels lists every channel in plane order.
var Channels = [3]Channel{Red, Green, Blue}

func (c Channel) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	default:
		return fmt.Sprintf("Channel(%d)", int(c))
	}
}

// Valid reports whether c is Red, Green or Blue.
func (c Channel) Valid() bool {
	return c >= Red && c <= Blue
}

// ParseChannel accepts a channel name or its first letter.
func ParseChannel(s string) (Channel, error) {
	switch s {
	case "red", "r":
		return Red, nil
	case "green", "g":
		return Green, nil
	case "blue", "b":
		return Blue, nil
	}
	return 0, fmt.Errorf("unknown channel %q", s)
}
