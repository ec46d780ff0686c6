package domain

// SensorSnapshot is the most recently received set of sensor values.
// The zero value is the snapshot the server starts with.
type SensorSnapshot struct {
	Temperature float64
	JoystickX   float64
	JoystickY   float64
	ButtonA     int
	ButtonB     int
}

// Pressed reports whether the given button value means "pressed".
// Devices send 1 for pressed and 0 for released, anything non-zero counts.
func Pressed(button int) bool {
	return button != 0
}

type Direction string

const (
	DirectionCenter    Direction = "CENTER"
	DirectionNorth     Direction = "N"
	DirectionNorthEast Direction = "NE"
	DirectionEast      Direction = "E"
	DirectionSouthEast Direction = "SE"
	DirectionSouth     Direction = "S"
	DirectionSouthWest Direction = "SW"
	DirectionWest      Direction = "W"
	DirectionNorthWest Direction = "NW"
)

const directionThreshold = 0.5

// Direction maps the joystick position onto a compass rose. Axes within
// the threshold count as centered.
func (s SensorSnapshot) Direction() Direction {
	x, y := s.JoystickX, s.JoystickY

	switch {
	case x > directionThreshold && y > directionThreshold:
		return DirectionNorthEast
	case x > directionThreshold && y < -directionThreshold:
		return DirectionSouthEast
	case x > directionThreshold:
		return DirectionEast
	case x < -directionThreshold && y > directionThreshold:
		return DirectionNorthWest
	case x < -directionThreshold && y < -directionThreshold:
		return DirectionSouthWest
	case x < -directionThreshold:
		return DirectionWest
	case y > directionThreshold:
		return DirectionNorth
	case y < -directionThreshold:
		return DirectionSouth
	}

	return DirectionCenter
}
