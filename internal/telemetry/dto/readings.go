package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"telemetry-server/internal/telemetry/domain"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrMissingField   = fmt.Errorf("%w: missing field", ErrInvalidRequest)
)

// Readings is the payload devices send, keyed the way the firmware builds it:
// {"temp":27.31,"joy_x":0.00,"joy_y":-0.52,"btn_a":0,"btn_b":1}
type Readings struct {
	Temperature *float64 `json:"temp" msgpack:"temp"`
	JoystickX   *float64 `json:"joy_x" msgpack:"joy_x"`
	JoystickY   *float64 `json:"joy_y" msgpack:"joy_y"`
	ButtonA     *int     `json:"btn_a" msgpack:"btn_a"`
	ButtonB     *int     `json:"btn_b" msgpack:"btn_b"`
}

// DecodeJSON parses a request body into Readings. Bodies that are empty,
// not JSON, not an object or carry values of the wrong type are rejected
// with ErrInvalidRequest.
func DecodeJSON(data []byte) (Readings, error) {
	var readings Readings

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return readings, fmt.Errorf("%w: empty body", ErrInvalidRequest)
	}

	if trimmed[0] != '{' {
		return readings, fmt.Errorf("%w: body is not a json object", ErrInvalidRequest)
	}

	if err := json.Unmarshal(trimmed, &readings); err != nil {
		return readings, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
	}

	return readings, nil
}

// MissingFields lists the absent keys in wire order.
func (r Readings) MissingFields() []string {
	missing := make([]string, 0)
	if r.Temperature == nil {
		missing = append(missing, "temp")
	}
	if r.JoystickX == nil {
		missing = append(missing, "joy_x")
	}
	if r.JoystickY == nil {
		missing = append(missing, "joy_y")
	}
	if r.ButtonA == nil {
		missing = append(missing, "btn_a")
	}
	if r.ButtonB == nil {
		missing = append(missing, "btn_b")
	}
	return missing
}

func (r Readings) ToSnapshot() (domain.SensorSnapshot, error) {
	if missing := r.MissingFields(); len(missing) > 0 {
		return domain.SensorSnapshot{}, &MissingFieldsError{Fields: missing}
	}

	return domain.SensorSnapshot{
		Temperature: *r.Temperature,
		JoystickX:   *r.JoystickX,
		JoystickY:   *r.JoystickY,
		ButtonA:     *r.ButtonA,
		ButtonB:     *r.ButtonB,
	}, nil
}

func FromSnapshot(snapshot domain.SensorSnapshot) Readings {
	return Readings{
		Temperature: &snapshot.Temperature,
		JoystickX:   &snapshot.JoystickX,
		JoystickY:   &snapshot.JoystickY,
		ButtonA:     &snapshot.ButtonA,
		ButtonB:     &snapshot.ButtonB,
	}
}

type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingField.Error(), strings.Join(e.Fields, ", "))
}

func (e *MissingFieldsError) Unwrap() error {
	return ErrMissingField
}

// Messages renders one human readable line per missing key.
func (e *MissingFieldsError) Messages() []string {
	messages := make([]string, len(e.Fields))
	for i, field := range e.Fields {
		messages[i] = "missing field: " + field
	}
	return messages
}
