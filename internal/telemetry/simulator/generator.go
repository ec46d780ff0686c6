package simulator

import (
	"math"
	"math/rand"
	"sync"

	"telemetry-server/internal/telemetry/domain"
)

const (
	baseTemperature  = 27.0
	temperatureSwing = 1.5
	temperatureNoise = 0.2
	joystickSteps    = 16
	buttonAPeriod    = 5
	buttonBPeriod    = 7
)

// Generator produces readings shaped like the ones the board sends: the
// internal temperature sensor drifting around 27 °C, the joystick sweeping
// a circle and both buttons toggling at different rates.
type Generator struct {
	mu   sync.Mutex
	step int
	rand *rand.Rand
}

func NewGenerator(seed int64) *Generator {
	return &Generator{rand: rand.New(rand.NewSource(seed))}
}

func (g *Generator) Next() domain.SensorSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	step := g.step
	g.step++

	angle := 2 * math.Pi * float64(step%joystickSteps) / joystickSteps
	noise := (g.rand.Float64()*2 - 1) * temperatureNoise

	return domain.SensorSnapshot{
		Temperature: round2(baseTemperature + temperatureSwing*math.Sin(float64(step)/20) + noise),
		JoystickX:   round2(math.Cos(angle)),
		JoystickY:   round2(math.Sin(angle)),
		ButtonA:     (step / buttonAPeriod) % 2,
		ButtonB:     (step / buttonBPeriod) % 2,
	}
}

// round2 matches the two decimals the firmware prints.
func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}
