package usecases

import (
	"context"
	"errors"

	"telemetry-server/internal/telemetry/domain"
)

//go:generate mockgen -source=repository_port.go -destination=../../../test/unit/doubles/telemetry/usecases/repository_port_mock.go -package=usecases -mock_names=ReadingStore=MockReadingStore

var ErrStoreUnavailable = errors.New("reading store unavailable")

// ReadingStore holds the single current snapshot. Set replaces all fields
// at once so Get never returns a mix of two writes.
type ReadingStore interface {
	Get(ctx context.Context) (domain.SensorSnapshot, error)
	Set(ctx context.Context, snapshot domain.SensorSnapshot) error
}
