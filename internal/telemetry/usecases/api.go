package usecases

import (
	"context"

	"telemetry-server/internal/telemetry/domain"
)

//go:generate mockgen -source=./api.go -destination=../../../test/unit/doubles/telemetry/usecases/api_mock.go -package=usecases -mock_names=ReadingService=MockReadingService

type ReadingService interface {
	CurrentReadings(context.Context) (domain.SensorSnapshot, error)
	UpdateReadings(context.Context, domain.SensorSnapshot) error
}
