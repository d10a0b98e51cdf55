package service

import (
	"fmt"
	"log/slog"

	"tempcast/internal/modules/weather/repository"
	"tempcast/internal/modules/weather/types"
	"tempcast/internal/mqtt"
)

const (
	SourceCSV  = "csv"
	SourceMQTT = "mqtt"
)

type Service struct {
	repository repository.ReadingRepository
	logger     *slog.Logger
}

func NewService(repository repository.ReadingRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repository: repository, logger: logger}
}

// Register attaches the telemetry handler to the subscriber.
func (s *Service) Register(subscriber mqtt.MQTTSubscriber) {
	registerMQTTHandler(subscriber, s)
}

// Import stores a batch of readings loaded from a file.
func (s *Service) Import(readings []types.Reading, source string) (int, error) {
	n, err := s.repository.InsertReadings(readings, source)
	if err != nil {
		return 0, fmt.Errorf("import readings: %w", err)
	}
	s.logger.Info("readings imported", "count", n, "source", source)
	return n, nil
}

// History returns every stored reading in time order.
func (s *Service) History() ([]types.Reading, error) {
	readings, err := s.repository.GetAllReadings()
	if err != nil {
		return nil, fmt.Errorf("load stored readings: %w", err)
	}
	return readings, nil
}

// Ingest upserts a single telemetry sample.
func (s *Service) Ingest(t types.Telemetry) error {
	return s.repository.InsertReading(t.Timestamp, t.Temperature, t.Humidity, SourceMQTT)
}
