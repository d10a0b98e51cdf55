package service

import (
	"tempcast/internal/modules/weather/types"
	"tempcast/internal/mqtt"
)

func registerMQTTHandler(subscriber mqtt.MQTTSubscriber, s *Service) {
	subscriber.SetMessageHandler(func(telemetry types.Telemetry) error {
		s.logger.Debug("processing telemetry message", "timestamp", telemetry.Timestamp)

		if err := s.Ingest(telemetry); err != nil {
			s.logger.Error("failed to insert reading",
				"timestamp", telemetry.Timestamp,
				"error", err,
			)
			return err
		}

		s.logger.Debug("successfully stored telemetry", "timestamp", telemetry.Timestamp)
		return nil
	})
}
