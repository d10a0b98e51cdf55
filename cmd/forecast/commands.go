package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"tempcast/internal/app"
	"tempcast/internal/config"
	"tempcast/internal/db"
	"tempcast/internal/migrate"
	forecastservice "tempcast/internal/modules/forecast/service"
	"tempcast/internal/modules/weather/csvsource"
	"tempcast/internal/modules/weather/repository"
	weatherservice "tempcast/internal/modules/weather/service"
	"tempcast/internal/mqtt"
)

const defaultForecastDate = "19/12/2024"

func (c *cli) newPredictCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Print the forecast for one date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			forecaster, err := c.train()
			if err != nil {
				return err
			}
			predicted, err := forecaster.Predict(date)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Predicted average temperature for %s: %.2f °C\n", date, predicted)
			return err
		},
	}
	cmd.Flags().StringVar(&date, "date", defaultForecastDate, "forecast date, day first (dd/mm/yyyy)")
	return cmd
}

func (c *cli) newEvaluateCmd() *cobra.Command {
	var rows bool
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score the model on the rows after the training cutoff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			forecaster, err := c.train()
			if err != nil {
				return err
			}
			ev, err := forecaster.Evaluate()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if rows {
				for _, r := range ev.Rows {
					if _, err := fmt.Fprintf(out, "%s\t%.2f\t%.2f\n", r.Date.Format(time.DateOnly), r.Actual, r.Predicted); err != nil {
						return err
					}
				}
			}
			_, err = fmt.Fprintf(out, "Mean absolute error: %.2f °C over %d held-out days (%d skipped)\n", ev.MAE, len(ev.Rows), ev.Skipped)
			return err
		},
	}
	cmd.Flags().BoolVar(&rows, "rows", false, "also print date, actual and predicted for every held-out day")
	return cmd
}

func (c *cli) newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the reading store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := db.Open(c.cfg)
			if err != nil {
				return err
			}
			defer closeDB(conn)

			n, err := migrate.Run(conn)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d migrations applied\n", n)
			return err
		},
	}
}

func (c *cli) newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <csv>",
		Short: "Load a readings CSV into the reading store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			readings, err := csvsource.LoadFile(args[0], csvsource.Options{Delimiter: c.cfg.CSVDelimiter})
			if err != nil {
				return err
			}

			conn, err := c.openStore()
			if err != nil {
				return err
			}
			defer closeDB(conn)

			n, err := c.store(conn).Import(readings, weatherservice.SourceCSV)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d readings from %s\n", n, args[0])
			return err
		},
	}
}

func (c *cli) newReplayCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "replay <csv>",
		Short: "Publish the readings of a CSV file as MQTT telemetry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			readings, err := csvsource.LoadFile(args[0], csvsource.Options{Delimiter: c.cfg.CSVDelimiter})
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			publisher := mqtt.NewPublisher(c.cfg, c.cfg.MQTTClientID+"-replay", slog.Default().With("component", "mqtt"))
			connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err = publisher.Connect(connectCtx)
			cancel()
			if err != nil {
				return err
			}
			defer publisher.Disconnect()

			sent, skipped := 0, 0
			for i, r := range readings {
				t, ok := r.Telemetry(i)
				if !ok {
					skipped++
					continue
				}
				if err := publisher.PublishTelemetry(t); err != nil {
					return fmt.Errorf("reading %d: %w", i, err)
				}
				sent++
				if interval > 0 {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(interval):
					}
				}
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "published %d readings to %s (%d empty skipped)\n", sent, c.cfg.MQTTTopic, skipped)
			return err
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "pause between messages")
	return cmd
}

// train loads readings from the configured source and fits the model.
func (c *cli) train() (*forecastservice.Forecaster, error) {
	var store app.ReadingStore
	if c.cfg.ReadingsSource == config.SourceSQLite {
		conn, err := c.openStore()
		if err != nil {
			return nil, err
		}
		defer closeDB(conn)
		store = c.store(conn)
	}

	readings, err := app.LoadReadings(c.cfg, store)
	if err != nil {
		return nil, err
	}
	return app.TrainForecaster(c.cfg, readings)
}

func (c *cli) openStore() (*sql.DB, error) {
	conn, err := db.Open(c.cfg)
	if err != nil {
		return nil, err
	}
	if _, err := migrate.Run(conn); err != nil {
		closeDB(conn)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return conn, nil
}

func (c *cli) store(conn *sql.DB) *weatherservice.Service {
	return weatherservice.NewService(repository.NewRepository(conn), slog.Default())
}

func closeDB(conn *sql.DB) {
	if err := db.Close(conn); err != nil {
		slog.Error("db close", "error", err)
	}
}
