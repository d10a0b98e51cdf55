package config

import (
	"log/slog"
	"testing"
	"time"
)

var envVars = []string{
	"APP_ENV", "LOG_LEVEL", "HTTP_ADDR",
	"READINGS_SOURCE", "READINGS_CSV", "CSV_DELIMITER",
	"SAMPLE_TIME", "SAMPLE_TOLERANCE", "TRAIN_CUTOFF", "RIDGE_ALPHA",
	"DB_DRIVER", "DB_DSN", "SQLITE_PATH",
	"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME",
	"MQTT_ENABLED", "MQTT_BROKER", "MQTT_PORT", "MQTT_CLIENT_ID", "MQTT_TOPIC",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envVars {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}

	if got.AppEnv != "dev" {
		t.Errorf("AppEnv = %q, want %q", got.AppEnv, "dev")
	}
	if got.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want %v", got.LogLevel, slog.LevelInfo)
	}
	if got.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", got.HTTPAddr, ":8080")
	}
	if got.ReadingsSource != SourceCSV {
		t.Errorf("ReadingsSource = %q, want %q", got.ReadingsSource, SourceCSV)
	}
	if got.ReadingsCSV != "aysa_data.csv" {
		t.Errorf("ReadingsCSV = %q, want %q", got.ReadingsCSV, "aysa_data.csv")
	}
	if got.CSVDelimiter != ',' {
		t.Errorf("CSVDelimiter = %q, want ','", got.CSVDelimiter)
	}
	if got.SampleTime != 14*time.Hour {
		t.Errorf("SampleTime = %v, want 14h", got.SampleTime)
	}
	if got.SampleTolerance != 0 {
		t.Errorf("SampleTolerance = %v, want 0", got.SampleTolerance)
	}
	wantCutoff := time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC)
	if !got.TrainCutoff.Equal(wantCutoff) {
		t.Errorf("TrainCutoff = %v, want %v", got.TrainCutoff, wantCutoff)
	}
	if got.RidgeAlpha != 0.1 {
		t.Errorf("RidgeAlpha = %v, want 0.1", got.RidgeAlpha)
	}
	if got.SQLiteDriver != "sqlite3" {
		t.Errorf("SQLiteDriver = %q, want sqlite3", got.SQLiteDriver)
	}
	if got.SQLitePath != "data/tempcast.db" {
		t.Errorf("SQLitePath = %q, want data/tempcast.db", got.SQLitePath)
	}
	if got.MQTTEnabled {
		t.Errorf("MQTTEnabled = true, want false")
	}
	if got.MQTTPort != 1883 {
		t.Errorf("MQTTPort = %d, want 1883", got.MQTTPort)
	}
	if got.MQTTTopic != "tempcast/readings" {
		t.Errorf("MQTTTopic = %q, want tempcast/readings", got.MQTTTopic)
	}
}

func TestLoadFromEnv_AppEnv_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		appEnv string
	}{
		{name: "staging", appEnv: "staging"},
		{name: "uppercase invalid", appEnv: "DEV"},
		{name: "random", appEnv: "whatever"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("APP_ENV", tt.appEnv)

			_, err := LoadFromEnv()
			if err == nil {
				t.Fatalf("LoadFromEnv() error = nil, want non-nil")
			}
		})
	}
}

func TestLoadFromEnv_ForecastSettings(t *testing.T) {
	clearEnv(t)
	t.Setenv("READINGS_SOURCE", " SQLite ")
	t.Setenv("CSV_DELIMITER", ";")
	t.Setenv("SAMPLE_TIME", "13:30:15")
	t.Setenv("SAMPLE_TOLERANCE", "30m")
	t.Setenv("TRAIN_CUTOFF", "2022-06-30")
	t.Setenv("RIDGE_ALPHA", "2.5")

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}
	if got.ReadingsSource != SourceSQLite {
		t.Errorf("ReadingsSource = %q, want %q", got.ReadingsSource, SourceSQLite)
	}
	if got.CSVDelimiter != ';' {
		t.Errorf("CSVDelimiter = %q, want ';'", got.CSVDelimiter)
	}
	want := 13*time.Hour + 30*time.Minute + 15*time.Second
	if got.SampleTime != want {
		t.Errorf("SampleTime = %v, want %v", got.SampleTime, want)
	}
	if got.SampleTolerance != 30*time.Minute {
		t.Errorf("SampleTolerance = %v, want 30m", got.SampleTolerance)
	}
	if got.TrainCutoff.Format(time.DateOnly) != "2022-06-30" {
		t.Errorf("TrainCutoff = %v, want 2022-06-30", got.TrainCutoff)
	}
	if got.RidgeAlpha != 2.5 {
		t.Errorf("RidgeAlpha = %v, want 2.5", got.RidgeAlpha)
	}
}

func TestLoadFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown source", key: "READINGS_SOURCE", value: "postgres"},
		{name: "multi-char delimiter", key: "CSV_DELIMITER", value: ";;"},
		{name: "bad sample time", key: "SAMPLE_TIME", value: "2pm"},
		{name: "negative tolerance", key: "SAMPLE_TOLERANCE", value: "-1m"},
		{name: "day-first cutoff", key: "TRAIN_CUTOFF", value: "31/12/2021"},
		{name: "alpha not a number", key: "RIDGE_ALPHA", value: "tiny"},
		{name: "negative alpha", key: "RIDGE_ALPHA", value: "-0.1"},
		{name: "bad max open conns", key: "DB_MAX_OPEN_CONNS", value: "many"},
		{name: "bad lifetime", key: "DB_CONN_MAX_LIFETIME", value: "forever"},
		{name: "bad mqtt flag", key: "MQTT_ENABLED", value: "sometimes"},
		{name: "bad mqtt port", key: "MQTT_PORT", value: "eighteen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := LoadFromEnv(); err == nil {
				t.Fatalf("LoadFromEnv() with %s=%q error = nil, want non-nil", tt.key, tt.value)
			}
		})
	}
}

func TestLoadFromEnv_HTTPAddr(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "default when empty", in: "", want: ":8080"},
		{name: "trims whitespace", in: "  :9090  ", want: ":9090"},
		{name: "host:port", in: "127.0.0.1:8081", want: "127.0.0.1:8081"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("HTTP_ADDR", tt.in)

			got, err := LoadFromEnv()
			if err != nil {
				t.Fatalf("LoadFromEnv() error = %v, want nil", err)
			}
			if got.HTTPAddr != tt.want {
				t.Errorf("HTTPAddr = %q, want %q", got.HTTPAddr, tt.want)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "info", want: slog.LevelInfo},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "  DeBuG \n", want: slog.LevelDebug},
		{in: "loud", want: slog.LevelInfo, wantErr: true},
		{in: "", want: slog.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLogLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		in   string
		want rune
	}{
		{in: "", want: ','},
		{in: ";", want: ';'},
		{in: `\t`, want: '\t'},
		{in: "tab", want: '\t'},
	}
	for _, tt := range tests {
		got, err := parseDelimiter(tt.in)
		if err != nil {
			t.Fatalf("parseDelimiter(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("parseDelimiter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
