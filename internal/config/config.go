package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	SourceCSV    = "csv"
	SourceSQLite = "sqlite"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	// ReadingsSource selects where training readings come from: "csv" or "sqlite".
	ReadingsSource string
	ReadingsCSV    string
	CSVDelimiter   rune

	// SampleTime is the time of day (offset from midnight) picked for each daily record.
	SampleTime      time.Duration
	SampleTolerance time.Duration
	TrainCutoff     time.Time
	RidgeAlpha      float64

	SQLiteDriver          string
	SQLiteDSN             string
	SQLitePath            string
	SQLiteMaxOpenConns    int
	SQLiteMaxIdleConns    int
	SQLiteConnMaxLifetime time.Duration

	MQTTEnabled  bool
	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
	MQTTTopic    string
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	httpAddr := strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	source := strings.ToLower(strings.TrimSpace(os.Getenv("READINGS_SOURCE")))
	if source == "" {
		source = SourceCSV
	}
	switch source {
	case SourceCSV, SourceSQLite:
	default:
		return Config{}, fmt.Errorf("invalid READINGS_SOURCE %q (allowed: csv, sqlite)", source)
	}

	csvPath := strings.TrimSpace(os.Getenv("READINGS_CSV"))
	if csvPath == "" {
		csvPath = "aysa_data.csv"
	}

	delimiter, err := parseDelimiter(os.Getenv("CSV_DELIMITER"))
	if err != nil {
		return Config{}, err
	}

	sampleTimeStr := strings.TrimSpace(os.Getenv("SAMPLE_TIME"))
	if sampleTimeStr == "" {
		sampleTimeStr = "14:00"
	}
	sampleTime, err := parseClock(sampleTimeStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SAMPLE_TIME %q: %w", sampleTimeStr, err)
	}

	toleranceStr := strings.TrimSpace(os.Getenv("SAMPLE_TOLERANCE"))
	if toleranceStr == "" {
		toleranceStr = "0s"
	}
	tolerance, err := time.ParseDuration(toleranceStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SAMPLE_TOLERANCE %q: %w", toleranceStr, err)
	}
	if tolerance < 0 {
		return Config{}, fmt.Errorf("SAMPLE_TOLERANCE must not be negative, got %v", tolerance)
	}

	cutoffStr := strings.TrimSpace(os.Getenv("TRAIN_CUTOFF"))
	if cutoffStr == "" {
		cutoffStr = "2021-12-31"
	}
	cutoff, err := time.Parse(time.DateOnly, cutoffStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid TRAIN_CUTOFF %q (expected YYYY-MM-DD): %w", cutoffStr, err)
	}

	alphaStr := strings.TrimSpace(os.Getenv("RIDGE_ALPHA"))
	if alphaStr == "" {
		alphaStr = "0.1"
	}
	alpha, err := strconv.ParseFloat(alphaStr, 64)
	if err != nil {
		return Config{}, fmt.Errorf("invalid RIDGE_ALPHA %q: %w", alphaStr, err)
	}
	if alpha < 0 {
		return Config{}, fmt.Errorf("RIDGE_ALPHA must not be negative, got %v", alpha)
	}

	driver := strings.TrimSpace(os.Getenv("DB_DRIVER"))
	if driver == "" {
		driver = "sqlite3"
	}
	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	path := strings.TrimSpace(os.Getenv("SQLITE_PATH"))
	if path == "" {
		path = "data/tempcast.db"
	}

	maxOpenConnsStr := strings.TrimSpace(os.Getenv("DB_MAX_OPEN_CONNS"))
	if maxOpenConnsStr == "" {
		maxOpenConnsStr = "1"
	}
	maxOpenConns, err := strconv.Atoi(maxOpenConnsStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_MAX_OPEN_CONNS %q: %w", maxOpenConnsStr, err)
	}

	maxIdleConnsStr := strings.TrimSpace(os.Getenv("DB_MAX_IDLE_CONNS"))
	if maxIdleConnsStr == "" {
		maxIdleConnsStr = "1"
	}
	maxIdleConns, err := strconv.Atoi(maxIdleConnsStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_MAX_IDLE_CONNS %q: %w", maxIdleConnsStr, err)
	}

	connMaxLifetimeStr := strings.TrimSpace(os.Getenv("DB_CONN_MAX_LIFETIME"))
	if connMaxLifetimeStr == "" {
		connMaxLifetimeStr = "0s"
	}
	connMaxLifetime, err := time.ParseDuration(connMaxLifetimeStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME %q: %w", connMaxLifetimeStr, err)
	}

	mqttEnabledStr := strings.TrimSpace(os.Getenv("MQTT_ENABLED"))
	if mqttEnabledStr == "" {
		mqttEnabledStr = "false"
	}
	mqttEnabled, err := strconv.ParseBool(mqttEnabledStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MQTT_ENABLED %q: %w", mqttEnabledStr, err)
	}

	mqttBroker := strings.TrimSpace(os.Getenv("MQTT_BROKER"))
	if mqttBroker == "" {
		mqttBroker = "localhost"
	}

	mqttPortStr := strings.TrimSpace(os.Getenv("MQTT_PORT"))
	if mqttPortStr == "" {
		mqttPortStr = "1883"
	}
	mqttPort, err := strconv.Atoi(mqttPortStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q: %w", mqttPortStr, err)
	}

	mqttClientID := strings.TrimSpace(os.Getenv("MQTT_CLIENT_ID"))
	if mqttClientID == "" {
		mqttClientID = "tempcast-server"
	}

	mqttTopic := strings.TrimSpace(os.Getenv("MQTT_TOPIC"))
	if mqttTopic == "" {
		mqttTopic = "tempcast/readings"
	}

	return Config{
		AppEnv:                appEnv,
		LogLevel:              level,
		HTTPAddr:              httpAddr,
		ReadingsSource:        source,
		ReadingsCSV:           csvPath,
		CSVDelimiter:          delimiter,
		SampleTime:            sampleTime,
		SampleTolerance:       tolerance,
		TrainCutoff:           cutoff,
		RidgeAlpha:            alpha,
		SQLiteDriver:          driver,
		SQLiteDSN:             dsn,
		SQLitePath:            path,
		SQLiteMaxOpenConns:    maxOpenConns,
		SQLiteMaxIdleConns:    maxIdleConns,
		SQLiteConnMaxLifetime: connMaxLifetime,
		MQTTEnabled:           mqttEnabled,
		MQTTBroker:            mqttBroker,
		MQTTPort:              mqttPort,
		MQTTClientID:          mqttClientID,
		MQTTTopic:             mqttTopic,
	}, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

// parseClock turns "HH:MM" or "HH:MM:SS" into an offset from midnight.
func parseClock(s string) (time.Duration, error) {
	var t time.Time
	var err error
	if strings.Count(s, ":") == 2 {
		t, err = time.Parse(time.TimeOnly, s)
	} else {
		t, err = time.Parse("15:04", s)
	}
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second, nil
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return ',', nil
	case `\t`, "tab":
		return '\t', nil
	}
	r := []rune(s)
	if len(r) != 1 {
		return 0, fmt.Errorf("invalid CSV_DELIMITER %q (expected a single character)", s)
	}
	return r[0], nil
}
