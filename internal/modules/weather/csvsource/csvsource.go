// Package csvsource loads raw readings from the station export: a delimited
// file indexed by a day-first "Fecha" column with decimal-comma
// "Temperatura" and "Humedad" columns.
package csvsource

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"tempcast/internal/modules/weather/types"
	"tempcast/internal/utils"
)

const (
	ColumnDate        = "Fecha"
	ColumnTemperature = "Temperatura"
	ColumnHumidity    = "Humedad"
)

var (
	ErrMissingColumn  = errors.New("missing column")
	ErrMalformedDate  = errors.New("malformed date")
	ErrMalformedValue = errors.New("malformed value")
	ErrOutOfRange     = errors.New("value out of range")
)

var nanValues = []string{"", "NA", "N/A", "NaN", "nan", "null", "NULL", "-"}

type Options struct {
	Delimiter rune
}

func LoadFile(path string, opts Options) ([]types.Reading, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open readings csv: %w", err)
	}
	defer func() { _ = f.Close() }()

	readings, err := Load(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return readings, nil
}

// Load parses every row, in file order. Missing values become NaN; a
// non-empty value that is not a number, or a humidity outside 0-100, is an
// error naming the line.
func Load(r io.Reader, opts Options) ([]types.Reading, error) {
	delimiter := opts.Delimiter
	if delimiter == 0 {
		delimiter = ','
	}

	df := dataframe.ReadCSV(r,
		dataframe.WithDelimiter(delimiter),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nanValues),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("read csv: %w", df.Err)
	}

	names := df.Names()
	for _, col := range []string{ColumnDate, ColumnTemperature, ColumnHumidity} {
		if !slices.Contains(names, col) {
			return nil, fmt.Errorf("%w %q (have %s)", ErrMissingColumn, col, strings.Join(names, ", "))
		}
	}

	dates := df.Col(ColumnDate)
	temps := df.Col(ColumnTemperature)
	hums := df.Col(ColumnHumidity)

	out := make([]types.Reading, 0, df.Nrow())
	for i := 0; i < df.Nrow(); i++ {
		line := i + 2

		d := dates.Elem(i)
		if d.IsNA() {
			return nil, fmt.Errorf("line %d: %w: empty %s", line, ErrMalformedDate, ColumnDate)
		}
		ts, err := utils.ParseDayFirst(d.String())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: %v", line, ErrMalformedDate, err)
		}

		temp, err := parseElem(temps.Elem(i))
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, ColumnTemperature, err)
		}
		hum, err := parseElem(hums.Elem(i))
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, ColumnHumidity, err)
		}
		// same bounds as the readings table, so a file that trains also imports
		if hum < 0 || hum > 100 {
			return nil, fmt.Errorf("line %d: %s: %w: %v (must be 0-100)", line, ColumnHumidity, ErrOutOfRange, hum)
		}

		out = append(out, types.Reading{Time: ts, Temperature: temp, Humidity: hum})
	}
	return out, nil
}

func parseElem(e series.Element) (float64, error) {
	if e.IsNA() {
		return math.NaN(), nil
	}
	return ParseDecimalComma(e.String())
}

// ParseDecimalComma converts a locale-formatted number ("23,5") to float64.
// Blank input is missing (NaN).
func ParseDecimalComma(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || slices.Contains(nanValues, s) {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("%w %q", ErrMalformedValue, s)
	}
	return v, nil
}
