package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/shopbot/catalog-service/internal/fetch"
	"github.com/shopbot/catalog-service/internal/types"
)

// Format names the export format served by the backing store.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// SheetConfig configures a SheetSource.
type SheetConfig struct {
	// CatalogURL is the export URL of the catalog sheet.
	CatalogURL string
	// ScheduleURLTemplate is the export URL of a shop's schedule sheet;
	// the shop id replaces the "{shop}" placeholder.
	ScheduleURLTemplate string
	// UsersURL is the export URL of the user directory sheet.
	UsersURL string

	Format   Format
	Encoding Encoding // CSV only; empty means auto-detect

	CatalogHeaders  HeaderMap
	ScheduleHeaders HeaderMap
	UserHeaders     HeaderMap
}

// SheetSource reads exported spreadsheet documents over HTTP.
type SheetSource struct {
	client *fetch.Client
	config SheetConfig
	logger zerolog.Logger
}

// NewSheetSource creates a sheet source using the given fetch client.
func NewSheetSource(client *fetch.Client, config SheetConfig) (*SheetSource, error) {
	if config.CatalogURL == "" {
		return nil, fmt.Errorf("catalog URL is required")
	}
	if config.ScheduleURLTemplate == "" {
		return nil, fmt.Errorf("schedule URL template is required")
	}
	if config.Format == "" {
		config.Format = FormatCSV
	}
	if config.Format != FormatCSV && config.Format != FormatXLSX {
		return nil, fmt.Errorf("unsupported sheet format %q", config.Format)
	}
	return &SheetSource{
		client: client,
		config: config,
		logger: log.With().Str("component", "sheet_source").Logger(),
	}, nil
}

func (s *SheetSource) FetchCatalogRows(ctx context.Context) ([]types.Row, error) {
	return s.fetchRows(ctx, s.config.CatalogURL, s.config.CatalogHeaders, catalogFields)
}

func (s *SheetSource) FetchScheduleRows(ctx context.Context, shopID string) ([]types.Row, error) {
	url := strings.ReplaceAll(s.config.ScheduleURLTemplate, "{shop}", shopID)
	return s.fetchRows(ctx, url, s.config.ScheduleHeaders, scheduleFields)
}

func (s *SheetSource) FetchUserRows(ctx context.Context) ([]types.Row, error) {
	if s.config.UsersURL == "" {
		return nil, fmt.Errorf("users URL not configured")
	}
	return s.fetchRows(ctx, s.config.UsersURL, s.config.UserHeaders, userFields)
}

func (s *SheetSource) fetchRows(ctx context.Context, url string, mapping HeaderMap, fields []string) ([]types.Row, error) {
	body, err := s.client.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	var headers []string
	var records [][]string
	switch s.config.Format {
	case FormatXLSX:
		headers, records, err = parseXLSX(body)
	default:
		headers, records, err = parseCSV(body, s.config.Encoding)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s export: %w", s.config.Format, err)
	}

	rows := rowsFromRecords(headers, records, mapping, fields)
	s.logger.Debug().Str("url", url).Int("rows", len(rows)).Msg("Fetched sheet")
	return rows, nil
}

// parseCSV decodes and parses a CSV export into headers and records.
func parseCSV(body []byte, enc Encoding) ([]string, [][]string, error) {
	if enc == "" {
		enc = DetectEncoding(body)
	}
	decoded, err := DecodeToUTF8(body, enc)
	if err != nil {
		return nil, nil, err
	}

	reader := csv.NewReader(strings.NewReader(decoded))
	reader.FieldsPerRecord = -1 // exports pad rows inconsistently
	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	return all[0], all[1:], nil
}

// parseXLSX parses the first sheet of an XLSX export.
func parseXLSX(body []byte) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}
	all, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, err
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	return all[0], all[1:], nil
}
