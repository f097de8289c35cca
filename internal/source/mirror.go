package source

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopbot/catalog-service/internal/types"
)

// MirrorSource reads the catalog from a local relational mirror kept
// in sync with the spreadsheet backend by an out-of-band importer.
// All columns are text: the mirror stores raw cell values and leaves
// validation to the index builder, same as the sheet source.
type MirrorSource struct {
	pool *pgxpool.Pool
}

// MirrorConfig holds connection settings for the mirror database.
type MirrorConfig struct {
	URL             string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// NewMirrorSource connects to the mirror database and pings it.
func NewMirrorSource(ctx context.Context, cfg MirrorConfig) (*MirrorSource, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("error parsing mirror config: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConnections)
	}
	if cfg.MinConnections > 0 {
		poolCfg.MinConns = int32(cfg.MinConnections)
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("error creating mirror pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error connecting to mirror: %w", err)
	}
	return &MirrorSource{pool: pool}, nil
}

// NewMirrorSourceFromPool wraps an existing pool (used by tests).
func NewMirrorSourceFromPool(pool *pgxpool.Pool) *MirrorSource {
	return &MirrorSource{pool: pool}
}

// Close releases the connection pool.
func (m *MirrorSource) Close() {
	m.pool.Close()
}

// Ping checks mirror connectivity.
func (m *MirrorSource) Ping(ctx context.Context) error {
	return m.pool.Ping(ctx)
}

func (m *MirrorSource) FetchCatalogRows(ctx context.Context) ([]types.Row, error) {
	rows, err := m.pool.Query(ctx, `
		SELECT article, shop, name, department, supplier_code, supplier_name, tier
		FROM catalog_rows
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog rows: %w", err)
	}
	defer rows.Close()

	var out []types.Row
	for rows.Next() {
		var article, shop, name, department, supplierCode, supplierName, tier string
		if err := rows.Scan(&article, &shop, &name, &department, &supplierCode, &supplierName, &tier); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		out = append(out, types.Row{
			types.FieldArticle:      article,
			types.FieldShop:         shop,
			types.FieldName:         name,
			types.FieldDepartment:   department,
			types.FieldSupplierCode: supplierCode,
			types.FieldSupplierName: supplierName,
			types.FieldTier:         tier,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog rows: %w", err)
	}
	return out, nil
}

func (m *MirrorSource) FetchScheduleRows(ctx context.Context, shopID string) ([]types.Row, error) {
	rows, err := m.pool.Query(ctx, `
		SELECT supplier_code, supplier_name, order_day_1, order_day_2, order_day_3, lead_days
		FROM schedule_rows
		WHERE shop = $1
	`, shopID)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule rows for shop %s: %w", shopID, err)
	}
	defer rows.Close()

	var out []types.Row
	for rows.Next() {
		var supplierCode, supplierName, day1, day2, day3, leadDays string
		if err := rows.Scan(&supplierCode, &supplierName, &day1, &day2, &day3, &leadDays); err != nil {
			return nil, fmt.Errorf("failed to scan schedule row: %w", err)
		}
		out = append(out, types.Row{
			types.FieldSupplierCode: supplierCode,
			types.FieldSupplierName: supplierName,
			types.FieldOrderDay1:    day1,
			types.FieldOrderDay2:    day2,
			types.FieldOrderDay3:    day3,
			types.FieldLeadDays:     leadDays,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedule rows: %w", err)
	}
	return out, nil
}

func (m *MirrorSource) FetchUserRows(ctx context.Context) ([]types.Row, error) {
	rows, err := m.pool.Query(ctx, `
		SELECT user_id, name, surname, position, shop
		FROM user_rows
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query user rows: %w", err)
	}
	defer rows.Close()

	var out []types.Row
	for rows.Next() {
		var userID, name, surname, position, shop string
		if err := rows.Scan(&userID, &name, &surname, &position, &shop); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		out = append(out, types.Row{
			types.FieldUserID:   userID,
			types.FieldName:     name,
			types.FieldSurname:  surname,
			types.FieldPosition: position,
			types.FieldShop:     shop,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return out, nil
}
