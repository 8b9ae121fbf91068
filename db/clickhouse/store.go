// Package clickhouse persists feasibility run history. Columnar storage
// suits the workload: runs are append-only, queried by recency and site,
// and never updated in place.
package clickhouse

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"

	"github.com/dskanth86/ev-charger-analytics/decision/feasibility"
	"github.com/dskanth86/ev-charger-analytics/pkg/platform"
)

// Config holds ClickHouse connection configuration.
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Debug    bool
}

// DefaultConfig returns default development configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     9000,
		Database: "chargemap",
		Username: "default",
		Password: "",
		Debug:    false,
	}
}

// ConfigFromEnv reads connection settings from CHARGEMAP_CH_* variables,
// falling back to the development defaults.
func ConfigFromEnv() *Config {
	def := DefaultConfig()
	return &Config{
		Host:     platform.GetEnv("CHARGEMAP_CH_HOST", def.Host),
		Port:     platform.GetEnvInt("CHARGEMAP_CH_PORT", def.Port),
		Database: platform.GetEnv("CHARGEMAP_CH_DATABASE", def.Database),
		Username: platform.GetEnv("CHARGEMAP_CH_USERNAME", def.Username),
		Password: platform.GetEnv("CHARGEMAP_CH_PASSWORD", def.Password),
		Debug:    platform.GetEnvBool("CHARGEMAP_CH_DEBUG", def.Debug),
	}
}

// Run is one persisted feasibility evaluation.
type Run struct {
	ID             uuid.UUID `json:"id"`
	Address        string    `json:"address"`
	Lat            float64   `json:"lat"`
	Lon            float64   `json:"lon"`
	CompositeScore float64   `json:"composite_score"`
	Verdict        string    `json:"verdict"`
	DemandScore    float64   `json:"demand_score"`
	CompetitionScore float64 `json:"competition_score"`
	FinancialScore float64   `json:"financial_score"`
	Partial        bool      `json:"partial"`
	SnapshotID     string    `json:"snapshot_id"`
	SnapshotTakenAt time.Time `json:"snapshot_taken_at"`
	Hash           string    `json:"hash"`
	// ResultJSON is the full result document for replay and audit.
	ResultJSON string    `json:"result_json"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewRun assigns a fresh run ID and flattens the result for storage.
func NewRun(result feasibility.Result) (Run, error) {
	doc, err := json.Marshal(result)
	if err != nil {
		return Run{}, fmt.Errorf("marshal result: %w", err)
	}
	return Run{
		ID:               uuid.New(),
		Address:          result.Site.Address,
		Lat:              result.Site.Lat(),
		Lon:              result.Site.Lon(),
		CompositeScore:   result.CompositeScore,
		Verdict:          string(result.Verdict),
		DemandScore:      result.Demand.Score,
		CompetitionScore: result.Competition.Score,
		FinancialScore:   result.FinancialScore,
		Partial:          result.Partial,
		SnapshotID:       result.Snapshot.ID,
		SnapshotTakenAt:  result.Snapshot.TakenAt,
		Hash:             result.Hash,
		ResultJSON:       string(doc),
	}, nil
}

// Result unmarshals the stored result document.
func (r Run) Result() (feasibility.Result, error) {
	var result feasibility.Result
	if err := json.Unmarshal([]byte(r.ResultJSON), &result); err != nil {
		return feasibility.Result{}, fmt.Errorf("unmarshal stored result: %w", err)
	}
	return result, nil
}

// Store persists runs in ClickHouse.
type Store struct {
	conn clickhouse.Conn
	cfg  *Config
}

// NewStore opens a connection to ClickHouse.
func NewStore(cfg *Config) (*Store, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	return &Store{conn: conn, cfg: cfg}, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// EnsureSchema creates the run history table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS feasibility_runs (
			id UUID,
			address String,
			lat Float64,
			lon Float64,
			composite_score Float64,
			verdict LowCardinality(String),
			demand_score Float64,
			competition_score Float64,
			financial_score Float64,
			partial UInt8,
			snapshot_id String,
			snapshot_taken_at DateTime64(3, 'UTC'),
			hash String,
			result_json String,
			created_at DateTime64(3, 'UTC')
		) ENGINE = MergeTree()
		ORDER BY (created_at, id)
	`
	return s.conn.Exec(ctx, query)
}

// SaveRun inserts one run.
func (s *Store) SaveRun(ctx context.Context, run Run) error {
	query := `
		INSERT INTO feasibility_runs (
			id, address, lat, lon, composite_score, verdict,
			demand_score, competition_score, financial_score,
			partial, snapshot_id, snapshot_taken_at, hash, result_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	return s.conn.Exec(ctx, query,
		run.ID,
		run.Address,
		run.Lat,
		run.Lon,
		run.CompositeScore,
		run.Verdict,
		run.DemandScore,
		run.CompetitionScore,
		run.FinancialScore,
		boolToUInt8(run.Partial),
		run.SnapshotID,
		run.SnapshotTakenAt,
		run.Hash,
		run.ResultJSON,
		time.Now().UTC(),
	)
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, address, lat, lon, composite_score, verdict,
			   demand_score, competition_score, financial_score,
			   partial, snapshot_id, snapshot_taken_at, hash, result_json, created_at
		FROM feasibility_runs
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := s.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun retrieves a run by ID. Returns nil when not found.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	query := `
		SELECT id, address, lat, lon, composite_score, verdict,
			   demand_score, competition_score, financial_score,
			   partial, snapshot_id, snapshot_taken_at, hash, result_json, created_at
		FROM feasibility_runs
		WHERE id = ?
		LIMIT 1
	`
	row := s.conn.QueryRow(ctx, query, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var partial uint8
	err := row.Scan(
		&run.ID, &run.Address, &run.Lat, &run.Lon,
		&run.CompositeScore, &run.Verdict,
		&run.DemandScore, &run.CompetitionScore, &run.FinancialScore,
		&partial, &run.SnapshotID, &run.SnapshotTakenAt,
		&run.Hash, &run.ResultJSON, &run.CreatedAt,
	)
	if err != nil {
		return Run{}, err
	}
	run.Partial = partial == 1
	return run, nil
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
