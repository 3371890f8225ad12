package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/config"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/database/models"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	schemaVersion = 1 // bump when schema changes
)

type DBConfig struct {
	Driver       string `toml:"driver" env:"DRIVER"`
	Host         string `toml:"host" env:"HOST"`
	Port         int    `toml:"port" env:"PORT"`
	User         string `toml:"user" env:"USER"`
	Password     string `toml:"password" env:"PASSWORD"`
	Database     string `toml:"database" env:"NAME"`
	SSLMode      string `toml:"ssl_mode" env:"SSLMODE"`
	PoolSize     int    `toml:"pool_size"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	MaxLifetime  int    `toml:"max_lifetime"`
	// Path is the SQLite database file.
	Path string `toml:"path" env:"PATH"`
}

type DB struct {
	pool   *pgxpool.Pool
	bunDB  *bun.DB
	driver string
}

func New(ctx context.Context, cfg DBConfig) (*DB, error) {
	var (
		db  *DB
		err error
	)
	switch strings.ToLower(cfg.Driver) {
	case "", DriverPostgres:
		db, err = openPostgres(ctx, cfg)
	case DriverSQLite:
		db, err = OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	db.bunDB.AddQueryHook(&logger.SlowQueryHook{Threshold: config.SlowQueryThreshold})
	return db, nil
}

func openPostgres(ctx context.Context, cfg DBConfig) (*DB, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	var (
		conn net.Conn
		err  error
	)
	for i := 0; i < config.MaxRetries; i++ {
		conn, err = net.DialTimeout("tcp", addr, config.NetworkDialTimeout)
		if err == nil {
			break
		}
		slog.Warn("Database unreachable, retrying",
			slog.String("type", "db"),
			slog.String("addr", addr),
			slog.Int("attempt", i+1),
			slog.Any("error", err))
		time.Sleep(config.RetryInterval)
	}
	if err != nil {
		return nil, fmt.Errorf("database server unreachable after %d attempts: %w", config.MaxRetries, err)
	}
	conn.Close()

	poolConfig, err := pgxpool.ParseConfig(buildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if cfg.PoolSize > 0 {
		poolConfig.MaxConns = int32(cfg.PoolSize)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.MaxLifetime) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(buildConnString(cfg))))
	if cfg.PoolSize > 0 {
		sqldb.SetMaxOpenConns(cfg.PoolSize)
	}

	return &DB{
		pool:   pool,
		bunDB:  bun.NewDB(sqldb, pgdialect.New()),
		driver: DriverPostgres,
	}, nil
}

func buildConnString(cfg DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&connect_timeout=5",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, sslMode,
	)
}

// OpenSQLite opens a single-connection SQLite database at path, creating
// parent directories as needed. SQLite has one writer, so one connection
// keeps transactions from tripping over each other.
func OpenSQLite(path string) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		path = "cardcaptor.db"
	}
	path = filepath.Clean(path)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	sqldb.SetMaxOpenConns(1)

	if err := sqldb.Ping(); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	return &DB{
		bunDB:  bun.NewDB(sqldb, sqlitedialect.New()),
		driver: DriverSQLite,
	}, nil
}

func (db *DB) BunDB() *bun.DB {
	return db.bunDB
}

func (db *DB) Driver() string {
	return db.driver
}

func (db *DB) IsPostgres() bool {
	return db.driver == DriverPostgres
}

func (db *DB) ExecWithLog(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ql := logger.NewQueryLogger("exec", "")
	result, err := db.bunDB.ExecContext(ctx, query, args...)

	var rows int64
	if err == nil {
		rows, _ = result.RowsAffected()
	}
	ql.Log(err, rows)
	if err != nil {
		return nil, fmt.Errorf("exec %q: %w", query, err)
	}
	return result, nil
}

// Ping verifies every open connection.
func (db *DB) Ping(ctx context.Context) error {
	if db.pool != nil {
		if err := db.pool.Ping(ctx); err != nil {
			return fmt.Errorf("pgxpool ping failed: %w", err)
		}
	}
	if err := db.bunDB.PingContext(ctx); err != nil {
		return fmt.Errorf("bun ping failed: %w", err)
	}
	return nil
}

func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
	if db.bunDB != nil {
		db.bunDB.Close()
	}
}

// InitializeSchema creates tables and indexes. Safe to run on every start.
func (db *DB) InitializeSchema(ctx context.Context) error {
	if db.IsPostgres() {
		if err := db.ensureUTF8Encoding(ctx); err != nil {
			return fmt.Errorf("failed to ensure UTF-8 encoding: %w", err)
		}
	}

	// templates first, the other two reference it
	tables := []any{
		(*models.CardTemplate)(nil),
		(*models.SpawnedUnit)(nil),
		(*models.OwnershipRecord)(nil),
	}
	for _, model := range tables {
		_, err := db.bunDB.NewCreateTable().
			Model(model).
			IfNotExists().
			WithForeignKeys().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_ownership_user_card_rarity ON ownership_records(user_id, card_id, rarity);",
		"CREATE INDEX IF NOT EXISTS idx_ownership_user_acquired ON ownership_records(user_id, acquired_at);",
		"CREATE INDEX IF NOT EXISTS idx_spawned_units_session ON spawned_units(session_id);",
		"CREATE INDEX IF NOT EXISTS idx_spawned_units_card ON spawned_units(card_id);",
	}
	for _, idx := range indexes {
		if _, err := db.ExecWithLog(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if err := db.setSchemaVersion(ctx); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	slog.Info("Database schema ready",
		slog.String("type", "db"),
		slog.String("driver", db.driver),
		slog.Int("schema_version", schemaVersion))
	return nil
}

func (db *DB) setSchemaVersion(ctx context.Context) error {
	if _, err := db.ExecWithLog(ctx, `CREATE TABLE IF NOT EXISTS app_meta (key TEXT PRIMARY KEY, value TEXT)`); err != nil {
		return err
	}
	_, err := db.ExecWithLog(ctx,
		`INSERT INTO app_meta(key, value) VALUES(?, ?) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		"schema_version", strconv.Itoa(schemaVersion))
	return err
}

// SchemaVersion reads the version written by InitializeSchema.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var v string
	if err := db.bunDB.QueryRowContext(ctx, `SELECT value FROM app_meta WHERE key = ?`, "schema_version").Scan(&v); err != nil {
		return 0, err
	}
	return strconv.Atoi(v)
}

func (db *DB) ensureUTF8Encoding(ctx context.Context) error {
	var encoding string
	if err := db.pool.QueryRow(ctx, "SHOW server_encoding;").Scan(&encoding); err != nil {
		return fmt.Errorf("failed to check database encoding: %w", err)
	}

	if encoding != "UTF8" {
		slog.Warn("Database is not using UTF-8 encoding, card names may be garbled",
			slog.String("type", "db"),
			slog.String("current_encoding", encoding))
	}
	return nil
}
