// Package postgresdb provides the PostgreSQL-backed implementation of the
// user storage contract. All queries are parameterized; create, update and
// delete use RETURNING so the caller receives exactly the affected row
// without a second round trip.
package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/patric-chuzhbe/usersvc/internal/db/storage"
	"github.com/patric-chuzhbe/usersvc/internal/models"
)

const uniqueViolationCode = "23505"

const userColumns = `id, name, email, created_at`

// PostgresDB is a PostgreSQL-backed user storage. It owns a lazily
// connecting pool shared by all requests; a failed query does not poison
// the pool, the next call redials.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

// PoolSettings carries the connection pool knobs taken from configuration.
type PoolSettings struct {
	MaxSize     int
	MinSize     int
	IdleTimeout time.Duration
}

// New opens the connection pool, applies the pool settings and runs goose
// migrations. Migrations are version-tracked, so calling New again against
// the same database is a no-op for the schema. A connection or migration
// failure is returned to the caller and is fatal at startup.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
	pool PoolSettings,
) (*PostgresDB, error) {
	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	}

	database.SetMaxOpenConns(pool.MaxSize)
	database.SetMaxIdleConns(pool.MinSize)
	database.SetConnMaxIdleTime(pool.IdleTimeout)

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if err := result.Ping(ctx); err != nil {
		return nil, err
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(result.database, migrationsDir); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return result, nil
}

func (db *PostgresDB) CreateUser(ctx context.Context, name, email string) (*models.User, error) {
	row := db.database.QueryRowContext(
		ctx,
		`INSERT INTO users (name, email) VALUES ($1, $2) RETURNING `+userColumns,
		name,
		email,
	)

	usr, err := scanUser(row)
	if err != nil {
		return nil, translateError(err)
	}

	return usr, nil
}

func (db *PostgresDB) FindAllUsers(ctx context.Context) ([]models.User, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id`,
	)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	result := []models.User{}
	for rows.Next() {
		var usr models.User
		if err := rows.Scan(&usr.ID, &usr.Name, &usr.Email, &usr.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, usr)
	}

	if err := rows.Err(); err != nil {
		return nil, translateError(err)
	}

	return result, nil
}

func (db *PostgresDB) FindUserByID(ctx context.Context, id int) (*models.User, bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)

	return scanOptionalUser(row)
}

// FindUserByEmail matches case-insensitively, mirroring the unique index
// on LOWER(email).
func (db *PostgresDB) FindUserByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`,
		email,
	)

	return scanOptionalUser(row)
}

func (db *PostgresDB) UpdateUser(ctx context.Context, id int, name, email string) (*models.User, bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`UPDATE users SET name = $2, email = $3 WHERE id = $1 RETURNING `+userColumns,
		id,
		name,
		email,
	)

	return scanOptionalUser(row)
}

func (db *PostgresDB) DeleteUser(ctx context.Context, id int) (*models.User, bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`DELETE FROM users WHERE id = $1 RETURNING `+userColumns,
		id,
	)

	return scanOptionalUser(row)
}

// Ping verifies connectivity within the configured connection timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	if err := db.database.PingContext(ctxWithTimeout); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	}

	return nil
}

func (db *PostgresDB) Close() error {
	return db.database.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var usr models.User
	if err := row.Scan(&usr.ID, &usr.Name, &usr.Email, &usr.CreatedAt); err != nil {
		return nil, err
	}

	return &usr, nil
}

func scanOptionalUser(row rowScanner) (*models.User, bool, error) {
	usr, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, translateError(err)
	}

	return usr, true, nil
}

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return fmt.Errorf("%w: %w", storage.ErrUniqueViolation, err)
	}

	return err
}
