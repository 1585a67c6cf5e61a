package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	_ "github.com/go-sql-driver/mysql"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// MySQLStore keeps worlds in a (name, data) table, created on open if it
// does not exist.
type MySQLStore struct {
	db    *sql.DB
	table string
}

func OpenMySQL(ctx context.Context, dsn, table string) (*MySQLStore, error) {
	if table == "" {
		table = "worlds"
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("store: invalid table name %q", table)
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: opening mysql: %w", err)
	}
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: connecting to mysql: %w", err)
	}

	s := &MySQLStore{db: db, table: table}
	if err = s.createTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLStore) createTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name       VARCHAR(255) PRIMARY KEY,
			data       LONGBLOB     NOT NULL,
			updated_at TIMESTAMP    DEFAULT CURRENT_TIMESTAMP
			           ON UPDATE    CURRENT_TIMESTAMP
		) ENGINE=InnoDB
	`, s.table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("store: creating table %s: %w", s.table, err)
	}
	return nil
}

func (s *MySQLStore) Load(ctx context.Context, name string) (data []byte, err error) {
	query := fmt.Sprintf(`SELECT data FROM %s WHERE name = ?`, s.table)
	err = s.db.QueryRowContext(ctx, query, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrWorldNotFound, name)
	}
	return
}

func (s *MySQLStore) Save(ctx context.Context, name string, data []byte) error {
	if err := ValidName(name); err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (name, data) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE data = VALUES(data), updated_at = CURRENT_TIMESTAMP
	`, s.table)
	if _, err := s.db.ExecContext(ctx, query, name, data); err != nil {
		return fmt.Errorf("store: saving %s: %w", name, err)
	}
	return nil
}

func (s *MySQLStore) Exists(ctx context.Context, name string) (bool, error) {
	var found int
	query := fmt.Sprintf(`SELECT 1 FROM %s WHERE name = ?`, s.table)
	err := s.db.QueryRowContext(ctx, query, name).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *MySQLStore) Delete(ctx context.Context, name string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE name = ?`, s.table)
	result, err := s.db.ExecContext(ctx, query, name)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrWorldNotFound, name)
	}
	return nil
}

func (s *MySQLStore) List(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT name FROM %s ORDER BY name`, s.table)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *MySQLStore) Close() error {
	return s.db.Close()
}
