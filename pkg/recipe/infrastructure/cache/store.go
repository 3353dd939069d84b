// Package cache keeps the records of built packages in SQLite.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/tss-calculator/recipes/pkg/recipe/application/model"
	"github.com/tss-calculator/recipes/pkg/recipe/infrastructure/cache/migrations"
)

// Store persists package records.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the cache database and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("cache path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create cache dir")
	}
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite db")
	}
	if err = sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "failed to ping sqlite db")
	}
	if err = applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "failed to run migrations")
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Get(ctx context.Context, ref model.Reference, id model.PackageID) (model.PackageRecord, bool, error) {
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT reference, package_id, settings_json, shared, libs_json, package_folder, created_at
		 FROM packages WHERE reference = ? AND package_id = ?`,
		ref.String(),
		id,
	)
	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return model.PackageRecord{}, false, nil
	}
	if err != nil {
		return model.PackageRecord{}, false, errors.Wrapf(err, "failed to get package %v:%v", ref, id)
	}
	// A record whose folder lost its package info is stale.
	if _, statErr := os.Stat(filepath.Join(record.PackageFolder, model.PackageInfoFile)); statErr != nil {
		return model.PackageRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) Save(ctx context.Context, record model.PackageRecord) error {
	settingsJSON, err := json.Marshal(record.Settings)
	if err != nil {
		return errors.Wrap(err, "failed to marshal settings")
	}
	libsJSON, err := json.Marshal(record.Libs)
	if err != nil {
		return errors.Wrap(err, "failed to marshal libs")
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO packages (reference, package_id, settings_json, shared, libs_json, package_folder, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(reference, package_id) DO UPDATE SET
		   settings_json = excluded.settings_json,
		   shared = excluded.shared,
		   libs_json = excluded.libs_json,
		   package_folder = excluded.package_folder,
		   created_at = excluded.created_at`,
		record.Reference.String(),
		record.PackageID,
		string(settingsJSON),
		record.Options.Shared,
		string(libsJSON),
		record.PackageFolder,
		createdAt.UTC().UnixMilli(),
	)
	return errors.Wrapf(err, "failed to save package %v:%v", record.Reference, record.PackageID)
}

func (s *Store) List(ctx context.Context) ([]model.PackageRecord, error) {
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT reference, package_id, settings_json, shared, libs_json, package_folder, created_at
		 FROM packages ORDER BY reference, package_id`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list packages")
	}
	defer rows.Close()
	var records []model.PackageRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan package")
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (model.PackageRecord, error) {
	var (
		reference    string
		record       model.PackageRecord
		settingsJSON string
		libsJSON     string
		createdAt    int64
	)
	err := row.Scan(
		&reference,
		&record.PackageID,
		&settingsJSON,
		&record.Options.Shared,
		&libsJSON,
		&record.PackageFolder,
		&createdAt,
	)
	if err != nil {
		return model.PackageRecord{}, err
	}
	name, version, ok := strings.Cut(reference, "/")
	if !ok {
		return model.PackageRecord{}, fmt.Errorf("malformed reference %q", reference)
	}
	record.Reference = model.Reference{Name: name, Version: version}
	if err = json.Unmarshal([]byte(settingsJSON), &record.Settings); err != nil {
		return model.PackageRecord{}, errors.Wrap(err, "failed to unmarshal settings")
	}
	if err = json.Unmarshal([]byte(libsJSON), &record.Libs); err != nil {
		return model.PackageRecord{}, errors.Wrap(err, "failed to unmarshal libs")
	}
	record.CreatedAt = time.UnixMilli(createdAt).UTC()
	return record, nil
}
