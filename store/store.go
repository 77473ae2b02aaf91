package store

import (
	"context"
	"fmt"
	"time"

	"github.com/haileyok/seneca/models"
	"github.com/haileyok/seneca/registry"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DriverSqlite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects to the database. For sqlite the dsn is a file path.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch driver {
	case DriverSqlite, "":
		dialector = sqlite.Open(dsn + "?_busy_timeout=5000&_journal_mode=WAL")
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("error opening %s database: %w", driver, err)
	}

	return db, nil
}

type txKey struct{}

// Store is a registry.Store backed by the records table.
type Store struct {
	db *gorm.DB
}

var _ registry.Store = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{
		db: db,
	}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(
		&models.Record{},
		&models.Token{},
	)
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return s.db.WithContext(ctx)
}

func (s *Store) Get(ctx context.Context, bucket string, key []byte) ([]byte, error) {
	var rec models.Record
	res := s.conn(ctx).Raw("SELECT * FROM records WHERE bucket = ? AND rkey = ?", bucket, key).Scan(&rec)
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		return nil, registry.ErrNotFound
	}

	return rec.Value, nil
}

func (s *Store) Has(ctx context.Context, bucket string, key []byte) (bool, error) {
	type Result struct {
		Found bool
	}
	var result Result
	if err := s.conn(ctx).Raw("SELECT EXISTS(SELECT 1 FROM records WHERE bucket = ? AND rkey = ?) AS found", bucket, key).Scan(&result).Error; err != nil {
		return false, err
	}

	return result.Found, nil
}

func (s *Store) Put(ctx context.Context, bucket string, key, value []byte) error {
	c, err := registry.RecordCID(value)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	rec := models.Record{
		Bucket:    bucket,
		Rkey:      key,
		Cid:       c.String(),
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "bucket"}, {Name: "rkey"}},
		DoUpdates: clause.AssignmentColumns([]string{"cid", "value", "updated_at"}),
	}).Create(&rec).Error; err != nil {
		return err
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, bucket string, key []byte) error {
	return s.conn(ctx).Exec("DELETE FROM records WHERE bucket = ? AND rkey = ?", bucket, key).Error
}

func (s *Store) Iterate(ctx context.Context, bucket string, fn func(key, value []byte) error) error {
	var recs []models.Record
	if err := s.conn(ctx).Raw("SELECT * FROM records WHERE bucket = ? ORDER BY rkey ASC", bucket).Scan(&recs).Error; err != nil {
		return err
	}

	for _, r := range recs {
		if err := fn(r.Rkey, r.Value); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// GetByCid looks a record up by its content address.
func (s *Store) GetByCid(ctx context.Context, c string) (*models.Record, error) {
	var rec models.Record
	res := s.conn(ctx).Raw("SELECT * FROM records WHERE cid = ? LIMIT 1", c).Scan(&rec)
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		return nil, registry.ErrNotFound
	}

	return &rec, nil
}

func (s *Store) DB() *gorm.DB {
	return s.db
}
