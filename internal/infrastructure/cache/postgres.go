package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/licitamatch/backend/internal/domain"
)

// documentRow maps the document_cache table. The composite unique index
// gives the upsert its at-most-one-writer-wins semantics.
type documentRow struct {
	ID        uint   `gorm:"primaryKey"`
	DocType   string `gorm:"column:doc_type;size:16;uniqueIndex:idx_doc_key"`
	SHA256    string `gorm:"column:sha256;size:64;uniqueIndex:idx_doc_key"`
	HintKey   string `gorm:"column:hint_key;size:96;uniqueIndex:idx_doc_key"`
	Extracted []byte `gorm:"column:extracted_json;type:jsonb"`
	Meta      []byte `gorm:"column:meta_json;type:jsonb"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (documentRow) TableName() string { return "document_cache" }

// matchRow maps the match_cache table.
type matchRow struct {
	ID            uint   `gorm:"primaryKey"`
	EditalSHA256  string `gorm:"column:edital_sha256;size:64;uniqueIndex:idx_match_key"`
	ProductSHA256 string `gorm:"column:produto_sha256;size:64;uniqueIndex:idx_match_key"`
	SettingsSig   string `gorm:"column:settings_sig;size:64;uniqueIndex:idx_match_key"`
	Result        []byte `gorm:"column:result_json;type:jsonb"`
	Meta          []byte `gorm:"column:meta_json;type:jsonb"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (matchRow) TableName() string { return "match_cache" }

// PostgresStore is the durable CacheStore backed by gorm/postgres.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore connects, configures the pool and migrates both tables.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect cache db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&documentRow{}, &matchRow{}); err != nil {
		return nil, fmt.Errorf("migrate cache tables: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// GetDocument returns the stored extraction or ErrCacheMiss.
func (s *PostgresStore) GetDocument(ctx context.Context, docType, sha256, hintKey string) (*domain.CachedDocument, error) {
	var row documentRow
	err := s.db.WithContext(ctx).
		Where("doc_type = ? AND sha256 = ? AND hint_key = ?", docType, sha256, hintKey).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return &domain.CachedDocument{
		DocType:   row.DocType,
		SHA256:    row.SHA256,
		HintKey:   row.HintKey,
		Extracted: row.Extracted,
		Meta:      row.Meta,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// UpsertDocument writes through the unique constraint; concurrent writers
// resolve at the storage layer.
func (s *PostgresStore) UpsertDocument(ctx context.Context, entry *domain.CachedDocument) error {
	row := documentRow{
		DocType:   entry.DocType,
		SHA256:    entry.SHA256,
		HintKey:   entry.HintKey,
		Extracted: entry.Extracted,
		Meta:      entry.Meta,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "doc_type"}, {Name: "sha256"}, {Name: "hint_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"extracted_json", "meta_json", "updated_at"}),
	}).Create(&row).Error
}

// GetMatch returns the stored match computation or ErrCacheMiss.
func (s *PostgresStore) GetMatch(ctx context.Context, editalSHA, productSHA, settingsSig string) (*domain.CachedMatch, error) {
	var row matchRow
	err := s.db.WithContext(ctx).
		Where("edital_sha256 = ? AND produto_sha256 = ? AND settings_sig = ?", editalSHA, productSHA, settingsSig).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return &domain.CachedMatch{
		EditalSHA256:  row.EditalSHA256,
		ProductSHA256: row.ProductSHA256,
		SettingsSig:   row.SettingsSig,
		Result:        row.Result,
		Meta:          row.Meta,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}

// UpsertMatch writes through the unique constraint.
func (s *PostgresStore) UpsertMatch(ctx context.Context, entry *domain.CachedMatch) error {
	row := matchRow{
		EditalSHA256:  entry.EditalSHA256,
		ProductSHA256: entry.ProductSHA256,
		SettingsSig:   entry.SettingsSig,
		Result:        entry.Result,
		Meta:          entry.Meta,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "edital_sha256"}, {Name: "produto_sha256"}, {Name: "settings_sig"}},
		DoUpdates: clause.AssignmentColumns([]string{"result_json", "meta_json", "updated_at"}),
	}).Create(&row).Error
}

// PurgeOtherVersions deletes document rows written under a different cache
// schema version.
func (s *PostgresStore) PurgeOtherVersions(ctx context.Context, currentVersion string) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("hint_key NOT LIKE ?", currentVersion+":%").
		Delete(&documentRow{})
	return result.RowsAffected, result.Error
}
