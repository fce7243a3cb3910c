package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ahmad-alkadri/meme-depot/internal/apperr"
	"github.com/ahmad-alkadri/meme-depot/internal/config"
)

// Store persists catalog rows.
type Store interface {
	Create(ctx context.Context, m *Meme) error
	List(ctx context.Context, offset, limit int) ([]Meme, error)
	Get(ctx context.Context, id int64) (Meme, error)
	// Save writes the full state of m in one statement.
	Save(ctx context.Context, m Meme) error
	Delete(ctx context.Context, id int64) error
}

var errMemeNotFound = apperr.NotFound("Meme not found")

// GormStore is the Postgres backed Store.
type GormStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

func openPostgres(dsn string, maxOpenConns int) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if maxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(maxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// EnsureDatabase creates the configured database through the maintenance
// database when it does not exist yet.
func EnsureDatabase(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) error {
	db, err := openPostgres(cfg.DSNFor("postgres"), 1)
	if err != nil {
		return fmt.Errorf("open maintenance database: %w", err)
	}
	defer closeDB(db)

	var exists bool
	if err := db.WithContext(ctx).
		Raw("SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = ?)", cfg.Name).
		Scan(&exists).Error; err != nil {
		return fmt.Errorf("check database %s: %w", cfg.Name, err)
	}
	if exists {
		return nil
	}

	if err := db.WithContext(ctx).Exec("CREATE DATABASE " + quoteIdentifier(cfg.Name)).Error; err != nil {
		return fmt.Errorf("create database %s: %w", cfg.Name, err)
	}
	logger.Info("database created", zap.String("database", cfg.Name))
	return nil
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// NewGormStore connects to the catalog database.
func NewGormStore(cfg config.PostgresConfig, logger *zap.Logger) (*GormStore, error) {
	db, err := openPostgres(cfg.DSN(), cfg.MaxOpenConns)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &GormStore{db: db, logger: logger}, nil
}

// Migrate creates or updates the memes table.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Meme{}); err != nil {
		return fmt.Errorf("migrate memes: %w", err)
	}
	s.logger.Info("tables have been created")
	return nil
}

// DropTables removes the memes table.
func (s *GormStore) DropTables(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Migrator().DropTable(&Meme{}); err != nil {
		return fmt.Errorf("drop memes: %w", err)
	}
	s.logger.Info("tables have been deleted")
	return nil
}

func (s *GormStore) Close() {
	closeDB(s.db)
}

func closeDB(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (s *GormStore) Create(ctx context.Context, m *Meme) error {
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return translate(err, m.Name, "insert meme")
	}
	return nil
}

func (s *GormStore) List(ctx context.Context, offset, limit int) ([]Meme, error) {
	memes := []Meme{}
	if limit == 0 {
		return memes, nil
	}
	if err := s.db.WithContext(ctx).Order("id").Offset(offset).Limit(limit).Find(&memes).Error; err != nil {
		return nil, apperr.Persistence(err, "Error getting the list of memes")
	}
	return memes, nil
}

func (s *GormStore) Get(ctx context.Context, id int64) (Meme, error) {
	var m Meme
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Meme{}, errMemeNotFound
		}
		return Meme{}, apperr.Persistence(err, "Meme retrieval error")
	}
	return m, nil
}

func (s *GormStore) Save(ctx context.Context, m Meme) error {
	res := s.db.WithContext(ctx).
		Model(&Meme{ID: m.ID}).
		Select("meme_name", "filename", "image_url", "text", "date_updated").
		Updates(m)
	if res.Error != nil {
		return translate(res.Error, m.Name, "update meme")
	}
	if res.RowsAffected == 0 {
		return errMemeNotFound
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&Meme{}, id)
	if res.Error != nil {
		return apperr.Persistence(res.Error, "Meme deletion error")
	}
	if res.RowsAffected == 0 {
		return errMemeNotFound
	}
	return nil
}

func translate(err error, name, action string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Persistence(err, "meme name %q already exists", name)
	}
	return apperr.Persistence(err, "%s", action)
}
