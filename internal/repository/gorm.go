package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/immxrtalbeast/codecollab/internal/domain"
	"github.com/immxrtalbeast/codecollab/internal/repository/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// OpenGorm connects to a SQL database and migrates the session table.
func OpenGorm(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// sqlite serializes writers and an in-memory database lives per connection
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&model.Session{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

type GormSnapshotStore struct {
	db *gorm.DB
}

func NewGormSnapshotStore(db *gorm.DB) *GormSnapshotStore {
	return &GormSnapshotStore{db: db}
}

func (r *GormSnapshotStore) Put(ctx context.Context, record *domain.SessionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record == nil {
		return errors.New("record is nil")
	}

	row, err := toModelSession(record)
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "is_active", "version", "data", "updated_at", "ended_at"}),
	}).Create(row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrJoinCodeExists
		}
		return err
	}
	return nil
}

func (r *GormSnapshotStore) Get(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	return r.first(ctx, "id = ?", sessionID)
}

func (r *GormSnapshotStore) GetByJoinCode(ctx context.Context, joinCode string) (*domain.SessionRecord, error) {
	return r.first(ctx, "join_code = ?", joinCode)
}

func (r *GormSnapshotStore) ListActive(ctx context.Context) ([]*domain.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []model.Session
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]*domain.SessionRecord, 0, len(rows))
	for i := range rows {
		rec, err := toDomainSession(&rows[i])
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, nil
}

func (r *GormSnapshotStore) first(ctx context.Context, query string, arg string) (*domain.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var row model.Session
	err := r.db.WithContext(ctx).First(&row, query, arg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}

	return toDomainSession(&row)
}

func toModelSession(record *domain.SessionRecord) (*model.Session, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", record.ID, err)
	}
	return &model.Session{
		ID:        record.ID,
		JoinCode:  record.JoinCode,
		CreatorID: record.CreatorID,
		Title:     record.Title,
		IsActive:  record.IsActive,
		Version:   record.Document.Version,
		Data:      string(data),
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.SavedAt,
		EndedAt:   record.EndedAt,
	}, nil
}

func toDomainSession(row *model.Session) (*domain.SessionRecord, error) {
	var record domain.SessionRecord
	if err := json.Unmarshal([]byte(row.Data), &record); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", row.ID, err)
	}
	return &record, nil
}
