package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type slotRow struct {
	Key       string `gorm:"primaryKey;size:64"`
	Value     []byte
	UpdatedAt time.Time
}

func (slotRow) TableName() string { return "slots" }

type blobRow struct {
	Key         string `gorm:"primaryKey;size:64"`
	Data        []byte
	ContentType string
	UpdatedAt   time.Time
}

func (blobRow) TableName() string { return "blobs" }

// GormKV persists slots and blobs in a relational backend: postgres when a
// DATABASE_URL is configured, a local sqlite file otherwise.
type GormKV struct {
	DB *gorm.DB
}

func configurePool(sqlDB *sql.DB) {
	const (
		maxOpenConns    = 20
		maxIdleConns    = 10
		connMaxLifetime = 30 * time.Minute
		connMaxIdleTime = 5 * time.Minute
	)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
}

func OpenGorm(ctx context.Context, databaseURL, sqlitePath string) (*GormKV, error) {
	var dial gorm.Dialector
	if databaseURL != "" {
		dial = postgres.Open(databaseURL)
	} else {
		dial = sqlite.Open(sqlitePath)
	}

	db, err := gorm.Open(dial, &gorm.Config{
		PrepareStmt: true,
		NowFunc:     func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	configurePool(sqlDB)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := db.AutoMigrate(&slotRow{}, &blobRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &GormKV{DB: db}, nil
}

func (g *GormKV) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var row slotRow
	err := g.DB.WithContext(ctx).First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: load %q: %v", ErrStorage, key, err)
	}
	return row.Value, true, nil
}

func (g *GormKV) Save(ctx context.Context, key string, value []byte) error {
	row := slotRow{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := g.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("%w: save %q: %v", ErrStorage, key, err)
	}
	return nil
}

func (g *GormKV) Delete(ctx context.Context, key string) error {
	if err := g.DB.WithContext(ctx).Delete(&slotRow{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("%w: delete %q: %v", ErrStorage, key, err)
	}
	return nil
}

func (g *GormKV) Close() error {
	sqlDB, err := g.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GormBlobs shares the GormKV database.
type GormBlobs struct {
	DB *gorm.DB
}

func (g *GormBlobs) Put(ctx context.Context, key string, blob Blob) error {
	row := blobRow{Key: key, Data: blob.Data, ContentType: blob.ContentType, UpdatedAt: time.Now().UTC()}
	err := g.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "content_type", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("%w: put blob %q: %v", ErrStorage, key, err)
	}
	return nil
}

func (g *GormBlobs) Get(ctx context.Context, key string) (*Blob, bool, error) {
	var row blobRow
	err := g.DB.WithContext(ctx).First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get blob %q: %v", ErrStorage, key, err)
	}
	return &Blob{Data: row.Data, ContentType: row.ContentType}, true, nil
}

func (g *GormBlobs) Delete(ctx context.Context, key string) error {
	if err := g.DB.WithContext(ctx).Delete(&blobRow{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("%w: delete blob %q: %v", ErrStorage, key, err)
	}
	return nil
}
