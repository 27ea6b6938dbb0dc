package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SubmissionRecord is the GORM mapping of the submissions table.
type SubmissionRecord struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false"`
	Text      string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (SubmissionRecord) TableName() string {
	return "submissions"
}

// OpenPostgres connects to PostgreSQL and migrates the submissions table.
// Close the underlying *sql.DB (gdb.DB()) on shutdown.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := MigratePostgres(gdb); err != nil {
		if sqlDB, dbErr := gdb.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, err
	}
	return gdb, nil
}

func MigratePostgres(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&SubmissionRecord{}); err != nil {
		return fmt.Errorf("migrate postgres: %w", err)
	}
	return nil
}
