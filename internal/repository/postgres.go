package repository

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/patronus-pay/patronus/internal/models"
	"github.com/patronus-pay/patronus/pkg/logger"
)

type PostgresDB struct {
	logger *logger.Logger

	Conn *gorm.DB
}

func NewPostgresDB(user, password, dbname, host string, port int, logger *logger.Logger) (models.Repository, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		host, user, password, dbname, port)

	// Configure GORM logger to suppress "record not found" messages
	gormLogger := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %s", err)
	}

	if err := db.AutoMigrate(&models.TransferRecord{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate models: %s", err)
	}
	logger.Info("Successfully connected to PostgreSQL!")
	return &PostgresDB{Conn: db, logger: logger}, nil
}

func (db *PostgresDB) Close() error {
	sqlDB, err := db.Conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %s", err)
	}
	return sqlDB.Close()
}

func (db *PostgresDB) CreateTransferRecord(record *models.TransferRecord) error {
	if err := db.Conn.Create(record).Error; err != nil {
		return fmt.Errorf("failed to create transfer record: %s", err)
	}

	return nil
}

// UpdateTransferOutcome writes the terminal fields of a finished attempt.
func (db *PostgresDB) UpdateTransferOutcome(id int64, record *models.TransferRecord) error {
	updates := map[string]interface{}{
		"operation_id":    record.OperationID,
		"settlement_hash": record.SettlementHash,
		"status":          record.Status,
		"error_message":   record.ErrorMessage,
		"verify_advised":  record.VerifyAdvised,
		"explorer_url":    record.ExplorerURL,
		"finished_at":     record.FinishedAt,
	}
	if err := db.Conn.Model(&models.TransferRecord{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update transfer outcome: %s", err)
	}
	return nil
}

func (db *PostgresDB) GetTransferRecord(id int64) (*models.TransferRecord, error) {
	var record models.TransferRecord
	if err := db.Conn.Where("id = ?", id).First(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to get transfer record: %s", err)
	}

	return &record, nil
}

func (db *PostgresDB) GetTransfersBySender(sender string, limit int) ([]*models.TransferRecord, error) {
	var records []*models.TransferRecord
	if err := db.Conn.Where("sender = ?", sender).Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to get transfer records: %s", err)
	}

	return records, nil
}

func (db *PostgresDB) GetRecentFailures(since int64) ([]*models.TransferRecord, error) {
	var records []*models.TransferRecord
	if err := db.Conn.Where("status = ? AND finished_at >= ?", models.StatusFailed, since).Order("finished_at DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to get recent failures: %s", err)
	}

	return records, nil
}
