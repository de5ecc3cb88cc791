package database

import (
	"fmt"
	"os"

	"esign-backend/logger"
	contractModel "esign-backend/models/contract"
	integrityModel "esign-backend/models/integrity"
	logModel "esign-backend/models/log"
	otpModel "esign-backend/models/otp"
	signatureModel "esign-backend/models/signature"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// InitDB initializes the database connection with auto migration and indexing
func InitDB() (*gorm.DB, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		logger.Warning("No .env file found, using process environment")
	}

	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	database := os.Getenv("DB_DATABASE")
	user := os.Getenv("DB_USERNAME")
	password := os.Getenv("DB_PASSWORD")
	sslmode := os.Getenv("DB_SSLMODE")

	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, database, sslmode)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Error("Failed to connect to the database", err)
		return nil, err
	}
	logger.Success("Successfully connected to the database")

	if err := Migrate(DB); err != nil {
		logger.Error("Failed to run migrations", err)
		return nil, err
	}
	logger.Success("All migrations completed successfully")

	if err := createIndexes(); err != nil {
		logger.Error("Failed to create indexes", err)
		return nil, err
	}
	logger.Success("All indexes created successfully")

	return DB, nil
}

// Migrate runs auto migration for all models, parents before dependents.
func Migrate(db *gorm.DB) error {
	// Stage 1: templates have no dependencies
	stage1Models := []interface{}{
		&contractModel.Contract{},
	}

	for _, model := range stage1Models {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Stage 2: rows referencing contracts
	stage2Models := []interface{}{
		&signatureModel.SignatureRequest{},
	}

	for _, model := range stage2Models {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Stage 3: remaining models
	remainingModels := []interface{}{
		&otpModel.OTP{},
		&signatureModel.AuditLogEntry{},
		&integrityModel.IntegrityRecord{},
		&logModel.Log{},
	}

	for _, model := range remainingModels {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	return nil
}

// createIndexes creates additional indexes for better performance
func createIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_signature_requests_token ON signature_requests(token)",
		"CREATE INDEX IF NOT EXISTS idx_signature_requests_status ON signature_requests(status)",
		"CREATE INDEX IF NOT EXISTS idx_signature_requests_created_at ON signature_requests(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_otps_request_id ON otps(request_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_log_entries_request_id ON audit_log_entries(request_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_log_entries_timestamp ON audit_log_entries(timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_integrity_records_hash ON integrity_records(hash)",
		"CREATE INDEX IF NOT EXISTS idx_contracts_file_hash ON contracts(file_hash)",
		"CREATE INDEX IF NOT EXISTS idx_logs_created_at ON logs(created_at)",
	}

	for _, stmt := range indexes {
		if err := DB.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
