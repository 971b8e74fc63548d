package db

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"imagehost/models"
)

var DB *gorm.DB

// InitDatabase opens the sqlite database and migrates the shared stores
// table. Per-store tables are never migrated here; the storetables package
// provisions them when a store is created.
//
// The DSN enables foreign keys, immediate write transactions and a busy
// timeout so concurrent writers queue instead of failing.
func InitDatabase(dbPath string, log *zap.Logger) *gorm.DB {
	// Ensure the directory exists (create if it doesn't)
	dir := filepath.Dir(dbPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatal("Failed to create database directory", zap.Error(err))
		}
	}

	dsn := dbPath + "?_fk=1&_txlock=immediate&_busy_timeout=5000"

	// gorm's logger stays at Warn: statements against per-store tables
	// carry spliced table names and must not be echoed by a debug printer.
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected", zap.String("path", dbPath))

	if err := gdb.AutoMigrate(&models.Store{}); err != nil {
		log.Fatal("Failed to migrate stores table", zap.Error(err))
	}

	DB = gdb
	return gdb
}
