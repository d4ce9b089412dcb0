package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB wraps a gorm handle for a single SQLite file
// ⭐ SSOT: DB 연결은 이 패키지에서만 생성
type DB struct {
	Gorm *gorm.DB
	Path string
}

// Open opens a SQLite database file
// ⭐ SSOT: 유일하게 gorm.Open()을 호출하는 함수
func Open(path string) (*DB, error) {
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}

	return &DB{Gorm: gdb, Path: path}, nil
}

// OpenExisting opens a SQLite database file, failing when it does not exist.
// 판매 DB는 수집기가 만든 파일이어야 함
func OpenExisting(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("sales database not found: %w", err)
	}
	return Open(path)
}

// Close closes the underlying connection
func (db *DB) Close() error {
	if db.Gorm == nil {
		return nil
	}
	sqlDB, err := db.Gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// PredictionsPathFor derives the predictions DB path from a sales DB path.
// 규약: 같은 디렉토리에 category_predictions_ 접두사를 붙인 파일
func PredictionsPathFor(salesPath string) string {
	dir := filepath.Dir(salesPath)
	base := filepath.Base(salesPath)
	return filepath.Join(dir, "category_predictions_"+base)
}
