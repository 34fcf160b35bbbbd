// Package store provides database access for accounts, translation
// history, and saved language pairs on the phone side.
package store

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Account struct {
	ID        uint   `gorm:"primaryKey"`
	DeviceID  string `gorm:"uniqueIndex"`
	Credits   int64
	CreatedAt int64
}

type Translation struct {
	ID             uint `gorm:"primaryKey"`
	AccountID      uint `gorm:"not null;index"`
	RequestID      string
	SourceLang     string
	TargetLang     string
	SourceText     string
	TranslatedText string
	CreatedAt      int64
}

type LanguagePair struct {
	ID         uint `gorm:"primaryKey"`
	AccountID  uint `gorm:"uniqueIndex"`
	SourceLang string
	TargetLang string
	UpdatedAt  int64
}

func NewDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		PrepareStmt: true,
		Logger:      logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.Exec("PRAGMA foreign_keys = ON")

	err = db.AutoMigrate(&Account{}, &Translation{}, &LanguagePair{})
	if err != nil {
		return nil, err
	}
	return db, nil
}
