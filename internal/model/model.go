// Package model 定义数据模型
package model

import (
	"gorm.io/gorm"
)

// AutoMigrate 按模型名迁移单张表
func AutoMigrate(db *gorm.DB, key string) error {
	switch key {

	case "Patch":
		return db.AutoMigrate(Patch{})

	case "FieldValue":
		return db.AutoMigrate(FieldValue{})
	}
	return nil
}

// AutoMigrateAll 迁移全部表
func AutoMigrateAll(db *gorm.DB) error {
	for _, key := range []string{"Patch", "FieldValue"} {
		if err := AutoMigrate(db, key); err != nil {
			return err
		}
	}
	return nil
}
