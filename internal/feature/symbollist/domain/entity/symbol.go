// Package entity defines the domain models for the symbollist feature.
package entity

import "time"

// Symbol is one ticker offered in the dashboard's ticker picker.
// Rows live in the optional symbol catalog table and are read once at startup.
type Symbol struct {
	ID        uint      `gorm:"primaryKey"`
	Code      string    `gorm:"size:20;not null;uniqueIndex"`
	Name      string    `gorm:"size:255;not null"`
	Exchange  string    `gorm:"size:100;not null;default:''"`
	IsActive  bool      `gorm:"not null;default:true"`
	SortKey   int       `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName pins the table name regardless of gorm's naming strategy.
func (Symbol) TableName() string {
	return "symbols"
}
