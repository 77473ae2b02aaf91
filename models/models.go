package models

import (
	"time"
)

type Token struct {
	Token     string `gorm:"primaryKey"`
	Did       string `gorm:"index"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"index:,sort:asc"`
}

// Record is one entry of a registry bucket. Value holds the stored tuple and
// Cid its content address.
type Record struct {
	Bucket    string `gorm:"primaryKey"`
	Rkey      []byte `gorm:"primaryKey"`
	Cid       string `gorm:"index"`
	Value     []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}
