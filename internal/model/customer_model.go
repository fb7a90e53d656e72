package model

import "time"

type Customer struct {
	CustomerRef string    `gorm:"type:varchar(128);primaryKey"`
	FullName    string    `gorm:"type:varchar(255);not null"`
	Status      string    `gorm:"type:varchar(50);not null;default:'active'"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (Customer) TableName() string {
	return "customers"
}
