package model

import (
	"time"

	"gorm.io/datatypes"
)

type KVEntry struct {
	Key       string         `gorm:"primaryKey;type:varchar(255)" json:"key"`
	Value     datatypes.JSON `gorm:"not null" json:"value"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (*KVEntry) TableName() string {
	return "kv_entry"
}
