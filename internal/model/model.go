package model

import (
	"time"

	"github.com/thep200/workflow-popularity/cfg"
	"github.com/thep200/workflow-popularity/pkg/db"
	"github.com/thep200/workflow-popularity/pkg/log"
)

type Model struct {
	Config    *cfg.Config  `gorm:"-" json:"-"`
	Logger    log.Logger   `gorm:"-" json:"-"`
	Database  *db.Database `gorm:"-" json:"-"`
	ID        uint         `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
