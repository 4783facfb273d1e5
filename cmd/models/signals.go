package models

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// PriceLevels is an ordered ladder of take-profit prices. Postgres stores it
// as a native float array; other dialects keep the lib/pq text encoding.
type PriceLevels pq.Float64Array

func (PriceLevels) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "float[]"
	}
	return "text"
}

func (p PriceLevels) Value() (driver.Value, error) {
	return pq.Float64Array(p).Value()
}

func (p *PriceLevels) Scan(src interface{}) error {
	return (*pq.Float64Array)(p).Scan(src)
}

type Signal struct {
	ID          uint        `gorm:"primaryKey" json:"-"`
	SignalID    string      `gorm:"column:signal_id;size:64;uniqueIndex;not null" json:"id"`
	UserID      string      `gorm:"column:user_id;size:64;index;not null" json:"user_id"`
	Asset       string      `gorm:"column:asset;size:32;not null" json:"asset"`
	Direction   string      `gorm:"column:direction;size:8;not null" json:"signal"`
	Entry       float64     `gorm:"column:entry" json:"entry"`
	TakeProfit  PriceLevels `gorm:"column:take_profit" json:"take_profit"`
	StopLoss    *float64    `gorm:"column:stop_loss" json:"stop_loss"`
	Confidence  int         `gorm:"column:confidence" json:"confidence"`
	Timeframe   string      `gorm:"column:timeframe;size:32" json:"timeframe"`
	Status      string      `gorm:"column:status;size:32;index" json:"status"`
	AIReasoning string      `gorm:"column:ai_reasoning;type:text" json:"ai_reasoning"`
	RiskReward  string      `gorm:"column:risk_reward;size:16" json:"risk_reward"`
	CreatedAt   time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	ExpiresAt   time.Time   `gorm:"column:expires_at" json:"expires_at"`
}
