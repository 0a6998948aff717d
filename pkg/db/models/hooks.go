package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// The goose schema gives the Postgres id columns a gen_random_uuid()
// default; the gorm tags stay default-free so AutoMigrate emits DDL
// SQLite accepts. These hooks fill IDs on databases without a default.

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (d *DiscountCode) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
