package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Company struct {
	ID          string     `gorm:"primaryKey;type:text"`
	CityID      string     `gorm:"type:text;not null;index"`
	Name        string     `gorm:"type:text;not null"`
	Rating      float64    `gorm:"not null;default:0"`
	ReviewCount int        `gorm:"not null;default:0"`
	Active      bool       `gorm:"not null"`
	CreatedAt   *time.Time `gorm:""`
}

func (Company) TableName() string { return "companies" }

// CompanyNiche links a company to the niches it is listed under.
type CompanyNiche struct {
	CompanyID string `gorm:"primaryKey;type:text"`
	NicheID   string `gorm:"primaryKey;type:text;index"`
}

func (CompanyNiche) TableName() string { return "company_niches" }

type Repository interface {
	// ListByCityNiche returns every company of a city listed under the niche,
	// inactive ones included; callers decide how to treat them.
	ListByCityNiche(ctx context.Context, db *gorm.DB, cityID, nicheID string) ([]Company, error)
	Upsert(ctx context.Context, db *gorm.DB, company *Company, nicheIDs ...string) error
}
