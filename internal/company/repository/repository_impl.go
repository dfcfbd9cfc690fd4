package repository

import (
	"context"

	companydomain "github.com/FelipeFraul/buscai-v2-sub000/internal/company/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() companydomain.Repository {
	return &repo{}
}

func (r *repo) ListByCityNiche(ctx context.Context, db *gorm.DB, cityID, nicheID string) ([]companydomain.Company, error) {
	var companies []companydomain.Company
	err := db.WithContext(ctx).Raw(
		`SELECT c.id, c.city_id, c.name, c.rating, c.review_count, c.active, c.created_at
		 FROM companies c
		 JOIN company_niches cn ON cn.company_id = c.id
		 WHERE c.city_id = ? AND cn.niche_id = ?
		 ORDER BY c.id ASC`,
		cityID, nicheID,
	).Scan(&companies).Error
	if err != nil {
		return nil, err
	}
	return companies, nil
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, company *companydomain.Company, nicheIDs ...string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(company).Error; err != nil {
			return err
		}
		for _, nicheID := range nicheIDs {
			link := companydomain.CompanyNiche{CompanyID: company.ID, NicheID: nicheID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
