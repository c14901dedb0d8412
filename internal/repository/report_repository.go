package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/marketplace-payments/internal/model"
)

var professionAggregates = map[model.ProfessionMetric]string{
	model.ProfessionMetricMax: "MAX",
	model.ProfessionMetricSum: "SUM",
}

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) BestProfession(
	ctx context.Context,
	from, to time.Time,
	metric model.ProfessionMetric,
) (*model.ProfessionEarnings, error) {
	aggregate, ok := professionAggregates[metric]
	if !ok {
		return nil, fmt.Errorf("unknown profession metric %q", metric)
	}

	query := fmt.Sprintf(`
		SELECT
			p.profession,
			%s(j.price) AS amount
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		JOIN profiles p ON p.id = c.contractor_id
		WHERE j.paid = TRUE
			AND j.created_at >= ?
			AND j.created_at <= ?
		GROUP BY p.profession
		ORDER BY amount DESC, p.profession ASC
		LIMIT 1
	`, aggregate)

	var rows []struct {
		Profession string
		Amount     decimal.Decimal
	}
	if err := r.db.WithContext(ctx).Raw(query, from, to).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &model.ProfessionEarnings{
		Profession: rows[0].Profession,
		Amount:     rows[0].Amount,
	}, nil
}

func (r *ReportRepository) BestClients(ctx context.Context, from, to time.Time, limit int) ([]model.ClientSpending, error) {
	var rows []struct {
		ID        uuid.UUID
		FirstName string
		LastName  string
		Paid      decimal.Decimal
	}
	if err := r.db.WithContext(ctx).Raw(`
		SELECT
			p.id,
			p.first_name,
			p.last_name,
			SUM(j.price) AS paid
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		JOIN profiles p ON p.id = c.client_id
		WHERE j.paid = TRUE
			AND j.created_at >= ?
			AND j.created_at <= ?
		GROUP BY p.id, p.first_name, p.last_name
		ORDER BY paid DESC, p.id ASC
		LIMIT ?
	`, from, to, limit).Scan(&rows).Error; err != nil {
		return nil, err
	}

	clients := make([]model.ClientSpending, 0, len(rows))
	for _, row := range rows {
		clients = append(clients, model.ClientSpending{
			ID:       row.ID,
			FullName: row.FirstName + " " + row.LastName,
			Paid:     row.Paid,
		})
	}
	return clients, nil
}
