package redis

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
)

func (r cachedLevel) toEntity(companyID string) (*entity.StockLevel, error) {
	onHand, err := decimal.NewFromString(r.OnHand)
	if err != nil {
		return nil, fmt.Errorf("on_hand: %w", err)
	}
	reserved, err := decimal.NewFromString(r.Reserved)
	if err != nil {
		return nil, fmt.Errorf("reserved: %w", err)
	}
	avg, err := decimal.NewFromString(r.AvgCost)
	if err != nil {
		return nil, fmt.Errorf("avg_cost: %w", err)
	}
	return &entity.StockLevel{
		CompanyID:   companyID,
		ProductID:   r.ProductID,
		WarehouseID: r.WarehouseID,
		OnHand:      onHand,
		Reserved:    reserved,
		AvgCost:     avg,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}
