package booking

import (
	"context"
	"fmt"

	"courtbook/internal/models"
)

// ComputePricing prices a session. The rate is the one in force at the start
// hour; duration only multiplies it. Each figure is rounded on its own.
func (e *Engine) ComputePricing(_ context.Context, courtID string, date models.Date, slotTime string, duration int, services []models.AdditionalService) (models.Pricing, error) {
	court, err := e.courts.Get(courtID)
	if err != nil {
		return models.Pricing{}, err
	}
	hour, err := models.ParseSlotTime(slotTime)
	if err != nil {
		return models.Pricing{}, fmt.Errorf("compute pricing: %w", err)
	}

	base := e.courts.PriceForSlot(court, date, hour)
	subtotal := models.Round2(base * float64(duration))

	var sum float64
	for _, s := range services {
		sum += s.Price
	}
	servicesTotal := models.Round2(sum)
	tax := models.Round2(models.TaxRate * (subtotal + servicesTotal))

	return models.Pricing{
		BasePrice: models.Round2(base),
		Subtotal:  subtotal,
		Services:  servicesTotal,
		Tax:       tax,
		Total:     models.Round2(subtotal + servicesTotal + tax),
	}, nil
}
