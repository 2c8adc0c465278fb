package usecase

import (
	"fmt"

	domainErrors "github.com/polkiloo/rewardengine/internal/domain/errors"
	"github.com/polkiloo/rewardengine/internal/domain/model"
)

// ValidateOrder rejects orders the engine must not touch the store for.
func ValidateOrder(order model.OrderSnapshot) error {
	if len(order.Lines) == 0 {
		return fmt.Errorf("%w: order %d has no lines", domainErrors.ErrInvalidLineInput, order.OrderID)
	}
	if order.Subtotal.IsNegative() {
		return fmt.Errorf("%w: negative subtotal %s", domainErrors.ErrInvalidLineInput, order.Subtotal)
	}
	for i, line := range order.Lines {
		if err := ValidateLine(line); err != nil {
			return fmt.Errorf("line %d: %w", i, err)
		}
	}
	return nil
}

// ValidateLine checks quantity and unit price of a single order line.
func ValidateLine(line model.OrderLine) error {
	if line.Quantity < 1 {
		return fmt.Errorf("%w: quantity %d", domainErrors.ErrInvalidLineInput, line.Quantity)
	}
	if line.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: unit price %s", domainErrors.ErrInvalidLineInput, line.UnitPrice)
	}
	return nil
}
