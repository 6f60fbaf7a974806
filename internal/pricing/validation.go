package pricing

import "strings"

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateCampaign validates a campaign before it is created or saved.
// Field-level checks only; cross-record consistency is the caller's
// responsibility.
func ValidateCampaign(campaign *Campaign) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(campaign.Name) == "" {
		errors = append(errors, ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}

	switch campaign.Type {
	case DiscountPercentage:
		if campaign.DiscountValue < 0 || campaign.DiscountValue > 100 {
			errors = append(errors, ValidationError{
				Field:   "discount_value",
				Message: "percentage discount must be between 0 and 100",
			})
		}
	case DiscountFixed:
		if campaign.DiscountValue < 0 {
			errors = append(errors, ValidationError{
				Field:   "discount_value",
				Message: "fixed discount cannot be negative",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "type",
			Message: "type must be percentage or fixed",
		})
	}

	switch campaign.TargetType {
	case TargetAll:
		// no target id expected
	case TargetCategory, TargetItem:
		if strings.TrimSpace(campaign.TargetID) == "" {
			errors = append(errors, ValidationError{
				Field:   "target_id",
				Message: "target_id is required for category and item scoped campaigns",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "target_type",
			Message: "target_type must be all, category or item",
		})
	}

	return errors
}
