package handlers

import (
	"strings"
)

type ValidationError struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

func validateItem(req ItemRequest) []ValidationError {
	errs := []ValidationError{}
	if strings.TrimSpace(req.SKU) == "" {
		errs = append(errs, ValidationError{Field: "SKU", Description: "SKU is required"})
	}
	if req.Quantity < 0 {
		errs = append(errs, ValidationError{Field: "Quantity", Description: "Quantity cannot be negative"})
	}
	if req.Threshold < 0 {
		errs = append(errs, ValidationError{Field: "Threshold", Description: "Threshold cannot be negative"})
	}
	return errs
}

func validateMutation(quantity int, orderID string) []ValidationError {
	errs := []ValidationError{}
	if quantity <= 0 {
		errs = append(errs, ValidationError{Field: "Quantity", Description: "Quantity must be a positive integer"})
	}
	if strings.TrimSpace(orderID) == "" {
		errs = append(errs, ValidationError{Field: "OrderID", Description: "order_id is required"})
	}
	return errs
}

func validateRestoreReason(reason string) []ValidationError {
	if reason != "canceled" && reason != "expired" {
		return []ValidationError{{Field: "Reason", Description: "reason must be canceled or expired"}}
	}
	return nil
}
