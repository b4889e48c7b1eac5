package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a validator with the cart struct-level rules registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	v.RegisterStructValidation(addItemStructValidation, AddItemRequest{})
	v.RegisterStructValidation(updateItemStructValidation, UpdateItemRequest{})

	return v
}

// rental lines need a rental length; sale lines ignore it
func addItemStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(AddItemRequest)
	if !req.IsSale && req.Days < 1 {
		sl.ReportError(req.Days, "days", "Days", "rental_days_required", "")
	}
}

func updateItemStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(UpdateItemRequest)
	if (req.Quantity == nil) == (req.Days == nil) {
		sl.ReportError(req.Quantity, "quantity", "Quantity", "quantity_xor_days", "")
	}
}
