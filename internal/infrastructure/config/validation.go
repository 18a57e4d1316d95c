package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Tags of the portsim rules registered in NewValidator
const (
	tagUniqueShipNames = "unique_ship_names"
	tagAbovePortIDs    = "above_port_ids"
)

// Validator wraps go-playground/validator with the portsim rules
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator knowing the cross-field fleet rules
func NewValidator() *Validator {
	v := validator.New()

	// Registration only fails for an empty tag or nil func
	_ = v.RegisterValidation(tagUniqueShipNames, uniqueShipNames)
	v.RegisterStructValidation(containerBaseAbovePortIDs, Config{})

	return &Validator{
		validate: v,
	}
}

// uniqueShipNames rejects fleets where two ships share a name, since names
// key the berth assignments
func uniqueShipNames(fl validator.FieldLevel) bool {
	ships, ok := fl.Field().Interface().([]ShipConfig)
	if !ok {
		return false
	}
	seen := make(map[string]bool, len(ships))
	for _, s := range ships {
		if seen[s.Name] {
			return false
		}
		seen[s.Name] = true
	}
	return true
}

// containerBaseAbovePortIDs keeps ship container ids clear of the ids
// 0..initial_containers-1 handed to the port
func containerBaseAbovePortIDs(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	if cfg.Fleet.ContainerBase < cfg.Port.InitialContainers {
		sl.ReportError(cfg.Fleet.ContainerBase, "container_base", "ContainerBase",
			tagAbovePortIDs, strconv.Itoa(cfg.Port.InitialContainers))
	}
}

// Validate validates a struct using validation tags
func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return v.formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors into readable messages
func (v *Validator) formatValidationError(err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	messages := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		switch e.Tag() {
		case tagUniqueShipNames:
			messages = append(messages, "field 'ships' failed validation: ship names must be unique")
		case tagAbovePortIDs:
			messages = append(messages, fmt.Sprintf(
				"field 'container_base' failed validation: ship ids from %v overlap port ids below %s",
				e.Value(),
				e.Param(),
			))
		default:
			messages = append(messages, fmt.Sprintf(
				"field '%s' failed validation: %s (value: '%v')",
				e.Field(),
				e.Tag(),
				e.Value(),
			))
		}
	}
	return fmt.Errorf("validation failed:\n  %s", strings.Join(messages, "\n  "))
}

// ValidateConfig validates the entire configuration, including nested ship entries
func ValidateConfig(cfg *Config) error {
	v := NewValidator()
	return v.Validate(cfg)
}
