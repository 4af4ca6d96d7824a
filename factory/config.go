/*
Package factory provides JSON to Go service-configuration conversion.

PURPOSE:
  Converts JSON service-configuration definitions into pricing.ServiceConfig
  values. This enables rate configuration without code changes - practice
  admins define services in JSON through the admin UI, and the factory
  creates the proper Go structs.

WHY JSON?
  - Non-developers can modify service rates
  - Easy integration with the admin UI
  - Database storage of configurations alongside queryable columns

JSON SCHEMA:
  {
    "id": "group-music",
    "name": "Group Music Therapy",
    "base_rate": 50,
    "per_person_rate": 20,
    "org_cut_percent": 30,
    "rent_percent": 10,
    "total_cap": 150,
    "contractor_cap": 90,
    "base_duration_minutes": 30,
    "scholarship": false,
    "scholarship_flat_rate": 0,
    "pay_schedule": {"30": 38.50, "60": 65.00}
  }

KEY FEATURES:
  - Validates percentages and rates
  - Sets the default base duration (30 minutes)
  - Round-trips back to JSON for storage

USAGE:
  f := factory.NewConfigFactory()
  cfg, err := f.ParseConfig(jsonString)

SEE ALSO:
  - pricing/types.go: ServiceConfig definition
  - store/sqlite: Stores the JSON plus queryable scholarship columns
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/weberl48/MTApp-sub000/pricing"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ServiceConfigJSON is the JSON representation of a service configuration.
// Pay schedule keys are duration minutes as strings (JSON object keys).
type ServiceConfigJSON struct {
	ID                  string             `json:"id"`
	Name                string             `json:"name"`
	BaseRate            float64            `json:"base_rate"`
	PerPersonRate       float64            `json:"per_person_rate,omitempty"`
	OrgCutPercent       float64            `json:"org_cut_percent"`
	RentPercent         float64            `json:"rent_percent,omitempty"`
	TotalCap            *float64           `json:"total_cap,omitempty"`
	ContractorCap       *float64           `json:"contractor_cap,omitempty"`
	Scholarship         bool               `json:"scholarship,omitempty"`
	ScholarshipFlatRate float64            `json:"scholarship_flat_rate,omitempty"`
	PaySchedule         map[string]float64 `json:"pay_schedule,omitempty"`
	BaseDurationMinutes int                `json:"base_duration_minutes,omitempty"`
}

// =============================================================================
// CONFIG FACTORY
// =============================================================================

// ConfigFactory converts JSON service configurations to Go structs.
type ConfigFactory struct{}

func NewConfigFactory() *ConfigFactory {
	return &ConfigFactory{}
}

// ParseConfig parses a JSON string into a ServiceConfig.
func (f *ConfigFactory) ParseConfig(jsonStr string) (*pricing.ServiceConfig, error) {
	var cj ServiceConfigJSON
	if err := json.Unmarshal([]byte(jsonStr), &cj); err != nil {
		return nil, fmt.Errorf("failed to parse service config JSON: %w", err)
	}
	return f.FromJSON(cj)
}

// FromJSON converts ServiceConfigJSON to a validated pricing.ServiceConfig.
func (f *ConfigFactory) FromJSON(cj ServiceConfigJSON) (*pricing.ServiceConfig, error) {
	if cj.ID == "" {
		return nil, fmt.Errorf("service config: id is required")
	}
	if cj.BaseRate < 0 || cj.PerPersonRate < 0 || cj.ScholarshipFlatRate < 0 {
		return nil, fmt.Errorf("service config %s: rates must not be negative", cj.ID)
	}
	if cj.OrgCutPercent < 0 || cj.OrgCutPercent > 100 {
		return nil, fmt.Errorf("service config %s: org_cut_percent must be 0-100", cj.ID)
	}
	if cj.RentPercent < 0 || cj.RentPercent > 100 {
		return nil, fmt.Errorf("service config %s: rent_percent must be 0-100", cj.ID)
	}
	if cj.OrgCutPercent+cj.RentPercent > 100 {
		return nil, fmt.Errorf("service config %s: org cut and rent together exceed 100%%", cj.ID)
	}
	if cj.Scholarship && cj.ScholarshipFlatRate <= 0 {
		return nil, fmt.Errorf("service config %s: scholarship services need a positive flat rate", cj.ID)
	}
	if cj.BaseDurationMinutes < 0 {
		return nil, fmt.Errorf("service config %s: base_duration_minutes must not be negative", cj.ID)
	}

	cfg := &pricing.ServiceConfig{
		ID:                  pricing.ServiceConfigID(cj.ID),
		Name:                cj.Name,
		BaseRate:            pricing.NewMoney(cj.BaseRate),
		PerPersonRate:       pricing.NewMoney(cj.PerPersonRate),
		OrgCutPercent:       decimal.NewFromFloat(cj.OrgCutPercent),
		RentPercent:         decimal.NewFromFloat(cj.RentPercent),
		Scholarship:         cj.Scholarship,
		ScholarshipFlatRate: pricing.NewMoney(cj.ScholarshipFlatRate),
		BaseDurationMinutes: cj.BaseDurationMinutes,
	}
	if cfg.BaseDurationMinutes == 0 {
		cfg.BaseDurationMinutes = pricing.DefaultBaseDuration
	}
	if cj.TotalCap != nil {
		m := pricing.NewMoney(*cj.TotalCap)
		cfg.TotalCap = &m
	}
	if cj.ContractorCap != nil {
		m := pricing.NewMoney(*cj.ContractorCap)
		cfg.ContractorCap = &m
	}

	if len(cj.PaySchedule) > 0 {
		cfg.PaySchedule = make(pricing.PaySchedule, len(cj.PaySchedule))
		for k, v := range cj.PaySchedule {
			minutes, err := strconv.Atoi(k)
			if err != nil || minutes <= 0 {
				return nil, fmt.Errorf("service config %s: bad pay schedule duration %q", cj.ID, k)
			}
			if v < 0 {
				return nil, fmt.Errorf("service config %s: pay schedule amounts must not be negative", cj.ID)
			}
			cfg.PaySchedule[minutes] = pricing.NewMoney(v)
		}
	}

	return cfg, nil
}

// ToJSON converts a ServiceConfig back to its JSON representation.
func (f *ConfigFactory) ToJSON(cfg *pricing.ServiceConfig) ServiceConfigJSON {
	cj := ServiceConfigJSON{
		ID:                  string(cfg.ID),
		Name:                cfg.Name,
		BaseRate:            cfg.BaseRate.Float64(),
		PerPersonRate:       cfg.PerPersonRate.Float64(),
		OrgCutPercent:       toFloat(cfg.OrgCutPercent),
		RentPercent:         toFloat(cfg.RentPercent),
		Scholarship:         cfg.Scholarship,
		ScholarshipFlatRate: cfg.ScholarshipFlatRate.Float64(),
		BaseDurationMinutes: cfg.BaseDuration(),
	}
	if cfg.TotalCap != nil {
		v := cfg.TotalCap.Float64()
		cj.TotalCap = &v
	}
	if cfg.ContractorCap != nil {
		v := cfg.ContractorCap.Float64()
		cj.ContractorCap = &v
	}
	if len(cfg.PaySchedule) > 0 {
		cj.PaySchedule = make(map[string]float64, len(cfg.PaySchedule))
		for minutes, amount := range cfg.PaySchedule {
			cj.PaySchedule[strconv.Itoa(minutes)] = amount.Float64()
		}
	}
	return cj
}

// MarshalConfig renders a ServiceConfig as a JSON string for storage.
func (f *ConfigFactory) MarshalConfig(cfg *pricing.ServiceConfig) (string, error) {
	data, err := json.Marshal(f.ToJSON(cfg))
	if err != nil {
		return "", fmt.Errorf("failed to marshal service config: %w", err)
	}
	return string(data), nil
}

func toFloat(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}
