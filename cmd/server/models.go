package main

import (
	"time"

	"github.com/docketops/courtrules/rules"
)

// API request and response models

// EvaluateRequest is the body for raw rule evaluation
type EvaluateRequest struct {
	District      string         `json:"district"`
	TriggerEvent  string         `json:"trigger_event"`
	Context       map[string]any `json:"context"`
	TriggerDate   string         `json:"trigger_date"`
	ServiceMethod string         `json:"service_method,omitempty"`
	AsOf          string         `json:"as_of,omitempty"`
}

// EvaluateResponse carries the full resolution of one evaluation
type EvaluateResponse struct {
	Deadlines      []rules.DeadlineResult `json:"deadlines"`
	Effects        []rules.Effect         `json:"effects"`
	Errors         []rules.ActionError    `json:"errors,omitempty"`
	Blocked        bool                   `json:"blocked"`
	EvaluationTime string                 `json:"evaluation_time"`
}

// ComputeDeadlineRequest is the body for standalone deadline computation
type ComputeDeadlineRequest struct {
	District      string `json:"district,omitempty"`
	TriggerDate   string `json:"trigger_date"`
	PeriodDays    int    `json:"period_days"`
	ServiceMethod string `json:"service_method,omitempty"`
}

// HolidaysResponse lists the federal holidays for a year
type HolidaysResponse struct {
	Year     int                    `json:"year"`
	Holidays []rules.FederalHoliday `json:"holidays"`
}

// CreateDistrictRequest is the body for creating a court district
type CreateDistrictRequest struct {
	Name string `json:"name"`
}

// DistrictResponse represents a district in API responses
type DistrictResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// DistrictsListResponse is the response for listing districts
type DistrictsListResponse struct {
	Districts []DistrictResponse `json:"districts"`
}

// RulesListResponse is the response for listing a district's rules
type RulesListResponse struct {
	Rules []*rules.Rule `json:"rules"`
}
