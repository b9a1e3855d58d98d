package handler

import (
	"ezcode-server/internal/selection"
	"ezcode-server/internal/wizard"
)

type updateFieldRequest struct {
	Value any `json:"value"`
}

type jumpRequest struct {
	Step int `json:"step" binding:"required"`
}

type stepValidationResponse struct {
	Step   wizard.Step             `json:"step"`
	Valid  bool                    `json:"valid"`
	Errors wizard.ValidationErrors `json:"errors"`
}

type selectionRequest struct {
	ToolID string `json:"tool_id" binding:"required"`
}

type selectionResponse struct {
	Set      selection.Name    `json:"set"`
	Capacity int               `json:"capacity,omitempty"`
	Entries  []selection.Entry `json:"entries"`
}

type toggleResponse struct {
	selectionResponse
	Selected bool `json:"selected"`
}

type containsResponse struct {
	ToolID   string `json:"tool_id"`
	Selected bool   `json:"selected"`
}

type reviewRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}
