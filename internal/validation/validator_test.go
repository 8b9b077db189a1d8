// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package validation

import (
	"strings"
	"testing"
)

type record struct {
	UserID string `json:"user_id" validate:"required,identifier"`
	ItemID int64  `json:"item_id" validate:"required"`
	Limit  int    `json:"limit" validate:"omitempty,min=1,max=100"`
}

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 == nil {
		t.Fatal("GetValidator() returned nil")
	}
	if v1 != v2 {
		t.Error("GetValidator() should return the same instance")
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name       string
		input      record
		wantFields []string
	}{
		{
			name:  "valid record",
			input: record{UserID: "u1", ItemID: 7},
		},
		{
			name:       "missing user",
			input:      record{ItemID: 7},
			wantFields: []string{"user_id"},
		},
		{
			name:       "blank user",
			input:      record{UserID: "   ", ItemID: 7},
			wantFields: []string{"user_id"},
		},
		{
			name:       "control characters in user",
			input:      record{UserID: "u1\nforged", ItemID: 7},
			wantFields: []string{"user_id"},
		},
		{
			name:       "missing item",
			input:      record{UserID: "u1"},
			wantFields: []string{"item_id"},
		},
		{
			name:       "both missing and limit too large",
			input:      record{Limit: 500},
			wantFields: []string{"user_id", "item_id", "limit"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}

			got := err.Errors()
			if len(got) != len(tt.wantFields) {
				t.Fatalf("got %d field errors, want %d: %v", len(got), len(tt.wantFields), err)
			}
			for i, field := range tt.wantFields {
				if got[i].Field() != field {
					t.Errorf("error %d field = %q, want %q", i, got[i].Field(), field)
				}
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	single := ValidateStruct(&record{ItemID: 1})
	apiErr := single.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Message != "user_id is required" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if apiErr.Details["field"] != "user_id" {
		t.Errorf("Details[field] = %v, want user_id", apiErr.Details["field"])
	}

	multi := ValidateStruct(&record{}).ToAPIError()
	if !strings.Contains(multi.Message, "user_id") || !strings.Contains(multi.Message, "item_id") {
		t.Errorf("Message = %q, want both fields listed", multi.Message)
	}
	if _, ok := multi.Details["fields"]; !ok {
		t.Error("Details should carry a fields list for multiple errors")
	}
}
