// internal/models/sample_test.go
package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestTimeLabel_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      TimeLabel
		wantError bool
	}{
		{"string label", `"08:00"`, "08:00", false},
		{"integer ordinal", `3`, "3", false},
		{"float ordinal", `1.5`, "1.5", false},
		{"boolean", `true`, "", true},
		{"object", `{}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got TimeLabel
			err := json.Unmarshal([]byte(tt.input), &got)
			if (err != nil) != tt.wantError {
				t.Fatalf("Unmarshal(%s) error = %v, wantError %v", tt.input, err, tt.wantError)
			}
			if !tt.wantError && got != tt.want {
				t.Errorf("Unmarshal(%s) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSample_DecodeRejectsNonNumeric(t *testing.T) {
	var s Sample
	err := json.Unmarshal([]byte(`{"time":"08:00","moisture":"wet"}`), &s)
	if err == nil {
		t.Fatal("expected error for non-numeric moisture")
	}
}

func TestSample_Check(t *testing.T) {
	tests := []struct {
		name      string
		sample    Sample
		wantField string
	}{
		{"valid", Sample{Temperature: 22, Humidity: 50, Light: 70, Moisture: 40, WaterLevel: 60}, ""},
		{"zero values", Sample{}, ""},
		{"temperature too low", Sample{Temperature: -45}, "temperature"},
		{"temperature too high", Sample{Temperature: 90}, "temperature"},
		{"humidity over 100", Sample{Humidity: 101}, "humidity"},
		{"light negative", Sample{Light: -1}, "light"},
		{"moisture over 100", Sample{Moisture: 120}, "moisture"},
		{"water level negative", Sample{WaterLevel: -5}, "waterLevel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sample.Check()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Check() unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Check() error = %v, want ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}
