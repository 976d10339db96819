package validation

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/kbukum/mlopskit/errors"
)

func TestValidatorRequired(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"churn-secret", false},
		{"", true},
		{"   ", true},
	}
	for _, tc := range tests {
		v := New().Required("secret", tc.value)
		if v.HasErrors() != tc.wantErr {
			t.Errorf("Required(%q): expected error=%v, got %v", tc.value, tc.wantErr, v.Errors())
		}
	}
}

func TestValidatorRequiredUUID(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantMsg string
	}{
		{"valid", uuid.New().String(), ""},
		{"empty", "", "is required"},
		{"malformed", "not-a-uuid", "must be a valid UUID"},
		{"nil", uuid.Nil.String(), "must not be empty"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := New().RequiredUUID("uuid", tc.value)
			if tc.wantMsg == "" {
				if v.HasErrors() {
					t.Errorf("expected no errors, got %v", v.Errors())
				}
				return
			}
			if !v.HasErrors() || v.Errors()[0].Message != tc.wantMsg {
				t.Errorf("expected %q, got %v", tc.wantMsg, v.Errors())
			}
		})
	}
}

func TestValidatorProbability(t *testing.T) {
	for _, ok := range []float64{0, 0.5, 1} {
		if New().Probability("min_accuracy", ok).HasErrors() {
			t.Errorf("expected %v to be accepted", ok)
		}
	}
	for _, bad := range []float64{-0.1, 1.01} {
		if !New().Probability("min_accuracy", bad).HasErrors() {
			t.Errorf("expected %v to be rejected", bad)
		}
	}
}

func TestValidatorMinOneOfCustom(t *testing.T) {
	v := New().
		Min("replicas", 0, 1).
		OneOf("implementation", "TORCH_SERVER", []string{"SKLEARN_SERVER"}).
		OneOf("state", "", []string{"running"}).
		Custom(false, "ndarray", "rows must have 3 values")
	if len(v.Errors()) != 3 {
		t.Fatalf("expected 3 errors, got %v", v.Errors())
	}
}

func TestValidatorValidate(t *testing.T) {
	if New().Validate() != nil {
		t.Error("expected nil for no errors")
	}

	appErr := New().Required("secret", "").Min("replicas", 0, 1).Validate()
	if appErr == nil {
		t.Fatal("expected AppError")
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
	}
	if !strings.Contains(appErr.Message, "secret: is required") || !strings.Contains(appErr.Message, "replicas") {
		t.Errorf("unexpected message %q", appErr.Message)
	}
	if fields, ok := appErr.Details["fields"].([]FieldError); !ok || len(fields) != 2 {
		t.Errorf("expected 2 field errors in details, got %v", appErr.Details["fields"])
	}
}

type deploymentConfig struct {
	MinAccuracy float64 `mapstructure:"min_accuracy" validate:"gte=0,lte=1"`
	Secret      string  `mapstructure:"secret" validate:"required"`
	Replicas    int     `mapstructure:"replicas" validate:"min=1"`
}

type rootConfig struct {
	Deployment deploymentConfig `mapstructure:"deployment"`
}

func TestStructValidateValid(t *testing.T) {
	cfg := rootConfig{Deployment: deploymentConfig{MinAccuracy: 0.5, Secret: "s", Replicas: 1}}
	if err := Validate(cfg); err != nil {
		t.Errorf("expected valid, got %v", err)
	}
}

func TestStructValidateInvalid(t *testing.T) {
	cfg := rootConfig{Deployment: deploymentConfig{MinAccuracy: 1.5}}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{
		"deployment.min_accuracy: must be less than or equal to 1",
		"deployment.secret: is required",
		"deployment.replicas: must be at least 1",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Error("expected INVALID_INPUT code")
	}
}

func TestValidateUUIDFunc(t *testing.T) {
	id := uuid.New()
	got, err := ValidateUUID("uuid", id.String())
	if err != nil || got != id {
		t.Errorf("expected %s, got %s (%v)", id, got, err)
	}
	if _, err := ValidateUUID("uuid", "nope"); err == nil {
		t.Error("expected error for invalid UUID")
	}
}

func TestToSnakeCase(t *testing.T) {
	if got := toSnakeCase("MinAccuracy"); got != "min_accuracy" {
		t.Errorf("expected min_accuracy, got %q", got)
	}
}
