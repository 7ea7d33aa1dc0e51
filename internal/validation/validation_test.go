package validation

import (
	"testing"

	"github.com/georgemunganga/hitpay-reviews/internal/apperr"
)

func TestStruct(t *testing.T) {
	type req struct {
		Name   string  `json:"name" validate:"required,max=5"`
		Rating int     `json:"rating" validate:"gte=1,lte=5"`
		Kind   string  `json:"kind,omitempty" validate:"omitempty,oneof=a b"`
		Nick   *string `json:"nick" validate:"omitnil,min=2"`
		Code   string  `json:"code,omitempty" validate:"omitempty,len=3,alpha"`
	}
	short := "x"
	tests := []struct {
		name string
		in   req
		want string
	}{
		{"ok", req{Name: "ann", Rating: 3}, ""},
		{"missing", req{Rating: 3}, "name is required"},
		{"too long", req{Name: "abcdefg", Rating: 3}, "name must be at most 5 characters"},
		{"rating low", req{Name: "a", Rating: 0}, "rating must be at least 1"},
		{"rating high", req{Name: "a", Rating: 6}, "rating must be at most 5"},
		{"oneof", req{Name: "a", Rating: 1, Kind: "c"}, "kind must be one of: a b"},
		{"code length", req{Name: "a", Rating: 1, Code: "1"}, "code must be exactly 3 characters"},
		{"code letters", req{Name: "a", Rating: 1, Code: "A1B"}, "code must contain only letters"},
		{"code ok", req{Name: "a", Rating: 1, Code: "SGD"}, ""},
		{"pointer set too short", req{Name: "a", Rating: 1, Nick: &short}, "nick must be at least 2 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !apperr.IsKind(err, apperr.Validation) {
				t.Fatalf("want validation error, got %v", err)
			}
			if got := apperr.PublicMessage(err); got != tt.want {
				t.Errorf("message = %q, want %q", got, tt.want)
			}
		})
	}
}
