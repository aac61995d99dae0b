package utils

import (
	"reflect"
	"testing"
)

func TestRedactMasksSensitiveKeys(t *testing.T) {
	in := map[string]any{
		"user_id":  "u1",
		"password": "hunter2",
		"Token":    "abc",
		"nested": map[string]any{
			"secret": "s3cr3t",
			"count":  3,
		},
	}

	got, ok := Redact(in).(map[string]any)
	if !ok {
		t.Fatal("Redact did not return a map")
	}
	if got["password"] != "******" || got["Token"] != "******" {
		t.Errorf("sensitive keys not masked: %v", got)
	}
	nested := got["nested"].(map[string]any)
	if nested["secret"] != "******" {
		t.Errorf("nested secret not masked: %v", nested)
	}
	if nested["count"] != 3 {
		t.Errorf("non-string value changed: %v", nested["count"])
	}
}

func TestRedactDoesNotMutateInput(t *testing.T) {
	in := map[string]any{"password": "hunter2"}
	_ = Redact(in)
	if in["password"] != "hunter2" {
		t.Error("input map was mutated")
	}
}

func TestRedactString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "plain", in: "no identifiers here", want: "no identifiers here"},
		{
			name: "email",
			in:   "contact alice@example.com please",
			want: "contact [REDACTED:email] please",
		},
		{
			name: "uuid",
			in:   "question 6fa459ea-ee8a-3ca4-894e-db77e160355e failed",
			want: "question [REDACTED:id] failed",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := RedactString(tc.in); got != tc.want {
				t.Errorf("RedactString(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestRedactSlices(t *testing.T) {
	in := []any{"mail me at bob@example.org", 42}
	want := []any{"mail me at [REDACTED:email]", 42}
	if got := Redact(in); !reflect.DeepEqual(got, want) {
		t.Errorf("Redact(%v) = %v, want %v", in, got, want)
	}
}
