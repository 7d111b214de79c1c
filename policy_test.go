package argseal

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

var testParams = []string{"arg_1", "arg_2", "arg_3"}

func TestPolicy_Resolve(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		argc   int
		want   Positions
	}{
		{"none", EncryptNone(), 3, Positions{}},
		{"all", EncryptAll(), 3, Positions{0, 1, 2}},
		{"all without args", EncryptAll(), 0, Positions{}},
		{"positions", EncryptPositions(0, 2), 3, Positions{0, 2}},
		{"positions past argc are kept", EncryptPositions(5), 3, Positions{5}},
		{"named", EncryptNamed("arg_2"), 3, Positions{1}},
		{"unknown name ignored", EncryptNamed("missing", "arg_3"), 3, Positions{2}},
		{"mixed", mustParse(t, []any{0, "arg_3"}), 3, Positions{0, 2}},
		{"duplicates collapse", mustParse(t, []any{1, "arg_2", 1}), 3, Positions{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.policy.Resolve(testParams, tt.argc)
			if !ok {
				t.Fatal("Resolve() reported unset")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Resolve() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPolicy_ResolveUnset(t *testing.T) {
	got, ok := Unset().Resolve(testParams, 3)
	if ok || got != nil {
		t.Errorf("Resolve() = %v, %v; want nil, false", got, ok)
	}

	var zero Policy
	if !zero.IsUnset() {
		t.Error("zero Policy should be unset")
	}
}

func TestEncryptPositions_NegativePanics(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrPolicy) {
			t.Errorf("expected PolicyError panic, got %v", r)
		}
	}()
	EncryptPositions(-1)
}

func TestPolicy_String(t *testing.T) {
	tests := []struct {
		policy Policy
		want   string
	}{
		{Unset(), "unset"},
		{EncryptNone(), "false"},
		{EncryptAll(), "true"},
		{EncryptPositions(0, 2), "[0,2]"},
		{mustParse(t, []any{0, "arg_3"}), `[0,"arg_3"]`},
	}

	for _, tt := range tests {
		if got := tt.policy.String(); got != tt.want {
			t.Errorf("String() = %s, want %s", got, tt.want)
		}
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want string
	}{
		{"nil", nil, "unset"},
		{"true", true, "true"},
		{"false", false, "false"},
		{"policy", EncryptAll(), "true"},
		{"ints", []int{0, 2}, "[0,2]"},
		{"positions", Positions{1}, "[1]"},
		{"names", []string{"arg_2"}, `["arg_2"]`},
		{"bool flags", []bool{false, true, true}, "[1,2]"},
		{"any bool flags", []any{true, false}, "[0]"},
		{"json floats", []any{float64(1), "arg_1"}, `[1,"arg_1"]`},
		{"json number", []any{json.Number("2")}, "[2]"},
		{"yaml ints", []any{0, int64(1), uint8(2)}, "[0,1,2]"},
		{"empty list", []any{}, "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePolicy(tt.raw)
			if err != nil {
				t.Fatalf("ParsePolicy() error: %v", err)
			}
			if p.String() != tt.want {
				t.Errorf("ParsePolicy() = %s, want %s", p, tt.want)
			}
		})
	}
}

func TestParsePolicy_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{"negative int", []int{-1}},
		{"negative float", []any{-1.0}},
		{"fractional", []any{1.5}},
		{"bool mixed with ints", []any{true, 1}},
		{"nested list", []any{[]any{1}}},
		{"mapping", map[string]any{"arg_1": true}},
		{"bool mapping", map[string]bool{"arg_1": true}},
		{"string", "arg_1"},
		{"number", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePolicy(tt.raw)
			if !errors.Is(err, ErrPolicy) {
				t.Fatalf("expected ErrPolicy, got %v", err)
			}
			var pe *PolicyError
			if !errors.As(err, &pe) {
				t.Error("errors.As should find PolicyError")
			}
		})
	}
}

func TestParsePolicy_MappingMessage(t *testing.T) {
	_, err := ParsePolicy(map[string]any{"arg_1": true})
	var pe *PolicyError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PolicyError, got %v", err)
	}
	if pe.Reason != "mapping-based declarations are no longer supported" {
		t.Errorf("Reason = %q", pe.Reason)
	}
}

func TestStampedPositions(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  Positions
		ok    bool
	}{
		{"ints", []int{0, 2}, Positions{0, 2}, true},
		{"positions", Positions{1}, Positions{1}, true},
		{"int64s", []int64{1, 2}, Positions{1, 2}, true},
		{"json", []any{float64(0), float64(1)}, Positions{0, 1}, true},
		{"msgpack", []any{int8(0), uint8(2)}, Positions{0, 2}, true},
		{"empty", []any{}, Positions{}, true},
		{"nil", nil, nil, false},
		{"bool", true, nil, false},
		{"bool list", []any{true, false}, nil, false},
		{"names", []any{"arg_2"}, nil, false},
		{"negative", []int{-1}, nil, false},
		{"mapping", map[string]any{"0": true}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := StampedPositions(tt.value)
			if ok != tt.ok {
				t.Fatalf("StampedPositions() ok = %v, want %v", ok, tt.ok)
			}
			if ok && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("StampedPositions() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLegacyPolicy(t *testing.T) {
	tests := []struct {
		name    string
		stamped any
		want    Positions
		unset   bool
	}{
		{"true", true, Positions{0, 1, 2}, false},
		{"false", false, Positions{}, false},
		{"flags", []any{false, true}, Positions{1}, false},
		{"names", []any{"arg_2"}, Positions{1}, false},
		{"mapping", map[string]any{"arg_3": true, "0": true, "arg_2": false}, Positions{0, 2}, false},
		{"int mapping", map[int]bool{1: true}, Positions{1}, false},
		{"garbage", "yes", nil, true},
		{"nil", nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := legacyPolicy(tt.stamped)
			if p.IsUnset() != tt.unset {
				t.Fatalf("legacyPolicy() = %s, unset want %v", p, tt.unset)
			}
			if tt.unset {
				return
			}
			got, _ := p.Resolve(testParams, 3)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Resolve() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPositions_Contains(t *testing.T) {
	ps := Positions{0, 2}
	if !ps.Contains(2) || ps.Contains(1) {
		t.Errorf("Contains() wrong for %v", ps)
	}
}

func mustParse(t *testing.T, raw any) Policy {
	t.Helper()
	p, err := ParsePolicy(raw)
	if err != nil {
		t.Fatalf("ParsePolicy(%v) error: %v", raw, err)
	}
	return p
}
