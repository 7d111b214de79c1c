package argseal

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

type policyKind uint8

const (
	policyUnset policyKind = iota
	policyNone
	policyAll
	policyList
)

// policyEntry is one element of a list policy: a position or a parameter name.
type policyEntry struct {
	position int
	name     string
	named    bool
}

// Policy declares which arguments of a job type are sensitive.
// The zero value is Unset: the job type has no encryption behavior at all.
type Policy struct {
	kind    policyKind
	entries []policyEntry
}

// Unset returns the policy of job types that never declared one.
func Unset() Policy {
	return Policy{}
}

// EncryptNone returns a policy that is declared but encrypts nothing.
func EncryptNone() Policy {
	return Policy{kind: policyNone}
}

// EncryptAll returns a policy encrypting every positional argument.
func EncryptAll() Policy {
	return Policy{kind: policyAll}
}

// EncryptPositions returns a policy encrypting the given argument positions.
// Positions past the end of a call's arguments are ignored at seal time.
// It panics on a negative position; use ParsePolicy for untrusted input.
func EncryptPositions(positions ...int) Policy {
	p := Policy{kind: policyList, entries: make([]policyEntry, 0, len(positions))}
	for _, pos := range positions {
		if pos < 0 {
			panic(newPolicyError(pos, "position must not be negative"))
		}
		p.entries = append(p.entries, policyEntry{position: pos})
	}
	return p
}

// EncryptNamed returns a policy encrypting the arguments bound to the named
// parameters. Names missing from the job type's parameter list are ignored.
func EncryptNamed(names ...string) Policy {
	p := Policy{kind: policyList, entries: make([]policyEntry, 0, len(names))}
	for _, name := range names {
		p.entries = append(p.entries, policyEntry{name: name, named: true})
	}
	return p
}

// IsUnset reports whether the policy is the zero value.
func (p Policy) IsUnset() bool {
	return p.kind == policyUnset
}

// Resolve computes the positions to encrypt for a call with argc arguments to a
// job type whose parameters are named params. The boolean is false for an Unset
// policy, meaning the stamped field must be absent rather than empty.
func (p Policy) Resolve(params []string, argc int) (Positions, bool) {
	switch p.kind {
	case policyUnset:
		return nil, false
	case policyNone:
		return Positions{}, true
	case policyAll:
		out := make(Positions, 0, argc)
		for i := 0; i < argc; i++ {
			out = append(out, i)
		}
		return out, true
	}

	out := make(Positions, 0, len(p.entries))
	for _, e := range p.entries {
		if !e.named {
			out = out.add(e.position)
			continue
		}
		if i := indexOf(params, e.name); i >= 0 {
			out = out.add(i)
		}
	}
	return out, true
}

// String renders the policy in its declaration form.
func (p Policy) String() string {
	switch p.kind {
	case policyUnset:
		return "unset"
	case policyNone:
		return "false"
	case policyAll:
		return "true"
	}

	parts := make([]string, 0, len(p.entries))
	for _, e := range p.entries {
		if e.named {
			parts = append(parts, strconv.Quote(e.name))
		} else {
			parts = append(parts, strconv.Itoa(e.position))
		}
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func indexOf(params []string, name string) int {
	for i, p := range params {
		if p == name {
			return i
		}
	}
	return -1
}

// ParsePolicy interprets a loosely typed declaration, such as one read from
// configuration or a decoded job record:
//
//	nil               Unset
//	true / false      EncryptAll / EncryptNone
//	[]int             positions
//	[]string          parameter names
//	[]any             integers and names, mixed freely
//	[]bool            legacy per-position flags, true marks a sensitive position
//
// Mappings, negative or fractional numbers, and any other element type fail
// with a *PolicyError.
func ParsePolicy(raw any) (Policy, error) {
	switch v := raw.(type) {
	case nil:
		return Unset(), nil
	case Policy:
		return v, nil
	case bool:
		if v {
			return EncryptAll(), nil
		}
		return EncryptNone(), nil
	case Positions:
		return ParsePolicy([]int(v))
	case []int:
		p := Policy{kind: policyList}
		for _, pos := range v {
			if pos < 0 {
				return Policy{}, newPolicyError(pos, "position must not be negative")
			}
			p.entries = append(p.entries, policyEntry{position: pos})
		}
		return p, nil
	case []string:
		return EncryptNamed(v...), nil
	case []bool:
		return flagPolicy(v), nil
	case []any:
		return parseList(v)
	}

	if isMapping(raw) {
		return Policy{}, newPolicyError(raw, "mapping-based declarations are no longer supported")
	}
	return Policy{}, newPolicyError(raw, "must be a boolean or a list of positions and parameter names")
}

// parseList handles heterogeneous lists as produced by decoders.
func parseList(items []any) (Policy, error) {
	if len(items) > 0 {
		if flags, ok := boolList(items); ok {
			return flagPolicy(flags), nil
		}
	}

	p := Policy{kind: policyList, entries: make([]policyEntry, 0, len(items))}
	for _, item := range items {
		if name, ok := item.(string); ok {
			p.entries = append(p.entries, policyEntry{name: name, named: true})
			continue
		}
		pos, ok := asIndex(item)
		if !ok {
			return Policy{}, newPolicyError(item, "entries must be non-negative integers or parameter names")
		}
		p.entries = append(p.entries, policyEntry{position: pos})
	}
	return p, nil
}

// flagPolicy converts legacy per-position flags into positions.
func flagPolicy(flags []bool) Policy {
	p := Policy{kind: policyList}
	for i, set := range flags {
		if set {
			p.entries = append(p.entries, policyEntry{position: i})
		}
	}
	return p
}

func boolList(items []any) ([]bool, bool) {
	flags := make([]bool, len(items))
	for i, item := range items {
		b, ok := item.(bool)
		if !ok {
			return nil, false
		}
		flags[i] = b
	}
	return flags, true
}

func isMapping(v any) bool {
	switch v.(type) {
	case map[string]any, map[string]bool, map[int]bool, map[any]any:
		return true
	}
	return false
}

// asIndex accepts the integer representations decoders produce for list entries.
func asIndex(v any) (int, bool) {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int8:
		n = int64(x)
	case int16:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case uint8:
		n = int64(x)
	case uint16:
		n = int64(x)
	case uint32:
		n = int64(x)
	case uint64:
		if x > math.MaxInt32 {
			return 0, false
		}
		n = int64(x)
	case float32:
		return floatIndex(float64(x))
	case float64:
		return floatIndex(x)
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return 0, false
		}
		n = i
	default:
		return 0, false
	}
	if n < 0 || n > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}

func floatIndex(f float64) (int, bool) {
	if f < 0 || f > math.MaxInt32 || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// Positions is a resolved set of argument positions, in declaration order
// without duplicates.
type Positions []int

func (ps Positions) add(pos int) Positions {
	for _, p := range ps {
		if p == pos {
			return ps
		}
	}
	return append(ps, pos)
}

// Contains reports whether pos is in the set.
func (ps Positions) Contains(pos int) bool {
	for _, p := range ps {
		if p == pos {
			return true
		}
	}
	return false
}

// StampedPositions interprets the value found in a job record's encrypted_args
// field. It succeeds only for a list of non-negative integers in any of the
// numeric forms decoders produce. Booleans, mappings, lists of booleans and
// anything else report false.
func StampedPositions(v any) (Positions, bool) {
	switch x := v.(type) {
	case Positions:
		return x, validPositions(x)
	case []int:
		return Positions(x), validPositions(x)
	case []int64:
		out := make(Positions, 0, len(x))
		for _, n := range x {
			pos, ok := asIndex(n)
			if !ok {
				return nil, false
			}
			out = append(out, pos)
		}
		return out, true
	case []any:
		out := make(Positions, 0, len(x))
		for _, item := range x {
			if _, isBool := item.(bool); isBool {
				return nil, false
			}
			pos, ok := asIndex(item)
			if !ok {
				return nil, false
			}
			out = append(out, pos)
		}
		return out, true
	}
	return nil, false
}

func validPositions(ps []int) bool {
	for _, p := range ps {
		if p < 0 {
			return false
		}
	}
	return true
}

// legacyPolicy reads older stamped shapes when no registered job type can say
// what the policy is: booleans, per-position flag lists, and mappings of
// position or parameter name to a boolean. Unrecognized shapes yield Unset.
func legacyPolicy(stamped any) Policy {
	if p, err := ParsePolicy(stamped); err == nil {
		return p
	}

	var entries map[string]any
	switch m := stamped.(type) {
	case map[string]any:
		entries = m
	case map[string]bool:
		entries = make(map[string]any, len(m))
		for k, v := range m {
			entries[k] = v
		}
	case map[int]bool:
		entries = make(map[string]any, len(m))
		for k, v := range m {
			entries[strconv.Itoa(k)] = v
		}
	case map[any]any:
		entries = make(map[string]any, len(m))
		for k, v := range m {
			entries[fmt.Sprint(k)] = v
		}
	default:
		return Unset()
	}

	p := Policy{kind: policyList}
	for _, key := range slices.Sorted(maps.Keys(entries)) {
		if set, _ := entries[key].(bool); !set {
			continue
		}
		if pos, err := strconv.Atoi(key); err == nil && pos >= 0 {
			p.entries = append(p.entries, policyEntry{position: pos})
		} else {
			p.entries = append(p.entries, policyEntry{name: key, named: true})
		}
	}
	return p
}
