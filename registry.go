package argseal

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"sync"

	"github.com/zoobzio/sentinel"
)

func init() {
	// Tags read from job argument structs
	sentinel.Tag("arg")
	sentinel.Tag("encrypt")
}

// HandlerFunc is a job body. It receives cleartext positional arguments.
type HandlerFunc func(ctx context.Context, args []any) error

// JobType describes a job class as it is loaded in this process.
type JobType struct {
	Name    string      // Class name carried on job records
	Params  []string    // Ordered parameter names, used to resolve named policies
	Policy  Policy      // Which arguments are sensitive
	Perform HandlerFunc // Job body, only needed by workers
}

// Registry maps job class names to job types.
// A class missing from the registry is a normal miss, never an error.
type Registry struct {
	mu    sync.RWMutex
	types map[string]JobType
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]JobType)}
}

// Register adds or replaces a job type.
func (r *Registry) Register(jt JobType) error {
	if jt.Name == "" {
		return fmt.Errorf("job type name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[jt.Name] = jt
	return nil
}

// Declare registers a job type whose policy is given in loose form, as accepted
// by ParsePolicy. A malformed policy fails with a *PolicyError.
func (r *Registry) Declare(name string, params []string, policy any, perform HandlerFunc) error {
	p, err := ParsePolicy(policy)
	if err != nil {
		return fmt.Errorf("job type %s: %w", name, err)
	}
	return r.Register(JobType{Name: name, Params: params, Policy: p, Perform: perform})
}

// Unregister removes a job type.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.types, name)
}

// Lookup returns the job type registered under name.
func (r *Registry) Lookup(name string) (JobType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	jt, ok := r.types[name]
	return jt, ok
}

// Names lists registered class names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	r.mu.RUnlock()

	slices.Sort(names)
	return names
}

// RegisterArgs registers a job type whose positional arguments are the exported
// fields of struct T, in declaration order.
//
// A field's parameter name is its `arg` tag, or the field name without one.
// Fields tagged `encrypt:"true"` are sensitive; if none are, the policy is Unset.
//
//	type ChargeArgs struct {
//	    AccountID string `arg:"account_id"`
//	    CardToken string `arg:"card_token" encrypt:"true"`
//	}
//
//	argseal.RegisterArgs(reg, "Charge", func(ctx context.Context, a ChargeArgs) error { ... })
func RegisterArgs[T any](r *Registry, name string, perform func(context.Context, T) error) error {
	fields, err := argFields[T]()
	if err != nil {
		return err
	}

	params := make([]string, 0, len(fields))
	var sensitive []string
	for _, f := range fields {
		param := f.Name
		if tag := f.Tags["arg"]; tag != "" {
			param = tag
		}
		params = append(params, param)

		if tag, ok := f.Tags["encrypt"]; ok {
			on, err := strconv.ParseBool(tag)
			if err != nil {
				return fmt.Errorf("job type %s: %w", name, newPolicyError(tag, "encrypt tag on "+f.Name+" must be a boolean"))
			}
			if on {
				sensitive = append(sensitive, param)
			}
		}
	}

	jt := JobType{Name: name, Params: params}
	if len(sensitive) > 0 {
		jt.Policy = EncryptNamed(sensitive...)
	}
	if perform != nil {
		jt.Perform = func(ctx context.Context, args []any) error {
			v, err := bindArgs[T](fields, args)
			if err != nil {
				return fmt.Errorf("job %s: %w", name, err)
			}
			return perform(ctx, v)
		}
	}
	return r.Register(jt)
}

// ArgsOf flattens a job argument struct into positional arguments.
func ArgsOf[T any](v T) ([]any, error) {
	fields, err := argFields[T]()
	if err != nil {
		return nil, err
	}

	rv := reflect.ValueOf(v)
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		args = append(args, rv.FieldByIndex(f.Index).Interface())
	}
	return args, nil
}

// argFields returns the exported top-level fields of struct T.
func argFields[T any]() ([]sentinel.FieldMetadata, error) {
	rt := reflect.TypeFor[T]()
	if rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("job arguments must be a struct, got %s", rt)
	}

	meta := sentinel.Scan[T]()
	fields := make([]sentinel.FieldMetadata, 0, len(meta.Fields))
	for _, f := range meta.Fields {
		if len(f.Index) != 1 || !rt.Field(f.Index[0]).IsExported() {
			continue
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// bindArgs builds a T from positional arguments. Values that are not directly
// assignable, such as float64 numbers decoded from JSON, are converted through
// a JSON round trip.
func bindArgs[T any](fields []sentinel.FieldMetadata, args []any) (T, error) {
	var out T
	rv := reflect.ValueOf(&out).Elem()

	for i, f := range fields {
		if i >= len(args) || args[i] == nil {
			continue
		}

		field := rv.FieldByIndex(f.Index)
		arg := reflect.ValueOf(args[i])
		if arg.Type().AssignableTo(field.Type()) {
			field.Set(arg)
			continue
		}

		data, err := json.Marshal(args[i])
		if err != nil {
			return out, fmt.Errorf("argument %d (%s): %w", i, f.Name, err)
		}
		if err := json.Unmarshal(data, field.Addr().Interface()); err != nil {
			return out, fmt.Errorf("argument %d (%s): %w", i, f.Name, err)
		}
	}
	return out, nil
}
