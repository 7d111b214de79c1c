// Package testing provides test utilities for argseal.
package testing

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/zoobzio/argseal"
)

// Test secrets. RotatedSecret plays the retired secret in rotation tests.
const (
	TestSecret    = "test-secret"
	RotatedSecret = "retired-secret"
)

// Fixture job classes, one per policy shape.
const (
	RegularJob   = "RegularJob"   // Unset
	SecretJob    = "SecretJob"    // EncryptAll
	NotSecretJob = "NotSecretJob" // EncryptNone
	PositionJob  = "PositionJob"  // EncryptPositions(0, 2)
	NamedJob     = "NamedJob"     // EncryptNamed("arg_2")
	MixedJob     = "MixedJob"     // [0, "arg_3"]
	ChargeJob    = "ChargeJob"    // ChargeArgs, card_token sensitive
)

// Params is the parameter list shared by the positional fixture jobs.
var Params = []string{"arg_1", "arg_2", "arg_3"}

// ChargeArgs is a struct-declared fixture job.
type ChargeArgs struct {
	AccountID string `arg:"account_id"`
	CardToken string `arg:"card_token" encrypt:"true"`
	Amount    int    `arg:"amount"`
}

// TestKeyring returns a keyring holding secrets, or TestSecret when none are given.
func TestKeyring(tb testing.TB, secrets ...string) *argseal.Keyring {
	tb.Helper()
	if len(secrets) == 0 {
		secrets = []string{TestSecret}
	}
	k, err := argseal.NewKeyring(argseal.WithSecrets(secrets...))
	if err != nil {
		tb.Fatalf("NewKeyring() error: %v", err)
	}
	return k
}

// PassThroughKeyring returns a keyring without any secret.
func PassThroughKeyring(tb testing.TB) *argseal.Keyring {
	tb.Helper()
	k, err := argseal.NewKeyring(argseal.WithSecrets())
	if err != nil {
		tb.Fatalf("NewKeyring() error: %v", err)
	}
	return k
}

// TestSealer returns a JSON sealer over registry using secrets.
func TestSealer(tb testing.TB, registry *argseal.Registry, secrets ...string) *argseal.Sealer {
	tb.Helper()
	return argseal.NewSealer(argseal.NewValues(TestKeyring(tb, secrets...), nil), registry)
}

// Performed is one recorded job body invocation.
type Performed struct {
	Class string
	Args  []any
}

// Recorder collects job body invocations.
type Recorder struct {
	mu    sync.Mutex
	calls []Performed
}

// Handler returns a job body recording its arguments under class.
func (r *Recorder) Handler(class string) argseal.HandlerFunc {
	return func(_ context.Context, args []any) error {
		r.record(class, args)
		return nil
	}
}

func (r *Recorder) record(class string, args []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Performed{Class: class, Args: slices.Clone(args)})
}

// Calls returns the recorded invocations in order.
func (r *Recorder) Calls() []Performed {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// Last returns the most recent invocation.
func (r *Recorder) Last() (Performed, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return Performed{}, false
	}
	return r.calls[len(r.calls)-1], true
}

// FixtureRegistry returns a registry holding every fixture job, each recording
// into rec. rec may be nil for enqueue-only tests.
func FixtureRegistry(tb testing.TB, rec *Recorder) *argseal.Registry {
	tb.Helper()
	if rec == nil {
		rec = &Recorder{}
	}

	r := argseal.NewRegistry()
	declare := func(class string, policy any) {
		if err := r.Declare(class, Params, policy, rec.Handler(class)); err != nil {
			tb.Fatalf("Declare(%s) error: %v", class, err)
		}
	}
	declare(RegularJob, nil)
	declare(SecretJob, true)
	declare(NotSecretJob, false)
	declare(PositionJob, []int{0, 2})
	declare(NamedJob, []string{"arg_2"})
	declare(MixedJob, []any{0, "arg_3"})

	err := argseal.RegisterArgs(r, ChargeJob, func(ctx context.Context, a ChargeArgs) error {
		args, err := argseal.ArgsOf(a)
		if err != nil {
			return err
		}
		rec.record(ChargeJob, args)
		return nil
	})
	if err != nil {
		tb.Fatalf("RegisterArgs(%s) error: %v", ChargeJob, err)
	}
	return r
}
