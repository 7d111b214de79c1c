package argseal

import (
	"context"
	"slices"
	"time"
)

// Sealer encrypts sensitive job arguments before a job leaves the producer and
// decrypts them before the job body runs on a worker.
//
// Seal and Open must agree on which positions were encrypted even when the job
// type's policy changed between the two. Seal therefore stamps the resolved
// positions on the record, and Open trusts that stamp whenever it is a list of
// non-negative integers.
type Sealer struct {
	values   *Values
	registry *Registry
}

// NewSealer creates a Sealer. A nil registry behaves as an empty one.
func NewSealer(values *Values, registry *Registry) *Sealer {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Sealer{values: values, registry: registry}
}

// Values returns the value codec used for arguments.
func (s *Sealer) Values() *Values {
	return s.values
}

// Registry returns the job types the sealer resolves policies from.
func (s *Sealer) Registry() *Registry {
	return s.registry
}

// Seal encrypts the job's sensitive arguments in place and stamps the positions
// it resolved onto job.EncryptedArgs. Jobs without any policy have the field
// removed. Arguments that are already ciphertext are left as they are.
func (s *Sealer) Seal(ctx context.Context, job *Job) (err error) {
	policy, params := s.enqueuePolicy(ctx, job)
	positions, ok := policy.Resolve(params, len(job.Args))
	if !ok {
		job.EncryptedArgs = nil
		return nil
	}

	start := time.Now()
	sealed := 0
	defer func() {
		emitSealComplete(ctx, job, time.Since(start), sealed, err)
	}()

	args := slices.Clone(job.Args)
	for _, pos := range positions {
		if pos >= len(args) {
			continue
		}
		if s.values.Keyring().IsCiphertext(args[pos]) {
			continue
		}

		value, err := s.values.Encode(args[pos])
		if err != nil {
			return newTransformError(ErrEncrypt, "encrypt", job.Class, pos, err)
		}
		args[pos] = value
		if s.values.Keyring().IsCiphertext(value) {
			sealed++
		}
	}

	copy(job.Args, args)
	job.EncryptedArgs = []int(positions)
	return nil
}

// enqueuePolicy picks the policy for an outgoing job. The registered job type
// wins. Without one, or when the type declared nothing, whatever is already
// stamped on the record is used as a per-job declaration.
func (s *Sealer) enqueuePolicy(ctx context.Context, job *Job) (Policy, []string) {
	jt, found := s.registry.Lookup(job.Class)
	if !found {
		emitClassUnresolved(ctx, job)
	}
	if found && !jt.Policy.IsUnset() {
		return jt.Policy, jt.Params
	}
	return legacyPolicy(job.EncryptedArgs), jt.Params
}

// Open decrypts the job's sealed arguments in place. Jobs without a stamp are
// skipped without any work. Stamped positions holding values that are not
// ciphertext pass through unchanged. A value no configured secret can open
// fails with an error wrapping ErrInvalidSecret.
func (s *Sealer) Open(ctx context.Context, job *Job) (err error) {
	if job.EncryptedArgs == nil {
		return nil
	}

	start := time.Now()
	opened := 0
	defer func() {
		emitOpenComplete(ctx, job, time.Since(start), opened, err)
	}()

	positions, ok := StampedPositions(job.EncryptedArgs)
	if !ok {
		positions = s.reresolve(ctx, job)
	}

	args := slices.Clone(job.Args)
	for _, pos := range positions {
		if pos >= len(args) {
			continue
		}
		if !s.values.Keyring().IsCiphertext(args[pos]) {
			continue
		}

		value, err := s.values.Decode(args[pos])
		if err != nil {
			return newTransformError(ErrDecrypt, "decrypt", job.Class, pos, err)
		}
		args[pos] = value
		opened++
	}

	copy(job.Args, args)
	return nil
}

// reresolve derives positions for a record whose stamp is not a position list,
// typically one written by an older producer. The job type loaded in this
// process decides; when it is missing or declares nothing, the stamp itself is
// read as a legacy declaration.
func (s *Sealer) reresolve(ctx context.Context, job *Job) Positions {
	emitPolicyReresolved(ctx, job)

	jt, found := s.registry.Lookup(job.Class)
	if !found {
		emitClassUnresolved(ctx, job)
	}
	if found && !jt.Policy.IsUnset() {
		positions, _ := jt.Policy.Resolve(jt.Params, len(job.Args))
		return positions
	}

	positions, _ := legacyPolicy(job.EncryptedArgs).Resolve(jt.Params, len(job.Args))
	return positions
}

// SealMiddleware returns the enqueue-side hook.
func (s *Sealer) SealMiddleware() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, job *Job) error {
			if err := s.Seal(ctx, job); err != nil {
				return err
			}
			return next(ctx, job)
		}
	}
}

// OpenMiddleware returns the execute-side hook.
func (s *Sealer) OpenMiddleware() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, job *Job) error {
			if err := s.Open(ctx, job); err != nil {
				return err
			}
			return next(ctx, job)
		}
	}
}
