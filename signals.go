package argseal

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for argument sealing events.
var (
	SignalSecretMissing    = capitan.NewSignal("argseal.secret.missing", "No secret configured, arguments pass through unencrypted")
	SignalSecretsRotated   = capitan.NewSignal("argseal.secrets.rotated", "Secret list replaced")
	SignalSealComplete     = capitan.NewSignal("argseal.seal.complete", "Job arguments sealed before enqueue")
	SignalOpenComplete     = capitan.NewSignal("argseal.open.complete", "Job arguments opened before perform")
	SignalClassUnresolved  = capitan.NewSignal("argseal.class.unresolved", "Job class not registered in this process")
	SignalPolicyReresolved = capitan.NewSignal("argseal.policy.reresolved", "Stamped positions malformed, policy resolved again")
	SignalJobPerformed     = capitan.NewSignal("argseal.job.performed", "Job body finished")
	SignalJobRejected      = capitan.NewSignal("argseal.job.rejected", "Popped payload could not be decoded and was dropped")
	SignalTransportFailed  = capitan.NewSignal("argseal.transport.failed", "Transport pop failed, retrying after backoff")
)

// Keys for typed event data.
var (
	KeyClass          = capitan.NewStringKey("class")
	KeyQueue          = capitan.NewStringKey("queue")
	KeyJID            = capitan.NewStringKey("jid")
	KeyEnvVar         = capitan.NewStringKey("env_var")
	KeyFingerprint    = capitan.NewStringKey("fingerprint")
	KeySecretCount    = capitan.NewIntKey("secret_count")
	KeyEncryptedCount = capitan.NewIntKey("encrypted_count")
	KeyDecryptedCount = capitan.NewIntKey("decrypted_count")
	KeyDuration       = capitan.NewDurationKey("duration")
	KeyBackoff        = capitan.NewDurationKey("backoff")
	KeySize           = capitan.NewIntKey("size")
	KeyError          = capitan.NewErrorKey("error")
)

// emitSecretMissing emits the pass-through warning.
func emitSecretMissing(ctx context.Context, envVar string) {
	capitan.Emit(ctx, SignalSecretMissing,
		KeyEnvVar.Field(envVar),
	)
}

// emitSecretsRotated emits an event when the secret list is replaced.
func emitSecretsRotated(ctx context.Context, active string, count int) {
	capitan.Emit(ctx, SignalSecretsRotated,
		KeyFingerprint.Field(active),
		KeySecretCount.Field(count),
	)
}

// emitSealComplete emits an event when the enqueue side finishes with a job.
func emitSealComplete(ctx context.Context, job *Job, duration time.Duration, encrypted int, err error) {
	fields := []capitan.Field{
		KeyClass.Field(job.Class),
		KeyQueue.Field(job.Queue),
		KeyJID.Field(job.JID),
		KeyDuration.Field(duration),
		KeyEncryptedCount.Field(encrypted),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalSealComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalSealComplete, fields...)
	}
}

// emitOpenComplete emits an event when the execute side finishes with a job.
func emitOpenComplete(ctx context.Context, job *Job, duration time.Duration, decrypted int, err error) {
	fields := []capitan.Field{
		KeyClass.Field(job.Class),
		KeyQueue.Field(job.Queue),
		KeyJID.Field(job.JID),
		KeyDuration.Field(duration),
		KeyDecryptedCount.Field(decrypted),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalOpenComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalOpenComplete, fields...)
	}
}

// emitClassUnresolved emits an event when a job class has no registered type.
func emitClassUnresolved(ctx context.Context, job *Job) {
	capitan.Emit(ctx, SignalClassUnresolved,
		KeyClass.Field(job.Class),
		KeyJID.Field(job.JID),
	)
}

// emitPolicyReresolved emits an event when stamped positions were ignored.
func emitPolicyReresolved(ctx context.Context, job *Job) {
	capitan.Emit(ctx, SignalPolicyReresolved,
		KeyClass.Field(job.Class),
		KeyJID.Field(job.JID),
	)
}

// emitJobPerformed emits an event when a worker finished running a job body.
func emitJobPerformed(ctx context.Context, job *Job, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyClass.Field(job.Class),
		KeyQueue.Field(job.Queue),
		KeyJID.Field(job.JID),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalJobPerformed, fields...)
	} else {
		capitan.Emit(ctx, SignalJobPerformed, fields...)
	}
}

// emitJobRejected emits an error when a popped payload cannot be decoded.
func emitJobRejected(ctx context.Context, queue string, size int, err error) {
	capitan.Error(ctx, SignalJobRejected,
		KeyQueue.Field(queue),
		KeySize.Field(size),
		KeyError.Field(err),
	)
}

// emitTransportFailed emits an error when popping from a queue fails.
func emitTransportFailed(ctx context.Context, queue string, backoff time.Duration, err error) {
	capitan.Error(ctx, SignalTransportFailed,
		KeyQueue.Field(queue),
		KeyBackoff.Field(backoff),
		KeyError.Field(err),
	)
}
