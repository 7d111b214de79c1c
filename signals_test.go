package argseal

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestEmitSecretMissing(_ *testing.T) {
	// Should not panic
	emitSecretMissing(context.Background(), EnvSecret)
}

func TestEmitSecretsRotated(_ *testing.T) {
	emitSecretsRotated(context.Background(), Fingerprint("s"), 2)
}

func TestEmitSealComplete_Success(_ *testing.T) {
	emitSealComplete(context.Background(), NewJob("SecretJob", "a"), time.Millisecond, 1, nil)
}

func TestEmitSealComplete_Error(_ *testing.T) {
	emitSealComplete(context.Background(), NewJob("SecretJob", "a"), time.Millisecond, 0, errors.New("test error"))
}

func TestEmitOpenComplete_Success(_ *testing.T) {
	emitOpenComplete(context.Background(), NewJob("SecretJob", "a"), time.Millisecond, 1, nil)
}

func TestEmitOpenComplete_Error(_ *testing.T) {
	emitOpenComplete(context.Background(), NewJob("SecretJob", "a"), time.Millisecond, 0, ErrInvalidSecret)
}

func TestEmitClassUnresolved(_ *testing.T) {
	emitClassUnresolved(context.Background(), NewJob("Missing"))
}

func TestEmitPolicyReresolved(_ *testing.T) {
	emitPolicyReresolved(context.Background(), NewJob("SecretJob"))
}

func TestEmitJobPerformed(_ *testing.T) {
	emitJobPerformed(context.Background(), NewJob("SecretJob"), time.Second, nil)
	emitJobPerformed(context.Background(), NewJob("SecretJob"), time.Second, errors.New("test error"))
}

func TestEmitJobRejected(_ *testing.T) {
	emitJobRejected(context.Background(), DefaultQueue, 9, newCodecError(ErrUnmarshal, errors.New("test error")))
}

func TestEmitTransportFailed(_ *testing.T) {
	emitTransportFailed(context.Background(), DefaultQueue, time.Second, errors.New("test error"))
}

func TestSignalVariables(t *testing.T) {
	// Verify signals are properly initialized
	signals := []struct {
		name   string
		signal interface{}
	}{
		{"SignalSecretMissing", SignalSecretMissing},
		{"SignalSecretsRotated", SignalSecretsRotated},
		{"SignalSealComplete", SignalSealComplete},
		{"SignalOpenComplete", SignalOpenComplete},
		{"SignalClassUnresolved", SignalClassUnresolved},
		{"SignalPolicyReresolved", SignalPolicyReresolved},
		{"SignalJobPerformed", SignalJobPerformed},
		{"SignalJobRejected", SignalJobRejected},
		{"SignalTransportFailed", SignalTransportFailed},
	}

	for _, s := range signals {
		if s.signal == nil {
			t.Errorf("%s is nil", s.name)
		}
	}
}

func TestKeyVariables(t *testing.T) {
	// Verify keys are properly initialized
	keys := []struct {
		name string
		key  interface{}
	}{
		{"KeyClass", KeyClass},
		{"KeyQueue", KeyQueue},
		{"KeyJID", KeyJID},
		{"KeyEnvVar", KeyEnvVar},
		{"KeyFingerprint", KeyFingerprint},
		{"KeySecretCount", KeySecretCount},
		{"KeyEncryptedCount", KeyEncryptedCount},
		{"KeyDecryptedCount", KeyDecryptedCount},
		{"KeyDuration", KeyDuration},
		{"KeyBackoff", KeyBackoff},
		{"KeySize", KeySize},
		{"KeyError", KeyError},
	}

	for _, k := range keys {
		if k.key == nil {
			t.Errorf("%s is nil", k.name)
		}
	}
}
