// Package argseal encrypts selected positional arguments of background jobs
// while they sit in a queue.
//
// Sensitive arguments are serialized, encrypted and armored as strings when a
// job is enqueued, and restored just before the job body runs. Queue storage,
// dashboards and logs only ever see ciphertext for them.
//
// # Policies
//
// Each job type declares which arguments are sensitive:
//
//	Unset()                       no encryption behavior, the job record is untouched
//	EncryptNone()                 declared, nothing encrypted
//	EncryptAll()                  every argument
//	EncryptPositions(0, 2)        arguments by position
//	EncryptNamed("card_token")    arguments by parameter name
//
// ParsePolicy accepts the same declarations in loose form (true, false, lists
// of integers and names) for configuration files and older job records.
//
// # Basic Usage
//
//	type ChargeArgs struct {
//	    AccountID string `arg:"account_id"`
//	    CardToken string `arg:"card_token" encrypt:"true"`
//	}
//
//	registry := argseal.NewRegistry()
//	argseal.RegisterArgs(registry, "Charge", charge)
//
//	keyring, _ := argseal.NewKeyring() // reads ENCRYPTED_ARGS_SECRET
//	sealer := argseal.NewSealer(argseal.NewValues(keyring, nil), registry)
//
//	client := argseal.NewClient(transport, nil, nil)
//	worker := argseal.NewWorker(transport, nil, registry, nil)
//	argseal.Configure(sealer, client.Chain(), worker.Chain())
//
//	args, _ := argseal.ArgsOf(ChargeArgs{AccountID: "acct_1", CardToken: "tok_visa"})
//	client.Push(ctx, "Charge", args...)
//
// # Stamped Positions
//
// The enqueue side records the positions it encrypted in the job record's
// encrypted_args field. The execute side decrypts exactly those positions, so a
// policy changed between enqueue and execution does not break jobs already in
// the queue. Only records without the field are skipped.
//
// # Secrets
//
// ENCRYPTED_ARGS_SECRET holds one or more whitespace-separated secrets. The
// first encrypts; all are tried when decrypting, which allows rotating secrets
// without losing queued jobs:
//
//	ENCRYPTED_ARGS_SECRET="new-secret old-secret"
//
// Without any secret the keyring runs in pass-through mode: arguments are
// enqueued in cleartext and SignalSecretMissing is emitted once.
//
// # Observability
//
// Events are emitted through capitan. See signals.go for the signal list.
package argseal
