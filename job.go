package argseal

import (
	"time"

	"github.com/google/uuid"
)

// DefaultQueue is used for jobs enqueued without a queue name.
const DefaultQueue = "default"

// Job is the record handed to a queue transport.
//
// argseal only reads and rewrites Args and EncryptedArgs. EncryptedArgs is
// absent (nil) for jobs whose type never declared a policy, and otherwise holds
// the positions sealed at enqueue time. Records written by older producers may
// carry other shapes there, such as a boolean or a list of flags.
type Job struct {
	JID           string    `json:"jid" yaml:"jid" msgpack:"jid" bson:"jid"`
	Class         string    `json:"class" yaml:"class" msgpack:"class" bson:"class"`
	Queue         string    `json:"queue" yaml:"queue" msgpack:"queue" bson:"queue"`
	Args          []any     `json:"args" yaml:"args" msgpack:"args" bson:"args"`
	EncryptedArgs any       `json:"encrypted_args,omitempty" yaml:"encrypted_args,omitempty" msgpack:"encrypted_args,omitempty" bson:"encrypted_args,omitempty"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at" msgpack:"created_at" bson:"created_at"`
	EnqueuedAt    time.Time `json:"enqueued_at" yaml:"enqueued_at" msgpack:"enqueued_at" bson:"enqueued_at"`
}

// NewJob creates a job record for class with a fresh JID.
func NewJob(class string, args ...any) *Job {
	if args == nil {
		args = []any{}
	}
	return &Job{
		JID:       uuid.NewString(),
		Class:     class,
		Queue:     DefaultQueue,
		Args:      args,
		CreatedAt: time.Now().UTC(),
	}
}
