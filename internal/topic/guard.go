package topic

import (
	"context"
	"sync"
)

// Guard rejects a second submission of the same action while the first is
// still in flight.
type Guard interface {
	Acquire(ctx context.Context, key string) (release func(), ok bool, err error)
}

// LocalGuard is an in-process Guard for a single server instance.
type LocalGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalGuard() *LocalGuard {
	return &LocalGuard{held: make(map[string]struct{})}
}

func (g *LocalGuard) Acquire(_ context.Context, key string) (func(), bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.held[key]; busy {
		return nil, false, nil
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, true, nil
}

// SubmissionHeader carries the id a client generates once per form
// submission and repeats on retries and double clicks.
const SubmissionHeader = "Idempotency-Key"

type submissionKey struct{}

// WithSubmission tags ctx with one form submission. Only repeats of the same
// submission are held back while it is in flight; untagged writes are never
// guarded.
func WithSubmission(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, submissionKey{}, id)
}

func submissionFrom(ctx context.Context) string {
	id, _ := ctx.Value(submissionKey{}).(string)
	return id
}

func createRowKey(uid, topicID, submission string) string {
	return "create-row:" + uid + ":" + topicID + ":" + submission
}

func updateRowKey(uid, rowID, submission string) string {
	return "update-row:" + uid + ":" + rowID + ":" + submission
}
