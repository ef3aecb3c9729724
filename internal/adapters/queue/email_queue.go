package queue

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/doable/api/internal/adapters/mailer"
	"github.com/doable/api/internal/logging"
)

type job struct {
	To    string
	Token string
}

// QueueStatus is a point-in-time snapshot of the dispatch queue.
type QueueStatus struct {
	Waiting   int `json:"waiting"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// EmailQueue delivers verification mail asynchronously so that registration
// never blocks on SMTP. Failed jobs are parked and can be replayed with
// RetryFailed.
type EmailQueue struct {
	sender mailer.Sender
	jobs   chan job
	log    *zap.SugaredLogger

	mu        sync.Mutex
	failed    []job
	processed int

	wg sync.WaitGroup
}

func NewEmailQueue(sender mailer.Sender, size int, log *zap.SugaredLogger) *EmailQueue {
	if size <= 0 {
		size = 64
	}
	return &EmailQueue{
		sender: sender,
		jobs:   make(chan job, size),
		log:    log,
	}
}

// Start launches the delivery worker. It drains remaining jobs after ctx is
// cancelled, then exits.
func (q *EmailQueue) Start(ctx context.Context) {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for {
			select {
			case j := <-q.jobs:
				q.deliver(j)
			case <-ctx.Done():
				for {
					select {
					case j := <-q.jobs:
						q.deliver(j)
					default:
						return
					}
				}
			}
		}
	}()
}

// Stop waits for the worker to finish. Call after cancelling the Start
// context.
func (q *EmailQueue) Stop() {
	q.wg.Wait()
}

// EnqueueVerification is fire-and-forget: when the buffer is full the job
// goes straight to the failed list instead of blocking the caller.
func (q *EmailQueue) EnqueueVerification(to, token string) {
	j := job{To: to, Token: token}
	select {
	case q.jobs <- j:
	default:
		q.log.Warnw("email queue full, parking job", "to", logging.RedactEmail(to))
		q.park(j)
	}
}

// RetryFailed re-queues every parked job and returns how many were requeued.
func (q *EmailQueue) RetryFailed() int {
	q.mu.Lock()
	parked := q.failed
	q.failed = nil
	q.mu.Unlock()

	for _, j := range parked {
		q.EnqueueVerification(j.To, j.Token)
	}
	return len(parked)
}

func (q *EmailQueue) Status() QueueStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStatus{
		Waiting:   len(q.jobs),
		Processed: q.processed,
		Failed:    len(q.failed),
	}
}

func (q *EmailQueue) deliver(j job) {
	if err := q.sender.SendVerification(j.To, j.Token); err != nil {
		q.log.Errorw("verification mail delivery failed",
			"to", logging.RedactEmail(j.To), "error", err)
		q.park(j)
		return
	}
	q.mu.Lock()
	q.processed++
	q.mu.Unlock()
	q.log.Infow("verification mail delivered", "to", logging.RedactEmail(j.To))
}

func (q *EmailQueue) park(j job) {
	q.mu.Lock()
	q.failed = append(q.failed, j)
	q.mu.Unlock()
}
