package worker

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/engram/pkg/memory"
)

// recordingCapturer records each captured turn's first user line so tests can
// assert processing order after the pool drains.
type recordingCapturer struct {
	mu    sync.Mutex
	turns [][]memory.Message
	stats memory.Stats
}

func (c *recordingCapturer) Capture(_ context.Context, messages []memory.Message) memory.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, messages)
	return c.stats
}

func (c *recordingCapturer) captured() [][]memory.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.turns
}

// newTestPool creates a single-worker pool backed by a recording capturer.
// Callers should "wp.Close()" to drain enqueued jobs before asserting captures.
func newTestPool() (*Pool, *recordingCapturer) {
	logger, _ := zap.NewDevelopment()
	capturer := &recordingCapturer{}

	wp, err := NewPool(&Config{
		Capturer: capturer,
		Logger:   logger,
	})
	Expect(err).NotTo(HaveOccurred())

	return wp, capturer
}

var _ = Describe("Worker Pool", func() {
	var (
		wp       *Pool
		capturer *recordingCapturer
	)

	BeforeEach(func() {
		wp, capturer = newTestPool()
	})

	Describe("NewPool", func() {
		It("requires a capturer", func() {
			_, err := NewPool(&Config{})
			Expect(err).To(HaveOccurred())
		})

		It("defaults to a single worker", func() {
			c := &Config{Capturer: &recordingCapturer{}}
			p, err := NewPool(c)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.NumWorkers).To(Equal(uint(1)))
			p.Close()
		})
	})

	Describe("Enqueue", func() {
		It("returns true when the queue has capacity", func() {
			ok := wp.Enqueue(Job{
				Messages: []memory.Message{
					{Role: "user", Text: "I prefer tabs over spaces for indentation"},
				},
			})
			Expect(ok).To(BeTrue())
			wp.Close()
		})

		It("returns false when the queue is full", func() {
			blocked := make(chan struct{})
			release := make(chan struct{})

			blocking := &blockingCapturer{blocked: blocked, release: release}
			p, err := NewPool(&Config{
				Capturer:  blocking,
				QueueSize: 1,
				Logger:    zap.NewNop(),
			})
			Expect(err).NotTo(HaveOccurred())

			// First job occupies the worker.
			Expect(p.Enqueue(Job{})).To(BeTrue())
			<-blocked

			// Second job fills the queue, third is dropped.
			Expect(p.Enqueue(Job{})).To(BeTrue())
			Expect(p.Enqueue(Job{})).To(BeFalse())

			close(release)
			p.Close()
		})
	})

	Describe("Capture processing", func() {
		It("runs the capture pipeline for each enqueued turn", func() {
			wp.Enqueue(Job{
				Messages: []memory.Message{
					{Role: "user", Text: "I prefer tabs over spaces for indentation"},
				},
			})
			wp.Enqueue(Job{
				Messages: []memory.Message{
					{Role: "user", Text: "My timezone is UTC+2 these days"},
				},
			})

			// Drain the worker pool to ensure all captures complete
			wp.Close()

			turns := capturer.captured()
			Expect(turns).To(HaveLen(2))
		})

		It("processes turns strictly in submission order", func() {
			for _, content := range []string{"first turn", "second turn", "third turn"} {
				wp.Enqueue(Job{
					Messages: []memory.Message{{Role: "user", Text: content}},
				})
			}

			wp.Close()

			turns := capturer.captured()
			Expect(turns).To(HaveLen(3))
			Expect(turns[0][0].Text).To(Equal("first turn"))
			Expect(turns[1][0].Text).To(Equal("second turn"))
			Expect(turns[2][0].Text).To(Equal("third turn"))
		})

		It("logs capture stats without surfacing errors", func() {
			capturer.stats = memory.Stats{Added: 2, Updated: 1}

			ok := wp.Enqueue(Job{
				Messages: []memory.Message{
					{Role: "user", Text: "I always use zsh as my shell"},
				},
			})
			Expect(ok).To(BeTrue())

			wp.Close()
			Expect(capturer.captured()).To(HaveLen(1))
		})
	})
})

// blockingCapturer signals when capture starts and blocks until released.
type blockingCapturer struct {
	blocked chan struct{}
	release chan struct{}
	once    sync.Once
}

func (c *blockingCapturer) Capture(_ context.Context, _ []memory.Message) memory.Stats {
	c.once.Do(func() { close(c.blocked) })
	<-c.release
	return memory.Stats{}
}
