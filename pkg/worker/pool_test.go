package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/skim/pkg/client"
	"github.com/papercomputeco/skim/pkg/stream"
)

// echoService streams back an upper-cased copy of the submitted text, or an
// error sentinel when the text contains "fail".
func echoService() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"detail":"bad json"}`, http.StatusUnprocessableEntity)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if strings.Contains(req.Text, "fail") {
			_, _ = w.Write([]byte("data: [ERROR] Error generating summary: boom\n\n"))
			return
		}
		_, _ = w.Write([]byte("data: " + stream.Escape(strings.ToUpper(req.Text)) + "\n\n"))
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
	}))
}

type collector struct {
	mu      sync.Mutex
	results map[string]Result
}

func (c *collector) add(r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[r.Job.Name] = r
}

var _ = Describe("Worker Pool", func() {
	var (
		srv *httptest.Server
		cl  *client.Client
		col *collector
	)

	BeforeEach(func() {
		srv = echoService()
		DeferCleanup(srv.Close)

		var err error
		cl, err = client.New(client.Config{Target: srv.URL})
		Expect(err).NotTo(HaveOccurred())

		col = &collector{results: map[string]Result{}}
	})

	It("requires a client", func() {
		_, err := NewPool(context.Background(), &Config{})
		Expect(err).To(HaveOccurred())
	})

	It("applies defaults", func() {
		cfg := &Config{Client: cl}
		wp, err := NewPool(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())
		wp.Close()

		Expect(cfg.NumWorkers).To(Equal(defaultNumWorkers))
		Expect(cfg.QueueSize).To(Equal(defaultJobQueueSize))
	})

	It("summarizes every queued job before Close returns", func() {
		wp, err := NewPool(context.Background(), &Config{Client: cl, OnResult: col.add, NumWorkers: 2})
		Expect(err).NotTo(HaveOccurred())

		Expect(wp.Enqueue(Job{Name: "a.txt", Text: "first\nfile"})).To(BeTrue())
		Expect(wp.Enqueue(Job{Name: "b.txt", Text: "second file"})).To(BeTrue())
		Expect(wp.Enqueue(Job{Name: "c.txt", Text: "please fail"})).To(BeTrue())
		wp.Close()

		Expect(col.results).To(HaveLen(3))

		a := col.results["a.txt"]
		Expect(a.Err).NotTo(HaveOccurred())
		Expect(a.State).To(Equal(stream.StateDone))
		Expect(a.Text).To(Equal("FIRST\nFILE"))

		Expect(col.results["b.txt"].Text).To(Equal("SECOND FILE"))

		c := col.results["c.txt"]
		Expect(c.State).To(Equal(stream.StateFailed))
		Expect(stream.UserMessage(c.Err)).To(Equal("Error generating summary: boom"))
	})

	It("drops jobs once closed and tolerates repeated Close", func() {
		wp, err := NewPool(context.Background(), &Config{Client: cl, OnResult: col.add})
		Expect(err).NotTo(HaveOccurred())

		wp.Close()
		wp.Close()
		Expect(wp.Enqueue(Job{Name: "late.txt", Text: "too late"})).To(BeFalse())
		Expect(col.results).To(BeEmpty())
	})

	It("reports jobs that never opened a stream as failed", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		wp, err := NewPool(ctx, &Config{Client: cl, OnResult: col.add, NumWorkers: 1})
		Expect(err).NotTo(HaveOccurred())

		Expect(wp.Enqueue(Job{Name: "x.txt", Text: "anything"})).To(BeTrue())
		wp.Close()

		x := col.results["x.txt"]
		Expect(x.State).To(Equal(stream.StateFailed))
		Expect(x.Err).To(MatchError(context.Canceled))
	})
})
