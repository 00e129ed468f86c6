package stream_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/skim/pkg/stream"
)

type finished struct {
	state  stream.State
	reason string
	frames int
}

type fakeRecorder struct {
	started  int
	finished []finished
}

func (r *fakeRecorder) SessionStarted() { r.started++ }

func (r *fakeRecorder) SessionFinished(state stream.State, reason string, frames int, _ time.Duration) {
	r.finished = append(r.finished, finished{state: state, reason: reason, frames: frames})
}

var _ = Describe("Session", func() {
	var (
		ctx context.Context
		obs *recorder
	)

	BeforeEach(func() {
		ctx = context.Background()
		obs = &recorder{}
	})

	Describe("Ingest", func() {
		Context("with a stream that ends in [DONE]", func() {
			It("accumulates content frames and finishes done", func() {
				body := newBody("data: This is \n\ndata: a test summary.\n\n", "data: [DONE]\n\n")

				s, err := stream.Ingest(ctx, body, obs)
				Expect(err).NotTo(HaveOccurred())
				Expect(s.State()).To(Equal(stream.StateDone))
				Expect(s.Text()).To(Equal("This is a test summary."))
				Expect(s.Err()).NotTo(HaveOccurred())
				Expect(obs.progress).To(Equal([]string{"This is ", "This is a test summary."}))
				Expect(obs.errs).To(BeEmpty())
			})

			It("reports one progress callback for a frame split across reads", func() {
				body := newBody("data: hel", "lo\n\n", "data: [DONE]\n\n")

				_, err := stream.Ingest(ctx, body, obs)
				Expect(err).NotTo(HaveOccurred())
				Expect(obs.progress).To(Equal([]string{"hello"}))
			})

			It("reports two ordered progress callbacks for two frames in one read", func() {
				body := newBody("data: one \n\ndata: two\n\ndata: [DONE]\n\n")

				_, err := stream.Ingest(ctx, body, obs)
				Expect(err).NotTo(HaveOccurred())
				Expect(obs.progress).To(Equal([]string{"one ", "one two"}))
			})

			It("decodes escaped newlines", func() {
				body := newBody(`data: line1\nline2` + "\n\n" + "data: [DONE]\n\n")

				s, err := stream.Ingest(ctx, body, obs)
				Expect(err).NotTo(HaveOccurred())
				Expect(s.Text()).To(Equal("line1\nline2"))
				Expect(strings.Split(s.Text(), "\n")).To(Equal([]string{"line1", "line2"}))
			})

			It("ignores lines that are not data fields", func() {
				body := newBody("id: 1\nevent: summary\n: comment\nretry: 10\nfoo: bar\ndata: hi\n\ndata: [DONE]\n\n")

				s, err := stream.Ingest(ctx, body, obs)
				Expect(err).NotTo(HaveOccurred())
				Expect(s.Text()).To(Equal("hi"))
				Expect(obs.progress).To(Equal([]string{"hi"}))
			})

			It("reports several data lines of one frame with one callback", func() {
				body := newBody("data: a\ndata: b\n\ndata: [DONE]\n\n")

				s, err := stream.Ingest(ctx, body, obs)
				Expect(err).NotTo(HaveOccurred())
				Expect(s.Text()).To(Equal("ab"))
				Expect(obs.progress).To(Equal([]string{"ab"}))
			})

			It("reports content that precedes [DONE] in the same frame", func() {
				body := newBody("data: last words\ndata: [DONE]\n\n")

				s, err := stream.Ingest(ctx, body, obs)
				Expect(err).NotTo(HaveOccurred())
				Expect(s.State()).To(Equal(stream.StateDone))
				Expect(obs.progress).To(Equal([]string{"last words"}))
			})

			It("ignores a [DONE] that never gets its blank line", func() {
				body := newBody("data: a\n\n", "data: [DONE]")

				s, err := stream.Ingest(ctx, body, obs)
				Expect(err).To(MatchError(stream.ErrIncompleteStream))
				Expect(s.State()).To(Equal(stream.StateFailed))
				Expect(s.Text()).To(Equal("a"))
			})

			It("stops reading at [DONE]", func() {
				body := newBody("data: a\n\ndata: [DONE]\n\n", "data: after\n\n")

				s, err := stream.Ingest(ctx, body, obs)
				Expect(err).NotTo(HaveOccurred())
				Expect(s.Text()).To(Equal("a"))
				Expect(obs.progress).To(HaveLen(1))
			})

			It("closes the body", func() {
				body := newBody("data: [DONE]\n\n")

				_, err := stream.Ingest(ctx, body, obs)
				Expect(err).NotTo(HaveOccurred())
				Expect(body.closed.Load()).To(BeTrue())
			})
		})

		Context("chunking invariance", func() {
			const wire = "data: Intro\\n\\n\n\n: ping\n\ndata: ## Key\\nPoints\n\ndata: - **one**\n\ndata: [DONE]\n\n"
			const expected = "Intro\n\n## Key\nPoints- **one**"

			It("produces the same text for every two-way split", func() {
				for _, chunks := range splits(wire) {
					o := &recorder{}
					s, err := stream.Ingest(ctx, newBody(chunks...), o)
					Expect(err).NotTo(HaveOccurred(), "chunks: %q", chunks)
					Expect(s.Text()).To(Equal(expected), "chunks: %q", chunks)
					Expect(o.progress).To(HaveLen(3), "chunks: %q", chunks)
				}
			})

			It("produces the same text when read one byte at a time", func() {
				s, err := stream.Ingest(ctx, newBody(bytewise(wire)...), obs)
				Expect(err).NotTo(HaveOccurred())
				Expect(s.Text()).To(Equal(expected))
				Expect(obs.progress).To(HaveLen(3))
			})
		})

		Context("with an [ERROR] sentinel", func() {
			It("fails with the server message and stops reporting progress", func() {
				body := newBody("data: partial\n\ndata: [ERROR] API quota exceeded\n\ndata: more\n\n")

				s, err := stream.Ingest(ctx, body, obs)

				var serverErr *stream.ServerError
				Expect(errors.As(err, &serverErr)).To(BeTrue())
				Expect(serverErr.Message).To(Equal("API quota exceeded"))
				Expect(s.State()).To(Equal(stream.StateFailed))
				Expect(s.Err()).To(Equal(err))
				Expect(s.Text()).To(Equal("partial"))
				Expect(obs.progress).To(Equal([]string{"partial"}))
				Expect(obs.errs).To(ConsistOf(err))
				Expect(stream.UserMessage(err)).To(Equal("API quota exceeded"))
				Expect(body.closed.Load()).To(BeTrue())
			})

			It("treats a bare marker as an error with an empty message", func() {
				_, err := stream.Ingest(ctx, newBody("data: [ERROR]\n\n"), obs)

				var serverErr *stream.ServerError
				Expect(errors.As(err, &serverErr)).To(BeTrue())
				Expect(serverErr.Message).To(BeEmpty())
			})

			It("keeps a payload that only mentions the marker as content", func() {
				s, err := stream.Ingest(ctx, newBody("data: see [ERROR] codes\n\ndata: [DONE]\n\n"), obs)
				Expect(err).NotTo(HaveOccurred())
				Expect(s.Text()).To(Equal("see [ERROR] codes"))
			})
		})

		Context("when the stream ends without a sentinel", func() {
			It("fails as an incomplete stream and keeps partial text", func() {
				body := newBody("data: half a sum", "mary\n\n")

				s, err := stream.Ingest(ctx, body, obs)
				Expect(err).To(MatchError(stream.ErrIncompleteStream))
				Expect(s.State()).To(Equal(stream.StateFailed))
				Expect(s.Text()).To(Equal("half a summary"))
				Expect(obs.errs).To(HaveLen(1))
				Expect(stream.Reason(err)).To(Equal("incomplete"))
				Expect(body.closed.Load()).To(BeTrue())
			})

			It("never reports an unterminated final fragment", func() {
				body := newBody("data: a\n\n", "data: partial")

				s, err := stream.Ingest(ctx, body, obs)
				Expect(err).To(MatchError(stream.ErrIncompleteStream))
				Expect(s.Text()).To(Equal("a"))
				Expect(s.Frames()).To(Equal(1))
				Expect(obs.progress).To(Equal([]string{"a"}))
				Expect(obs.errs).To(HaveLen(1))
			})

			It("fails an empty stream", func() {
				s, err := stream.Ingest(ctx, newBody(), obs)
				Expect(err).To(MatchError(stream.ErrIncompleteStream))
				Expect(s.State()).To(Equal(stream.StateFailed))
				Expect(obs.progress).To(BeEmpty())
			})
		})

		Context("when the transport fails", func() {
			It("reports a transport error wrapping the cause", func() {
				boom := errors.New("connection reset by peer")
				body := newBody("data: some text\n\n")
				body.err = boom

				s, err := stream.Ingest(ctx, body, obs)

				var transportErr *stream.TransportError
				Expect(errors.As(err, &transportErr)).To(BeTrue())
				Expect(errors.Is(err, boom)).To(BeTrue())
				Expect(s.State()).To(Equal(stream.StateFailed))
				Expect(s.Text()).To(Equal("some text"))
				Expect(obs.errs).To(HaveLen(1))
				Expect(stream.UserMessage(err)).NotTo(ContainSubstring("reset"))
			})

			It("reports oversized frames as transport errors", func() {
				body := newBody("data: " + strings.Repeat("x", 256) + "\n\n")

				_, err := stream.Ingest(ctx, body, obs, stream.WithMaxFrameSize(64))

				var transportErr *stream.TransportError
				Expect(errors.As(err, &transportErr)).To(BeTrue())
			})
		})

		Context("when the caller cancels", func() {
			It("closes the body, unblocks the read, and fails as canceled", func() {
				pr, pw := io.Pipe()
				ctx, cancel := context.WithCancel(ctx)
				defer cancel()

				progressed := make(chan string, 4)
				errs := make(chan error, 4)
				s := stream.NewSession()

				result := make(chan error, 1)
				go func() {
					result <- s.Ingest(ctx, pr, stream.ObserverFuncs{
						Progress: func(text string) { progressed <- text },
						Error:    func(err error) { errs <- err },
					})
				}()

				_, err := pw.Write([]byte("data: started\n\n"))
				Expect(err).NotTo(HaveOccurred())
				Eventually(progressed).Should(Receive(Equal("started")))

				cancel()

				var ingestErr error
				Eventually(result).Should(Receive(&ingestErr))
				Expect(ingestErr).To(MatchError(stream.ErrCanceled))
				Expect(errors.Is(ingestErr, context.Canceled)).To(BeTrue())
				Expect(s.State()).To(Equal(stream.StateFailed))
				Expect(s.Text()).To(Equal("started"))
				Expect(errs).To(HaveLen(1))

				_, err = pw.Write([]byte("data: late\n\n"))
				Expect(err).To(MatchError(io.ErrClosedPipe))
			})

			It("fails without reading when the context is already done", func() {
				ctx, cancel := context.WithCancel(ctx)
				cancel()
				body := newBody("data: [DONE]\n\n")

				s, err := stream.Ingest(ctx, body, obs)
				Expect(err).To(MatchError(stream.ErrCanceled))
				Expect(s.State()).To(Equal(stream.StateFailed))
				Expect(body.reads).To(BeZero())
				Expect(body.closed.Load()).To(BeTrue())
			})
		})

		Context("when the session is already terminal", func() {
			It("rejects re-ingesting a done session without mutating it", func() {
				s, err := stream.Ingest(ctx, newBody("data: final\n\ndata: [DONE]\n\n"), obs)
				Expect(err).NotTo(HaveOccurred())

				again := &recorder{}
				second := newBody("data: extra\n\ndata: [DONE]\n\n")
				err = s.Ingest(ctx, second, again)
				Expect(err).To(MatchError(stream.ErrSessionClosed))
				Expect(s.Text()).To(Equal("final"))
				Expect(s.State()).To(Equal(stream.StateDone))
				Expect(again.progress).To(BeEmpty())
				Expect(again.errs).To(BeEmpty())
				Expect(second.reads).To(BeZero())
				Expect(second.closed.Load()).To(BeTrue())
			})

			It("rejects re-ingesting a failed session without mutating it", func() {
				s, err := stream.Ingest(ctx, newBody("data: partial\n\n"), obs)
				Expect(err).To(HaveOccurred())

				err = s.Ingest(ctx, newBody("data: more\n\ndata: [DONE]\n\n"), obs)
				Expect(err).To(MatchError(stream.ErrSessionClosed))
				Expect(s.Text()).To(Equal("partial"))
				Expect(s.State()).To(Equal(stream.StateFailed))
				Expect(s.Err()).To(MatchError(stream.ErrIncompleteStream))
				Expect(obs.errs).To(HaveLen(1))
			})
		})

		It("rejects a concurrent Ingest on the same session", func() {
			pr, pw := io.Pipe()
			s := stream.NewSession()

			result := make(chan error, 1)
			go func() { result <- s.Ingest(ctx, pr, nil) }()

			_, err := pw.Write([]byte("data: busy\n\n"))
			Expect(err).NotTo(HaveOccurred())
			Eventually(s.Text).Should(Equal("busy"))

			Expect(s.Ingest(ctx, newBody("data: [DONE]\n\n"), nil)).To(MatchError(stream.ErrIngestInProgress))

			_, err = pw.Write([]byte("data: [DONE]\n\n"))
			Expect(err).NotTo(HaveOccurred())
			Eventually(result).Should(Receive(BeNil()))
			Expect(s.Text()).To(Equal("busy"))
		})

		It("rejects a nil body", func() {
			Expect(stream.NewSession().Ingest(ctx, nil, obs)).To(MatchError(stream.ErrNilBody))
		})

		It("copies raw bytes to a tee writer", func() {
			var transcript bytes.Buffer
			wire := "data: a\n\n: ping\n\ndata: [DONE]\n\n"

			_, err := stream.Ingest(ctx, newBody(wire), obs, stream.WithTee(&transcript))
			Expect(err).NotTo(HaveOccurred())
			Expect(transcript.String()).To(Equal(wire))
		})

		It("reports lifecycle events to a recorder", func() {
			rec := &fakeRecorder{}

			_, err := stream.Ingest(ctx, newBody("data: a\n\ndata: [ERROR] nope\n\n"), obs, stream.WithRecorder(rec))
			Expect(err).To(HaveOccurred())
			Expect(rec.started).To(Equal(1))
			Expect(rec.finished).To(Equal([]finished{{state: stream.StateFailed, reason: "server_error", frames: 2}}))
		})

		It("gives independent sessions distinct identities", func() {
			a, b := stream.NewSession(), stream.NewSession()
			Expect(a.ID()).NotTo(Equal(b.ID()))
		})
	})
})
