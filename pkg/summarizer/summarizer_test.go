package summarizer_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/skim/pkg/sse"
	"github.com/papercomputeco/skim/pkg/stream"
	"github.com/papercomputeco/skim/pkg/summarizer"
)

// fakeModel streams scripted deltas, then err.
type fakeModel struct {
	deltas []string
	err    error

	system, user string
}

func (m *fakeModel) Stream(_ context.Context, system, user string) (<-chan string, <-chan error) {
	m.system, m.user = system, user

	contentCh := make(chan string, len(m.deltas))
	errCh := make(chan error, 1)
	for _, d := range m.deltas {
		contentCh <- d
	}
	close(contentCh)
	if m.err != nil {
		errCh <- m.err
	}
	close(errCh)
	return contentCh, errCh
}

type streamedCall struct {
	outcome string
	chunks  int
}

type fakeRecorder struct {
	calls []streamedCall
}

func (r *fakeRecorder) SummaryStreamed(outcome string, chunks int, _ time.Duration) {
	r.calls = append(r.calls, streamedCall{outcome: outcome, chunks: chunks})
}

var _ = Describe("Summarizer", func() {
	var (
		buf *bytes.Buffer
		w   *sse.Writer
		rec *fakeRecorder
		ctx context.Context
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		w = sse.NewWriter(buf)
		rec = &fakeRecorder{}
		ctx = context.Background()
	})

	It("requires a model", func() {
		_, err := summarizer.New(summarizer.Config{})
		Expect(err).To(HaveOccurred())
	})

	It("emits escaped chunks followed by the done sentinel", func() {
		model := &fakeModel{deltas: []string{"## Summary\n\nShort ", "and sweet."}}
		s, err := summarizer.New(summarizer.Config{Model: model, Recorder: rec})
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Stream(ctx, "the input text", w)).To(Succeed())

		Expect(buf.String()).To(Equal(
			"data: ## Summary\n\n" +
				`data: \n\nShort an` + "\n\n" +
				"data: d sweet.\n\n" +
				"data: [DONE]\n\n",
		))
		Expect(model.system).To(Equal(summarizer.SystemPrompt()))
		Expect(model.user).To(Equal("Please summarize the following text:\n\nthe input text"))
		Expect(rec.calls).To(Equal([]streamedCall{{outcome: "done", chunks: 3}}))
	})

	It("produces a stream the ingestor reassembles exactly", func() {
		model := &fakeModel{deltas: []string{"## Overview\n\nA **bold** claim.\n\n", "- **One**: x\n- **Two**: y"}}
		s, err := summarizer.New(summarizer.Config{Model: model, ChunkSize: 7})
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Stream(ctx, "the input text", w)).To(Succeed())

		session, err := stream.Ingest(ctx, io.NopCloser(buf), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(session.Text()).To(Equal(summarizer.FormatMarkdown("## Overview\n\nA **bold** claim.\n\n- **One**: x\n- **Two**: y")))
	})

	It("emits an error sentinel when the model fails", func() {
		model := &fakeModel{deltas: []string{"partial"}, err: errors.New("quota exceeded")}
		s, err := summarizer.New(summarizer.Config{Model: model, Recorder: rec})
		Expect(err).NotTo(HaveOccurred())

		err = s.Stream(ctx, "the input text", w)
		Expect(err).To(MatchError("quota exceeded"))
		Expect(buf.String()).To(Equal("data: [ERROR] Error generating summary: quota exceeded\n\n"))
		Expect(rec.calls).To(Equal([]streamedCall{{outcome: "error", chunks: 0}}))

		session, ingestErr := stream.Ingest(ctx, io.NopCloser(buf), nil)
		Expect(session.State()).To(Equal(stream.StateFailed))
		Expect(stream.UserMessage(ingestErr)).To(Equal("Error generating summary: quota exceeded"))
	})

	It("keeps a multi-line model error on a single sentinel line", func() {
		model := &fakeModel{err: errors.New("upstream said:\n  rate limited\r\nretry later")}
		s, err := summarizer.New(summarizer.Config{Model: model, Recorder: rec})
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Stream(ctx, "the input text", w)).To(HaveOccurred())

		Expect(buf.String()).To(Equal("data: [ERROR] Error generating summary: upstream said: rate limited retry later\n\n"))

		_, ingestErr := stream.Ingest(ctx, io.NopCloser(buf), nil)
		Expect(stream.UserMessage(ingestErr)).To(Equal("Error generating summary: upstream said: rate limited retry later"))
	})

	It("returns write errors once the writer is closed", func() {
		s, err := summarizer.New(summarizer.Config{Model: &fakeModel{deltas: []string{"text"}}, Recorder: rec})
		Expect(err).NotTo(HaveOccurred())
		Expect(w.Close()).To(Succeed())

		Expect(s.Stream(ctx, "the input text", w)).To(MatchError(sse.ErrWriterClosed))
		Expect(rec.calls[0].outcome).To(Equal("disconnected"))
	})
})

var _ = Describe("Chunks", func() {
	It("splits by characters without breaking runes", func() {
		Expect(slices.Collect(summarizer.Chunks("héllo wörld", 5))).To(Equal([]string{"héllo", " wörl", "d"}))
	})

	It("yields nothing for empty text", func() {
		Expect(slices.Collect(summarizer.Chunks("", 10))).To(BeEmpty())
	})

	It("yields exact multiples without an empty tail", func() {
		Expect(slices.Collect(summarizer.Chunks("abcdef", 3))).To(Equal([]string{"abc", "def"}))
	})
})
