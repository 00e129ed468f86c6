package stream_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/skim/pkg/stream"
)

var _ = Describe("Snapshots", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("yields the growing text of every content frame", func() {
		s := stream.NewSession()
		body := newBody("data: Hello\n\ndata: , world\n\ndata: [DONE]\n\n")

		var got []string
		for text, err := range s.Snapshots(ctx, body) {
			Expect(err).NotTo(HaveOccurred())
			got = append(got, text)
		}

		Expect(got).To(Equal([]string{"Hello", "Hello, world"}))
		Expect(s.State()).To(Equal(stream.StateDone))
	})

	It("ends with the terminal error when the session fails", func() {
		s := stream.NewSession()
		body := newBody("data: partial\n\ndata: [ERROR] model overloaded\n\n")

		var texts []string
		var errs []error
		for text, err := range s.Snapshots(ctx, body) {
			texts = append(texts, text)
			errs = append(errs, err)
		}

		Expect(texts).To(Equal([]string{"partial", ""}))
		Expect(errs[0]).NotTo(HaveOccurred())
		Expect(errs[1]).To(MatchError("model overloaded"))
	})

	It("abandons the session when the loop breaks", func() {
		s := stream.NewSession()
		body := newBody("data: first\n\n", "data: second\n\n", "data: [DONE]\n\n")

		for text := range s.Snapshots(ctx, body) {
			Expect(text).To(Equal("first"))
			break
		}

		Expect(body.closed.Load()).To(BeTrue())
		Expect(s.State()).To(Equal(stream.StateFailed))
		Expect(s.Err()).To(MatchError(stream.ErrCanceled))
		Expect(s.Text()).To(Equal("first"))
	})
})
