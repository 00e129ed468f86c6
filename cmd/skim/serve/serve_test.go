package servecmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	servecmder "github.com/papercomputeco/skim/cmd/skim/serve"
)

func newTestCmd(args ...string) *cobra.Command {
	cmd := servecmder.NewServeCmd()
	cmd.PersistentFlags().BoolP("debug", "d", false, "")
	cmd.PersistentFlags().String("config-dir", GinkgoT().TempDir(), "")
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	return cmd
}

var _ = Describe("NewServeCmd", func() {
	It("registers its flags with config defaults", func() {
		cmd := servecmder.NewServeCmd()

		listen := cmd.Flags().Lookup("listen")
		Expect(listen).NotTo(BeNil())
		Expect(listen.Shorthand).To(Equal("l"))
		Expect(listen.DefValue).To(Equal(":8000"))

		Expect(cmd.Flags().Lookup("model").DefValue).To(Equal("gpt-4o-mini"))
		Expect(cmd.Flags().Lookup("provider").DefValue).To(Equal("openai"))
		Expect(cmd.Flags().Lookup("max-tokens").DefValue).To(Equal("500"))
		Expect(cmd.Flags().Lookup("chunk-size").DefValue).To(Equal("10"))
		Expect(cmd.Flags().Lookup("log-file")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("log-format").DefValue).To(Equal("auto"))
	})

	It("rejects positional arguments", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Args(cmd, []string{"extra"})).NotTo(Succeed())
	})

	It("refuses to start without an API key for providers that need one", func() {
		GinkgoT().Setenv("OPENAI_API_KEY", "")
		GinkgoT().Setenv("SKIM_LLM_PROVIDER", "")

		cmd := newTestCmd("--provider", "openai", "--log-format", "text")
		Expect(cmd.Execute()).To(MatchError(ContainSubstring("OPENAI_API_KEY is not set")))
	})

	It("rejects an unknown log format", func() {
		cmd := newTestCmd("--log-format", "xml")
		Expect(cmd.Execute()).To(MatchError(ContainSubstring(`unknown log format "xml"`)))
	})
})
