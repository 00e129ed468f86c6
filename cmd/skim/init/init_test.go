package initcmder_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/skim/cmd/skim/init"
	"github.com/papercomputeco/skim/pkg/config"
)

func loadConfig(dir string) *config.Config {
	data, err := os.ReadFile(filepath.Join(dir, ".skim", "config.toml"))
	Expect(err).NotTo(HaveOccurred())

	cfg, err := config.ParseConfigTOML(data)
	Expect(err).NotTo(HaveOccurred())
	return cfg
}

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		Expect(initcmder.NewInitCmd().Use).To(Equal("init"))
	})

	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Args(cmd, []string{})).To(Succeed())
		Expect(cmd.Args(cmd, []string{"extra"})).NotTo(Succeed())
	})

	It("has a --preset flag", func() {
		f := initcmder.NewInitCmd().Flags().Lookup("preset")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(BeEmpty())
	})
})

var _ = Describe("Init command execution", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()

		origDir, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
		DeferCleanup(os.Chdir, origDir)
	})

	execute := func(args ...string) error {
		cmd := initcmder.NewInitCmd()
		cmd.SetArgs(args)
		cmd.SetOut(&bytes.Buffer{})
		return cmd.Execute()
	}

	It("creates a .skim directory without a config file", func() {
		Expect(execute()).To(Succeed())

		Expect(filepath.Join(tmpDir, ".skim")).To(BeADirectory())
		Expect(filepath.Join(tmpDir, ".skim", "config.toml")).NotTo(BeAnExistingFile())
	})

	It("leaves an existing directory and its contents alone", func() {
		dir := filepath.Join(tmpDir, ".skim")
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
		keep := filepath.Join(dir, "notes.txt")
		Expect(os.WriteFile(keep, []byte("keep me"), 0o600)).To(Succeed())

		Expect(execute()).To(Succeed())

		data, err := os.ReadFile(keep)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("keep me"))
	})

	Describe("--preset with provider presets", func() {
		It("writes the openai preset", func() {
			Expect(execute("--preset", "openai")).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.Version).To(Equal(config.CurrentV))
			Expect(cfg.LLM.Provider).To(Equal("openai"))
			Expect(cfg.LLM.Model).To(Equal("gpt-4o-mini"))
			Expect(cfg.Server.Listen).To(Equal(":8000"))
		})

		It("writes the ollama preset", func() {
			Expect(execute("--preset", "ollama")).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.LLM.Provider).To(Equal("ollama"))
			Expect(cfg.LLM.BaseURL).To(Equal("http://localhost:11434/v1"))
		})

		It("replaces the config on re-init", func() {
			Expect(execute("--preset", "ollama")).To(Succeed())
			Expect(execute("--preset", "openrouter")).To(Succeed())

			Expect(loadConfig(tmpDir).LLM.Provider).To(Equal("openrouter"))
		})

		It("rejects unknown preset names without creating anything", func() {
			err := execute("--preset", "invalid-provider")
			Expect(err).To(MatchError(ContainSubstring("unknown preset")))
			Expect(filepath.Join(tmpDir, ".skim")).NotTo(BeAnExistingFile())
		})
	})

	Describe("--preset with remote URL", func() {
		It("fetches and writes remote config.toml", func() {
			remoteCfg := `version = 0

[llm]
provider = "openrouter"
model = "anthropic/claude-3.5-haiku"
chunk_size = 24

[client]
target = "https://skim.example.com"
`
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, remoteCfg)
			}))
			DeferCleanup(server.Close)

			Expect(execute("--preset", server.URL)).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.LLM.Provider).To(Equal("openrouter"))
			Expect(cfg.LLM.Model).To(Equal("anthropic/claude-3.5-haiku"))
			Expect(cfg.LLM.ChunkSize).To(Equal(uint(24)))
			Expect(cfg.Client.Target).To(Equal("https://skim.example.com"))
		})

		It("returns error for non-200 HTTP response", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			DeferCleanup(server.Close)

			Expect(execute("--preset", server.URL)).To(MatchError(ContainSubstring("HTTP 404")))
		})

		It("returns error for invalid TOML from URL", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "this is not valid toml [[[")
			}))
			DeferCleanup(server.Close)

			Expect(execute("--preset", server.URL)).To(MatchError(ContainSubstring("parsing")))
		})

		It("returns error for unreachable URL", func() {
			Expect(execute("--preset", "http://127.0.0.1:1")).To(MatchError(ContainSubstring("fetching remote config")))
		})
	})
})
