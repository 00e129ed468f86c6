package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/skim/internal/dagger"
)

// binaries are the main packages shipped in every build.
var binaries = []string{"./cli/skim", "./cli/skimserve"}

// Release platforms.
var (
	releaseOSes   = []string{"linux", "darwin"}
	releaseArches = []string{"amd64", "arm64"}
)

// Build and return directory of go binaries
func (s *Skim) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	outputs := dag.Directory()
	golang := s.goContainer()

	for _, goos := range releaseOSes {
		for _, goarch := range releaseArches {
			path := fmt.Sprintf("%s/%s/", goos, goarch)

			build := golang.
				WithEnvVariable("GOOS", goos).
				WithEnvVariable("GOARCH", goarch)
			for _, bin := range binaries {
				build = build.WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, bin})
			}

			outputs = outputs.WithDirectory(path, build.Directory(path))
		}
	}

	return outputs
}

// BuildRelease compiles versioned release binaries with embedded version info
func (s *Skim) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	buildtime := time.Now().UTC().Format(time.RFC3339)

	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/papercomputeco/skim/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/papercomputeco/skim/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/papercomputeco/skim/pkg/utils.Buildtime=%s'", buildtime),
	}

	return s.Build(ctx, strings.Join(ldflags, " "))
}
