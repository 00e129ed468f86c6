// Skim CI/CD
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
package main

import (
	"context"

	"dagger/skim/internal/dagger"
)

// Skim is the main module for the skim CI/CD pipeline
type Skim struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Skim CI/CD module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".direnv", "build", "tmp", "_examples"]
	source *dagger.Directory,
) *Skim {
	return &Skim{
		Source: source,
	}
}

// goContainer returns a Go container with the project source mounted and
// module and build caches attached. skim is pure Go, so CGO stays off.
func (s *Skim) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-alpine").
		WithEnvVariable("CGO_ENABLED", "0").
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", s.Source)
}

// Test runs the skim unit tests via "go test"
func (s *Skim) Test(ctx context.Context) (string, error) {
	return s.goContainer().
		WithExec([]string{"go", "test", "-v", "./..."}).
		Stdout(ctx)
}
