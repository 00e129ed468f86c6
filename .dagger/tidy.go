package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dagger/skim/internal/dagger"
)

// CheckGoMod fails when go.mod or go.sum would change under "go mod tidy" or
// when a downloaded module does not match go.sum.
//
// +check
func (s *Skim) CheckGoMod(ctx context.Context) (string, error) {
	_, err := s.goContainer().
		WithExec([]string{"go", "mod", "verify"}).
		WithExec([]string{"go", "mod", "tidy", "-diff"}).
		Stdout(ctx)

	var e *dagger.ExecError
	if errors.As(err, &e) {
		return "", fmt.Errorf("go.mod or go.sum need attention: run 'go mod tidy' and commit the result\n\n%s%s",
			e.Stdout, e.Stderr)
	}
	if err != nil {
		return "", err
	}
	return "go.mod and go.sum are tidy", nil
}

// CheckFormat fails when any Go file is not gofmt formatted.
//
// +check
func (s *Skim) CheckFormat(ctx context.Context) (string, error) {
	out, err := s.goContainer().
		WithExec([]string{"gofmt", "-l", "."}).
		Stdout(ctx)
	if err != nil {
		return "", err
	}

	if files := strings.TrimSpace(out); files != "" {
		return "", fmt.Errorf("files need gofmt:\n%s", files)
	}
	return "all files are gofmt formatted", nil
}
