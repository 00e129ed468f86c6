package main

import (
	"context"
	"fmt"
	"path"
	"strings"

	"dagger/skim/internal/dagger"
)

// bucket is an S3-compatible destination for release archives.
type bucket struct {
	endpoint        *dagger.Secret
	name            *dagger.Secret
	accessKeyID     *dagger.Secret
	secretAccessKey *dagger.Secret
}

// Package builds release binaries and packs each platform into
// skim_<version>_<os>_<arch>.tar.gz, next to a SHA256SUMS file covering every
// archive.
func (s *Skim) Package(
	ctx context.Context,

	// Version string of build (e.g., "v1.0.0")
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	binaries := s.BuildRelease(ctx, version, commit)

	var script strings.Builder
	script.WriteString("set -eu\nmkdir -p /dist\n")
	for _, goos := range releaseOSes {
		for _, goarch := range releaseArches {
			fmt.Fprintf(&script, "tar -czf /dist/skim_%s_%s_%s.tar.gz -C /bin-in/%s/%s .\n",
				version, goos, goarch, goos, goarch)
		}
	}
	script.WriteString("cd /dist && sha256sum *.tar.gz > SHA256SUMS\n")

	return dag.Container().
		From("alpine:3").
		WithDirectory("/bin-in", binaries).
		WithExec([]string{"sh", "-c", script.String()}).
		Directory("/dist")
}

// Release packages a tagged version and publishes it under the version
// prefix. With latest set, the same archives also replace "latest".
func (s *Skim) Release(
	ctx context.Context,

	// Version string (e.g., "v1.0.0")
	version string,

	// Git commit SHA
	commit string,

	// Also publish under the "latest" prefix
	// +optional
	// +default=true
	latest bool,

	// Bucket endpoint URL
	endpoint *dagger.Secret,

	// Bucket name
	bucketName *dagger.Secret,

	// Bucket access key ID
	accessKeyID *dagger.Secret,

	// Bucket secret access key
	secretAccessKey *dagger.Secret,
) (*dagger.Directory, error) {
	if !strings.HasPrefix(version, "v") {
		return nil, fmt.Errorf("release version %q must start with \"v\"", version)
	}

	prefixes := []string{version}
	if latest {
		prefixes = append(prefixes, "latest")
	}

	archives := s.Package(ctx, version, commit)
	b := &bucket{endpoint, bucketName, accessKeyID, secretAccessKey}
	if err := s.publish(ctx, archives, b, prefixes...); err != nil {
		return archives, err
	}
	return archives, nil
}

// Nightly packages the current commit as "nightly-<short sha>" and publishes
// it under the "nightly" prefix, replacing the previous nightly.
func (s *Skim) Nightly(
	ctx context.Context,

	// Git commit SHA
	commit string,

	// Bucket endpoint URL
	endpoint *dagger.Secret,

	// Bucket name
	bucketName *dagger.Secret,

	// Bucket access key ID
	accessKeyID *dagger.Secret,

	// Bucket secret access key
	secretAccessKey *dagger.Secret,
) (*dagger.Directory, error) {
	short := commit
	if len(short) > 7 {
		short = short[:7]
	}

	archives := s.Package(ctx, "nightly-"+short, commit)
	b := &bucket{endpoint, bucketName, accessKeyID, secretAccessKey}
	return archives, s.publish(ctx, archives, b, "nightly")
}

// publish syncs archives to every prefix of the bucket in one container run.
// --delete keeps a reused prefix such as "latest" free of stale archives.
func (s *Skim) publish(ctx context.Context, archives *dagger.Directory, b *bucket, prefixes ...string) error {
	name, err := b.name.Plaintext(ctx)
	if err != nil {
		return fmt.Errorf("reading bucket name: %w", err)
	}

	var script strings.Builder
	script.WriteString("set -eu\n")
	for _, prefix := range prefixes {
		fmt.Fprintf(&script, "aws s3 sync . %q --delete --endpoint-url \"$S3_ENDPOINT\"\n",
			"s3://"+path.Join(name, prefix))
	}

	_, err = dag.Container().
		From("amazon/aws-cli:latest").
		WithSecretVariable("S3_ENDPOINT", b.endpoint).
		WithSecretVariable("AWS_ACCESS_KEY_ID", b.accessKeyID).
		WithSecretVariable("AWS_SECRET_ACCESS_KEY", b.secretAccessKey).
		WithEnvVariable("AWS_DEFAULT_REGION", "auto").
		WithDirectory("/dist", archives).
		WithWorkdir("/dist").
		WithEntrypoint(nil).
		WithExec([]string{"sh", "-c", script.String()}).
		Sync(ctx)
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", strings.Join(prefixes, ", "), err)
	}
	return nil
}
