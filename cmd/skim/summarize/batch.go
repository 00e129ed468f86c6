package summarizecmder

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/papercomputeco/skim/pkg/cliui"
	"github.com/papercomputeco/skim/pkg/client"
	"github.com/papercomputeco/skim/pkg/utils"
	"github.com/papercomputeco/skim/pkg/worker"
)

const (
	summarySuffix = ".summary.md"
	previewLen    = 60
)

// SummaryPath is where --batch writes the summary of path.
func SummaryPath(path string) string {
	return path + summarySuffix
}

func (c *summarizeCommander) runBatch(ctx context.Context, cl *client.Client, files []string) error {
	jobs := make([]worker.Job, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		jobs = append(jobs, worker.Job{Name: path, Text: string(data)})
	}

	var (
		mu     sync.Mutex
		failed int
	)
	onResult := func(r worker.Result) {
		err := r.Err
		if err == nil {
			err = os.WriteFile(SummaryPath(r.Job.Name), []byte(r.Text+"\n"), 0o644)
		}

		mu.Lock()
		defer mu.Unlock()

		if err != nil {
			failed++
			fmt.Fprintf(c.out, "  %s %s  %s\n",
				cliui.FailMark,
				cliui.NameStyle.Render(r.Job.Name),
				failureDetail(err),
			)
			return
		}

		fmt.Fprintf(c.out, "  %s %s  %s %s\n",
			cliui.SuccessMark,
			cliui.NameStyle.Render(r.Job.Name),
			utils.Truncate(utils.FirstLine(r.Text), previewLen),
			cliui.StepStyle.Render(fmt.Sprintf("(%s)", cliui.FormatDuration(r.Duration))),
		)
	}

	pool, err := worker.NewPool(ctx, &worker.Config{
		Client:    cl,
		OnResult:  onResult,
		QueueSize: uint(len(jobs)),
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}

	for _, job := range jobs {
		if !pool.Enqueue(job) {
			mu.Lock()
			failed++
			fmt.Fprintf(c.out, "  %s %s  %s\n", cliui.FailMark, cliui.NameStyle.Render(job.Name), "not queued")
			mu.Unlock()
		}
	}
	pool.Close()

	if failed > 0 {
		fmt.Fprintf(c.errOut, "\n  %d of %d summaries failed\n", failed, len(jobs))
		return errReported
	}
	return nil
}
