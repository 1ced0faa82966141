package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/vinylworks/vinylops/jobs"
)

// Triggerer enqueues a job by name.
type Triggerer interface {
	Trigger(ctx context.Context, name string) (*asynq.TaskInfo, error)
}

// JobsTriggerCommand enqueues the named job and prints the task id.
func JobsTriggerCommand(ctx context.Context, client Triggerer, name string, stdout, stderr io.Writer) int {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	if strings.TrimSpace(name) == "" {
		_, _ = fmt.Fprintf(stderr, "usage: vinylops jobs trigger <%s>\n", strings.Join(jobs.TriggerNames(), "|"))
		return 1
	}
	info, err := client.Trigger(ctx, name)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "jobs trigger: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "enqueued %s id=%s queue=%s\n", name, info.ID, info.Queue)
	return 0
}
