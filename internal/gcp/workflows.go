package gcp

import (
	"context"
	"fmt"
	"strings"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
)

// WorkflowNotifier hands each completion event to a Cloud Workflows execution
// as its argument.
type WorkflowNotifier struct {
	client   *executions.Client
	workflow string
}

// IsWorkflowName reports whether a destination is a workflow resource name
// of the form projects/<p>/locations/<l>/workflows/<w>.
func IsWorkflowName(destination string) bool {
	parts := strings.Split(destination, "/")
	return len(parts) == 6 && parts[0] == "projects" && parts[2] == "locations" && parts[4] == "workflows" &&
		parts[1] != "" && parts[3] != "" && parts[5] != ""
}

func NewWorkflowNotifier(ctx context.Context, workflow string) (*WorkflowNotifier, error) {
	if !IsWorkflowName(workflow) {
		return nil, fmt.Errorf("invalid workflow name %q", workflow)
	}
	client, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}
	return &WorkflowNotifier{client: client, workflow: workflow}, nil
}

func (n *WorkflowNotifier) Destination() string { return n.workflow }

// Send starts one workflow execution with body as its JSON argument.
func (n *WorkflowNotifier) Send(ctx context.Context, body string) error {
	req := &executionspb.CreateExecutionRequest{
		Parent: n.workflow,
		Execution: &executionspb.Execution{
			Argument: body,
		},
	}
	if _, err := n.client.CreateExecution(ctx, req); err != nil {
		return fmt.Errorf("failed to trigger workflow execution: %w", err)
	}
	return nil
}

func (n *WorkflowNotifier) Close() error {
	return n.client.Close()
}
