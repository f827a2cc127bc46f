// Package operations runs the dataset build as an ordered list of steps.
//
// Core Components:
//
// Manager: executes registered steps sequentially, applying per-step
// timeouts, retries for retryable failures, tracing spans and stage
// metrics. A failed step skips every step that depends on it.
//
// Step: a single unit of work. Steps declare the steps they depend on and
// exchange working tables through OperationState.
//
// Registry: keeps steps in registration order and resolves dependency order.
//
// Pipeline steps: key indicators, percentiles, median patch, relative
// poverty, derived variables and standardization run once per PPP version;
// combine, export and upload run once over all versions.
//
// Example usage:
//
//	registry, err := operations.BuildPipeline(deps)
//	if err != nil {
//		return err
//	}
//	manager := operations.NewManager(registry, operations.NewConfigFromPipeline(cfg.Pipeline), logger, metrics)
//	resp, err := manager.Execute(ctx, operations.OperationRequest{})
package operations
