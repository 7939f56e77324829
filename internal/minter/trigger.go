package minter

import "context"

// Run triggers
const (
	TriggerSchedule = "schedule"
	TriggerCLI      = "mintctl"
	TriggerUnknown  = "unknown"
)

type triggerKey struct{}

// WithTrigger records what started a run, such as TriggerSchedule or "apikey:ops"
func WithTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, triggerKey{}, trigger)
}

// TriggerFrom returns the trigger recorded by WithTrigger
func TriggerFrom(ctx context.Context) string {
	if trigger, ok := ctx.Value(triggerKey{}).(string); ok && trigger != "" {
		return trigger
	}
	return TriggerUnknown
}
