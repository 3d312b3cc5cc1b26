package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-feed-relay/core"
)

// RunService executes one relay pass; *sync.Engine satisfies it.
type RunService interface {
	Run(ctx context.Context, accountID string) (core.RunReport, error)
}

type TriggerRunCommand struct {
	service RunService
}

func NewTriggerRunCommand(service RunService) *TriggerRunCommand {
	return &TriggerRunCommand{service: service}
}

func (c *TriggerRunCommand) Execute(ctx context.Context, msg TriggerRunMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: run service is required")
	}
	out, err := c.service.Run(ctx, msg.AccountID)
	if err != nil {
		return core.NormalizeError(err)
	}
	storeResult(ctx, out)
	return nil
}

type AdvanceWatermarkCommand struct {
	store core.WatermarkStore
}

func NewAdvanceWatermarkCommand(store core.WatermarkStore) *AdvanceWatermarkCommand {
	return &AdvanceWatermarkCommand{store: store}
}

func (c *AdvanceWatermarkCommand) Execute(ctx context.Context, msg AdvanceWatermarkMessage) error {
	if c == nil || c.store == nil {
		return commandDependencyError("command: watermark store is required")
	}
	out, err := c.store.Advance(ctx, core.AdvanceWatermarkInput{
		AccountID:     msg.AccountID,
		LastTimestamp: msg.LastTimestamp,
	})
	if err != nil {
		return core.NormalizeError(err)
	}
	storeResult(ctx, out)
	return nil
}

type InvalidateSessionCommand struct {
	store core.SessionStore
}

func NewInvalidateSessionCommand(store core.SessionStore) *InvalidateSessionCommand {
	return &InvalidateSessionCommand{store: store}
}

func (c *InvalidateSessionCommand) Execute(ctx context.Context, msg InvalidateSessionMessage) error {
	if c == nil || c.store == nil {
		return commandDependencyError("command: session store is required")
	}
	return core.NormalizeError(c.store.Delete(ctx, msg.AccountID))
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
