package sped

import (
	"context"
	"fmt"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
)

// Identities for the baseline path.
var (
	BaselineID  = pipz.NewIdentity("sped:baseline", "Classical processing followed by a memory write")
	ClassicalID = pipz.NewIdentity("sped:classical", "Baseline computation via the reasoning collaborator")
	StoreID     = pipz.NewIdentity("sped:store", "Persist the baseline payload and capture memory impact")
)

// newBaselinePath builds the always-available path.
func newBaselinePath(reasoning Reasoning, memory Memory) pipz.Chainable[*Call] {
	return pipz.NewSequence(BaselineID,
		pipz.Apply(ClassicalID, func(ctx context.Context, c *Call) (*Call, error) {
			payload, err := reasoning.ProcessClassical(ctx, c.Input, c.Context)
			if err != nil {
				return c, fmt.Errorf("baseline: classical processing failed: %w", err)
			}
			c.Raw = RawResult{Payload: payload}
			return c, nil
		}),
		pipz.Apply(StoreID, func(ctx context.Context, c *Call) (*Call, error) {
			impact, err := memory.StoreResult(ctx, c.Raw.Payload)
			if err != nil {
				return c, fmt.Errorf("baseline: store failed: %w", err)
			}
			c.Raw.MemoryImpact = &impact

			capitan.Emit(ctx, MemoryStored,
				FieldResultID.Field(c.ID),
				FieldMemoryImpact.Field(impact),
			)
			return c, nil
		}),
	)
}
