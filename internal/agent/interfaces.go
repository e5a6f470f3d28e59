package agent

import (
	"context"

	"github.com/phonepilot/phonepilot/internal/actions"
	"github.com/phonepilot/phonepilot/internal/model"
)

// ModelClient is the slice of the model layer the agent consumes.
type ModelClient interface {
	StreamCompletion(ctx context.Context, messages []model.Message, observer func(string)) (*model.StreamResult, error)
}

// ActionDispatcher executes one parsed record against the device.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, rec *actions.Record, width, height int) actions.Outcome
}
