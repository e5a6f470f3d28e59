// Package agent drives the observe-think-act loop for one device session.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/phonepilot/phonepilot/internal/actions"
	"github.com/phonepilot/phonepilot/internal/device"
	"github.com/phonepilot/phonepilot/internal/i18n"
	"github.com/phonepilot/phonepilot/internal/model"
	"github.com/phonepilot/phonepilot/internal/screenshot"
)

// ExhaustedMessage is returned when a run uses its whole step budget
// without finishing.
const ExhaustedMessage = "Max steps reached"

// StepResult is the externally visible unit of progress, one per iteration.
type StepResult struct {
	Succeeded bool
	Finished  bool
	Action    *actions.Record
	Thinking  string
	Message   string

	FirstToken  time.Duration
	ThinkingEnd time.Duration
	Total       time.Duration
}

// Config tunes one agent session.
type Config struct {
	MaxSteps     int
	Lang         i18n.Language
	SystemPrompt string

	// ThinkingObserver receives reasoning text as it streams; nil disables.
	ThinkingObserver func(string)
	// StepObserver is invoked after each completed step; nil disables.
	StepObserver func(step int, result *StepResult)
}

// Agent owns the conversation, the step counter, and its collaborators for
// one device session. Not safe for concurrent use; run one task at a time.
type Agent struct {
	cfg        Config
	backend    device.Backend
	client     ModelClient
	dispatcher ActionDispatcher
	saver      *screenshot.Saver
	logger     *zap.Logger

	conversation *Conversation
	stepCount    int
}

// New creates an agent session.
func New(cfg Config, backend device.Backend, client ModelClient, dispatcher ActionDispatcher, saver *screenshot.Saver, logger *zap.Logger) *Agent {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = i18n.SystemPrompt(cfg.Lang)
	}
	session := uuid.New().String()[:8]
	return &Agent{
		cfg:        cfg,
		backend:    backend,
		client:     client,
		dispatcher: dispatcher,
		saver:      saver,
		logger:     logger.Named("agent").With(zap.String("session", session)),
	}
}

// Reset clears the conversation and step counter so the session can take a
// new task without reconnecting anything.
func (a *Agent) Reset() {
	a.conversation = nil
	a.stepCount = 0
}

// StepCount reports how many steps the current task has consumed.
func (a *Agent) StepCount() int {
	return a.stepCount
}

// Run executes a whole task and returns its final message. Screen-capture
// and model-transport failures terminate the run; everything else is
// absorbed into step results and the loop continues.
func (a *Agent) Run(ctx context.Context, task string) (string, error) {
	a.Reset()
	a.logger.Info("starting task", zap.String("task", task), zap.Int("max_steps", a.cfg.MaxSteps))

	result, err := a.Step(ctx, task)
	if err != nil {
		return "", err
	}
	if result.Finished {
		return finalMessage(result), nil
	}

	for a.stepCount < a.cfg.MaxSteps {
		result, err = a.Step(ctx, "")
		if err != nil {
			return "", err
		}
		if result.Finished {
			return finalMessage(result), nil
		}
	}

	a.logger.Warn("step budget exhausted", zap.Int("steps", a.stepCount))
	return ExhaustedMessage, nil
}

func finalMessage(result *StepResult) string {
	if result.Message != "" {
		return result.Message
	}
	return "Task completed"
}

// Step runs one full iteration. task is non-empty only on the first step of
// a run. The returned error is reserved for transport failures acquiring
// screen state; model failures come back as a terminal StepResult instead.
func (a *Agent) Step(ctx context.Context, task string) (*StepResult, error) {
	a.stepCount++
	a.logger.Debug("step begin", zap.Int("step", a.stepCount))

	shot, app, err := a.observe(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring screen state: %w", err)
	}
	if err := a.saver.Save(shot.Base64); err != nil {
		a.logger.Warn("failed to save screenshot", zap.Error(err))
	}

	info := model.ScreenInfo{CurrentApp: app, Width: shot.Width, Height: shot.Height}
	if task != "" {
		a.conversation = NewConversation(a.cfg.SystemPrompt)
		a.conversation.Observe(fmt.Sprintf("%s\n\nCurrent screen: %s", task, info.JSON()), shot.Base64)
	} else {
		a.conversation.Observe(fmt.Sprintf("Current screen: %s", info.JSON()), shot.Base64)
	}

	reply, err := a.client.StreamCompletion(ctx, a.conversation.Messages(), a.cfg.ThinkingObserver)
	if err != nil {
		// A model failure always ends the run rather than retrying.
		a.logger.Error("model call failed", zap.Error(err))
		result := &StepResult{
			Finished: true,
			Message:  fmt.Sprintf("Model error: %v", err),
		}
		a.notify(result)
		return result, nil
	}
	a.conversation.CommitAssistant(reply.Raw)

	rec, parseErr := actions.Parse(reply.Action)
	if parseErr != nil {
		// A malformed-but-present response still ends the task with a
		// visible message instead of crashing.
		a.logger.Warn("unparseable action text, finishing", zap.Error(parseErr))
		rec = actions.NewFinishRecord(reply.Action)
	}

	outcome := a.dispatcher.Dispatch(ctx, rec, shot.Width, shot.Height)

	result := &StepResult{
		Succeeded:   outcome.Succeeded,
		Finished:    rec.Kind == actions.KindFinish || outcome.ShouldFinish,
		Action:      rec,
		Thinking:    reply.Thinking,
		Message:     outcome.Message,
		FirstToken:  reply.FirstToken,
		ThinkingEnd: reply.ThinkingEnd,
		Total:       reply.Total,
	}
	a.logger.Info("step complete",
		zap.Int("step", a.stepCount),
		zap.String("action", rec.CallString()),
		zap.Bool("succeeded", result.Succeeded),
		zap.Bool("finished", result.Finished))
	a.notify(result)
	return result, nil
}

func (a *Agent) notify(result *StepResult) {
	if a.cfg.StepObserver != nil {
		a.cfg.StepObserver(a.stepCount, result)
	}
}

// observe captures the screen and the foreground app concurrently; both are
// needed before any action can be decided, so either failure aborts.
func (a *Agent) observe(ctx context.Context) (device.Screenshot, string, error) {
	var (
		shot device.Screenshot
		app  string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		shot, err = a.backend.CaptureScreen(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		app, err = a.backend.CurrentApp(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return device.Screenshot{}, "", err
	}
	return shot, app, nil
}
