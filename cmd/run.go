package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/phonepilot/phonepilot/internal/actions"
	"github.com/phonepilot/phonepilot/internal/agent"
	"github.com/phonepilot/phonepilot/internal/config"
	"github.com/phonepilot/phonepilot/internal/device/adb"
	"github.com/phonepilot/phonepilot/internal/i18n"
	"github.com/phonepilot/phonepilot/internal/model"
	"github.com/phonepilot/phonepilot/internal/observability"
	"github.com/phonepilot/phonepilot/internal/screenshot"
)

// newRunCmd creates the `run` command: execute one task, or enter an
// interactive task loop when no task argument is given.
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [task]",
		Short: "Run an automation task on the connected device",
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			for flag, key := range map[string]string{
				"device":         "device.id",
				"max-steps":      "agent.max_steps",
				"lang":           "agent.lang",
				"base-url":       "model.base_url",
				"model":          "model.model_name",
				"api-key":        "model.api_key",
				"screenshot-dir": "agent.screenshot_dir",
				"verbose":        "agent.verbose",
			} {
				if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			session, err := newSession(cfg)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				return session.runTask(cmd.Context(), args[0])
			}
			return session.interactive(cmd.Context())
		},
	}

	// Flag defaults mirror config.SetDefaults: a bound-but-unset flag
	// default takes precedence over viper defaults, so they must agree.
	runCmd.Flags().StringP("device", "d", "", "device serial or tcp address")
	runCmd.Flags().Int("max-steps", 100, "maximum steps per task")
	runCmd.Flags().String("lang", "cn", "display language (cn or en)")
	runCmd.Flags().String("base-url", "http://localhost:8000/v1", "model endpoint base URL")
	runCmd.Flags().String("model", "autoglm-phone-9b", "model name")
	runCmd.Flags().String("api-key", "EMPTY", "model API key")
	runCmd.Flags().String("screenshot-dir", "", "directory for per-step screenshots (empty disables)")
	runCmd.Flags().BoolP("verbose", "v", true, "stream thinking and per-step metrics")
	return runCmd
}

// session bundles the wired collaborators for one run invocation.
type session struct {
	agent *agent.Agent
	lang  i18n.Language
	cfg   *config.Config
}

func newSession(cfg *config.Config) (*session, error) {
	logger := observability.GetLogger()
	lang := i18n.ParseLanguage(cfg.Agent.Lang)

	backend := adb.New(cfg.Device, cfg.Timing, logger)
	client := model.NewClient(cfg.Model, logger)
	interactor := actions.NewConsoleInteractor(lang)
	dispatcher := actions.NewDispatcher(backend, interactor, cfg.Timing.Action, logger)

	saver, err := screenshot.NewSession(cfg.Agent.ScreenshotDir, logger)
	if err != nil {
		return nil, err
	}

	agentCfg := agent.Config{
		MaxSteps:     cfg.Agent.MaxSteps,
		Lang:         lang,
		SystemPrompt: cfg.Agent.SystemPrompt,
	}
	if cfg.Agent.Verbose {
		agentCfg.ThinkingObserver = func(s string) { fmt.Print(s) }
		agentCfg.StepObserver = func(step int, result *agent.StepResult) {
			printStep(lang, step, result, true)
		}
	} else {
		agentCfg.StepObserver = func(step int, result *agent.StepResult) {
			printStep(lang, step, result, false)
		}
	}

	return &session{
		agent: agent.New(agentCfg, backend, client, dispatcher, saver, logger),
		lang:  lang,
		cfg:   cfg,
	}, nil
}

func (s *session) runTask(ctx context.Context, task string) error {
	fmt.Printf("\n[%s] %s\n", i18n.Get("starting_task", s.lang), task)
	msg, err := s.agent.Run(ctx, task)
	if err != nil {
		return err
	}
	fmt.Printf("\n[%s] %s\n", i18n.Get("final_result", s.lang), msg)
	return nil
}

// interactive reads tasks from stdin until EOF or an exit command. The
// session survives between tasks; only conversation state is reset.
func (s *session) interactive(ctx context.Context) error {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("\n%s > ", i18n.Get("task", s.lang))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		if err := s.runTask(ctx, line); err != nil {
			if ctx.Err() != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		s.agent.Reset()
	}
	return scanner.Err()
}

func printStep(lang i18n.Language, step int, result *agent.StepResult, verbose bool) {
	fmt.Printf("\n--- %s %d ---\n", i18n.Get("step", lang), step)
	if result.Action != nil {
		fmt.Printf("[%s] %s\n", i18n.Get("action", lang), result.Action.CallString())
	}
	if result.Message != "" {
		fmt.Printf("[%s] %s\n", i18n.Get("result", lang), result.Message)
	}
	if verbose && result.Total > 0 {
		fmt.Printf("[%s] %s: %v | %s: %v | %s: %v\n",
			i18n.Get("performance_metrics", lang),
			i18n.Get("time_to_first_token", lang), result.FirstToken,
			i18n.Get("time_to_thinking_end", lang), result.ThinkingEnd,
			i18n.Get("total_inference_time", lang), result.Total)
	}
}
