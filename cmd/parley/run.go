package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/internal/presentation/tui"
	"github.com/aretw0/parley/pkg/adapters/console"
	"github.com/aretw0/parley/pkg/adapters/knowledge"
	"github.com/aretw0/parley/pkg/adapters/process"
	"github.com/aretw0/parley/pkg/adapters/redis"
	"github.com/aretw0/parley/pkg/dialogue"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/runner"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Talk to the appointment dialogue in the terminal",
	Long: `Starts the appointment dialogue with console speech. Prompts are printed,
and each line you type is one recognition. Prefix a line with a confidence
in brackets, e.g. "[0.4] friday", to exercise the confirmation step.
An empty line while nothing is listening acts as a click.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		if delay, _ := cmd.Flags().GetDuration("speech-delay"); cmd.Flags().Changed("speech-delay") {
			cfg.Dialogue.SpeechDelay = delay
		}

		c, err := loadChart()
		if err != nil {
			return err
		}
		nlu, err := loadGrammar(cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		terminal := console.New(
			console.WithOutput(out),
			console.WithSpeechDelay(cfg.Dialogue.SpeechDelay),
		)

		procs := process.NewRunner(process.WithRegistry(cfg.Invokers), process.WithLogger(logger))

		eng := parley.New(c,
			parley.WithLogger(logger),
			parley.WithLifecycleHooks(observability.LoggingHooks(logger)),
			parley.WithMaxMicrosteps(cfg.Dialogue.MaxMicrosteps),
		)
		opts := []runner.Option{
			runner.WithSpeaker(terminal),
			runner.WithRecognizer(terminal),
			runner.WithUnderstander(nlu),
			runner.WithInvoker(dialogue.KnowledgeSrc, ports.LookupInvoker(knowledgeBase(cfg, logger))),
			runner.WithSilenceTimeout(cfg.Dialogue.SilenceTimeout),
			runner.WithTriggerSource(terminal.Clicks()),
		}
		for _, name := range procs.Names() {
			inv, err := procs.Invoker(name)
			if err != nil {
				return err
			}
			opts = append(opts, runner.WithInvoker(name, inv))
		}
		sess := eng.NewSession(uuid.NewString(), opts...)

		if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			tui.PrintBanner(out, termenv.ColorProfile(), version())
		}
		fmt.Fprintln(out, "Press Enter to start. Ctrl+C quits.")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = sess.Run(ctx)
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(out, "\nBye!")
			return nil
		}
		return err
	},
}

// knowledgeBase builds the lookup client, cached in Redis when configured.
func knowledgeBase(cfg config.Config, logger *slog.Logger) ports.KnowledgeBase {
	var kb ports.KnowledgeBase = knowledge.New(knowledge.Config{
		Endpoint:         cfg.Knowledge.Endpoint,
		Timeout:          cfg.Knowledge.Timeout,
		FailureThreshold: cfg.Knowledge.FailureThreshold,
		OpenTimeout:      cfg.Knowledge.OpenTimeout,
	}, knowledge.WithLogger(logger))
	if cfg.Redis.Addr != "" {
		kb = redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, kb,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
			redis.WithLogger(logger),
		)
	}
	return kb
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Duration("speech-delay", 0, "Simulated playback time per spoken word")
}
