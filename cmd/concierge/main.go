// Package main is the entry point for the concierge CLI, a conversational
// assistant for finding places to eat nearby. It understands English, Hindi,
// and Tamil utterances, keeps per-session context, and degrades gracefully
// when the search backend or the language model is unavailable.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/normanking/concierge/internal/assistant"
	"github.com/normanking/concierge/internal/config"
	"github.com/normanking/concierge/internal/intent"
	"github.com/normanking/concierge/internal/logging"
	"github.com/normanking/concierge/internal/places"
	"github.com/normanking/concierge/internal/query"
	"github.com/normanking/concierge/internal/resilience"
	"github.com/normanking/concierge/internal/respond"
	"github.com/normanking/concierge/internal/session"
)

var (
	version = "0.1.0"
	cfgPath string
	verbose bool
	lat     float64
	lng     float64
	lang    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "concierge",
		Short: "Concierge - conversational local search assistant",
		Long: `Concierge is a conversational assistant for finding places to eat.
It understands English, Hindi, and Tamil, remembers the conversation per
session, and keeps answering even when its backends are down.

Start interactive mode:  concierge
One-shot question:       concierge ask "find biryani near me"
Configuration:           concierge config show`,
		RunE: runChat,
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path (default ~/.concierge/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().Float64Var(&lat, "lat", 0, "latitude of the caller")
	rootCmd.PersistentFlags().Float64Var(&lng, "lng", 0, "longitude of the caller")
	rootCmd.PersistentFlags().StringVar(&lang, "lang", "", "reply language (en, hi, ta)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Concierge v%s\n", version)
		},
	})

	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if cfgPath != "" {
		cfg, err = config.LoadFromPath(cfgPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildAssistant wires the full pipeline from configuration. The returned
// cancel stops the session sweeper.
func buildAssistant(ctx context.Context, cfg *config.Config) (*assistant.Assistant, context.CancelFunc, error) {
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	log := logging.Setup(logging.Options{
		Level:  level,
		Pretty: cfg.Logging.Pretty,
		File:   cfg.Logging.File,
	})

	var model intent.Inference
	if cfg.LLMEnabled() {
		m, err := intent.NewModel(intent.ModelConfig{
			Provider:     cfg.LLM.Provider,
			Model:        cfg.LLM.Model,
			OllamaHost:   cfg.LLM.OllamaHost,
			OpenAIKey:    cfg.LLM.OpenAIKey,
			AnthropicKey: cfg.LLM.AnthropicKey,
		})
		if err != nil {
			// The keyword tier covers extraction on its own.
			log.Warn().Err(err).Msg("language model unavailable, using keyword extraction only")
		} else {
			model = m
		}
	}

	retryPolicy := resilience.Policy{
		MaxAttempts: cfg.Fallback.MaxAttempts,
		BaseDelay:   cfg.Fallback.BaseDelay,
	}
	fallbackPolicy := resilience.FallbackPolicy{
		MaxAttempts:     cfg.Fallback.MaxAttempts,
		BaseDelay:       cfg.Fallback.BaseDelay,
		FallbackEnabled: cfg.Fallback.Enabled,
		FallbackTimeout: cfg.Fallback.Timeout,
	}

	store := session.NewStore(logging.Component(log, "session"))
	extractor := intent.NewExtractor(model, cfg.Language, retryPolicy, logging.Component(log, "intent"))
	executor := query.NewExecutor(
		places.NewStaticProvider(),
		fallbackPolicy,
		logging.Component(log, "query"),
		query.WithCacheTTLs(cfg.Query.SearchCacheTTL, cfg.Query.RecentCacheTTL),
	)
	renderer := respond.NewTemplateRenderer()

	sweeper := session.NewSweeper(store, session.SweeperConfig{
		Interval:      cfg.Session.SweepInterval,
		MaxIdle:       cfg.Session.MaxIdle,
		RetryInterval: cfg.Session.RetryInterval,
	}, logging.Component(log, "sweeper"))

	sweepCtx, cancel := context.WithCancel(ctx)
	go sweeper.Run(sweepCtx)

	a := assistant.New(store, extractor, executor, renderer, nil, logging.Component(log, "assistant"))
	return a, cancel, nil
}

func callerLocation() *places.Location {
	if lat == 0 && lng == 0 {
		return nil
	}
	return &places.Location{Latitude: lat, Longitude: lng}
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive conversation",
		RunE:  runChat,
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, cancel, err := buildAssistant(ctx, cfg)
	if err != nil {
		return err
	}
	defer cancel()

	fmt.Println("Concierge ready. Ask me about places to eat (type 'exit' to quit).")

	sessionID := ""
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
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

		resp := a.ProcessText(ctx, line, sessionID, callerLocation(), lang)
		sessionID = resp.SessionID
		fmt.Printf("concierge> %s\n", resp.Text)

		if ctx.Err() != nil {
			break
		}
	}
	return scanner.Err()
}

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, cancel, err := buildAssistant(ctx, cfg)
			if err != nil {
				return err
			}
			defer cancel()

			resp := a.ProcessText(ctx, strings.Join(args, " "), "", callerLocation(), lang)
			fmt.Println(resp.Text)
			if !resp.Success {
				os.Exit(1)
			}
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Print(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if cfgPath != "" {
				if err := cfg.SaveToPath(cfgPath); err != nil {
					return err
				}
				fmt.Printf("Wrote %s\n", cfgPath)
				return nil
			}
			if err := cfg.Save(); err != nil {
				return err
			}
			fmt.Println("Wrote ~/.concierge/config.yaml")
			return nil
		},
	})

	return cmd
}
