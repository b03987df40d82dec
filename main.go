package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tracking_ivr/src"
	"tracking_ivr/src/catalog"
	"tracking_ivr/src/conversation"
	"tracking_ivr/src/dialogue"
	"tracking_ivr/src/llm"
	"tracking_ivr/src/llm/extract"
	"tracking_ivr/src/logger"
	"tracking_ivr/src/menu"
	"tracking_ivr/src/nlu"
	"tracking_ivr/src/quotation"
	"tracking_ivr/src/record"
	"tracking_ivr/src/server"
	"tracking_ivr/src/storage"
	"tracking_ivr/src/transcription"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tracking-ivr",
		Short: "Phone menu for service record tracking and quotations",
	}
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newCatalogCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tracking-ivr %s (commit: %s)\n", Version, Commit)
		},
	}
}

func newServeCmd() *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the telephony webhook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, envFile)
		},
	}
	cmd.Flags().StringVar(&envFile, "env", ".env", "path to an optional .env file")
	return cmd
}

// newCatalogCmd prints the effective catalog, compiled-in defaults merged
// with the CATALOG_PATH override.
func newCatalogCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the effective prompt catalog as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = os.Getenv("CATALOG_PATH")
			}
			c, err := catalog.Load(path)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(c)
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "catalog override file (defaults to CATALOG_PATH)")
	return cmd
}

func loadEnv(path string) {
	if err := godotenv.Load(path); err != nil {
		fmt.Fprintf(os.Stderr, "no %s file loaded: %v\n", path, err)
	}
}

func runServe(cmd *cobra.Command, envFile string) error {
	loadEnv(envFile)

	cfg, err := src.LoadConfig()
	if err != nil {
		return err
	}
	if err := logger.InitLogger(cfg.LogConfig); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()
	log := logger.Named("main")
	gin.SetMode(gin.ReleaseMode)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}

	store, err := storage.New(ctx, cfg.SessionConfig, logger.Named("storage"))
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := record.New(cfg.RecordServiceConfig, logger.Named("record"))
	if err != nil {
		return err
	}

	threads, err := conversation.NewServiceFromConfig(ctx, cfg.SessionConfig, cfg.QuotationConfig)
	if err != nil {
		return fmt.Errorf("failed to create conversation service: %w", err)
	}

	bridge, err := newBridge(ctx, cfg, store, threads, cat)
	if err != nil {
		return err
	}
	defer bridge.Wait()

	machine := dialogue.NewMachine(dialogue.Options{
		Store:         store,
		Records:       records,
		Catalog:       cat,
		Composer:      menu.NewComposer(cat.MenuLabels, logger.Named("menu")),
		Classifier:    nlu.NewClassifier(cat.Commands, cat.DenyList),
		Conversation:  nlu.NewConversationClassifier(cat.Conversation),
		Bridge:        bridge,
		Telephony:     cfg.TelephonyConfig,
		LookupTimeout: cfg.RecordServiceConfig.Timeout,
		Logger:        logger.Named("dialogue"),
	})

	srv, err := server.New(server.Options{
		Machine:       machine,
		Store:         store,
		Threads:       threads,
		Config:        cfg.ServerConfig,
		Telephony:     cfg.TelephonyConfig,
		SweepSchedule: cfg.SessionConfig.SweepSchedule,
		Logger:        logger.Named("server"),
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("session_backend", store.Backend()).
		Str("llm_provider", cfg.LLMConfig.Provider).
		Bool("agent_transfer", cfg.TelephonyConfig.TransferEnabled).
		Msg("tracking IVR starting")
	return srv.Run(ctx)
}

// newBridge wires the quotation pipeline: transcription, the optional
// chat-model extractor and pricing around the AI thread store.
func newBridge(ctx context.Context, cfg *src.Config, store storage.Store, threads *conversation.Service, cat *catalog.Catalog) (*quotation.Bridge, error) {
	var extractor extract.Extractor
	chatModel, err := llm.NewChatModel(ctx, cfg.LLMConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	if chatModel != nil {
		chain, err := extract.NewChainExtractor(ctx, chatModel, cfg.LLMConfig.Timeout, logger.Named("extract"))
		if err != nil {
			return nil, fmt.Errorf("failed to create extractor: %w", err)
		}
		extractor = chain
	} else {
		quotationLog := logger.Named("quotation")
		quotationLog.Warn().Msg("no LLM provider configured, quotation uses pattern extraction only")
	}

	transcriber := transcription.NewWhisperTranscriber(transcription.Options{
		Config:     cfg.TranscriptionConfig,
		AccountSID: cfg.TelephonyConfig.AccountSID,
		AuthToken:  cfg.TelephonyConfig.AuthToken,
		Logger:     logger.Named("transcription"),
	})

	return quotation.NewBridge(quotation.BridgeOptions{
		Store:         store,
		Threads:       threads,
		Transcriber:   transcriber,
		Extractor:     extractor,
		Pricer:        quotation.NewTariffPricer(cfg.QuotationConfig.Currency),
		Catalog:       cat,
		MaxPolls:      cfg.QuotationConfig.MaxPolls,
		StepTimeout:   cfg.QuotationConfig.StepTimeout,
		DefaultAmount: cfg.QuotationConfig.DefaultAmount,
		Currency:      cfg.QuotationConfig.Currency,
		Logger:        logger.Named("quotation"),
	}), nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
