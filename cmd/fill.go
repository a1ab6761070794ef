package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/magicfill/magicfill/internal/ai"
	"github.com/magicfill/magicfill/internal/ai/gemini"
	"github.com/magicfill/magicfill/internal/fill"
	"github.com/magicfill/magicfill/internal/forms"
	"github.com/magicfill/magicfill/internal/learning"
	"github.com/magicfill/magicfill/internal/logger"
	"github.com/magicfill/magicfill/internal/profile"
	"github.com/magicfill/magicfill/internal/resolver"
	"github.com/magicfill/magicfill/internal/secrets"
	"github.com/magicfill/magicfill/internal/storage"
)

const (
	PromptSaveGlobal = "Save for every site"
	PromptSaveSite   = "Save for this site only"
	PromptSkip       = "Skip"
)

var fillCmd = &cobra.Command{
	Use:   "fill [scan-file]",
	Short: "Resolve values for a scanned form and emit a fill plan",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runFill(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(fillCmd)

	fillCmd.Flags().String("hostname", "", "override the hostname recorded in the scan document")
	fillCmd.Flags().BoolP("site-answers", "s", false, "consult site-specific answers during resolution")
	fillCmd.Flags().BoolP("review", "r", false, "interactively review unrecognized fields and learn answers")
	fillCmd.Flags().Bool("learn-all", false, "store every non-empty field value from the scan as an answer")
	fillCmd.Flags().StringP("output", "o", "", "write the fill plan to a file instead of stdout")

	viper.BindPFlag("fill.site-answers", fillCmd.Flags().Lookup("site-answers"))
}

// fillOutput is the emitted document: the plan plus any model suggestions for
// the fields the plan could not answer.
type fillOutput struct {
	*fill.Plan
	Suggestions []ai.Suggestion `json:"suggestions,omitempty"`
}

func runFill(cmd *cobra.Command, scanPath string) {
	ctx := context.Background()

	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	scan, err := forms.ReadScanFile(scanPath)
	if err != nil {
		zlog.Fatal("reading scan document", zap.Error(err))
	}
	scan.Classify()

	hostname := scan.Hostname
	if flag := strings.TrimSpace(cmd.Flag("hostname").Value.String()); flag != "" {
		hostname = flag
	}

	zlog = logger.WithHostname(zlog, hostname)
	zlog.Info("starting the fill pass", zap.Int("fields", scan.Len()))

	store, err := storage.Open(dataDir(config))
	if err != nil {
		zlog.Fatal("opening the answer store", zap.Error(err))
	}
	defer store.Close()

	data, err := store.PersonalData(ctx)
	if err != nil {
		zlog.Fatal("loading personal data", zap.Error(err))
	}

	if config.MappingsFile != "" {
		mappings, err := profile.LoadFieldMappings(config.MappingsFile)
		if err != nil {
			zlog.Fatal("loading field mappings", zap.Error(err))
		}
		data.FieldMappings = mappings
	}

	res := resolver.New(resolver.Options{
		UseSiteAnswers: viper.GetBool("fill.site-answers"),
	}, zlog)

	result, err := fill.New(res, zlog).Run(ctx, scan.Fields, data, hostname, fill.CollectPlan)
	if err != nil {
		zlog.Fatal("fill pass failed", zap.Error(err))
	}

	output := &fillOutput{Plan: fill.NewPlan(result)}

	suggestions := suggestForUnrecognized(ctx, config.AI, result.Unrecognized, data, zlog)
	output.Suggestions = suggestions

	capture := learning.New(store, zlog)

	if cmd.Flag("learn-all").Value.String() == "true" {
		report, err := capture.CaptureAll(ctx, scan.Fields, learning.Scope{})
		if err != nil {
			zlog.Fatal("bulk learning failed", zap.Error(err))
		}
		zlog.Info("learned answers from scan",
			zap.Int("saved", report.Saved),
			zap.Int("updated", report.Updated),
			zap.Int("skipped", report.Skipped),
		)
	}

	if cmd.Flag("review").Value.String() == "true" {
		if err := reviewUnrecognized(ctx, capture, result.Unrecognized, suggestions, hostname, zlog); err != nil {
			zlog.Fatal("review failed", zap.Error(err))
		}
	}

	if err := writePlan(cmd.Flag("output").Value.String(), output); err != nil {
		zlog.Fatal("writing fill plan", zap.Error(err))
	}
}

func writePlan(path string, output *fillOutput) error {
	pretty, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding fill plan: %w", err)
	}
	pretty = append(pretty, '\n')

	if path == "" {
		_, err := os.Stdout.Write(pretty)
		return err
	}

	return os.WriteFile(path, pretty, 0o644)
}

// reviewUnrecognized walks the fields the cascade had no answer for, asking
// the user for a value and where to save it. Model suggestions pre-fill the
// prompt when available.
func reviewUnrecognized(ctx context.Context, capture *learning.Capture, fields []*forms.DetectedField, suggestions []ai.Suggestion, hostname string, zlog *zap.Logger) error {
	if len(fields) == 0 {
		return nil
	}

	suggested := make(map[string]ai.Suggestion, len(suggestions))
	for _, s := range suggestions {
		suggested[s.Selector] = s
	}

	scopeItems := []string{PromptSaveGlobal, PromptSkip}
	if hostname != "" {
		scopeItems = []string{PromptSaveGlobal, PromptSaveSite, PromptSkip}
	}

	for _, field := range fields {
		valuePrompt := promptui.Prompt{
			Label:     field.Context,
			Default:   suggested[field.Selector].Value,
			AllowEdit: true,
		}

		value, err := valuePrompt.Run()
		if err != nil {
			return err
		}
		if strings.TrimSpace(value) == "" {
			continue
		}

		scopePrompt := promptui.Select{
			Label: "Save this answer?",
			Items: scopeItems,
		}
		_, action, err := scopePrompt.Run()
		if err != nil {
			return err
		}

		scope := learning.Scope{}
		switch action {
		case PromptSkip:
			continue
		case PromptSaveSite:
			scope = learning.Scope{Site: true, Hostname: hostname}
		}

		key, err := capture.OnFieldCommitted(ctx, field.Context, value, scope)
		if err != nil {
			return err
		}
		if key == "" {
			zlog.Warn("field context yields no key, answer not saved", zap.String("selector", field.Selector))
		}
	}

	return nil
}

// suggestForUnrecognized asks the configured model for draft answers. Any
// failure downgrades to a warning; suggestions are never load-bearing.
func suggestForUnrecognized(ctx context.Context, config *AIConfig, fields []*forms.DetectedField, data *profile.PersonalData, zlog *zap.Logger) []ai.Suggestion {
	if config == nil || !config.Enabled || len(fields) == 0 {
		return nil
	}

	suggester, err := newAISuggester(ctx, config, zlog)
	if err != nil {
		zlog.Warn("skipping AI suggestions", zap.Error(err))
		return nil
	}

	suggestions, err := suggester.Suggest(ctx, fields, data)
	if err != nil {
		zlog.Warn("AI suggestion request failed", zap.Error(err))
		return nil
	}

	zlog.Info("collected AI suggestions",
		zap.Int("unrecognized", len(fields)),
		zap.Int("suggestions", len(suggestions)),
	)
	return suggestions
}

func newAISuggester(ctx context.Context, cfg *AIConfig, zlog *zap.Logger) (ai.Suggester, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
	if cfg.Gemini == nil {
		return nil, fmt.Errorf("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	aiLogger := logger.WithAI(zlog, "gemini", cfg.Gemini.Model)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, aiLogger)
	if err != nil {
		return nil, err
	}

	minConfidence := cfg.MinimumConfidence
	if minConfidence < 0 {
		minConfidence = 0
	}

	return gemini.NewSuggester(generator, aiLogger, minConfidence, cfg.Gemini.MaxLogLength), nil
}
