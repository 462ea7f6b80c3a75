package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/clinicaltriage/internal/adapters/catalog"
	"github.com/zatekoja/clinicaltriage/internal/adapters/classifier"
	"github.com/zatekoja/clinicaltriage/internal/domain/providers"
	"github.com/zatekoja/clinicaltriage/internal/domain/triage"
	"github.com/zatekoja/clinicaltriage/internal/evaluation"
	"github.com/zatekoja/clinicaltriage/internal/infrastructure/observability"
	"github.com/zatekoja/clinicaltriage/pkg/config"
)

func main() {
	casesPath := flag.String("cases", "config/golden_cases.json", "labelled golden cases")
	withModel := flag.Bool("model", false, "also score the text classifier")
	minConfidence := flag.Float64("min-confidence", 0, "classifier predictions below this count as abstentions")
	maxCases := flag.Int("max", 0, "evaluate at most this many cases (0 = all)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("triage-evaluate", cfg.Log.Env, cfg.Log.Level)

	questions, err := catalog.LoadFile(cfg.Triage.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load question catalog")
	}

	cases, err := evaluation.LoadGoldenCases(*casesPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load golden cases")
	}
	if err := evaluation.ValidateGoldenCases(cases); err != nil {
		log.Fatal().Err(err).Msg("Invalid golden cases")
	}

	var model providers.TextClassifier
	if *withModel {
		model, err = classifier.NewFromConfig(cfg.Classifier, nil)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize text classifier")
		}
	}

	runner := evaluation.NewRunner(
		triage.NewEngine(questions),
		model,
		evaluation.NewGuardrails(evaluation.GuardrailConfig{
			MinMLConfidence: *minConfidence,
			MaxCases:        *maxCases,
		}),
	)

	summary, err := runner.Run(context.Background(), cases)
	if err != nil {
		log.Fatal().Err(err).Msg("Evaluation failed")
	}

	// Output results as JSON
	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))
}
