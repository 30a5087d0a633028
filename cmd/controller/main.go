package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/danielpatrickdp/creativity-controller/internal/config"
	"github.com/danielpatrickdp/creativity-controller/internal/llm"
	"github.com/danielpatrickdp/creativity-controller/internal/memory"
	"github.com/danielpatrickdp/creativity-controller/internal/orchestrator"
	"github.com/danielpatrickdp/creativity-controller/internal/research"
	"github.com/danielpatrickdp/creativity-controller/internal/webcache"
)

// #region main
func main() {
	cfgPath := flag.String("config", envOr("FLOW_CONFIG", ""), "path to flow config JSON")
	dbPath := flag.String("db", envOr("CONTROLLER_DB", "web_cache.db"), "path to the web cache database")
	memPath := flag.String("memory", envOr("CONTROLLER_MEMORY_FILE", "idea_memory.json"), "path to the idea memory file")
	prompt := flag.String("prompt", "", "creative request (reads stdin when empty)")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
	}

	cache, err := webcache.New(*dbPath)
	if err != nil {
		log.Fatalf("failed to open cache: %v", err)
	}
	defer cache.Close()

	mem := memory.NewManager(*memPath, cfg.AcceptThreshold)
	if err := mem.Load(); err != nil {
		log.Fatalf("failed to load idea memory: %v", err)
	}

	variants, err := buildVariants(cfg)
	if err != nil {
		log.Fatalf("failed to build variants: %v", err)
	}

	researchCfg := research.DefaultConfig()
	researcher := research.NewResearcher(cache, research.NewHTTPFetcher(researchCfg.Timeout), researchCfg)

	orch, err := orchestrator.New(orchestrator.Config{
		MaxIterations:   cfg.Iterations,
		AcceptThreshold: cfg.AcceptThreshold,
		RunTimeout:      cfg.RunTimeout(),
		ResearchURLs:    cfg.ResearchURLs,
	}, variants, mem, researcher, cache.DB())
	if err != nil {
		log.Fatalf("failed to build orchestrator: %v", err)
	}

	request := strings.TrimSpace(*prompt)
	if request == "" {
		request = readRequest()
	}
	if request == "" {
		fmt.Fprintln(os.Stderr, "usage: controller --prompt \"...\" [--config flow.json] [--db web_cache.db] [--memory idea_memory.json]")
		os.Exit(2)
	}

	result, err := orch.Run(context.Background(), request)
	if err != nil {
		// Partial results still carry diagnostics worth showing.
		log.Printf("run aborted: %v", err)
		printDiagnostics(result)
		os.Exit(1)
	}

	fmt.Println(result.Synthesis)
	printDiagnostics(result)
}

// #endregion main

// #region helpers

// buildVariants connects one client per configured variant. Variants
// share credentials but may point at different models.
func buildVariants(cfg config.FlowConfig) ([]orchestrator.Variant, error) {
	base := llm.DefaultConfig()
	variants := make([]orchestrator.Variant, 0, len(cfg.Variants))
	for _, vc := range cfg.Variants {
		client, err := llm.NewClientWithModel(base, vc.Model)
		if err != nil {
			return nil, fmt.Errorf("variant %s: %w", vc.Name, err)
		}
		variants = append(variants, orchestrator.Variant{
			Name:      vc.Name,
			Gen:       client,
			HighTemp:  vc.HighTemp,
			LowTemp:   vc.LowTemp,
			JudgeTemp: cfg.JudgeTemperature,
		})
	}
	return variants, nil
}

func readRequest() string {
	fmt.Print("Enter a creative request:\n> ")
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(scanner.Text())
}

func printDiagnostics(result orchestrator.FinalResult) {
	fmt.Printf("\n[run %s] iterations=%d accepted=%d rejected=%d failures=%d\n",
		result.RunID, result.Iterations, len(result.Accepted), len(result.Rejected), len(result.Failures))
	for _, f := range result.Failures {
		fmt.Printf("  iter %d variant=%s stage=%s kind=%s: %s\n",
			f.Iteration, f.Variant, f.Stage, f.Kind, f.Detail)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
