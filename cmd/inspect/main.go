package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/creativity-controller/internal/memory"
	"github.com/danielpatrickdp/creativity-controller/internal/runlog"
	"github.com/danielpatrickdp/creativity-controller/internal/webcache"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to web_cache.db")
	memPath := flag.String("memory", "", "path to idea_memory.json")
	top := flag.Int("top", 0, "show N most-hit cached URLs")
	query := flag.String("query", "", "show the URLs a query resolved to")
	run := flag.String("run", "", "show the stage log for one run")
	clearOlder := flag.Int("clear-older", 0, "delete cache entries older than N days")
	jsonOut := flag.Bool("json", false, "output as JSON instead of text")
	flag.Parse()

	if *dbPath == "" && *memPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db web_cache.db [--top N] [--query q] [--run id] [--clear-older N] [--json]")
		fmt.Fprintln(os.Stderr, "       inspect --memory idea_memory.json [--json]")
		os.Exit(2)
	}

	if *memPath != "" {
		if err := runMemoryMode(*memPath, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	if *dbPath == "" {
		return
	}

	cache, err := webcache.New(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer cache.Close()

	switch {
	case *clearOlder > 0:
		err = runClearMode(cache, *clearOlder)
	case *run != "":
		err = runLogMode(cache, *run, *jsonOut)
	case *query != "":
		err = runQueryMode(cache, *query, *jsonOut)
	case *top > 0:
		err = runTopMode(cache, *top, *jsonOut)
	default:
		err = runStatsMode(cache, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region cache-modes

func runStatsMode(cache *webcache.Cache, jsonOut bool) error {
	stats, err := cache.Stats()
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(stats)
	}

	fmt.Printf("URLs cached:    %d\n", stats.TotalURLs)
	fmt.Printf("Total hits:     %d\n", stats.TotalHits)
	fmt.Printf("Content bytes:  %d\n", stats.TotalSizeBytes)
	fmt.Printf("Unique queries: %d\n", stats.UniqueQueries)

	if len(stats.TopURLs) > 0 {
		fmt.Printf("\nTop URLs:\n")
		printURLTable(stats.TopURLs)
	}
	if len(stats.TopDomains) > 0 {
		fmt.Printf("\nTop domains:\n")
		fmt.Printf("  %-30s  %7s  %7s\n", "Domain", "Entries", "Hits")
		for _, d := range stats.TopDomains {
			fmt.Printf("  %-30s  %7d  %7d\n", d.Domain, d.Entries, d.Hits)
		}
	}
	return nil
}

func runTopMode(cache *webcache.Cache, n int, jsonOut bool) error {
	urls, err := cache.TopURLs(n)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(urls)
	}
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "cache is empty")
		return nil
	}
	printURLTable(urls)
	return nil
}

func runQueryMode(cache *webcache.Cache, query string, jsonOut bool) error {
	urls, err := cache.URLsForQuery(query)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(urls)
	}
	if len(urls) == 0 {
		fmt.Fprintf(os.Stderr, "no cached URLs for query %q\n", query)
		return nil
	}
	fmt.Printf("URLs for %q:\n", query)
	printURLTable(urls)
	return nil
}

func runClearMode(cache *webcache.Cache, days int) error {
	urls, links, err := cache.ClearOlderThan(days)
	if err != nil {
		return err
	}
	fmt.Printf("cleared %d cache entries and %d query links older than %d days\n", urls, links, days)
	return nil
}

func runLogMode(cache *webcache.Cache, runID string, jsonOut bool) error {
	entries, err := runlog.ForRun(cache.DB(), runID)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintf(os.Stderr, "no log entries for run %s\n", runID)
		return nil
	}
	fmt.Printf("%-5s  %-12s  %-12s  %-7s  %s\n", "Iter", "Variant", "Stage", "Outcome", "Detail")
	for _, e := range entries {
		detail := e.Detail
		if e.ErrorKind != "" {
			detail = fmt.Sprintf("[%s] %s", e.ErrorKind, e.Detail)
		}
		fmt.Printf("%-5d  %-12s  %-12s  %-7s  %s\n", e.Iteration, e.Variant, e.Stage, e.Outcome, detail)
	}
	return nil
}

// #endregion cache-modes

// #region memory-mode

type memoryView struct {
	Accepted []memory.IdeaRecord `json:"accepted"`
	Rejected []memory.IdeaRecord `json:"rejected"`
}

func runMemoryMode(path string, jsonOut bool) error {
	mem := memory.NewManager(path, memory.DefaultAcceptThreshold)
	if err := mem.Load(); err != nil {
		return err
	}

	view := memoryView{Accepted: mem.Accepted(), Rejected: mem.Rejected()}
	if jsonOut {
		return printJSON(view)
	}

	fmt.Printf("Accepted ideas (%d):\n", len(view.Accepted))
	for _, idea := range view.Accepted {
		fmt.Printf("  %.1f  %s (iteration %d)\n", idea.QualityScore, idea.Concept, idea.Iteration)
	}
	fmt.Printf("\nRejected ideas (%d):\n", len(view.Rejected))
	for _, idea := range view.Rejected {
		fmt.Printf("  %.1f  %s: %s\n", idea.QualityScore, idea.Concept, idea.RejectionReason)
	}
	fmt.Println()
	return nil
}

// #endregion memory-mode

// #region output

func printURLTable(urls []webcache.URLHits) {
	fmt.Printf("  %5s  %-20s  %s\n", "Hits", "Domain", "URL")
	for _, u := range urls {
		fmt.Printf("  %5d  %-20s  %s\n", u.HitCount, u.Domain, u.URL)
	}
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// #endregion output
