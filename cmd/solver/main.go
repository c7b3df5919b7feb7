package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"fploptimizer/internal/cache"
	"fploptimizer/internal/config"
	"fploptimizer/internal/fpl"
	"fploptimizer/internal/logger"
	"fploptimizer/internal/optimizer"
	"fploptimizer/internal/pipeline"
)

// The solver command runs one fetch-predict-optimize pass and prints the
// result. Exit codes: 0 solved, 2 infeasible, 1 anything else.
func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	budget := flag.Float64("budget", 0, "budget in millions (overrides config)")
	maxPerTeam := flag.Int("max-per-team", 0, "per-team cap (overrides config)")
	horizon := flag.Int("horizon", 0, "gameweek horizon (overrides config)")
	excludeIDs := flag.String("exclude", "", "comma-separated player ids to exclude")
	enforceIDs := flag.String("enforce", "", "comma-separated player ids to enforce")
	asJSON := flag.Bool("json", false, "print the full result as JSON")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if *budget > 0 {
		cfg.Solver.BudgetMillions = *budget
	}
	if *maxPerTeam > 0 {
		cfg.Solver.MaxPerTeam = *maxPerTeam
	}
	if *horizon > 0 {
		cfg.Solver.Horizon = *horizon
	}

	logger.Init(cfg.LogLevel, cfg.IsDevelopment())
	log := logger.WithComponent("solver-cli")

	cons := cfg.Constraints()
	var parseErr error
	cons.ExcludedIDs, parseErr = appendIDs(cons.ExcludedIDs, *excludeIDs)
	if parseErr != nil {
		log.Fatalf("Invalid -exclude list: %v", parseErr)
	}
	cons.EnforcedIDs, parseErr = appendIDs(cons.EnforcedIDs, *enforceIDs)
	if parseErr != nil {
		log.Fatalf("Invalid -enforce list: %v", parseErr)
	}

	client := fpl.NewClient(cfg.FPLBaseURL, logger.WithComponent("fpl"))
	pipe := pipeline.New(cfg, client, cache.NoopStore{}, logger.WithComponent("pipeline"))

	result, err := pipe.Run(context.Background(), cons, false)
	if err != nil {
		log.Fatalf("Optimization failed: %v", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			log.Fatalf("Failed to encode result: %v", err)
		}
	} else {
		printResult(result)
	}

	switch result.Status {
	case optimizer.StatusSolved:
		os.Exit(0)
	case optimizer.StatusInfeasible:
		os.Exit(2)
	default:
		os.Exit(1)
	}
}

func appendIDs(ids []int, list string) ([]int, error) {
	if list == "" {
		return ids, nil
	}
	for _, part := range strings.Split(list, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("bad player id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printResult(result *optimizer.Result) {
	switch result.Status {
	case optimizer.StatusSolved:
		sel := result.Selection
		fmt.Printf("Optimal squad (%.1fm, %.2f expected points over the horizon):\n\n",
			sel.TotalCostMillions(), sel.TotalExpectedPoints)
		for _, p := range sel.Players {
			fmt.Printf("  %-4s %-25s %-20s %5.1fm  %6.2f xP\n",
				p.Position, p.Name, p.Team, float64(p.CostTenths)/10.0, p.ExpectedPoints)
		}
	case optimizer.StatusInfeasible:
		fmt.Printf("No legal squad exists: %s\n", result.Infeasibility)
	default:
		fmt.Printf("Solve did not complete: %s\n", result.Failure)
	}
}
