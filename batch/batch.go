// Package batch runs each configured detection rule across a sweep
// of days and hours, and rolls the results up into per-rule and
// grand-total timing stats plus a cross-rule summary of which clients
// tripped which rules.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dnsdga/lindef/compiler"
	"github.com/dnsdga/lindef/config"
	"github.com/dnsdga/lindef/util"
	"github.com/dnsdga/lindef/warehouse"
)

const timestampLayout = "2006-01-02 15:04:05"

// Stats summarizes a slice of query execution times.
type Stats struct {
	Max    time.Duration
	Min    time.Duration
	Mean   time.Duration
	StdDev time.Duration
}

func computeStats(samples []time.Duration) Stats {
	if len(samples) == 0 {
		return Stats{}
	}
	var sum time.Duration
	stats := Stats{Max: samples[0], Min: samples[0]}
	for _, s := range samples {
		if s > stats.Max {
			stats.Max = s
		}
		if s < stats.Min {
			stats.Min = s
		}
		sum += s
	}
	mean := sum / time.Duration(len(samples))
	stats.Mean = mean

	var variance float64
	for _, s := range samples {
		d := float64(s - mean)
		variance += d * d
	}
	variance /= float64(len(samples))
	stats.StdDev = time.Duration(math.Sqrt(variance))
	return stats
}

// Summary is the result of a full batch sweep.
type Summary struct {
	PerRule    map[string]Stats
	Total      Stats
	ClientRules map[string][]string // client identifier -> rule names that flagged it
}

// Runner executes each configured rule (a .linn source file in RulesDir)
// across a day/hour grid against a warehouse connection, writing
// per-(rule, day) result files
// alongside the aggregated stats it returns.
type Runner struct {
	Warehouse   *warehouse.Warehouse
	RulesDir    string
	ResultsDir  string
	WithGroupBy bool
	QueryTimeout time.Duration
}

// Run sweeps every rule named in cfg.Dgas across cfg.Days x cfg.Hours.
func (r *Runner) Run(ctx context.Context, cfg config.BatchConfig) (*Summary, error) {
	if r.QueryTimeout == 0 {
		r.QueryTimeout = 30 * time.Second
	}
	if err := os.MkdirAll(r.ResultsDir, 0o755); err != nil {
		return nil, fmt.Errorf("batch: create results dir: %w", err)
	}

	summary := &Summary{
		PerRule:     map[string]Stats{},
		ClientRules: map[string][]string{},
	}
	var totalTimes []time.Duration

	for _, rule := range cfg.Dgas {
		ruleName := titleCase(rule)
		path := filepath.Join(r.RulesDir, rule+".linn")
		source, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("batch: read rule %s: %w", rule, err)
		}
		slog.Info("running rule", "rule", ruleName, "file", path)

		var ruleTimes []time.Duration
		for _, day := range cfg.Days {
			resultSet := map[string]bool{}

			for _, hour := range cfg.Hours {
				ts, err := time.Parse(timestampLayout, day+" "+hour)
				if err != nil {
					return nil, fmt.Errorf("batch: parse timestamp %q %q: %w", day, hour, err)
				}

				sql, err := compiler.Compile(string(source), compiler.Options{
					Timestamp:   ts,
					WithGroupBy: r.WithGroupBy,
				})
				if err != nil {
					return nil, fmt.Errorf("batch: compile rule %s: %w", rule, err)
				}

				start := time.Now()
				rows, err := r.Warehouse.Run(ctx, sql, r.QueryTimeout)
				elapsed := time.Since(start)
				if err != nil {
					return nil, fmt.Errorf("batch: run rule %s at %s %s: %w", rule, day, hour, err)
				}

				for _, row := range rows {
					if len(row.Values) == 0 {
						continue
					}
					resultSet[fmt.Sprintf("%v", row.Values[0])] = true
				}

				ruleTimes = append(ruleTimes, elapsed)
				totalTimes = append(totalTimes, elapsed)
			}

			if err := writeResultFile(r.ResultsDir, ruleName, day, resultSet); err != nil {
				return nil, err
			}
			for client := range resultSet {
				summary.ClientRules[client] = append(summary.ClientRules[client], ruleName)
			}
		}

		summary.PerRule[ruleName] = computeStats(ruleTimes)
	}

	summary.Total = computeStats(totalTimes)
	return summary, nil
}

func writeResultFile(resultsDir, ruleName, day string, resultSet map[string]bool) error {
	path := filepath.Join(resultsDir, fmt.Sprintf("%s-%s.txt", ruleName, day))

	var sb strings.Builder
	fmt.Fprintf(&sb, "-------- Aggregated: n = %d --------\n", len(resultSet))
	for c := range util.CanonicalMapIter(resultSet) {
		sb.WriteString(c)
		sb.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

// titleCase upper-cases the first letter of each run of letters and
// lower-cases the rest.
func titleCase(s string) string {
	var sb strings.Builder
	prevLetter := false
	for _, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		switch {
		case isLetter && !prevLetter:
			sb.WriteRune(toUpper(r))
		case isLetter:
			sb.WriteRune(toLower(r))
		default:
			sb.WriteRune(r)
		}
		prevLetter = isLetter
	}
	return sb.String()
}

func toUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
