package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Outcome pairs a scenario file with its run result. Err is set when the
// scenario could not be loaded or run at all.
type Outcome struct {
	Path     string
	Scenario *Scenario
	Result   *Result
	Err      error
}

// Pass reports whether the scenario ran and every check held.
func (o Outcome) Pass() bool {
	return o.Err == nil && o.Result != nil && o.Result.Pass
}

// FindScenarios returns the .yaml and .yml files under dir, sorted.
// When filter is non-empty only files whose base name contains it are kept.
func FindScenarios(dir, filter string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" && !strings.Contains(filepath.Base(path), filter) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan scenarios: %w", err)
	}
	slices.Sort(paths)
	return paths, nil
}

// RunAll loads and runs every scenario file with at most limit running at
// once (limit <= 0 means no bound). Outcomes keep the order of paths.
//
// Per-scenario failures are reported in the outcomes; the returned error
// is only the context's.
func RunAll(ctx context.Context, paths []string, limit int) ([]Outcome, error) {
	outcomes := make([]Outcome, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out := Outcome{Path: path}
			out.Scenario, out.Err = LoadScenario(path)
			if out.Err == nil {
				out.Result, out.Err = Run(gctx, out.Scenario)
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}
