package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/alucardeht/wayleave/internal/registry"
)

type ScanReport struct {
	RunID     string        `json:"run_id"`
	Root      string        `json:"root"`
	Processed int           `json:"processed"`
	Generated int           `json:"generated"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Errors    []string      `json:"errors,omitempty"`
	Outcomes  []Outcome     `json:"outcomes"`
	Duration  time.Duration `json:"duration"`
}

// Scan processes every agreement under root that matches the include
// patterns and none of the ignore patterns, as one registry run.
func (p *Processor) Scan(ctx context.Context, root string) (*ScanReport, error) {
	started := time.Now()

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	paths, err := p.Match(root)
	if err != nil {
		return nil, err
	}

	run, err := p.store.StartRun(root)
	if err != nil {
		return nil, err
	}
	log.Info("scan started", "root", root, "files", len(paths), "run", run.ID)

	report := &ScanReport{
		RunID:    run.ID,
		Root:     root,
		Outcomes: make([]Outcome, len(paths)),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			out, err := p.Process(gctx, path)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				out = Outcome{Path: path, Status: registry.StatusFailed, Reason: err.Error()}
				mu.Lock()
				report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", path, err))
				mu.Unlock()
				log.Error("process failed", "path", path, "error", err)
			}
			report.Outcomes[i] = out
			return nil
		})
	}
	waitErr := g.Wait()

	for _, out := range report.Outcomes {
		switch out.Status {
		case registry.StatusGenerated:
			report.Generated++
		case registry.StatusFailed:
			report.Failed++
		case registry.StatusSkipped:
			report.Skipped++
		default:
			continue
		}
		report.Processed++
	}
	sort.Strings(report.Errors)
	report.Duration = time.Since(started)

	run.Processed = report.Generated
	run.Failed = report.Failed
	run.Skipped = report.Skipped
	if err := p.store.FinishRun(run); err != nil {
		return report, err
	}

	log.Info("scan finished", "root", root, "generated", report.Generated,
		"failed", report.Failed, "skipped", report.Skipped, "duration", report.Duration)

	if waitErr != nil {
		return report, waitErr
	}
	return report, nil
}

// Match lists the agreement files under root in lexical order. Paths inside
// the outbox are never matched.
func (p *Processor) Match(root string) ([]string, error) {
	fsys := os.DirFS(root)

	outboxRel := ""
	if p.opts.Outbox != "" {
		if abs, err := filepath.Abs(p.opts.Outbox); err == nil {
			if rel, err := filepath.Rel(root, abs); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
				outboxRel = filepath.ToSlash(rel)
			}
		}
	}

	seen := make(map[string]bool)
	var paths []string

	for _, pattern := range p.opts.Include {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("include pattern %q: %w", pattern, err)
		}
		for _, rel := range matches {
			if seen[rel] || p.ignored(rel) {
				continue
			}
			if outboxRel != "" && (rel == outboxRel || strings.HasPrefix(rel, outboxRel+"/")) {
				continue
			}
			seen[rel] = true
			paths = append(paths, filepath.Join(root, filepath.FromSlash(rel)))
		}
	}

	sort.Strings(paths)
	return paths, nil
}

func (p *Processor) ignored(rel string) bool {
	for _, pattern := range p.opts.Ignore {
		if match, _ := doublestar.Match(pattern, rel); match {
			return true
		}
	}
	return false
}

// Accepts reports whether path under root is a file Scan would pick.
func (p *Processor) Accepts(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)
	if p.ignored(rel) {
		return false
	}
	for _, pattern := range p.opts.Include {
		if match, _ := doublestar.Match(pattern, rel); match {
			return true
		}
	}
	return false
}
