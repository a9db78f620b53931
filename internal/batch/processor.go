package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alucardeht/wayleave/internal/agreement"
	"github.com/alucardeht/wayleave/internal/ingest"
	"github.com/alucardeht/wayleave/internal/letter"
	"github.com/alucardeht/wayleave/internal/logger"
	"github.com/alucardeht/wayleave/internal/registry"
)

var log = logger.ForComponent("batch")

type Options struct {
	Outbox      string
	MaxFileSize int64
	Include     []string
	Ignore      []string
	Workers     int
	Validator   agreement.Validator
	Now         func() time.Time
}

func DefaultOptions() Options {
	return Options{
		MaxFileSize: 5 * 1024 * 1024,
		Include:     []string{"**/*.txt"},
		Ignore:      []string{"**/.processed/**"},
		Workers:     2,
		Now:         time.Now,
	}
}

type Outcome struct {
	Path       string           `json:"path"`
	Status     registry.Status  `json:"status"`
	Kind       agreement.Kind   `json:"kind,omitempty"`
	LetterPath string           `json:"letter_path,omitempty"`
	Reason     string           `json:"reason,omitempty"`
	Problems   []letter.Problem `json:"problems,omitempty"`
}

type Processor struct {
	store *registry.Store
	opts  Options

	// serialises choosing an output name and writing to it
	writeMu sync.Mutex
}

func NewProcessor(store *registry.Store, opts Options) *Processor {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Processor{store: store, opts: opts}
}

func (p *Processor) Store() *registry.Store {
	return p.store
}

// Process turns one agreement file into a letter in the outbox. Documents
// that fail extraction or validation are recorded as failed and reported in
// the outcome; only I/O and registry problems are returned as errors.
func (p *Processor) Process(ctx context.Context, path string) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	out := Outcome{Path: path}

	doc, err := ingest.ReadFile(path, p.opts.MaxFileSize)
	if errors.Is(err, ingest.ErrTooLarge) {
		out.Status = registry.StatusSkipped
		out.Reason = "file too large"
		log.Debug("skipped file", "path", path, "reason", out.Reason)
		return out, p.record(&registry.Document{Path: path, ContentHash: "-", Status: out.Status, ErrorMessage: out.Reason})
	}
	if err != nil {
		return out, fmt.Errorf("read agreement: %w", err)
	}

	existing, err := p.store.GetDocument(path)
	if err != nil {
		return out, err
	}
	if existing != nil && existing.Status == registry.StatusGenerated && existing.ContentHash == doc.Hash {
		out.Status = registry.StatusSkipped
		out.Reason = "unchanged"
		out.Kind = agreement.Kind(existing.Kind)
		out.LetterPath = existing.LetterPath
		log.Debug("skipped file", "path", path, "reason", out.Reason)
		return out, nil
	}

	out.Kind = agreement.Classify(doc.Text)
	entry := &registry.Document{
		Path:        path,
		ContentHash: doc.Hash,
		Encoding:    doc.Encoding.Encoding,
		Kind:        string(out.Kind),
	}

	pipeline := letter.Pipeline{Validator: p.opts.Validator}
	fields, err := pipeline.Prepare(doc.Text)
	if err != nil {
		out.Status = registry.StatusFailed
		out.Problems = letter.Problems(err)
		entry.Status = out.Status
		entry.ErrorMessage = err.Error()
		log.Warn("no letter generated", "path", path, "error", err)
		return out, p.record(entry)
	}

	letterPath, err := p.writeLetter(fields, existing)
	if err != nil {
		return out, err
	}

	out.Status = registry.StatusGenerated
	out.LetterPath = letterPath
	entry.Status = out.Status
	entry.LetterPath = letterPath
	log.Info("letter generated", "path", path, "letter", letterPath, "kind", out.Kind)

	return out, p.record(entry)
}

// Forget drops a removed agreement from the registry. Its letter stays.
func (p *Processor) Forget(path string) error {
	return p.store.DeleteDocument(path)
}

func (p *Processor) record(doc *registry.Document) error {
	doc.ProcessedAt = p.opts.Now()
	if _, err := p.store.UpsertDocument(doc); err != nil {
		return fmt.Errorf("record %s: %w", doc.Path, err)
	}
	return nil
}

func (p *Processor) writeLetter(fields agreement.AgreementFields, existing *registry.Document) (string, error) {
	text := letter.Render(fields, p.opts.Now())

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if err := os.MkdirAll(p.opts.Outbox, 0755); err != nil {
		return "", fmt.Errorf("create outbox: %w", err)
	}

	path := p.letterPath(letter.SuggestFilename(fields), existing)

	tmp, err := os.CreateTemp(p.opts.Outbox, ".letter-*")
	if err != nil {
		return "", fmt.Errorf("create letter: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write letter: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write letter: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("write letter: %w", err)
	}

	return path, nil
}

// letterPath reuses the document's previous letter when the name still fits
// and otherwise picks a name no other letter has taken.
func (p *Processor) letterPath(name string, existing *registry.Document) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for i := 1; ; i++ {
		candidate := filepath.Join(p.opts.Outbox, name)
		if i > 1 {
			candidate = filepath.Join(p.opts.Outbox, fmt.Sprintf("%s (%d)%s", base, i, ext))
		}
		if existing != nil && existing.LetterPath == candidate {
			return candidate
		}
		if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
	}
}
