// Package letters exposes the letter pipeline, folder scans and the
// processing registry as tools.
package letters

import (
	"encoding/json"
	"time"

	"github.com/alucardeht/wayleave/internal/agreement"
	"github.com/alucardeht/wayleave/internal/batch"
	"github.com/alucardeht/wayleave/internal/ingest"
	"github.com/alucardeht/wayleave/internal/registry"
	"github.com/alucardeht/wayleave/internal/tools"
)

const dateLayout = "2006-01-02"

type Env struct {
	Validator   agreement.Validator
	MaxFileSize int64
	// Processor enables letter_scan when set.
	Processor *batch.Processor
	// Store enables registry_status when set.
	Store *registry.Store
	Now   func() time.Time
}

func (e Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func GetTools(env Env) []tools.Tool {
	list := []tools.Tool{
		&GenerateTool{env: env},
		&ExtractTool{env: env},
	}
	if env.Processor != nil {
		list = append(list, &ScanTool{processor: env.Processor})
	}
	if env.Store != nil {
		list = append(list, &StatusTool{store: env.Store})
	}
	return list
}

// Source is an agreement given inline or by path. Exactly one must be set.
type Source struct {
	Text string `json:"text,omitempty"`
	Path string `json:"path,omitempty"`
}

type loaded struct {
	text     string
	encoding string
}

func (s Source) load(maxSize int64) (loaded, error) {
	switch {
	case s.Text != "" && s.Path != "":
		return loaded{}, tools.NewInvalidParamsError("text and path are mutually exclusive")
	case s.Text != "":
		return loaded{text: ingest.NormalizeText(s.Text), encoding: "utf-8"}, nil
	case s.Path != "":
		doc, err := ingest.ReadFile(s.Path, maxSize)
		if err != nil {
			return loaded{}, err
		}
		return loaded{text: doc.Text, encoding: doc.Encoding.Encoding}, nil
	default:
		return loaded{}, tools.NewInvalidParamsError("text or path is required")
	}
}

func decode(input json.RawMessage, v any) error {
	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}
	if err := json.Unmarshal(input, v); err != nil {
		return tools.NewInvalidParamsError("invalid request: %v", err)
	}
	return nil
}
