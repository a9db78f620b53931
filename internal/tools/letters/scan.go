package letters

import (
	"context"
	"encoding/json"

	"github.com/alucardeht/wayleave/internal/batch"
	"github.com/alucardeht/wayleave/internal/tools"
)

type ScanRequest struct {
	Root string `json:"root"`
}

type ScanTool struct {
	processor *batch.Processor
}

func (t *ScanTool) Name() string {
	return "letter_scan"
}

func (t *ScanTool) Description() string {
	return "Generate letters for every new or changed agreement under a folder and record the outcome of each"
}

func (t *ScanTool) Title() string {
	return "Scan Agreements"
}

func (t *ScanTool) Annotations() map[string]bool {
	return tools.SafeWriteAnnotations()
}

func (t *ScanTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"root": {
				"type": "string",
				"description": "Folder to scan (absolute path recommended)"
			}
		},
		"required": ["root"]
	}`)
}

func (t *ScanTool) Execute(input json.RawMessage) (interface{}, error) {
	var req ScanRequest
	if err := decode(input, &req); err != nil {
		return nil, err
	}
	if req.Root == "" {
		return nil, tools.NewInvalidParamsError("root is required")
	}

	return t.processor.Scan(context.Background(), req.Root)
}
