package letters

import (
	"encoding/json"
	"time"

	"github.com/alucardeht/wayleave/internal/agreement"
	"github.com/alucardeht/wayleave/internal/letter"
	"github.com/alucardeht/wayleave/internal/tools"
)

type GenerateRequest struct {
	Source
	Date      string   `json:"date,omitempty"`
	OwnerName string   `json:"owner_name,omitempty"`
	Address   []string `json:"address,omitempty"`
}

type GenerateResponse struct {
	OK       bool             `json:"ok"`
	Letter   string           `json:"letter,omitempty"`
	Filename string           `json:"filename,omitempty"`
	Kind     agreement.Kind   `json:"kind,omitempty"`
	Encoding string           `json:"encoding,omitempty"`
	Problems []letter.Problem `json:"problems,omitempty"`
}

type GenerateTool struct {
	env Env
}

func (t *GenerateTool) Name() string {
	return "letter_generate"
}

func (t *GenerateTool) Description() string {
	return "Generate the wayleave cover letter for an agreement. Returns the letter text and a filename, or every problem that prevented it"
}

func (t *GenerateTool) Title() string {
	return "Generate Letter"
}

func (t *GenerateTool) Annotations() map[string]bool {
	return tools.ReadOnlyAnnotations()
}

func (t *GenerateTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"text": {
				"type": "string",
				"description": "Agreement text (use this or path)"
			},
			"path": {
				"type": "string",
				"description": "Path to an agreement text file (use this or text)"
			},
			"date": {
				"type": "string",
				"description": "Letter date as YYYY-MM-DD (optional, default: today)"
			},
			"owner_name": {
				"type": "string",
				"description": "Landowner name to use instead of the extracted one (optional)"
			},
			"address": {
				"type": "array",
				"items": {"type": "string"},
				"description": "Property address lines to use instead of the extracted ones (optional)"
			}
		}
	}`)
}

func (t *GenerateTool) Execute(input json.RawMessage) (interface{}, error) {
	var req GenerateRequest
	if err := decode(input, &req); err != nil {
		return nil, err
	}

	today := t.env.now()
	if req.Date != "" {
		d, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			return nil, tools.NewInvalidParamsError("date must be YYYY-MM-DD: %v", err)
		}
		today = d
	}

	src, err := req.Source.load(t.env.MaxFileSize)
	if err != nil {
		return nil, err
	}

	pipeline := letter.Pipeline{
		Validator: t.env.Validator,
		Overrides: letter.Overrides{OwnerName: req.OwnerName, Address: req.Address},
	}

	resp := GenerateResponse{
		Kind:     agreement.Classify(src.text),
		Encoding: src.encoding,
	}

	fields, err := pipeline.Prepare(src.text)
	if err != nil {
		resp.Problems = letter.Problems(err)
		if resp.Problems == nil {
			return nil, err
		}
		return resp, nil
	}

	resp.OK = true
	resp.Letter = letter.Render(fields, today)
	resp.Filename = letter.SuggestFilename(fields)
	return resp, nil
}
