package letters

import (
	"encoding/json"
	"errors"

	"github.com/alucardeht/wayleave/internal/agreement"
	"github.com/alucardeht/wayleave/internal/tools"
)

type ExtractResponse struct {
	OK     bool                       `json:"ok"`
	Fields *agreement.AgreementFields `json:"fields,omitempty"`
	Kind   agreement.Kind             `json:"kind"`
	Error  *agreement.ExtractionError `json:"error,omitempty"`
}

type ExtractTool struct {
	env Env
}

func (t *ExtractTool) Name() string {
	return "letter_extract"
}

func (t *ExtractTool) Description() string {
	return "Extract landowner, property address, company and payment wording from an agreement without validating or rendering"
}

func (t *ExtractTool) Title() string {
	return "Extract Agreement Fields"
}

func (t *ExtractTool) Annotations() map[string]bool {
	return tools.ReadOnlyAnnotations()
}

func (t *ExtractTool) Schema() json.RawMessage {
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
			}
		}
	}`)
}

func (t *ExtractTool) Execute(input json.RawMessage) (interface{}, error) {
	var req Source
	if err := decode(input, &req); err != nil {
		return nil, err
	}

	src, err := req.load(t.env.MaxFileSize)
	if err != nil {
		return nil, err
	}

	resp := ExtractResponse{Kind: agreement.Classify(src.text)}

	fields, err := agreement.Extract(src.text)
	if err != nil {
		if !errors.As(err, &resp.Error) {
			return nil, err
		}
		return resp, nil
	}

	resp.OK = true
	resp.Fields = &fields
	return resp, nil
}
