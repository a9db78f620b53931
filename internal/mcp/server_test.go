package mcp

import (
	"bufio"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alucardeht/wayleave/internal/tools"
	"github.com/alucardeht/wayleave/internal/tools/letters"
	"github.com/alucardeht/wayleave/pkg/protocol"
	"github.com/alucardeht/wayleave/pkg/version"
)

type panicTool struct{}

func (panicTool) Name() string            { return "explode" }
func (panicTool) Description() string     { return "always panics" }
func (panicTool) Schema() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (panicTool) Execute(json.RawMessage) (interface{}, error) {
	panic("boom")
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	registry := tools.NewRegistry()
	require.NoError(t, registry.Register(tools.NewHealthTool(registry)))
	for _, tool := range letters.GetTools(letters.Env{MaxFileSize: 1 << 20}) {
		require.NoError(t, registry.Register(tool))
	}
	require.NoError(t, registry.Register(panicTool{}))
	return NewServer(registry)
}

func roundTrip(t *testing.T, s *Server, lines ...string) []protocol.JSONRPCResponse {
	t.Helper()

	var out strings.Builder
	require.NoError(t, s.ProcessStream(strings.NewReader(strings.Join(lines, "\n")+"\n"), &out))

	var responses []protocol.JSONRPCResponse
	scanner := bufio.NewScanner(strings.NewReader(out.String()))
	for scanner.Scan() {
		var resp protocol.JSONRPCResponse
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
		responses = append(responses, resp)
	}
	return responses
}

func TestInitializeAndNotification(t *testing.T) {
	s := newTestServer(t)

	responses := roundTrip(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"test","version":"1"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
	)

	require.Len(t, responses, 2)
	result := responses[0].Result.(map[string]interface{})
	assert.Equal(t, "2024-11-05", result["protocolVersion"])
	assert.Equal(t, ServerName, result["serverInfo"].(map[string]interface{})["name"])
	assert.Equal(t, version.Version, result["serverInfo"].(map[string]interface{})["version"])
	assert.Equal(t, float64(2), responses[1].ID)
	assert.True(t, s.Handler().Initialized())
}

func TestUnknownProtocolVersionFallsBack(t *testing.T) {
	s := newTestServer(t)

	responses := roundTrip(t, s, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"1999-01-01"}}`)
	require.Len(t, responses, 1)
	assert.Equal(t, version.ProtocolVersion, responses[0].Result.(map[string]interface{})["protocolVersion"])
}

func TestToolsList(t *testing.T) {
	s := newTestServer(t)

	responses := roundTrip(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	require.Len(t, responses, 1)

	list := responses[0].Result.(map[string]interface{})["tools"].([]interface{})
	var names []string
	for _, item := range list {
		names = append(names, item.(map[string]interface{})["name"].(string))
	}
	assert.Equal(t, []string{"explode", "health", "letter_extract", "letter_generate"}, names)

	generate := list[3].(map[string]interface{})
	assert.Equal(t, "Generate Letter", generate["title"])
	assert.NotNil(t, generate["inputSchema"])
}

func TestToolsCall(t *testing.T) {
	s := newTestServer(t)

	responses := roundTrip(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"letter_extract","arguments":{"text":"Landowner: Mr John Smith\nProperty Address: 1 Main Road, Town, Kent ME5 8UD\nCompany: SSE\nPayment: 10 per annum\n"}}}`,
	)
	require.Len(t, responses, 1)
	require.Nil(t, responses[0].Error)

	content := responses[0].Result.(map[string]interface{})["content"].([]interface{})
	text := content[0].(map[string]interface{})["text"].(string)

	var extracted letters.ExtractResponse
	require.NoError(t, json.Unmarshal([]byte(text), &extracted))
	require.True(t, extracted.OK)
	assert.Equal(t, []string{"1 Main Road", "Town", "Kent ME5 8UD"}, extracted.Fields.PropertyAddress)
}

func TestErrorCodes(t *testing.T) {
	s := newTestServer(t)

	responses := roundTrip(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"nope"}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"letter_generate","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"explode"}}`,
		`not json`,
	)
	require.Len(t, responses, 5)

	codes := make([]int, len(responses))
	for i, resp := range responses {
		require.NotNil(t, resp.Error, "response %d", i)
		codes[i] = resp.Error.Code
	}
	assert.Equal(t, []int{
		protocol.CodeMethodNotFound,
		protocol.CodeMethodNotFound,
		protocol.CodeInvalidParams,
		protocol.CodeInternalError,
		protocol.CodeParseError,
	}, codes)
}
