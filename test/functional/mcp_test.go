package functional_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mfeldt/stencil/internal/domain/template"
	"github.com/mfeldt/stencil/internal/testserver"
)

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      any             `json:"id,omitempty"`
}

type rpcError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func rpcCall(t *testing.T, ts *testserver.TestServer, sessionID, method string, params any) (rpcResponse, http.Header) {
	t.Helper()

	payload := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"id":      1,
	}
	if params != nil {
		payload["params"] = params
	}

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL, bytes.NewBuffer(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(bodyBytes))
	}

	var result rpcResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result, resp.Header
}

// initializeSession performs the MCP initialize handshake and returns the
// transport session id for subsequent calls.
func initializeSession(t *testing.T, ts *testserver.TestServer) string {
	t.Helper()

	resp, header := rpcCall(t, ts, "", "initialize", map[string]any{
		"protocolVersion": "2025-06-18",
		"capabilities":    map[string]any{},
		"clientInfo": map[string]any{
			"name":    "test-client",
			"version": "1.0.0",
		},
	})
	require.Nil(t, resp.Error, "Initialize failed: %v", resp.Error)

	sessionID := header.Get("Mcp-Session-Id")
	sendInitialized(t, ts, sessionID)
	return sessionID
}

func sendInitialized(t *testing.T, ts *testserver.TestServer, sessionID string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL,
		bytes.NewBufferString(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Less(t, resp.StatusCode, 300)
}

// callTool makes a tools/call RPC call and unwraps the result
func callTool(t *testing.T, ts *testserver.TestServer, sessionID, toolName string, args any) json.RawMessage {
	t.Helper()

	params := map[string]any{
		"name": toolName,
	}
	if args != nil {
		params["arguments"] = args
	}

	resp, _ := rpcCall(t, ts, sessionID, "tools/call", params)
	require.Nil(t, resp.Error, "RPC error: %v", resp.Error)

	var toolResult struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &toolResult))
	require.NotEmpty(t, toolResult.Content)
	require.False(t, toolResult.IsError, "Tool error: %s", toolResult.Content[0].Text)

	return json.RawMessage(toolResult.Content[0].Text)
}

// callToolExpectError makes a tools/call that should fail and returns the
// error text.
func callToolExpectError(t *testing.T, ts *testserver.TestServer, sessionID, toolName string, args any) string {
	t.Helper()

	params := map[string]any{"name": toolName}
	if args != nil {
		params["arguments"] = args
	}

	resp, _ := rpcCall(t, ts, sessionID, "tools/call", params)
	require.Nil(t, resp.Error, "RPC error: %v", resp.Error)

	var toolResult struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &toolResult))
	require.True(t, toolResult.IsError, "expected a tool error")
	require.NotEmpty(t, toolResult.Content)
	return toolResult.Content[0].Text
}

func launchSummary() template.Summary {
	return template.Summary{
		ID:             "launch",
		Name:           "Launch Checklist",
		CurrentVersion: "v2",
		Versions: []template.VersionDescriptor{
			{Version: "v1", File: "launch.v1.json"},
			{Version: "v2", File: "launch.v2.json", Changelog: "Added a QA section"},
		},
	}
}

func launchDoc(version string) template.Document {
	doc := template.Document{
		ID:      "launch",
		Name:    "Launch Checklist",
		Version: version,
		Sections: []template.Section{
			{ID: "infra", Title: "Infrastructure", Items: []template.Item{
				{ID: "infra-1", Text: "Provision servers"},
				{ID: "infra-2", Text: "Configure DNS"},
			}},
		},
	}
	if version == "v2" {
		doc.Sections = append(doc.Sections, template.Section{
			ID: "qa", Title: "QA", Items: []template.Item{
				{ID: "qa-1", Text: "Run smoke tests"},
			},
		})
	}
	return doc
}

func newLaunchServer(t *testing.T) *testserver.TestServer {
	t.Helper()
	ts := testserver.New(t, launchSummary())
	ts.AddVersionDocument(t, "launch.v1.json", launchDoc("v1"))
	ts.AddVersionDocument(t, "launch.v2.json", launchDoc("v2"))
	return ts
}

func TestFunctional_TemplateCatalog(t *testing.T) {
	ts := newLaunchServer(t)
	session := initializeSession(t, ts)

	listResp := callTool(t, ts, session, "list_templates", nil)
	var list struct {
		Templates []struct {
			ID             string   `json:"id"`
			CurrentVersion string   `json:"current_version"`
			LatestVersion  string   `json:"latest_version"`
			Versions       []string `json:"versions"`
		} `json:"templates"`
	}
	require.NoError(t, json.Unmarshal(listResp, &list))
	require.Len(t, list.Templates, 1)
	require.Equal(t, "launch", list.Templates[0].ID)
	require.Equal(t, "v2", list.Templates[0].LatestVersion)
	require.Equal(t, []string{"v1", "v2"}, list.Templates[0].Versions)

	getResp := callTool(t, ts, session, "get_template", map[string]any{"template_id": "launch"})
	require.Contains(t, string(getResp), "Added a QA section")

	errText := callToolExpectError(t, ts, session, "get_template", map[string]any{"template_id": "nope"})
	require.Contains(t, errText, "TEMPLATE_NOT_FOUND")
}

func TestFunctional_ProjectLifecycle(t *testing.T) {
	ts := newLaunchServer(t)
	session := initializeSession(t, ts)

	// Pin the project to v1 so an upgrade is available later.
	createResp := callTool(t, ts, session, "create_project", map[string]any{
		"template_id": "launch",
		"version":     "v1",
	})
	var created struct {
		Project struct {
			ID    string `json:"id"`
			Items []struct {
				ID        string `json:"id"`
				SectionID string `json:"sectionId"`
				Status    string `json:"status"`
			} `json:"items"`
		} `json:"project"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(createResp, &created))
	require.Equal(t, "active", created.Status)
	require.Len(t, created.Project.Items, 2)
	require.Equal(t, "pending", created.Project.Items[0].Status)

	projectID := created.Project.ID

	callTool(t, ts, session, "update_item", map[string]any{
		"project_id": projectID,
		"item_id":    "infra-1",
		"status":     "done",
		"notes":      "done on first try",
	})

	getResp := callTool(t, ts, session, "get_project", map[string]any{"project_id": projectID})
	var got struct {
		Status   string `json:"status"`
		Progress struct {
			Total int `json:"total"`
			Done  int `json:"done"`
		} `json:"progress"`
		Gamification struct {
			XP      int `json:"xp"`
			Level   int `json:"level"`
			Percent int `json:"percent"`
		} `json:"gamification"`
		NewerVersion bool `json:"newer_version_available"`
	}
	require.NoError(t, json.Unmarshal(getResp, &got))
	require.Equal(t, 2, got.Progress.Total)
	require.Equal(t, 1, got.Progress.Done)
	require.Equal(t, 10, got.Gamification.XP)
	require.Equal(t, 50, got.Gamification.Percent)
	require.True(t, got.NewerVersion)

	statusResp := callTool(t, ts, session, "project_status", map[string]any{"project_id": projectID})
	var status struct {
		Status       string `json:"status"`
		Percent      int    `json:"percent"`
		NewerVersion bool   `json:"newer_version_available"`
	}
	require.NoError(t, json.Unmarshal(statusResp, &status))
	require.Equal(t, "active", status.Status)
	require.Equal(t, 50, status.Percent)
	require.True(t, status.NewerVersion)

	upgradeResp := callTool(t, ts, session, "upgrade_project", map[string]any{"project_id": projectID})
	var upgraded struct {
		Project struct {
			ID              string `json:"id"`
			TemplateVersion string `json:"template_version"`
			UpgradedFrom    string `json:"upgraded_from"`
		} `json:"project"`
		OldID      string `json:"old_id"`
		NewVersion string `json:"new_version"`
	}
	require.NoError(t, json.Unmarshal(upgradeResp, &upgraded))
	require.Equal(t, projectID, upgraded.OldID)
	require.Equal(t, "v2", upgraded.NewVersion)
	require.Equal(t, projectID, upgraded.Project.UpgradedFrom)

	// The old project is now superseded; upgrading the successor again
	// reports it is already current.
	oldResp := callTool(t, ts, session, "get_project", map[string]any{"project_id": projectID})
	require.Contains(t, string(oldResp), `"superseded"`)

	errText := callToolExpectError(t, ts, session, "upgrade_project", map[string]any{"project_id": upgraded.Project.ID})
	require.Contains(t, errText, "ALREADY_CURRENT")

	activityResp := callTool(t, ts, session, "recent_activity", nil)
	require.Contains(t, string(activityResp), "project_upgraded")
	require.Contains(t, string(activityResp), "project_superseded")
}

func TestFunctional_SectionApplicability(t *testing.T) {
	ts := newLaunchServer(t)
	session := initializeSession(t, ts)

	createResp := callTool(t, ts, session, "create_project", map[string]any{"template_id": "launch"})
	var created struct {
		Project struct {
			ID string `json:"id"`
		} `json:"project"`
	}
	require.NoError(t, json.Unmarshal(createResp, &created))

	callTool(t, ts, session, "set_section_na", map[string]any{
		"project_id": created.Project.ID,
		"section_id": "qa",
		"na":         true,
	})

	getResp := callTool(t, ts, session, "get_project", map[string]any{"project_id": created.Project.ID})
	var got struct {
		Progress struct {
			Total int `json:"total"`
		} `json:"progress"`
		Sections []struct {
			ID string `json:"id"`
			NA bool   `json:"na"`
		} `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(getResp, &got))
	require.Equal(t, 2, got.Progress.Total)
	require.Len(t, got.Sections, 2)
	require.True(t, got.Sections[1].NA)
}

func TestFunctional_ExportImportRoundTrip(t *testing.T) {
	ts := newLaunchServer(t)
	session := initializeSession(t, ts)

	createResp := callTool(t, ts, session, "create_project", map[string]any{"template_id": "launch"})
	var created struct {
		Project struct {
			ID string `json:"id"`
		} `json:"project"`
	}
	require.NoError(t, json.Unmarshal(createResp, &created))

	exportResp := callTool(t, ts, session, "export_data", nil)
	var exported struct {
		Snapshot json.RawMessage `json:"snapshot"`
	}
	require.NoError(t, json.Unmarshal(exportResp, &exported))

	// Re-import the snapshot verbatim; the project collection survives.
	callTool(t, ts, session, "import_data", map[string]any{"data": string(exported.Snapshot)})

	listResp := callTool(t, ts, session, "list_projects", nil)
	require.Contains(t, string(listResp), created.Project.ID)

	errText := callToolExpectError(t, ts, session, "import_data", map[string]any{"data": `{"projects": "nope"}`})
	require.Contains(t, errText, "INVALID_IMPORT")
}

func TestFunctional_DraftTemplateRevision(t *testing.T) {
	ts := newLaunchServer(t)
	session := initializeSession(t, ts)

	resp := callTool(t, ts, session, "draft_template_revision", map[string]any{"template_id": "launch"})
	var draft struct {
		Revision struct {
			Document struct {
				Version string `json:"version"`
			} `json:"document"`
			Descriptor struct {
				Version string `json:"version"`
				File    string `json:"file"`
			} `json:"descriptor"`
		} `json:"revision"`
	}
	require.NoError(t, json.Unmarshal(resp, &draft))
	require.Equal(t, "v3", draft.Revision.Document.Version)
	require.Equal(t, "v3", draft.Revision.Descriptor.Version)
	require.Equal(t, "launch.v3.json", draft.Revision.Descriptor.File)
}
