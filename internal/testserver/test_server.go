// Package testserver runs the full billing stack behind an httptest server
// for end-to-end tests over streamable HTTP.
package testserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/probill/internal/app"
	"github.com/rpggio/probill/internal/config"
	"github.com/rpggio/probill/internal/domain/access"
	"github.com/rpggio/probill/internal/sqlite"
)

type TestServer struct {
	Server *httptest.Server
	App    *app.App
	// Token authenticates Owner.
	Token string
	Owner access.Actor
}

// New starts a server with API-key auth over an in-memory database. owner
// owns a freshly created business.
func New(t *testing.T, owner access.Actor) *TestServer {
	t.Helper()

	cfg := config.Default()
	cfg.DB.Path = ":memory:"
	cfg.Transport.Mode = "http"
	cfg.Auth.Enabled = true
	cfg.Recurring.Enabled = false

	a, err := app.New(cfg, nil)
	require.NoError(t, err)

	server := httptest.NewServer(a.NewHTTPHandler(a.NewMCPServer(nil, "test"), nil))
	t.Cleanup(func() {
		server.Close()
		_ = a.Close()
	})

	ts := &TestServer{Server: server, App: a, Owner: owner}
	ts.Token = ts.AddActor(t, owner, sqlite.RoleOwner)
	return ts
}

// AddActor makes actor a member of its business, creating the business if
// needed, and returns an API token for it.
func (ts *TestServer) AddActor(t *testing.T, actor access.Actor, role sqlite.Role) string {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, ts.App.Members.EnsureBusiness(ctx, actor.BusinessID, actor.BusinessID, actor.ID))
	require.NoError(t, ts.App.Members.SetMember(ctx, actor.BusinessID, actor.ID, role))
	token, err := ts.App.APIKeys.Create(ctx, actor.BusinessID, actor.ID, "test")
	require.NoError(t, err)
	return token
}

// Connect opens an MCP client session that sends token as a bearer token.
func (ts *TestServer) Connect(t *testing.T, token string) *sdkmcp.ClientSession {
	t.Helper()

	transport := &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: &http.Client{Transport: bearerTransport{token: token, next: http.DefaultTransport}},
	}
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "probill-test", Version: "0.0.1"}, nil)
	cs, err := client.Connect(context.Background(), transport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

// Call invokes a tool and returns its text content and whether it is a tool error.
func Call(t *testing.T, cs *sdkmcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

// CallInto invokes a tool that must succeed and decodes its JSON result.
func CallInto(t *testing.T, cs *sdkmcp.ClientSession, name string, args map[string]any, out any) {
	t.Helper()
	text, isErr := Call(t, cs, name, args)
	require.False(t, isErr, "%s: %s", name, text)
	require.NoError(t, json.Unmarshal([]byte(text), out))
}

// CallError invokes a tool that must fail and returns the error code.
func CallError(t *testing.T, cs *sdkmcp.ClientSession, name string, args map[string]any) string {
	t.Helper()
	text, isErr := Call(t, cs, name, args)
	require.True(t, isErr, "%s unexpectedly succeeded: %s", name, text)
	var apiErr struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &apiErr))
	return apiErr.Code
}

type bearerTransport struct {
	token string
	next  http.RoundTripper
}

func (b bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+b.token)
	return b.next.RoundTrip(req)
}
