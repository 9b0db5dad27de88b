package testserver_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/probill/internal/domain/access"
	"github.com/rpggio/probill/internal/domain/invoice"
	"github.com/rpggio/probill/internal/domain/project"
	"github.com/rpggio/probill/internal/domain/quote"
	"github.com/rpggio/probill/internal/domain/reference"
	"github.com/rpggio/probill/internal/mcp"
	"github.com/rpggio/probill/internal/sqlite"
	"github.com/rpggio/probill/internal/testserver"
)

var owner = access.Actor{ID: "alice", BusinessID: "b1"}

func TestHTTP_RejectsMissingToken(t *testing.T) {
	ts := testserver.New(t, owner)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/mcp", strings.NewReader(`{}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Contains(t, resp.Header.Get("WWW-Authenticate"), "Bearer")
}

func TestHTTP_RejectsUnknownToken(t *testing.T) {
	ts := testserver.New(t, owner)
	cs := ts.Connect(t, "pb_not-a-real-key")

	_, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: "project_list", Arguments: map[string]any{}})
	require.ErrorContains(t, err, "unauthorized")
}

func TestHTTP_BillingWorkflow(t *testing.T) {
	ts := testserver.New(t, owner)
	cs := ts.Connect(t, ts.Token)

	var proj project.Project
	testserver.CallInto(t, cs, "project_create", map[string]any{"name": "Website redesign", "deposit_percent": "30"}, &proj)
	require.NotEmpty(t, proj.ID)

	var svc project.ProjectService
	testserver.CallInto(t, cs, "project_service_add", map[string]any{
		"project_id": proj.ID, "label": "Design", "quantity": 2, "unit_price": "500",
	}, &svc)
	require.NotNil(t, svc.UnitPriceCents)
	require.EqualValues(t, 50000, *svc.UnitPriceCents)

	var q quote.Quote
	testserver.CallInto(t, cs, "quote_create", map[string]any{"project_id": proj.ID}, &q)
	require.Equal(t, quote.StatusDraft, q.Status)
	require.Len(t, q.Lines, 1)
	require.Nil(t, q.Number)

	testserver.CallInto(t, cs, "quote_transition", map[string]any{"id": q.ID, "to": "SENT"}, &q)
	require.NotNil(t, q.Number)
	require.Regexp(t, `^DEV-\d{4}-0001$`, *q.Number)

	testserver.CallInto(t, cs, "quote_transition", map[string]any{"id": q.ID, "to": "SIGNED"}, &q)
	require.Equal(t, quote.StatusSigned, q.Status)

	var sum reference.Summary
	testserver.CallInto(t, cs, "reference_set", map[string]any{"project_id": proj.ID, "quote_id": q.ID}, &sum)
	require.NotNil(t, sum.ReferenceQuoteID)
	require.Equal(t, q.ID, *sum.ReferenceQuoteID)

	testserver.CallInto(t, cs, "billing_summary", map[string]any{"project_id": proj.ID}, &sum)
	require.EqualValues(t, 100000, sum.TotalCents)
	require.EqualValues(t, 0, sum.AmountAlreadyInvoicedCents)
	require.EqualValues(t, 100000, sum.RemainingToInvoiceCents)

	var deposit invoice.Invoice
	testserver.CallInto(t, cs, "staged_create", map[string]any{"project_id": proj.ID, "mode": "PERCENT", "value": "30"}, &deposit)
	require.Equal(t, invoice.StatusDraft, deposit.Status)
	require.Len(t, deposit.Lines, 1)
	require.EqualValues(t, 30000, deposit.Lines[0].UnitPriceCents)

	code := testserver.CallError(t, cs, "staged_create", map[string]any{"project_id": proj.ID, "mode": "AMOUNT", "value": "800"})
	require.Equal(t, mcp.CodeExceedsRemaining, code)

	var final invoice.Invoice
	testserver.CallInto(t, cs, "staged_create", map[string]any{"project_id": proj.ID, "mode": "FINAL"}, &final)
	require.EqualValues(t, 70000, final.Lines[0].UnitPriceCents)

	testserver.CallInto(t, cs, "billing_summary", map[string]any{"project_id": proj.ID}, &sum)
	require.EqualValues(t, 100000, sum.AmountAlreadyInvoicedCents)
	require.EqualValues(t, 0, sum.RemainingToInvoiceCents)

	code = testserver.CallError(t, cs, "staged_preview", map[string]any{"project_id": proj.ID, "mode": "FINAL"})
	require.Equal(t, mcp.CodeNothingToInvoice, code)

	testserver.CallInto(t, cs, "invoice_transition", map[string]any{"id": deposit.ID, "to": "SENT"}, &deposit)
	require.NotNil(t, deposit.Number)
	require.Regexp(t, `^FAC-\d{4}-0001$`, *deposit.Number)
	testserver.CallInto(t, cs, "invoice_transition", map[string]any{"id": deposit.ID, "to": "PAID"}, &deposit)
	require.Equal(t, invoice.StatusPaid, deposit.Status)
	require.NotNil(t, deposit.PaidAt)

	// paid invoices are frozen
	code = testserver.CallError(t, cs, "invoice_edit", map[string]any{"id": deposit.ID, "note": "late"})
	require.Equal(t, mcp.CodeConflict, code)

	var recent mcp.GetRecentActivityResponse
	testserver.CallInto(t, cs, "activity_recent", map[string]any{"project_id": proj.ID, "limit": 50}, &recent)
	require.NotEmpty(t, recent.Activity)
	for _, e := range recent.Activity {
		require.Equal(t, owner.BusinessID, e.BusinessID)
		require.Equal(t, owner.ID, e.ActorID)
	}
}

func TestHTTP_BusinessIsolation(t *testing.T) {
	ts := testserver.New(t, owner)
	cs := ts.Connect(t, ts.Token)

	var proj project.Project
	testserver.CallInto(t, cs, "project_create", map[string]any{"name": "Private"}, &proj)

	outsider := access.Actor{ID: "mallory", BusinessID: "b2"}
	other := ts.Connect(t, ts.AddActor(t, outsider, sqlite.RoleOwner))

	code := testserver.CallError(t, other, "project_get", map[string]any{"id": proj.ID})
	require.Equal(t, mcp.CodeNotFound, code)
	code = testserver.CallError(t, other, "billing_summary", map[string]any{"project_id": proj.ID})
	require.Equal(t, mcp.CodeNotFound, code)

	var list mcp.ListProjectsResponse
	testserver.CallInto(t, other, "project_list", map[string]any{}, &list)
	require.Empty(t, list.Projects)
}

func TestHTTP_MemberCannotWrite(t *testing.T) {
	ts := testserver.New(t, owner)
	cs := ts.Connect(t, ts.Token)

	var proj project.Project
	testserver.CallInto(t, cs, "project_create", map[string]any{"name": "Shared"}, &proj)

	member := ts.Connect(t, ts.AddActor(t, access.Actor{ID: "bob", BusinessID: owner.BusinessID}, sqlite.RoleMember))

	code := testserver.CallError(t, member, "project_service_add", map[string]any{
		"project_id": proj.ID, "label": "Audit", "unit_price": "100",
	})
	require.Equal(t, mcp.CodeForbidden, code)

	// reads stay open to members
	var got mcp.ProjectResponse
	testserver.CallInto(t, member, "project_get", map[string]any{"id": proj.ID}, &got)
	require.Equal(t, proj.ID, got.Project.ID)
}

func TestHTTP_ExposesMetrics(t *testing.T) {
	ts := testserver.New(t, owner)
	cs := ts.Connect(t, ts.Token)
	testserver.CallInto(t, cs, "project_list", map[string]any{}, &mcp.ListProjectsResponse{})

	resp, err := http.Get(ts.Server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `probill_tool_calls_total{`)
	require.Contains(t, string(body), `tool="project_list"`)
}

func TestHTTP_Health(t *testing.T) {
	ts := testserver.New(t, owner)

	resp, err := http.Get(ts.Server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
