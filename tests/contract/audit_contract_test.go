package contract_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/jtiebel/formguard-api/internal/audit"
	"github.com/jtiebel/formguard-api/internal/classifier"
	"github.com/jtiebel/formguard-api/internal/handler"
)

func TestAuditLogContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", "audit_log.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)

	log := audit.NewLog(10)
	log.Append(audit.Entry{
		ReferenceID: "9b2f6a44-21f7-4bb2-8d41-0f3c2a8be002",
		Timestamp:   time.Now().UTC(),
		Verdict:     classifier.VerdictWarn,
		Score:       15,
		Reasons:     []string{"keyword: casino"},
	})
	log.Append(audit.Entry{
		ReferenceID: "e7d1c3aa-58fe-47d4-b5c1-6f9a1d7be003",
		Timestamp:   time.Now().UTC(),
		Verdict:     classifier.VerdictAccept,
		Score:       0,
		Reasons:     []string{},
	})

	auditHandler := handler.NewAuditHandler(log, zerolog.Nop())

	app := fiber.New()
	auditHandler.Register(app.Group("/api/admin/audit"))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/audit", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	require.NoError(t, schema.Validate(payload))
}
