package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housingreview/internal/domain"
	"housingreview/internal/export"
	"housingreview/internal/rules/housing"
	"housingreview/internal/service"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"run", "rules", "token", "cache"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRunCommand_Flags(t *testing.T) {
	f := runCmd.Flags().Lookup("format")
	require.NotNil(t, f)
	assert.Equal(t, "json", f.DefValue)
	assert.NotNil(t, runCmd.Flags().Lookup("dual"))
	assert.NotNil(t, runCmd.Flags().Lookup("declare"))
}

func TestReadFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "ledger.pdf")
	b := filepath.Join(dir, "id.jpg")
	require.NoError(t, os.WriteFile(a, []byte("%PDF"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte{0xff, 0xd8}, 0o600))

	files, err := readFiles(context.Background(), []string{a, b}, map[string]string{"id.jpg": "owner_identity"})
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "ledger.pdf", files[0].Name)
	assert.Equal(t, domain.DocumentType(""), files[0].DeclaredType)
	assert.Equal(t, domain.DocOwnerIdentity, files[1].DeclaredType)

	_, err = readFiles(context.Background(), []string{a}, map[string]string{"ledger.pdf": "passport"})
	assert.Error(t, err)

	_, err = readFiles(context.Background(), []string{filepath.Join(dir, "missing.pdf")}, nil)
	assert.Error(t, err)
}

func sampleResult() *service.PipelineResult {
	record := domain.NewDocumentRecord("2025-0001")
	record.Set(domain.FieldPath(domain.DocSaleApplication, "owner.name"), "홍길동", 0.9, "primary")
	return &service.PipelineResult{
		Record: record,
		Verdict: &domain.Verdict{
			Status:     domain.VerdictEligible,
			Passed:     true,
			FiredRules: []string{},
		},
	}
}

func TestWriteResult_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, "json", "2025-0001", sampleResult(), time.Now()))

	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Contains(t, got, "verdict")
	assert.Contains(t, got, "record")
	assert.NotContains(t, got, "reconciliation")
}

func TestWriteResult_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, "csv", "2025-0001", sampleResult(), time.Now()))

	assert.Equal(t, export.BOM, buf.Bytes()[:3])
	assert.Contains(t, buf.String(), "2025-0001")
}

func TestReviewFromResult(t *testing.T) {
	now := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
	review, err := reviewFromResult("2025-0001", sampleResult(), now)
	require.NoError(t, err)

	assert.Equal(t, domain.ReviewStatusCompleted, review.Status)
	require.NotNil(t, review.VerdictStatus)
	assert.Equal(t, domain.VerdictEligible, *review.VerdictStatus)
	assert.False(t, review.DualValidation)
	assert.Equal(t, now, *review.CompletedAt)
}

func TestPrintRules(t *testing.T) {
	reg := housing.NewRegistry()

	var table bytes.Buffer
	require.NoError(t, printRules(&table, reg, false))
	assert.Contains(t, table.String(), "ID")
	assert.Contains(t, table.String(), reg.All()[0].ID())

	var js bytes.Buffer
	require.NoError(t, printRules(&js, reg, true))
	var rows []ruleRow
	require.NoError(t, json.Unmarshal(js.Bytes(), &rows))
	assert.Len(t, rows, len(reg.All()))
}
