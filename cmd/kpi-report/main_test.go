package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/lorrc/dispatch-analytics/internal/core/domain"
	apperrors "github.com/lorrc/dispatch-analytics/internal/core/errors"
	"github.com/lorrc/dispatch-analytics/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_JSONState(t *testing.T) {
	dir := t.TempDir()
	cli := CLI{
		Cases: writeFile(t, dir, "cases.csv",
			"Reference,Date,Case Category,Refused or Received\nR1,2024-01-01,Successful,Received\nR2,2024-01-01,Successful,Refused\n"),
		Ops:    writeFile(t, dir, "ops.csv", "Date,Total Incoming,Calls Answered,Operational Vehicles\n2024-01-01,100,90,12\n"),
		Format: "json",
	}

	var out bytes.Buffer
	require.NoError(t, cli.Run(context.Background(), &out, quiet()))

	var state domain.DashboardState
	require.NoError(t, json.Unmarshal(out.Bytes(), &state))
	assert.Equal(t, 2, state.Metrics.TotalCases)
	assert.Equal(t, 90.0, state.Metrics.ResponseRate)
	assert.Equal(t, 50.0, state.Metrics.CEmONCAcceptance)
	assert.Equal(t, 0.17, state.Metrics.SuccessPerAmbPerDay)
}

func TestRun_ViewText(t *testing.T) {
	dir := t.TempDir()
	cli := CLI{
		Cases:  writeFile(t, dir, "cases.csv", "Reference,Date,Case Category\nR1,2024-01-01,Successful\nR2,2024-01-01,Unsuccessful\n"),
		View:   "unsuccess",
		Format: "text",
	}

	var out bytes.Buffer
	require.NoError(t, cli.Run(context.Background(), &out, quiet()))

	assert.Contains(t, out.String(), "Unsuccessful Cases Details (1)")
	assert.Contains(t, out.String(), "R2")
	assert.NotContains(t, out.String(), "R1")
}

func TestRun_ViewJSON(t *testing.T) {
	dir := t.TempDir()
	cli := CLI{
		Cases:  writeFile(t, dir, "cases.csv", "Reference,Date,Case Category\nR1,2024-01-01,Successful\n"),
		View:   "success",
		Format: "json",
	}

	var out bytes.Buffer
	require.NoError(t, cli.Run(context.Background(), &out, quiet()))

	var list ports.CaseList
	require.NoError(t, json.Unmarshal(out.Bytes(), &list))
	require.Len(t, list.Cases, 1)
	assert.Equal(t, "R1", list.Cases[0].ID)
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("no case rows", func(t *testing.T) {
		cli := CLI{Cases: writeFile(t, dir, "empty.csv", "Reference,Date\n"), Format: "json"}
		err := cli.Run(context.Background(), io.Discard, quiet())
		assert.ErrorIs(t, err, apperrors.ErrNoValidRows)
	})

	t.Run("unknown view", func(t *testing.T) {
		cli := CLI{Cases: writeFile(t, dir, "ok.csv", "Reference,Date\nR1,2024-01-01\n"), View: "bogus", Format: "json"}
		err := cli.Run(context.Background(), io.Discard, quiet())
		assert.ErrorIs(t, err, apperrors.ErrInvalidView)
	})
}
