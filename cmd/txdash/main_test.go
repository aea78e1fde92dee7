package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunHelpAndUnknownCommand(t *testing.T) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)

	require.Equal(t, 0, run(context.Background(), []string{"help"}, stdout, stderr))
	assert.Contains(t, stdout.String(), "report")

	require.Equal(t, 2, run(context.Background(), []string{"frobnicate"}, stdout, stderr))
	assert.Contains(t, stderr.String(), `unknown command "frobnicate"`)
}

func TestRunReportFromMemoryBackend(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("DATA_FILE", "../../internal/transactions/testdata/dataset.json")
	t.Setenv("REDIS_ADDR", "127.0.0.1:1")
	t.Setenv("PRICE_RANGES", "0-100,101-200")

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	code := run(context.Background(), []string{"report", "--month", "1", "--year", "2021", "--json"}, stdout, stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), `"totalSaleAmount":200.00`)
	assert.Contains(t, stdout.String(), `"period":"January 2021"`)
}

func TestRunRejectsBadConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "sqlite")

	stderr := new(bytes.Buffer)
	code := run(context.Background(), []string{"report", "--month", "1"}, new(bytes.Buffer), stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "unsupported DATA_BACKEND")
}
