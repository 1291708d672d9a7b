package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Output
	Output = &buf
	t.Cleanup(func() { Output = prev })
	return &buf
}

func TestPrintError(t *testing.T) {
	buf := captureOutput(t)

	PrintError("search failed", errors.New("store unreachable"))
	PrintError("plain", nil)

	out := buf.String()
	assert.Contains(t, out, "search failed: store unreachable")
	assert.Contains(t, out, "plain")
}

func TestPrintInfo(t *testing.T) {
	buf := captureOutput(t)

	PrintInfo("Account", "research")
	assert.Contains(t, buf.String(), "Account")
	assert.Contains(t, buf.String(), "research")
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary("Search", []Stat{
		{Label: "Inserted", Value: "120"},
		{Label: "Pages", Value: "2"},
	})

	assert.Contains(t, out, "Search")
	assert.Contains(t, out, "Inserted")
	assert.Contains(t, out, "120")
	assert.Equal(t, 1, strings.Count(out, "Pages"))
}

func TestProgress(t *testing.T) {
	buf := captureOutput(t)

	p := NewProgress("inserted", 10)
	p.Set(5)
	assert.Contains(t, buf.String(), "5/10")

	p.Set(20)
	assert.Contains(t, buf.String(), "20/10", "overshoot is reported, bar stays full")
	p.Done()
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestProgressWithoutTarget(t *testing.T) {
	buf := captureOutput(t)

	p := NewProgress("ids", 0)
	p.Set(3)
	assert.Contains(t, buf.String(), "ids")
	assert.NotContains(t, buf.String(), "/")
}
