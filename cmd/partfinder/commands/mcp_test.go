// ABOUTME: Tests for MCP command structure
// ABOUTME: Verifies MCP command configuration

package commands

import (
	"strings"
	"testing"
)

func TestNewMCPCmd(t *testing.T) {
	cmd := NewMCPCmd()

	if cmd.Use != "mcp" {
		t.Errorf("Use = %q, want %q", cmd.Use, "mcp")
	}
	if cmd.Short == "" {
		t.Error("Short description should not be empty")
	}
	if cmd.RunE == nil {
		t.Error("RunE should be set")
	}
}

func TestMCPCmd_Description(t *testing.T) {
	cmd := NewMCPCmd()

	for _, want := range []string{"MCP", "LLM", "stdio", "--watch"} {
		if !strings.Contains(cmd.Long, want) {
			t.Errorf("Long description should mention %q", want)
		}
	}
}

func TestMCPCmd_WatchFlag(t *testing.T) {
	cmd := NewMCPCmd()

	flag := cmd.Flags().Lookup("watch")
	if flag == nil {
		t.Fatal("--watch flag not found")
	}
	if flag.DefValue != "false" {
		t.Errorf("--watch default = %q, want false", flag.DefValue)
	}
}

func TestMCPCmd_Example(t *testing.T) {
	cmd := NewMCPCmd()

	if !strings.Contains(cmd.Example, "partfinder mcp") {
		t.Error("Example should show how to run the command")
	}
	if !strings.Contains(cmd.Example, "claude_desktop_config") {
		t.Error("Example should mention Claude Desktop config")
	}
}
