// ABOUTME: Tests for product lookup and compare commands
// ABOUTME: Uses a stub pipeline to check rendering and not-found handling

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/harper/partfinder/internal/models"
)

func TestNewProductCmd(t *testing.T) {
	cmd := NewProductCmd()
	if cmd.Use != "product <sku>" {
		t.Errorf("Use = %q", cmd.Use)
	}
	if cmd.Args == nil {
		t.Error("Args validator should be set")
	}
}

func TestRunProduct(t *testing.T) {
	withFormat(t, "auto")
	var out bytes.Buffer
	cmd := NewProductCmd()
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	if err := runProduct(cmd, newStubPipeline(), "w10295370a"); err != nil {
		t.Fatalf("runProduct() error = %v", err)
	}
	for _, want := range []string{"W10295370A", "Whirlpool Water Filter", "In Stock"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunProduct_JSON(t *testing.T) {
	withFormat(t, "json")
	var out bytes.Buffer
	cmd := NewProductCmd()
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	if err := runProduct(cmd, newStubPipeline(), "DA29-00020B"); err != nil {
		t.Fatalf("runProduct() error = %v", err)
	}
	var p models.Product
	if err := json.Unmarshal(out.Bytes(), &p); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if p.SKU != "DA29-00020B" {
		t.Errorf("SKU = %q", p.SKU)
	}
}

func TestRunProduct_NotFound(t *testing.T) {
	withFormat(t, "auto")
	cmd := NewProductCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetContext(context.Background())

	err := runProduct(cmd, newStubPipeline(), "MISSING")
	if err == nil || !strings.Contains(err.Error(), "no product with SKU MISSING") {
		t.Errorf("error = %v", err)
	}
}

func TestNewCompareCmd(t *testing.T) {
	cmd := NewCompareCmd()
	if !strings.HasPrefix(cmd.Use, "compare ") {
		t.Errorf("Use = %q", cmd.Use)
	}
	if err := cmd.Args(cmd, []string{"ONE"}); err == nil {
		t.Error("compare should require at least two SKUs")
	}
}

func TestRunCompare(t *testing.T) {
	withFormat(t, "auto")
	var out bytes.Buffer
	cmd := NewCompareCmd()
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	if err := runCompare(cmd, newStubPipeline(), []string{"W10295370A", "DA29-00020B", "NOPE"}); err != nil {
		t.Fatalf("runCompare() error = %v", err)
	}
	text := out.String()
	for _, want := range []string{"W10295370A", "DA29-00020B", "Lowest price"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "NOPE") {
		t.Error("unknown SKUs should be skipped")
	}
}
