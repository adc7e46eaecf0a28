package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunCommandPrintsSummary(t *testing.T) {
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"run", "--steps", "350"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	output := out.String()
	if !strings.Contains(output, "fracture monitor") {
		t.Fatalf("missing summary header:\n%s", output)
	}
	// The default specimen parts its mid-chain smooth joint under tension
	// well before 350 steps.
	if !strings.Contains(output, "smooth-jointed : 1 tensile") {
		t.Fatalf("missing smooth joint crack:\n%s", output)
	}
}

func TestSchemaCommandWritesFile(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "snapshot.schema.json")

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"schema", "--out", outPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
}

func TestSchemaCommandRequiresOut(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"schema"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for missing --out")
	}
}
