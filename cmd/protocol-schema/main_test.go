package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/moxitooo/zzzmeika/internal/net/proto"
)

func TestWriteSchemaCreatesDirectories(t *testing.T) {
	out := filepath.Join(t.TempDir(), "schemas", "client.json")
	if err := writeSchema(out, proto.InboundSchema()); err != nil {
		t.Fatalf("writeSchema: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("schema is not JSON: %v", err)
	}
	if doc["title"] != "Snake Client Messages" {
		t.Fatalf("unexpected title %v", doc["title"])
	}
	if _, err := os.Stat(out + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}
