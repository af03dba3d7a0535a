package docs

import (
	"encoding/json"
	"regexp"
	"strings"
	"testing"
)

type swaggerDoc struct {
	Paths       map[string]map[string]json.RawMessage `json:"paths"`
	Definitions map[string]struct {
		Required   []string                   `json:"required"`
		Properties map[string]json.RawMessage `json:"properties"`
	} `json:"definitions"`
}

func readDoc(t *testing.T) (string, swaggerDoc) {
	t.Helper()
	raw := SwaggerInfo.ReadDoc()
	var doc swaggerDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("doc is not valid json: %v", err)
	}
	return raw, doc
}

func TestDocReferencesResolve(t *testing.T) {
	raw, doc := readDoc(t)
	refs := regexp.MustCompile(`#/definitions/([\w.]+)`).FindAllStringSubmatch(raw, -1)
	if len(refs) == 0 {
		t.Fatal("expected schema references")
	}
	for _, ref := range refs {
		if _, ok := doc.Definitions[ref[1]]; !ok {
			t.Fatalf("unresolved reference %s", ref[1])
		}
	}
}

func TestScoreRequestUsesIndicatorsKey(t *testing.T) {
	_, doc := readDoc(t)
	def, ok := doc.Definitions["handler.scoreRequest"]
	if !ok {
		t.Fatal("missing score request definition")
	}
	if _, ok := def.Properties["indicators"]; !ok {
		t.Fatalf("expected indicators property, got %v", def.Properties)
	}
	if len(def.Required) != 1 || def.Required[0] != "indicators" {
		t.Fatalf("expected indicators to be required, got %v", def.Required)
	}
	op := string(doc.Paths["/api/indicators/score"]["post"])
	if !strings.Contains(op, "handler.scoreRequest") || !strings.Contains(op, "domain.ScoreResult") {
		t.Fatalf("score operation does not reference its schemas: %s", op)
	}
}

func TestAlgorithmReturnsEvaluation(t *testing.T) {
	_, doc := readDoc(t)
	op := string(doc.Paths["/api/algorithm"]["post"])
	if !strings.Contains(op, "handler.algorithmRequest") || !strings.Contains(op, "service.Evaluation") {
		t.Fatalf("algorithm operation does not reference its schemas: %s", op)
	}
	if _, ok := doc.Definitions["service.Evaluation"].Properties["readings"]; !ok {
		t.Fatal("expected readings on the evaluation schema")
	}
}
