package embedding

import (
	"testing"

	"github.com/raghavpatnecha/ragserve/internal/types"
)

func TestNewEmbedderRejectsAnUnsupportedModelSource(t *testing.T) {
	_, err := NewEmbedder(Config{Source: types.ModelSource("carrier-pigeon"), ModelName: "m"})
	if err == nil {
		t.Fatal("expected an error for an unsupported embedder source")
	}
}
