package chat

import (
	"testing"

	"github.com/raghavpatnecha/ragserve/internal/types"
)

func TestNewChatRejectsAnUnsupportedModelSource(t *testing.T) {
	_, err := NewChat(&ChatConfig{Source: types.ModelSource("carrier-pigeon"), ModelName: "m"})
	if err == nil {
		t.Fatal("expected an error for an unsupported chat model source")
	}
}
