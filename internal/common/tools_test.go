package common

import "testing"

func TestToInterfaceSliceConvertsEachElement(t *testing.T) {
	out := ToInterfaceSlice([]int{1, 2, 3})
	if len(out) != 3 || out[1] != 2 {
		t.Errorf("expected each element preserved, got %v", out)
	}
}

func TestStringSliceJoinQuotesAndSpaceSeparates(t *testing.T) {
	out := StringSliceJoin([]string{"a", "b"})
	if out != `"a" "b"` {
		t.Errorf(`expected "a" "b", got %q`, out)
	}
}

func TestGetAttrsAppliesExtractorToEachElement(t *testing.T) {
	out := GetAttrs(func(s string) int { return len(s) }, "a", "bb", "ccc")
	if len(out) != 3 || out[2] != 3 {
		t.Errorf("expected extracted lengths, got %v", out)
	}
}

func TestDeduplicateKeepsFirstOccurrencePerKey(t *testing.T) {
	out := Deduplicate(func(s string) string { return s }, "a", "b", "a", "c")
	if len(out) != 3 {
		t.Fatalf("expected 3 unique items, got %d: %v", len(out), out)
	}
}

func TestParseLLMJsonResponseParsesDirectJSON(t *testing.T) {
	var target struct {
		Key string `json:"key"`
	}
	if err := ParseLLMJsonResponse(`{"key":"value"}`, &target); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if target.Key != "value" {
		t.Errorf("expected parsed key, got %q", target.Key)
	}
}

func TestParseLLMJsonResponseExtractsFromCodeBlock(t *testing.T) {
	var target struct {
		Key string `json:"key"`
	}
	content := "```json\n{\"key\":\"wrapped\"}\n```"
	if err := ParseLLMJsonResponse(content, &target); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if target.Key != "wrapped" {
		t.Errorf("expected the code-block JSON parsed, got %q", target.Key)
	}
}

func TestParseLLMJsonResponseReturnsErrorForUnparseableContent(t *testing.T) {
	var target struct{}
	if err := ParseLLMJsonResponse("not json at all", &target); err == nil {
		t.Error("expected an error for unparseable content with no code block")
	}
}

func TestCleanInvalidUTF8RemovesNullBytesAndInvalidSequences(t *testing.T) {
	input := "hello\x00world" + string([]byte{0xff, 0xfe})
	out := CleanInvalidUTF8(input)
	if out != "helloworld" {
		t.Errorf("expected null bytes and invalid sequences stripped, got %q", out)
	}
}

func TestCleanInvalidUTF8PassesValidTextThrough(t *testing.T) {
	out := CleanInvalidUTF8("hello world")
	if out != "hello world" {
		t.Errorf("expected valid text unchanged, got %q", out)
	}
}
