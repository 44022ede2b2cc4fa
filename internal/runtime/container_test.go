package runtime

import "testing"

func TestGetContainerReturnsTheSameContainerOnRepeatedCalls(t *testing.T) {
	a := GetContainer()
	b := GetContainer()
	if a == nil {
		t.Fatal("expected a non-nil container")
	}
	if a != b {
		t.Error("expected GetContainer to return the same process-wide container each call")
	}
}

func TestGetContainerResolvesAProvidedValue(t *testing.T) {
	c := GetContainer()
	type widget struct{ Name string }
	if err := c.Provide(func() *widget { return &widget{Name: "x"} }); err != nil {
		t.Fatalf("unexpected error providing into the container: %v", err)
	}
	if err := c.Invoke(func(w *widget) {
		if w.Name != "x" {
			t.Errorf("expected resolved widget to have name x, got %q", w.Name)
		}
	}); err != nil {
		t.Fatalf("unexpected error invoking against the container: %v", err)
	}
}
