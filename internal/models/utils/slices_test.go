package utils

import (
	"reflect"
	"testing"
)

func TestChunkSliceSplitsIntoEvenGroups(t *testing.T) {
	got := ChunkSlice([]int{1, 2, 3, 4}, 2)
	want := [][]int{{1, 2}, {3, 4}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestChunkSliceLastGroupIsPartial(t *testing.T) {
	got := ChunkSlice([]int{1, 2, 3, 4, 5}, 2)
	want := [][]int{{1, 2}, {3, 4}, {5}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestChunkSliceReturnsEmptyForEmptyInput(t *testing.T) {
	got := ChunkSlice([]int{}, 3)
	if len(got) != 0 {
		t.Errorf("expected no chunks for empty input, got %v", got)
	}
}

func TestChunkSlicePanicsOnNonPositiveChunkSize(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected a panic for a non-positive chunk size")
		}
	}()
	ChunkSlice([]int{1, 2}, 0)
}

func TestMapSliceAppliesFunctionToEachElement(t *testing.T) {
	got := MapSlice([]int{1, 2, 3}, func(i int) int { return i * 2 })
	want := []int{2, 4, 6}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestMapSliceReturnsEmptySliceForEmptyInput(t *testing.T) {
	got := MapSlice([]int{}, func(i int) string { return "x" })
	if len(got) != 0 {
		t.Errorf("expected no elements for empty input, got %v", got)
	}
}
