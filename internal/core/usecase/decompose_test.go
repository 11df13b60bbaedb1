package usecase

import (
	"reflect"
	"testing"
)

func TestDecomposeQuestionMarkSplit(t *testing.T) {
	d := NewHeuristicDecomposer()

	got := d.Decompose("What is Go? Who created it?")
	want := []string{"What is Go?", "Who created it?"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Decompose() = %#v, want %#v", got, want)
	}
}

func TestDecomposeSingleQuestionMarkStaysWhole(t *testing.T) {
	d := NewHeuristicDecomposer()

	got := d.Decompose("What is Go?")
	want := []string{"What is Go?"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Decompose() = %#v, want %#v", got, want)
	}
}

func TestDecomposeAndWithTwoWHMarkers(t *testing.T) {
	d := NewHeuristicDecomposer()

	got := d.Decompose("What is the capital of France and who is its mayor")
	want := []string{"What is the capital of France", "who is its mayor"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Decompose() = %#v, want %#v", got, want)
	}
}

func TestDecomposeAndWithOneWHMarkerStaysWhole(t *testing.T) {
	d := NewHeuristicDecomposer()

	got := d.Decompose("What is the capital and largest city of France")
	want := []string{"What is the capital and largest city of France"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Decompose() = %#v, want %#v", got, want)
	}
}

func TestDecomposeRepeatedWHMarkerDoesNotCount(t *testing.T) {
	d := NewHeuristicDecomposer()

	// "what" twice is still one distinct marker.
	got := d.Decompose("What is Go and what is Rust")
	want := []string{"What is Go and what is Rust"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Decompose() = %#v, want %#v", got, want)
	}
}

func TestDecomposeWHMarkerInsideWordDoesNotCount(t *testing.T) {
	d := NewHeuristicDecomposer()

	// "somewhere" contains "where" but is not the word "where".
	got := d.Decompose("What is somewhere over the rainbow and the band name")
	want := []string{"What is somewhere over the rainbow and the band name"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Decompose() = %#v, want %#v", got, want)
	}
}

func TestDecomposeQuestionMarkRuleWinsOverAnd(t *testing.T) {
	d := NewHeuristicDecomposer()

	got := d.Decompose("What is Go? and why does it matter?")
	want := []string{"What is Go?", "and why does it matter?"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Decompose() = %#v, want %#v", got, want)
	}
}

func TestDecomposePlainStatement(t *testing.T) {
	d := NewHeuristicDecomposer()

	got := d.Decompose("tell me about the eiffel tower")
	want := []string{"tell me about the eiffel tower"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Decompose() = %#v, want %#v", got, want)
	}
}
