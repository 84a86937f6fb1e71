package evaluator_test

import (
	"reflect"
	"testing"

	"github.com/thomasrohde/lam/pkg/evaluator"
)

func TestEnv_DefineAndGet(t *testing.T) {
	env := evaluator.NewEnv(nil)
	env.Define("x", evaluator.NewNumber(1))

	val, err := env.Get("x")
	if err != nil {
		t.Fatal(err)
	}
	expectNumber(t, val, 1)

	if _, err := env.Get("y"); err == nil || err.Error() != "undefined variable y" {
		t.Errorf("Get(y) error = %v", err)
	}
}

func TestEnv_ChildShadowsParent(t *testing.T) {
	root := evaluator.NewEnv(nil)
	root.Define("x", evaluator.NewNumber(1))
	child := root.Child()
	child.Define("x", evaluator.NewNumber(2))

	val, _ := child.Get("x")
	expectNumber(t, val, 2)
	val, _ = root.Get("x")
	expectNumber(t, val, 1)

	if !root.IsRoot() || child.IsRoot() {
		t.Error("IsRoot is wrong")
	}
}

func TestEnv_AssignUpdatesNearestDefiningScope(t *testing.T) {
	root := evaluator.NewEnv(nil)
	root.Define("x", evaluator.NewNumber(1))
	mid := root.Child()
	leaf := mid.Child()

	if _, err := leaf.Assign("x", evaluator.NewNumber(5)); err != nil {
		t.Fatal(err)
	}
	val, _ := root.Get("x")
	expectNumber(t, val, 5)

	if _, ok := leaf.Lookup("y"); ok {
		t.Error("y should not be visible")
	}
}

func TestEnv_AssignCreatesOnlyAtRoot(t *testing.T) {
	root := evaluator.NewEnv(nil)
	if _, err := root.Assign("g", evaluator.NewBool(true)); err != nil {
		t.Fatalf("root assignment failed: %v", err)
	}
	if _, ok := root.Lookup("g"); !ok {
		t.Error("g should be defined in the root")
	}

	child := root.Child()
	_, err := child.Assign("h", evaluator.NewBool(true))
	if err == nil || err.Error() != "attempting to assign to undefined variable h" {
		t.Errorf("Assign(h) error = %v", err)
	}
	if _, ok := root.Lookup("h"); ok {
		t.Error("h must not leak into the root")
	}
}

func TestEnv_SnapshotIsIndependent(t *testing.T) {
	root := evaluator.NewEnv(nil)
	root.Define("x", evaluator.NewNumber(1))
	child := root.Child()
	child.Define("y", evaluator.NewNumber(1))

	snap := child.Snapshot()

	// Writes after the snapshot do not reach it...
	root.Define("x", evaluator.NewNumber(2))
	child.Define("y", evaluator.NewNumber(2))
	root.Define("z", evaluator.NewNumber(2))

	val, _ := snap.Get("x")
	expectNumber(t, val, 1)
	val, _ = snap.Get("y")
	expectNumber(t, val, 1)
	if _, ok := snap.Lookup("z"); ok {
		t.Error("z was defined after the snapshot")
	}

	// ...and writes through the snapshot do not reach the original.
	if _, err := snap.Assign("x", evaluator.NewNumber(9)); err != nil {
		t.Fatal(err)
	}
	val, _ = root.Get("x")
	expectNumber(t, val, 2)
}

func TestEnv_Names(t *testing.T) {
	root := evaluator.NewEnv(nil)
	root.Define("puts", evaluator.NewBool(true))
	root.Define("a", evaluator.NewBool(true))
	child := root.Child()
	child.Define("a", evaluator.NewBool(false))
	child.Define("b", evaluator.NewBool(false))

	got := child.Names()
	want := []string{"a", "b", "puts"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if n := evaluator.NewEnv(nil).Names(); len(n) != 0 {
		t.Errorf("empty env Names() = %v", n)
	}
}
