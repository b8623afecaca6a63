package index

import (
	"testing"

	"github.com/leengari/mini-rdbms/internal/types"
)

func TestInsertAndPointLookup(t *testing.T) {
	ix := New("idx", "t", "c", false)
	if err := ix.Insert(types.Integer(5), 1); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := ix.Insert(types.Integer(5), 2); err != nil {
		t.Fatalf("insert second row under same key: %v", err)
	}
	ids := ix.PointLookup(types.Integer(5))
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("unexpected lookup result: %+v", ids)
	}
	if ix.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", ix.Len())
	}
}

func TestUniqueIndexRejectsDuplicateKey(t *testing.T) {
	ix := New("idx", "t", "c", true)
	if err := ix.Insert(types.Integer(1), 1); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := ix.Insert(types.Integer(1), 2); err == nil {
		t.Fatal("expected a duplicate-key error on a unique index")
	}
}

func TestRemoveDropsOnlyTheGivenRowID(t *testing.T) {
	ix := New("idx", "t", "c", false)
	ix.Insert(types.Integer(1), 10)
	ix.Insert(types.Integer(1), 20)

	ix.Remove(types.Integer(1), 10)
	ids := ix.PointLookup(types.Integer(1))
	if len(ids) != 1 || ids[0] != 20 {
		t.Fatalf("expected only row 20 to remain, got %+v", ids)
	}

	ix.Remove(types.Integer(1), 20)
	if ix.PointLookup(types.Integer(1)) != nil {
		t.Fatal("expected the key to be gone once its last row is removed")
	}
	if ix.Len() != 0 {
		t.Fatalf("expected 0 entries after removing everything, got %d", ix.Len())
	}
}

func TestRemoveOnAbsentKeyIsNoOp(t *testing.T) {
	ix := New("idx", "t", "c", false)
	ix.Insert(types.Integer(1), 1)
	ix.Remove(types.Integer(2), 1)
	if ix.Len() != 1 {
		t.Fatalf("expected the unrelated remove to be a no-op, got %d entries", ix.Len())
	}
}

func TestRangeLookupRespectsInclusivity(t *testing.T) {
	ix := New("idx", "t", "c", false)
	for i := int64(1); i <= 5; i++ {
		ix.Insert(types.Integer(i), i)
	}
	lo, hi := types.Integer(2), types.Integer(4)

	inclusive := ix.RangeLookup(&lo, &hi, true, true)
	if len(inclusive) != 3 {
		t.Fatalf("expected [2,4] inclusive to yield 3 rows, got %+v", inclusive)
	}

	exclusive := ix.RangeLookup(&lo, &hi, false, false)
	if len(exclusive) != 1 || exclusive[0] != 3 {
		t.Fatalf("expected (2,4) exclusive to yield only row 3, got %+v", exclusive)
	}

	unboundedAbove := ix.RangeLookup(&lo, nil, true, true)
	if len(unboundedAbove) != 4 {
		t.Fatalf("expected >= 2 to yield 4 rows, got %+v", unboundedAbove)
	}
}

func TestAllReturnsAscendingKeyOrder(t *testing.T) {
	ix := New("idx", "t", "c", false)
	for _, k := range []int64{5, 1, 3, 2, 4} {
		ix.Insert(types.Integer(k), k)
	}
	entries := ix.All()
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}
	for i, e := range entries {
		if e.Key.Int != int64(i+1) {
			t.Fatalf("expected ascending key order, got %+v", entries)
		}
	}
}

// TestDeleteKeepsTreeBalanced removes a large, varied set of keys (including
// structural-removal cases where a node has two children) and checks the
// index still answers point lookups correctly afterward and that every
// node's subtrees differ in height by at most one, exercising the AVL
// delete path's rebalancing rather than just its happy path.
func TestDeleteKeepsTreeBalanced(t *testing.T) {
	ix := New("idx", "t", "c", false)
	keys := []int64{50, 25, 75, 10, 30, 60, 90, 5, 15, 27, 40, 55, 65, 80, 95}
	for _, k := range keys {
		ix.Insert(types.Integer(k), k)
	}

	toRemove := []int64{50, 25, 75, 10, 90}
	for _, k := range toRemove {
		ix.Remove(types.Integer(k), k)
	}

	removed := make(map[int64]bool, len(toRemove))
	for _, k := range toRemove {
		removed[k] = true
	}
	for _, k := range keys {
		ids := ix.PointLookup(types.Integer(k))
		if removed[k] {
			if ids != nil {
				t.Fatalf("key %d should have been removed, found %+v", k, ids)
			}
			continue
		}
		if len(ids) != 1 || ids[0] != k {
			t.Fatalf("key %d should still resolve to row %d, got %+v", k, k, ids)
		}
	}
	if ix.Len() != len(keys)-len(toRemove) {
		t.Fatalf("expected %d entries, got %d", len(keys)-len(toRemove), ix.Len())
	}

	var checkBalanced func(n *node) int
	checkBalanced = func(n *node) int {
		if n == nil {
			return 0
		}
		lh, rh := checkBalanced(n.left), checkBalanced(n.right)
		if lh-rh > 1 || rh-lh > 1 {
			t.Fatalf("node %s is unbalanced: left height %d, right height %d", n.key.String(), lh, rh)
		}
		if lh > rh {
			return lh + 1
		}
		return rh + 1
	}
	checkBalanced(ix.root)
}
