package jobtable

import (
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/five82/cueweb/internal/opencue"
	"github.com/five82/cueweb/internal/prefs"
)

func TestRestore_EmptyStorageUsesInitial(t *testing.T) {
	initial := Initial("alice")
	got := Restore(prefs.NewMemoryStorage(), initial)
	if !reflect.DeepEqual(got, initial) {
		t.Fatalf("Restore = %s, want %s", spew.Sdump(got), spew.Sdump(initial))
	}
}

func TestMirrorThenRestore(t *testing.T) {
	storage := prefs.NewMemoryStorage()
	store := NewStore(Initial("alice"))
	store.Subscribe(Mirror(storage))

	store.Dispatch(SetTableDataUnfiltered([]opencue.Job{job("1", "a"), pausedJob("2", "b")}))
	store.Dispatch(FilterByState(opencue.StatePaused))
	store.Dispatch(SetSorting([]SortRule{{ID: ColumnName, Desc: true}}))
	store.Dispatch(SetAutoloadMine(true))
	store.Dispatch(SetRowSelection(map[string]bool{"2": true}))
	store.Dispatch(SetColumnVisibility(map[string]bool{"age": true}))

	restored := Restore(storage, Initial("alice"))
	if got := ids(restored.TableData); !reflect.DeepEqual(got, []string{"2"}) {
		t.Fatalf("TableData ids = %v, want [2]", got)
	}
	if got := ids(restored.TableDataUnfiltered); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Fatalf("TableDataUnfiltered ids = %v, want [1 2]", got)
	}
	if restored.StateSelectValue != opencue.StatePaused {
		t.Fatalf("StateSelectValue = %q, want %q", restored.StateSelectValue, opencue.StatePaused)
	}
	if !restored.AutoloadMine {
		t.Fatal("AutoloadMine not restored")
	}
	if !reflect.DeepEqual(restored.Sorting, []SortRule{{ID: ColumnName, Desc: true}}) {
		t.Fatalf("Sorting = %v", restored.Sorting)
	}
	if !restored.ColumnVisibility["age"] {
		t.Fatalf("ColumnVisibility = %v", restored.ColumnVisibility)
	}
	if len(restored.RowSelection) != 0 {
		t.Fatalf("RowSelection = %v, want empty after restore", restored.RowSelection)
	}
}

func TestMirrorWritesOnlyChangedFields(t *testing.T) {
	storage := prefs.NewMemoryStorage()
	store := NewStore(Initial("alice"))
	store.Subscribe(Mirror(storage))

	store.Dispatch(SetSearchQuery("show-"))
	for _, key := range []string{KeyTableData, KeySorting, KeyStateSelectValue} {
		if _, ok, _ := storage.GetItem(key); ok {
			t.Fatalf("%s written for an unrelated change", key)
		}
	}

	store.Dispatch(SetSorting([]SortRule{{ID: ColumnAge}}))
	raw, ok, _ := storage.GetItem(KeySorting)
	if !ok || raw != `[{"id":"age","desc":false}]` {
		t.Fatalf("sorting = %q (%v)", raw, ok)
	}
}

func TestRestore_CorruptEntryFallsBack(t *testing.T) {
	storage := prefs.NewMemoryStorage()
	_ = storage.SetItem(KeyTableDataUnfiltered, `[{"id":"1","name":"a"}]`)
	_ = storage.SetItem(KeyTableData, `[{"id":"1","name":"a"},{"id":"ghost","name":"g"}]`)
	_ = storage.SetItem(KeySorting, `not json`)

	restored := Restore(storage, Initial("alice"))
	if got := ids(restored.TableData); !reflect.DeepEqual(got, []string{"1"}) {
		t.Fatalf("TableData ids = %v, want [1]", got)
	}
	if len(restored.Sorting) != 0 {
		t.Fatalf("Sorting = %v, want empty", restored.Sorting)
	}
}

func TestForget(t *testing.T) {
	storage := prefs.NewMemoryStorage()
	_ = storage.SetItem(KeyTableData, "[]")
	_ = storage.SetItem(KeyTableDataUnfiltered, "[]")
	_ = storage.SetItem(KeySorting, "[]")

	if err := Forget(storage); err != nil {
		t.Fatalf("Forget returned error: %v", err)
	}
	if _, ok, _ := storage.GetItem(KeyTableData); ok {
		t.Fatal("tableData survived Forget")
	}
	if _, ok, _ := storage.GetItem(KeySorting); !ok {
		t.Fatal("Forget removed sorting")
	}
}
