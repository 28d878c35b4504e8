package jobtable

import (
	"encoding/json"
	"fmt"
	"log"
	"reflect"

	"github.com/five82/cueweb/internal/prefs"
)

// Storage keys, one per mirrored field.
const (
	KeyTableData           = "tableData"
	KeyTableDataUnfiltered = "tableDataUnfiltered"
	KeySorting             = "sorting"
	KeyColumnFilters       = "columnFilters"
	KeyColumnVisibility    = "columnVisibility"
	KeyStateSelectValue    = "stateSelectValue"
	KeyAutoloadMine        = "autoloadMine"
)

type field struct {
	key string
	ptr func(*State) any
}

var mirrored = []field{
	{KeyTableData, func(s *State) any { return &s.TableData }},
	{KeyTableDataUnfiltered, func(s *State) any { return &s.TableDataUnfiltered }},
	{KeySorting, func(s *State) any { return &s.Sorting }},
	{KeyColumnFilters, func(s *State) any { return &s.ColumnFilters }},
	{KeyColumnVisibility, func(s *State) any { return &s.ColumnVisibility }},
	{KeyStateSelectValue, func(s *State) any { return &s.StateSelectValue }},
	{KeyAutoloadMine, func(s *State) any { return &s.AutoloadMine }},
}

// Restore loads the mirrored fields from storage over initial. Fields with
// no stored value keep the value from initial. Row selection always starts
// empty.
func Restore(storage prefs.Storage, initial State) State {
	restored := initial.Clone()
	for _, f := range mirrored {
		defaultJSON, err := json.Marshal(f.ptr(&restored))
		if err != nil {
			log.Printf("jobtable: encode default %s: %v", f.key, err)
			continue
		}
		target := reflect.New(reflect.TypeOf(f.ptr(&restored)).Elem())
		if err := prefs.Load(storage, f.key, string(defaultJSON), target.Interface()); err != nil {
			log.Printf("jobtable: restore %s: %v", f.key, err)
			continue
		}
		reflect.ValueOf(f.ptr(&restored)).Elem().Set(target.Elem())
	}
	restored.RowSelection = map[string]bool{}
	if restored.StateSelectValue == "" {
		restored.StateSelectValue = initial.StateSelectValue
	}
	if restored.ColumnVisibility == nil {
		restored.ColumnVisibility = DefaultColumnVisibility()
	}
	restored = restored.Clone()
	normalize(&restored)
	return restored
}

// Mirror returns an observer that saves each mirrored field whose value
// changed in a transition.
func Mirror(storage prefs.Storage) Observer {
	return func(prev, next State, _ Action) {
		for _, f := range mirrored {
			before, after := f.ptr(&prev), f.ptr(&next)
			if reflect.DeepEqual(before, after) {
				continue
			}
			if err := prefs.Save(storage, f.key, reflect.ValueOf(after).Elem().Interface()); err != nil {
				log.Printf("jobtable: persist %s: %v", f.key, err)
			}
		}
	}
}

// Forget removes the stored job lists, as on sign out.
func Forget(storage prefs.Storage) error {
	for _, key := range []string{KeyTableData, KeyTableDataUnfiltered} {
		if err := storage.RemoveItem(key); err != nil {
			return fmt.Errorf("forget %s: %w", key, err)
		}
	}
	return nil
}
