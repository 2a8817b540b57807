package modules

import (
	"context"
	"fmt"

	"github.com/verdantlabs/florasynth/pkg/types"
)

// fakeModule is a configurable test module.
type fakeModule struct {
	desc Descriptor
	run  func(ctx context.Context, entity types.EntityKey, prior Results) (ColumnValues, error)
	runs int
}

func (m *fakeModule) Descriptor() Descriptor { return m.desc }

func (m *fakeModule) Run(ctx context.Context, entity types.EntityKey, prior Results) (ColumnValues, error) {
	m.runs++
	if m.run == nil {
		values := make(ColumnValues, len(m.desc.Columns))
		for _, col := range m.desc.Columns {
			values[col.ID] = "value-" + col.ID
		}
		return values, nil
	}
	return m.run(ctx, entity, prior)
}

// newFakeModule builds a module with one column per given column ID.
func newFakeModule(id string, deps []string, columnIDs ...string) *fakeModule {
	cols := make([]Column, len(columnIDs))
	for i, cid := range columnIDs {
		cols[i] = Column{
			ID:          cid,
			Header:      "Header " + cid,
			SourceLabel: "test source",
			Algorithm:   "test algorithm",
		}
	}
	return &fakeModule{
		desc: Descriptor{
			ID:           id,
			DisplayName:  "Module " + id,
			Columns:      cols,
			Dependencies: deps,
		},
	}
}

func registryOf(mods ...*fakeModule) *Registry {
	r := NewRegistry()
	for _, m := range mods {
		mod := m
		r.MustRegister(mod.desc.ID, func() (Module, error) { return mod, nil })
	}
	return r
}

func quercusAlba() types.EntityKey {
	return types.NewEntityKey("Quercus", "alba")
}

func failRun(msg string) func(context.Context, types.EntityKey, Results) (ColumnValues, error) {
	return func(context.Context, types.EntityKey, Results) (ColumnValues, error) {
		return nil, fmt.Errorf("%s", msg)
	}
}
