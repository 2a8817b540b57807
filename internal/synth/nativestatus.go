package synth

import (
	"context"

	"github.com/verdantlabs/florasynth/internal/sources/usda"
	"github.com/verdantlabs/florasynth/pkg/logging"
	"github.com/verdantlabs/florasynth/pkg/modules"
	"github.com/verdantlabs/florasynth/pkg/types"
)

// ProfileLookup resolves a species' distribution profile.
type ProfileLookup interface {
	Lookup(ctx context.Context, entity types.EntityKey) (*usda.Profile, error)
}

// NativeStatusModule reports whether the species is native and where. A
// species absent from the distribution database yields a non-native result
// with no regions, not a failure.
type NativeStatusModule struct {
	profiles ProfileLookup
}

// NewNativeStatus creates the native-status module.
func NewNativeStatus(profiles ProfileLookup) *NativeStatusModule {
	return &NativeStatusModule{profiles: profiles}
}

// Descriptor implements modules.Module.
func (m *NativeStatusModule) Descriptor() modules.Descriptor {
	return modules.Descriptor{
		ID:           "native-status",
		DisplayName:  "Native Status",
		Dependencies: []string{"identity"},
		Columns: []modules.Column{
			{ID: "is-native", Header: "Native", SourceLabel: "USDA PLANTS", Algorithm: "native-status lookup"},
			{ID: "native-regions", Header: "Native Regions", SourceLabel: "USDA PLANTS", Algorithm: "native-status lookup, region list"},
		},
	}
}

// Run implements modules.Module.
func (m *NativeStatusModule) Run(ctx context.Context, entity types.EntityKey, _ modules.Results) (modules.ColumnValues, error) {
	profile, err := m.profiles.Lookup(ctx, entity)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		logging.Ctx(ctx).Debug().
			Str("entity", entity.String()).
			Msg("No distribution profile")
		return modules.ColumnValues{
			"is-native":      false,
			"native-regions": []string{},
		}, nil
	}

	return modules.ColumnValues{
		"is-native":      profile.Native(),
		"native-regions": profile.NativeRegions,
	}, nil
}
