package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validHostSpec(count int) HostSpec {
	return HostSpec{
		Count:    count,
		Capacity: Resources{Compute: 100, Memory: 100, Bandwidth: 100, Storage: 100},
		Power:    PowerSpec{MaxPower: 200, StaticPower: 100, Ratios: defaultRatios},
	}
}

func TestDatacenterSpec_BuildHosts_SequentialIDsAcrossGroups(t *testing.T) {
	// GIVEN two host groups
	spec := DatacenterSpec{ID: "dc1", Hosts: []HostSpec{validHostSpec(2), validHostSpec(3)}}

	// WHEN hosts are built
	hosts, err := spec.BuildHosts("linear")

	// THEN ids run 0..4 in group order
	require.NoError(t, err)
	require.Len(t, hosts, 5)
	for i, h := range hosts {
		assert.Equal(t, i, h.ID())
		assert.Equal(t, 200.0, h.MaxPower())
	}
}

func TestDatacenterSpec_Validate(t *testing.T) {
	badPower := validHostSpec(1)
	badPower.Power.StaticPower = 500
	badCapacity := validHostSpec(1)
	badCapacity.Capacity.Memory = -1

	tests := []struct {
		name string
		spec DatacenterSpec
	}{
		{"empty id", DatacenterSpec{Hosts: []HostSpec{validHostSpec(1)}}},
		{"no hosts", DatacenterSpec{ID: "dc1"}},
		{"zero count", DatacenterSpec{ID: "dc1", Hosts: []HostSpec{validHostSpec(0)}}},
		{"bad power", DatacenterSpec{ID: "dc1", Hosts: []HostSpec{badPower}}},
		{"bad capacity", DatacenterSpec{ID: "dc1", Hosts: []HostSpec{badCapacity}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.spec.Validate())
			_, err := tt.spec.BuildHosts("")
			assert.Error(t, err)
		})
	}
}
