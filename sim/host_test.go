package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHost(id int, capacity Resources) *Host {
	h := NewHost(id, capacity, nil)
	h.SetDatacenter("dc1")
	return h
}

func TestHost_CreateVM_ReservesAllResources(t *testing.T) {
	h := newTestHost(0, Resources{Compute: 100, Memory: 100, Bandwidth: 100, Storage: 100})
	vm := testVM("1", Resources{Compute: 10, Memory: 20, Bandwidth: 30, Storage: 40})

	require.True(t, h.CreateVM(vm))

	assert.Equal(t, Resources{Compute: 10, Memory: 20, Bandwidth: 30, Storage: 40}, vm.AllocatedResources())
	assert.Equal(t, 60.0, h.Available(Storage))
	ref, placed := vm.Host()
	assert.True(t, placed)
	assert.Equal(t, HostRef{Datacenter: "dc1", Host: 0}, ref)
	assert.Len(t, h.VMs(), 1)
}

func TestHost_CreateVM_FailureRollsBackEveryResource(t *testing.T) {
	// Scenario A: compute short while every other dimension fits.
	tests := []struct {
		name   string
		demand Resources
	}{
		{"bandwidth short", Resources{Compute: 5, Memory: 5, Bandwidth: 11, Storage: 5}},
		{"memory short", Resources{Compute: 5, Memory: 11, Bandwidth: 5, Storage: 5}},
		{"compute short", Resources{Compute: 11, Memory: 5, Bandwidth: 5, Storage: 5}},
		{"storage short", Resources{Compute: 5, Memory: 5, Bandwidth: 5, Storage: 11}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN a host with 10 of everything
			h := newTestHost(0, Resources{Compute: 10, Memory: 10, Bandwidth: 10, Storage: 10})
			vm := testVM("1", tt.demand)

			// WHEN create fails
			ok := h.CreateVM(vm)

			// THEN no ledger was touched and the VM is unplaced
			assert.False(t, ok)
			for _, kind := range ResourceKinds {
				assert.Equal(t, 10.0, h.Available(kind), kind.String())
				assert.Equal(t, 0, h.Provisioner(kind).Len(), kind.String())
				assert.Equal(t, 0.0, vm.Allocated(kind), kind.String())
			}
			_, placed := vm.Host()
			assert.False(t, placed)
			assert.Empty(t, h.VMs())
		})
	}
}

func TestHost_IsSuitableForVM_ChecksEveryDimension(t *testing.T) {
	h := newTestHost(0, Resources{Compute: 10, Memory: 10, Bandwidth: 10, Storage: 10})
	assert.True(t, h.IsSuitableForVM(testVM("1", Resources{Compute: 10, Memory: 10, Bandwidth: 10, Storage: 10})))
	assert.False(t, h.IsSuitableForVM(testVM("2", Resources{Storage: 10.5})))
}

func TestHost_DestroyVM_ReleasesAndUnplaces(t *testing.T) {
	h := newTestHost(3, Resources{Compute: 10, Memory: 10, Bandwidth: 10, Storage: 10})
	a := testVM("a", Resources{Compute: 4, Memory: 4, Bandwidth: 4, Storage: 4})
	b := testVM("b", Resources{Compute: 4, Memory: 4, Bandwidth: 4, Storage: 4})
	require.True(t, h.CreateVM(a))
	require.True(t, h.CreateVM(b))

	h.DestroyVM(a)

	assert.Equal(t, []*VM{b}, h.VMs())
	assert.Equal(t, 6.0, h.Available(Compute))
	_, placed := a.Host()
	assert.False(t, placed)

	h.DestroyAllVMs()
	assert.Empty(t, h.VMs())
	assert.Equal(t, 10.0, h.Available(Memory))
}

func TestHost_Utilization_ZeroCapacityDimension(t *testing.T) {
	h := newTestHost(0, Resources{Compute: 100, Memory: 100, Bandwidth: 100})
	require.True(t, h.CreateVM(testVM("1", Resources{Compute: 50, Memory: 25})))
	assert.Equal(t, Resources{Compute: 0.5, Memory: 0.25}, h.Utilization())
}

func TestHost_Power_WithoutModelIsZero(t *testing.T) {
	h := newTestHost(0, Resources{Compute: 1})
	assert.Equal(t, 0.0, h.Power())
	assert.Equal(t, 0.0, h.MaxPower())
}
