package aml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTestTree assembles
//
//	\
//	├── _SB_ (scope)
//	│     ├── FOO_ = 1
//	│     └── PCI0 (device)
//	│           ├── FOO_ = 2
//	│           └── LPCB (device)
//	│                 └── BAR_ = 3
//	└── FOO_ = 0
func buildTestTree() (*Namespace, *Scope, *Device, *Device) {
	ns := NewNamespace()
	sb := NewScope("_SB_")
	ns.AddLevel(ns.Root(), sb)
	ns.AddValue(ns.Root(), NewInteger("FOO_", 0, 64))
	ns.AddValue(sb, NewInteger("FOO_", 1, 64))
	pci := &Device{}
	pci.name = "PCI0"
	ns.AddLevel(sb, pci)
	ns.AddValue(pci, NewInteger("FOO_", 2, 64))
	lpc := &Device{}
	lpc.name = "LPCB"
	ns.AddLevel(pci, lpc)
	ns.AddValue(lpc, NewInteger("BAR_", 3, 64))
	return ns, sb, pci, lpc
}

func TestSearchAbsolute(t *testing.T) {
	ns, _, _, lpc := buildTestTree()
	// An absolute name resolves identically from any scope.
	for _, scope := range []ScopeEntity{ns.Root(), lpc} {
		got, err := ns.Search(scope, ParseAmlName("\\_SB.PCI0.FOO"))
		require.Nil(t, err)
		assert.Equal(t, uint64(2), got.(*Integer).Val)
	}
}

func TestSearchSingleSegmentClimbsScopes(t *testing.T) {
	ns, sb, pci, lpc := buildTestTree()
	specs := []struct {
		scope ScopeEntity
		want  uint64
	}{
		{lpc, 2},       // FOO_ not in LPCB, found in PCI0
		{pci, 2},       // found directly
		{sb, 1},        // found directly
		{ns.Root(), 0}, // root's own FOO_
	}
	for _, spec := range specs {
		got, err := ns.Search(spec.scope, ParseAmlName("FOO"))
		require.Nil(t, err)
		assert.Equal(t, spec.want, got.(*Integer).Val, "from scope %s", spec.scope.Name())
	}

	got, err := ns.Search(lpc, ParseAmlName("BAR"))
	require.Nil(t, err)
	assert.Equal(t, uint64(3), got.(*Integer).Val)
}

func TestSearchMultiSegmentDoesNotClimb(t *testing.T) {
	ns, sb, _, lpc := buildTestTree()
	// Multi-segment relative names are applied once at the current scope.
	got, err := ns.Search(sb, ParseAmlName("PCI0.FOO"))
	require.Nil(t, err)
	assert.Equal(t, uint64(2), got.(*Integer).Val)

	_, err = ns.Search(lpc, ParseAmlName("PCI0.FOO"))
	require.NotNil(t, err)
	assert.Equal(t, ErrKindNotFound, err.Kind)
}

func TestSearchParentPrefix(t *testing.T) {
	ns, _, _, lpc := buildTestTree()
	got, err := ns.Search(lpc, ParseAmlName("^FOO"))
	require.Nil(t, err)
	assert.Equal(t, uint64(2), got.(*Integer).Val)

	got, err = ns.Search(lpc, ParseAmlName("^^FOO"))
	require.Nil(t, err)
	assert.Equal(t, uint64(1), got.(*Integer).Val)

	// Walking past the root is a name error.
	_, err = ns.Search(lpc, ParseAmlName("^^^^FOO"))
	require.NotNil(t, err)
	assert.Equal(t, ErrKindName, err.Kind)
}

func TestSearchMiss(t *testing.T) {
	ns, _, _, _ := buildTestTree()
	_, err := ns.Search(ns.Root(), ParseAmlName("NOPE"))
	require.NotNil(t, err)
	assert.Equal(t, ErrKindNotFound, err.Kind)
}

func TestGetByPath(t *testing.T) {
	ns, _, _, _ := buildTestTree()
	got, err := ns.GetByPath("\\_SB.PCI0.LPCB.BAR")
	require.Nil(t, err)
	assert.Equal(t, uint64(3), got.(*Integer).Val)
}

func TestTraversePreOrder(t *testing.T) {
	ns, _, _, _ := buildTestTree()
	var names []string
	ns.Traverse(func(depth int, e Entity) bool {
		names = append(names, e.Name())
		return true
	})
	assert.Equal(t, []string{"\\", "_SB_", "FOO_", "PCI0", "FOO_", "LPCB", "BAR_", "FOO_"}, names)
}

func TestTraversePruning(t *testing.T) {
	ns, _, _, _ := buildTestTree()
	var names []string
	ns.Traverse(func(depth int, e Entity) bool {
		names = append(names, e.Name())
		return e.Name() != "PCI0" // do not descend below PCI0
	})
	assert.NotContains(t, names, "LPCB")
}

func TestRemoveLevel(t *testing.T) {
	ns, sb, pci, _ := buildTestTree()
	ns.RemoveLevel(pci)
	_, err := ns.Search(ns.Root(), ParseAmlName("\\_SB.PCI0"))
	require.NotNil(t, err)

	// The sibling value under _SB_ is untouched.
	got, err := ns.Search(sb, ParseAmlName("FOO"))
	require.Nil(t, err)
	assert.Equal(t, uint64(1), got.(*Integer).Val)
}
