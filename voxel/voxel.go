package voxel

import (
	"math"
	"math/bits"
)

// MaterialID names a voxel's material. The zero value, EmptyMaterial, is the
// single sentinel that makes a voxel empty.
type MaterialID uint8

// EmptyMaterial is the material id that makes a voxel empty.
const EmptyMaterial MaterialID = 0

// SDF extremes. A voxel's signed-distance magnitude is "maximally inside" or
// "maximally outside" when it sits exactly at one of these two values; any
// other value means the voxel sits near a surface and therefore can never
// participate in a Uniform chunk even if its neighbors share its material and
// flags.
const (
	SDFMaximallyOutside int16 = math.MaxInt16
	SDFMaximallyInside  int16 = math.MinInt16
)

// VoxelFlags is the 8-bit flag field of a voxel. The low six bits are the
// adjacency flags; the remaining two bits are spare.
type VoxelFlags uint8

const (
	HasAdjacentXDn VoxelFlags = 1 << iota
	HasAdjacentXUp
	HasAdjacentYDn
	HasAdjacentYUp
	HasAdjacentZDn
	HasAdjacentZUp
)

// FullAdjacency is the named subset with all six adjacency bits set.
const FullAdjacency = HasAdjacentXDn | HasAdjacentXUp | HasAdjacentYDn | HasAdjacentYUp | HasAdjacentZDn | HasAdjacentZUp

// adjacencyFlagTable maps (axis, side) to the flag that means "neighbor on that
// side is non-empty".
var adjacencyFlagTable = [3][2]VoxelFlags{
	{HasAdjacentXDn, HasAdjacentXUp},
	{HasAdjacentYDn, HasAdjacentYUp},
	{HasAdjacentZDn, HasAdjacentZUp},
}

// AdjacencyFlag returns the flag bit for the neighbor on the given axis/side.
func AdjacencyFlag(axis Axis, side Side) VoxelFlags {
	return adjacencyFlagTable[axis][side]
}

// Voxel is the per-voxel record (C2): material id, signed-distance
// magnitude, and adjacency flags. It is trivially copyable by value.
type Voxel struct {
	Material MaterialID
	SDF      int16
	Flags    VoxelFlags
}

// NewEmptyVoxel constructs an empty voxel sitting maximally outside any
// surface.
func NewEmptyVoxel() Voxel {
	return Voxel{Material: EmptyMaterial, SDF: SDFMaximallyOutside}
}

// NewMaximallyInsideVoxel constructs a non-empty voxel of the given material,
// deep inside a solid region.
func NewMaximallyInsideVoxel(m MaterialID) Voxel {
	return Voxel{Material: m, SDF: SDFMaximallyInside}
}

// NewMaximallyOutsideVoxel constructs a non-empty voxel of the given
// material sitting maximally outside any surface (e.g. a material that fills
// space without a meaningful nearby boundary).
func NewMaximallyOutsideVoxel(m MaterialID) Voxel {
	return Voxel{Material: m, SDF: SDFMaximallyOutside}
}

// IsEmpty reports whether the voxel's material id names the empty type.
func (v Voxel) IsEmpty() bool {
	return v.Material == EmptyMaterial
}

// IsSDFMaximallyInsideOrOutside reports whether the voxel's signed-distance
// magnitude sits at one of the two extremes.
func (v Voxel) IsSDFMaximallyInsideOrOutside() bool {
	return v.SDF == SDFMaximallyInside || v.SDF == SDFMaximallyOutside
}

// SameTypeAndFlags is the equivalence relation used to test chunk
// uniformity: same material id and same flag field.
func (v Voxel) SameTypeAndFlags(other Voxel) bool {
	return v.Material == other.Material && v.Flags == other.Flags
}

// WithFullAdjacency returns a copy of v with all six adjacency bits set, as
// used for a Uniform chunk's representative voxel.
func (v Voxel) WithFullAdjacency() Voxel {
	v.Flags |= FullAdjacency
	return v
}

// HasFlags reports whether all bits in f are set.
func (v Voxel) HasFlags(f VoxelFlags) bool {
	return v.Flags&f == f
}

// HasAdjacent reports whether the neighbor on the given axis/side is marked
// non-empty.
func (v Voxel) HasAdjacent(axis Axis, side Side) bool {
	return v.HasFlags(AdjacencyFlag(axis, side))
}

// AdjacentCount reports how many of the six adjacency bits are set, via a
// population count rather than six individual bit tests.
func (v Voxel) AdjacentCount() int {
	return bits.OnesCount8(uint8(v.Flags & FullAdjacency))
}

// AddFlags sets the given bits in place.
func (v *Voxel) AddFlags(f VoxelFlags) { v.Flags |= f }

// RemoveFlags clears the given bits in place.
func (v *Voxel) RemoveFlags(f VoxelFlags) { v.Flags &^= f }

// ReplaceFlags overwrites the flag field in place.
func (v *Voxel) ReplaceFlags(f VoxelFlags) { v.Flags = f }

// SetAdjacent sets or clears the adjacency bit for one direction in place.
func (v *Voxel) SetAdjacent(axis Axis, side Side, present bool) {
	flag := AdjacencyFlag(axis, side)
	if present {
		v.AddFlags(flag)
	} else {
		v.RemoveFlags(flag)
	}
}
