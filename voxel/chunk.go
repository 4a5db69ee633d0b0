package voxel

// FaceDistribution summarizes how many voxels on a chunk face are empty.
type FaceDistribution uint8

const (
	FaceEmpty FaceDistribution = iota
	FaceFull
	FaceMixed
)

// ChunkFlags holds a NonUniform chunk's obscuredness bits plus IsEmpty.
type ChunkFlags uint16

const (
	IsObscuredXDn ChunkFlags = 1 << iota
	IsObscuredXUp
	IsObscuredYDn
	IsObscuredYUp
	IsObscuredZDn
	IsObscuredZUp
	ChunkIsEmpty
)

var obscuredFlagTable = [3][2]ChunkFlags{
	{IsObscuredXDn, IsObscuredXUp},
	{IsObscuredYDn, IsObscuredYUp},
	{IsObscuredZDn, IsObscuredZUp},
}

// ObscuredFlag returns the obscuredness bit for the given axis/side.
func ObscuredFlag(axis Axis, side Side) ChunkFlags {
	return obscuredFlagTable[axis][side]
}

// FullyObscured is the set of all six obscuredness bits.
const FullyObscured = IsObscuredXDn | IsObscuredXUp | IsObscuredYDn | IsObscuredYUp | IsObscuredZDn | IsObscuredZUp

// SplitHandle identifies a chunk's (or, for NonUniform chunks, its
// originating promotion's) node in the split-detection index.
type SplitHandle int32

// NoSplitHandle is the placeholder handle assigned before C7 registration.
const NoSplitHandle SplitHandle = -1

type chunkKind uint8

const (
	kindEmpty chunkKind = iota
	kindUniform
	kindNonUniform
)

// Chunk is the three-state chunk cell (C3): Empty, Uniform(voxel), or
// NonUniform{data_offset, face summaries, flags}. The discriminant is an
// invariant of the struct, not a separate flag a caller can desynchronize
// from the payload.
type Chunk struct {
	kind     chunkKind
	uniform  Voxel
	offset   int
	faceDist [3][2]FaceDistribution
	flags    ChunkFlags
	split    SplitHandle
}

// NewEmptyChunk constructs the Empty variant.
func NewEmptyChunk() Chunk {
	return Chunk{kind: kindEmpty, split: NoSplitHandle}
}

func (c Chunk) IsEmpty() bool      { return c.kind == kindEmpty }
func (c Chunk) IsUniform() bool    { return c.kind == kindUniform }
func (c Chunk) IsNonUniform() bool { return c.kind == kindNonUniform }

// ContainsOnlyEmptyVoxels reports whether the chunk is the Empty variant.
func (c Chunk) ContainsOnlyEmptyVoxels() bool { return c.IsEmpty() }

// StoredVoxelCount is 0 for Empty, 1 for Uniform, CHUNK_VOXEL_COUNT for
// NonUniform.
func (c Chunk) StoredVoxelCount() int {
	switch c.kind {
	case kindUniform:
		return 1
	case kindNonUniform:
		return ChunkVoxelCount
	default:
		return 0
	}
}

// UniformVoxel returns the representative voxel of a Uniform chunk. Calling
// this on any other variant is a programmer fault.
func (c Chunk) UniformVoxel() Voxel {
	if c.kind != kindUniform {
		panic("voxel: UniformVoxel called on a non-Uniform chunk")
	}
	return c.uniform
}

// DataOffset returns a NonUniform chunk's arena offset. Calling this on any
// other variant is a programmer fault.
func (c Chunk) DataOffset() int {
	if c.kind != kindNonUniform {
		panic("voxel: DataOffset called on a non-NonUniform chunk")
	}
	return c.offset
}

// FaceDistribution returns a NonUniform chunk's face summary on the given
// axis/side. Uniform chunks report FaceFull on every side (Data Model
// invariant 5); Empty chunks report FaceEmpty.
func (c Chunk) FaceDistribution(axis Axis, side Side) FaceDistribution {
	switch c.kind {
	case kindUniform:
		return FaceFull
	case kindNonUniform:
		return c.faceDist[axis][side]
	default:
		return FaceEmpty
	}
}

// Flags returns a NonUniform chunk's flag field. Uniform chunks report
// FullyObscured (Data Model invariant 5); Empty chunks report ChunkIsEmpty.
func (c Chunk) Flags() ChunkFlags {
	switch c.kind {
	case kindUniform:
		return FullyObscured
	case kindNonUniform:
		return c.flags
	default:
		return ChunkIsEmpty
	}
}

// IsObscured reports whether the given face is marked obscured.
func (c Chunk) IsObscured(axis Axis, side Side) bool {
	return c.Flags()&ObscuredFlag(axis, side) != 0
}

// SplitHandle returns the chunk's split-detection handle.
func (c Chunk) SplitHandle() SplitHandle { return c.split }

// SetSplitHandle overwrites the chunk's split-detection handle in place.
func (c *Chunk) SetSplitHandle(h SplitHandle) { c.split = h }

// setDataOffset is used by the analyzer pass (C4) to assign the placeholder
// offset produced by FromVoxels.
func (c *Chunk) setDataOffset(offset int) {
	if c.kind != kindNonUniform {
		panic("voxel: setDataOffset called on a non-NonUniform chunk")
	}
	c.offset = offset
}

// MarkLowerFaceObscured, MarkUpperFaceObscured mark one face as obscured. A
// no-op on Empty; a no-op on Uniform, since a Uniform chunk is defined as
// already fully obscured (Data Model invariant 5).
func (c *Chunk) MarkLowerFaceObscured(axis Axis) { c.markFaceObscured(axis, SideDn) }
func (c *Chunk) MarkUpperFaceObscured(axis Axis) { c.markFaceObscured(axis, SideUp) }

func (c *Chunk) markFaceObscured(axis Axis, side Side) {
	if c.kind != kindNonUniform {
		return
	}
	c.flags |= ObscuredFlag(axis, side)
}

// MarkLowerFaceUnobscured, MarkUpperFaceUnobscured mark one face as
// unobscured. A no-op on Empty; panics on Uniform, since a Uniform chunk
// must be converted to NonUniform first (C3 contract, spec.md §4.3).
func (c *Chunk) MarkLowerFaceUnobscured(axis Axis) { c.markFaceUnobscured(axis, SideDn) }
func (c *Chunk) MarkUpperFaceUnobscured(axis Axis) { c.markFaceUnobscured(axis, SideUp) }

func (c *Chunk) markFaceUnobscured(axis Axis, side Side) {
	switch c.kind {
	case kindEmpty:
		return
	case kindUniform:
		panic("voxel: attempt to unobscure a Uniform chunk; promote to NonUniform first")
	default:
		c.flags &^= ObscuredFlag(axis, side)
	}
}

// FromVoxels classifies CHUNK_VOXEL_COUNT voxels into a Chunk (C3). The
// returned NonUniform chunk's data_offset is a placeholder (0); the analyzer
// pass (C4) assigns the real offset once the chunk's slot in the voxel
// arena is known.
func FromVoxels(voxels []Voxel) Chunk {
	if len(voxels) != ChunkVoxelCount {
		panic("voxel: FromVoxels requires exactly CHUNK_VOXEL_COUNT voxels")
	}

	v0 := voxels[0]
	uniform := true
	anyNonEmpty := false

	// One "empty count" per face; a face has ChunkSize^2 cells.
	var emptyCounts [3][2]int

	for ii := 0; ii < ChunkSize; ii++ {
		for jj := 0; jj < ChunkSize; jj++ {
			for kk := 0; kk < ChunkSize; kk++ {
				v := voxels[LinearInChunkIndex(ii, jj, kk)]
				if !v.IsEmpty() {
					anyNonEmpty = true
				} else {
					if ii == 0 {
						emptyCounts[AxisX][SideDn]++
					}
					if ii == ChunkSize-1 {
						emptyCounts[AxisX][SideUp]++
					}
					if jj == 0 {
						emptyCounts[AxisY][SideDn]++
					}
					if jj == ChunkSize-1 {
						emptyCounts[AxisY][SideUp]++
					}
					if kk == 0 {
						emptyCounts[AxisZ][SideDn]++
					}
					if kk == ChunkSize-1 {
						emptyCounts[AxisZ][SideUp]++
					}
				}
				if !v.SameTypeAndFlags(v0) || !v.IsSDFMaximallyInsideOrOutside() {
					uniform = false
				}
			}
		}
	}

	if uniform && anyNonEmpty {
		return Chunk{kind: kindUniform, uniform: v0.WithFullAdjacency(), split: NoSplitHandle}
	}
	if !anyNonEmpty {
		return NewEmptyChunk()
	}

	const fullFaceCount = ChunkSize * ChunkSize
	var faceDist [3][2]FaceDistribution
	for axis := Axis(0); axis < 3; axis++ {
		for side := Side(0); side < 2; side++ {
			faceDist[axis][side] = distributionFromEmptyCount(emptyCounts[axis][side], fullFaceCount)
		}
	}

	return Chunk{
		kind:     kindNonUniform,
		faceDist: faceDist,
		flags:    0,
		split:    NoSplitHandle,
	}
}

// distributionFromEmptyCount resolves the spec's Open Question 1: a face's
// distribution is derived strictly from its empty-cell tally, independent of
// the chunk's overall non-empty count.
func distributionFromEmptyCount(emptyCount, fullFaceCount int) FaceDistribution {
	switch emptyCount {
	case fullFaceCount:
		return FaceEmpty
	case 0:
		return FaceFull
	default:
		return FaceMixed
	}
}
