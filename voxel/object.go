package voxel

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// halfOpenRange is a half-open [Lo, Hi) interval along one axis.
type halfOpenRange struct{ Lo, Hi int }

func (r halfOpenRange) empty() bool { return r.Hi <= r.Lo }

// Object is the chunked voxel object (C4): the chunk grid, voxel arena,
// occupied bounds, derived-state orchestrator, and invalidated-mesh-chunk
// set. An Object is single-owner: mutating methods require exclusive access,
// query methods require only shared access.
type Object struct {
	voxelExtent    float32
	invVoxelExtent float32

	chunkCounts  [3]int
	chunkStrides [3]int

	occupiedChunkRanges [3]halfOpenRange
	occupiedVoxelRanges [3]halfOpenRange

	originOffsetInRoot [3]int

	chunks []Chunk
	voxels []Voxel

	split *splitDetector

	invalidatedMeshChunkIndices map[[3]int]struct{}

	logger Logger
}

func newObjectShell(g Generator, logger Logger) *Object {
	if logger == nil {
		logger = NewNopLogger()
	}
	shape := g.GridShape()
	counts := chunkCountsForShape(shape)
	total := counts[0] * counts[1] * counts[2]

	o := &Object{
		voxelExtent:                 g.VoxelExtent(),
		chunkCounts:                 counts,
		chunkStrides:                ChunkStridesFromCounts(counts),
		chunks:                      make([]Chunk, total),
		split:                       newSplitDetector(total),
		invalidatedMeshChunkIndices: make(map[[3]int]struct{}),
		logger:                      logger,
	}
	if o.voxelExtent != 0 {
		o.invVoxelExtent = 1 / o.voxelExtent
	}
	for i := range o.chunks {
		o.chunks[i] = NewEmptyChunk()
	}
	if total == 0 {
		logger.Warnf("voxel: generator produced an empty grid shape")
	}
	return o
}

// Generate produces an object with all derived state (adjacency,
// obscuredness, split-detection) computed.
func Generate(g Generator, logger Logger) *Object {
	o := newObjectShell(g, logger)
	o.generateChunksSerial(g)
	o.analyze()
	o.ComputeAllDerivedState()
	return o
}

// GenerateWithoutDerivedState constructs the chunk grid and arena, assigns
// data offsets, and computes occupied ranges, but skips the C6/C7 pass. It
// exists for fuzzing and staged use (spec.md §4.4).
func GenerateWithoutDerivedState(g Generator, logger Logger) *Object {
	o := newObjectShell(g, logger)
	o.generateChunksSerial(g)
	o.analyze()
	return o
}

func (o *Object) generateChunksSerial(g Generator) {
	arena := NewArena(g.TotalBufferSize())
	buffers := g.CreateBuffersIn(arena)
	scratch := make([]Voxel, ChunkVoxelCount)

	for ci := 0; ci < o.chunkCounts[0]; ci++ {
		for cj := 0; cj < o.chunkCounts[1]; cj++ {
			for ck := 0; ck < o.chunkCounts[2]; ck++ {
				origin := ChunkOrigin(ci, cj, ck)
				g.GenerateChunk(buffers, scratch, origin)
				chunk := FromVoxels(scratch)
				linear := LinearChunkIndex(ci, cj, ck, o.chunkStrides)
				if chunk.IsNonUniform() {
					offset := len(o.voxels) / ChunkVoxelCount
					chunk.setDataOffset(offset)
					o.voxels = append(o.voxels, scratch...)
				}
				o.chunks[linear] = chunk
			}
		}
	}
}

// analyze assigns split-detection handles to every non-empty chunk and
// computes the occupied ranges. It is the "analyzer pass" of spec.md §2.
func (o *Object) analyze() {
	for idx := range o.chunks {
		c := &o.chunks[idx]
		if c.IsEmpty() {
			continue
		}
		c.SetSplitHandle(SplitHandle(idx))
	}
	o.UpdateOccupiedRanges()
}

// --- queries -----------------------------------------------------------

func (o *Object) VoxelExtent() float32        { return o.voxelExtent }
func (o *Object) InverseVoxelExtent() float32 { return o.invVoxelExtent }
func (o *Object) ChunkExtent() float32        { return o.voxelExtent * ChunkSize }
func (o *Object) ChunkCounts() [3]int         { return o.chunkCounts }
func (o *Object) TotalChunkCount() int        { return len(o.chunks) }
func (o *Object) OriginOffsetInRoot() [3]float32 {
	return [3]float32{
		float32(o.originOffsetInRoot[0]) * o.voxelExtent,
		float32(o.originOffsetInRoot[1]) * o.voxelExtent,
		float32(o.originOffsetInRoot[2]) * o.voxelExtent,
	}
}

// OccupiedChunkRanges returns the tightest axis-aligned chunk-granularity
// bound enclosing every non-empty chunk, as [lo, hi) pairs.
func (o *Object) OccupiedChunkRanges() [3][2]int {
	return [3][2]int{
		{o.occupiedChunkRanges[0].Lo, o.occupiedChunkRanges[0].Hi},
		{o.occupiedChunkRanges[1].Lo, o.occupiedChunkRanges[1].Hi},
		{o.occupiedChunkRanges[2].Lo, o.occupiedChunkRanges[2].Hi},
	}
}

// OccupiedVoxelRanges returns the tightest voxel-granularity bound.
func (o *Object) OccupiedVoxelRanges() [3][2]int {
	return [3][2]int{
		{o.occupiedVoxelRanges[0].Lo, o.occupiedVoxelRanges[0].Hi},
		{o.occupiedVoxelRanges[1].Lo, o.occupiedVoxelRanges[1].Hi},
		{o.occupiedVoxelRanges[2].Lo, o.occupiedVoxelRanges[2].Hi},
	}
}

// ContainsOnlyEmptyVoxels reports whether every chunk is Empty.
func (o *Object) ContainsOnlyEmptyVoxels() bool {
	return o.occupiedChunkRanges[0].empty()
}

// StoredVoxelCount is the total number of voxels physically stored in the
// arena (CHUNK_VOXEL_COUNT per NonUniform chunk).
func (o *Object) StoredVoxelCount() int { return len(o.voxels) }

// Chunks returns the full chunk slice in x-major order. Callers must treat
// it as read-only.
func (o *Object) Chunks() []Chunk { return o.chunks }

// Voxels returns the full voxel arena. Callers must treat it as read-only.
func (o *Object) Voxels() []Voxel { return o.voxels }

func (o *Object) chunkIndexInBounds(ci, cj, ck int) bool {
	return ci >= 0 && ci < o.chunkCounts[0] &&
		cj >= 0 && cj < o.chunkCounts[1] &&
		ck >= 0 && ck < o.chunkCounts[2]
}

// GetChunk returns the chunk at the given chunk-space indices, or the Empty
// variant if out of bounds.
func (o *Object) GetChunk(ci, cj, ck int) Chunk {
	if !o.chunkIndexInBounds(ci, cj, ck) {
		return NewEmptyChunk()
	}
	return o.chunks[LinearChunkIndex(ci, cj, ck, o.chunkStrides)]
}

// GetVoxel returns the voxel at the given global voxel-space indices. The
// second return value is false for any out-of-bounds or empty position.
func (o *Object) GetVoxel(i, j, k int) (Voxel, bool) {
	ci, cj, ck := ChunkIndices(i, j, k)
	if !o.chunkIndexInBounds(ci, cj, ck) {
		return Voxel{}, false
	}
	chunk := o.chunks[LinearChunkIndex(ci, cj, ck, o.chunkStrides)]
	switch {
	case chunk.IsEmpty():
		return Voxel{}, false
	case chunk.IsUniform():
		return chunk.UniformVoxel(), true
	default:
		ii, jj, kk := LocalIndices(i, j, k)
		v := o.voxels[DataOffsetStartVoxelIndex(chunk.DataOffset())+LinearInChunkIndex(ii, jj, kk)]
		if v.IsEmpty() {
			return Voxel{}, false
		}
		return v, true
	}
}

// GetVoxelAtCoords converts world-space coordinates to voxel indices (floor
// after multiplying by the inverse voxel extent) and forwards to GetVoxel.
func (o *Object) GetVoxelAtCoords(x, y, z float32) (Voxel, bool) {
	i := int(math.Floor(float64(x * o.invVoxelExtent)))
	j := int(math.Floor(float64(y * o.invVoxelExtent)))
	k := int(math.Floor(float64(z * o.invVoxelExtent)))
	return o.GetVoxel(i, j, k)
}

// NonUniformChunkVoxels returns the CHUNK_VOXEL_COUNT voxels backing a
// NonUniform chunk. Calling this with a chunk that is not NonUniform, or
// whose data_offset no longer addresses a valid window, is a programmer
// fault.
func (o *Object) NonUniformChunkVoxels(c Chunk) []Voxel {
	start := DataOffsetStartVoxelIndex(c.DataOffset())
	if start < 0 || start+ChunkVoxelCount > len(o.voxels) {
		panic("voxel: stale NonUniform chunk handle")
	}
	return o.voxels[start : start+ChunkVoxelCount]
}

// ForEachChunk iterates every chunk slot, occupied or not, in x-major
// order.
func (o *Object) ForEachChunk(fn func(ci, cj, ck int, c Chunk)) {
	for ci := 0; ci < o.chunkCounts[0]; ci++ {
		for cj := 0; cj < o.chunkCounts[1]; cj++ {
			for ck := 0; ck < o.chunkCounts[2]; ck++ {
				fn(ci, cj, ck, o.chunks[LinearChunkIndex(ci, cj, ck, o.chunkStrides)])
			}
		}
	}
}

// ForEachOccupiedChunk iterates every chunk within occupied_chunk_ranges,
// including empty slots inside that bound (the bound is axis-aligned, not a
// tight occupancy mask).
func (o *Object) ForEachOccupiedChunk(fn func(ci, cj, ck int, c Chunk)) {
	if o.occupiedChunkRanges[0].empty() {
		return
	}
	rx, ry, rz := o.occupiedChunkRanges[0], o.occupiedChunkRanges[1], o.occupiedChunkRanges[2]
	for ci := rx.Lo; ci < rx.Hi; ci++ {
		for cj := ry.Lo; cj < ry.Hi; cj++ {
			for ck := rz.Lo; ck < rz.Hi; ck++ {
				fn(ci, cj, ck, o.chunks[LinearChunkIndex(ci, cj, ck, o.chunkStrides)])
			}
		}
	}
}

// ForEachVoxelInNonUniformChunk iterates every voxel of a NonUniform chunk
// together with its global voxel-space position.
func (o *Object) ForEachVoxelInNonUniformChunk(ci, cj, ck int, c Chunk, fn func(i, j, k int, v Voxel)) {
	voxels := o.NonUniformChunkVoxels(c)
	origin := ChunkOrigin(ci, cj, ck)
	for ii := 0; ii < ChunkSize; ii++ {
		for jj := 0; jj < ChunkSize; jj++ {
			for kk := 0; kk < ChunkSize; kk++ {
				v := voxels[LinearInChunkIndex(ii, jj, kk)]
				fn(origin[0]+ii, origin[1]+jj, origin[2]+kk, v)
			}
		}
	}
}

// ComputeAABB derives an axis-aligned bounding box from occupied_voxel_ranges
// and voxel_extent.
func (o *Object) ComputeAABB() (min, max mgl32.Vec3) {
	rx, ry, rz := o.occupiedVoxelRanges[0], o.occupiedVoxelRanges[1], o.occupiedVoxelRanges[2]
	if rx.empty() {
		return mgl32.Vec3{}, mgl32.Vec3{}
	}
	e := o.voxelExtent
	min = mgl32.Vec3{float32(rx.Lo) * e, float32(ry.Lo) * e, float32(rz.Lo) * e}
	max = mgl32.Vec3{float32(rx.Hi) * e, float32(ry.Hi) * e, float32(rz.Hi) * e}
	return
}

// ComputeBoundingSphere derives a bounding sphere from occupied_voxel_ranges:
// the base sphere encloses the centers of the extremal occupied voxels, then
// is expanded by ½·√3·voxel_extent so that voxel corners are included too.
func (o *Object) ComputeBoundingSphere() (center mgl32.Vec3, radius float32) {
	rx, ry, rz := o.occupiedVoxelRanges[0], o.occupiedVoxelRanges[1], o.occupiedVoxelRanges[2]
	if rx.empty() {
		return mgl32.Vec3{}, 0
	}
	e := o.voxelExtent
	minCenter := mgl32.Vec3{(float32(rx.Lo) + 0.5) * e, (float32(ry.Lo) + 0.5) * e, (float32(rz.Lo) + 0.5) * e}
	maxCenter := mgl32.Vec3{(float32(rx.Hi) - 0.5) * e, (float32(ry.Hi) - 0.5) * e, (float32(rz.Hi) - 0.5) * e}
	center = minCenter.Add(maxCenter).Mul(0.5)
	radius = maxCenter.Sub(center).Len() + 0.5*float32(math.Sqrt(3))*e
	return
}

// IsEffectivelyEmpty performs an early-exit three-stage check rather than
// always counting every voxel.
func (o *Object) IsEffectivelyEmpty() bool {
	rx, ry, rz := o.occupiedChunkRanges[0], o.occupiedChunkRanges[1], o.occupiedChunkRanges[2]
	if rx.empty() {
		return true
	}

	occupiedChunks := 0
	o.ForEachOccupiedChunk(func(_, _, _ int, c Chunk) {
		if !c.IsEmpty() {
			occupiedChunks++
		}
	})
	if occupiedChunks >= NonEmptyVoxelThreshold {
		return false
	}

	vr := o.occupiedVoxelRanges
	volume := (vr[0].Hi - vr[0].Lo) * (vr[1].Hi - vr[1].Lo) * (vr[2].Hi - vr[2].Lo)
	if volume < NonEmptyVoxelThreshold {
		return true
	}

	count := 0
	done := false
	o.ForEachOccupiedChunk(func(ci, cj, ck int, c Chunk) {
		if done {
			return
		}
		switch {
		case c.IsEmpty():
		case c.IsUniform():
			count += ChunkVoxelCount
		default:
			o.ForEachVoxelInNonUniformChunk(ci, cj, ck, c, func(_, _, _ int, v Voxel) {
				if done {
					return
				}
				if !v.IsEmpty() {
					count++
				}
			})
		}
		if count >= NonEmptyVoxelThreshold {
			done = true
		}
	})
	return count < NonEmptyVoxelThreshold
}

// ExposedChunkCountHeuristic counts occupied chunks that are not fully
// obscured on every side; a cheap over-approximation of how many chunks a
// mesher would need to touch.
func (o *Object) ExposedChunkCountHeuristic() int {
	n := 0
	o.ForEachOccupiedChunk(func(_, _, _ int, c Chunk) {
		if c.IsEmpty() {
			return
		}
		if c.Flags()&FullyObscured != FullyObscured {
			n++
		}
	})
	return n
}

// SurfaceVoxelCountHeuristic sums, over NonUniform chunks, the number of
// voxels that are non-empty but do not have full adjacency, i.e. voxels that
// sit on an exposed surface.
func (o *Object) SurfaceVoxelCountHeuristic() int {
	n := 0
	o.ForEachOccupiedChunk(func(ci, cj, ck int, c Chunk) {
		if !c.IsNonUniform() {
			return
		}
		o.ForEachVoxelInNonUniformChunk(ci, cj, ck, c, func(_, _, _ int, v Voxel) {
			if !v.IsEmpty() && v.AdjacentCount() < 6 {
				n++
			}
		})
	})
	return n
}

// InvalidatedMeshChunkIndices returns the set of chunk indices whose
// meshable surface may have changed since the last synchronization.
func (o *Object) InvalidatedMeshChunkIndices() []([3]int) {
	out := make([][3]int, 0, len(o.invalidatedMeshChunkIndices))
	for idx := range o.invalidatedMeshChunkIndices {
		out = append(out, idx)
	}
	return out
}

// MarkChunkMeshesSynchronized clears the invalidated-mesh-chunk set.
func (o *Object) MarkChunkMeshesSynchronized() {
	o.invalidatedMeshChunkIndices = make(map[[3]int]struct{})
}

func (o *Object) markInvalidated(ci, cj, ck int) {
	o.invalidatedMeshChunkIndices[[3]int{ci, cj, ck}] = struct{}{}
}

// --- occupied-range maintenance -----------------------------------------

// UpdateOccupiedRanges re-derives both chunk and voxel occupied ranges, in
// that order: UpdateOccupiedVoxelRanges depends on fresh chunk ranges
// (Design Notes §9, Open Question 2).
func (o *Object) UpdateOccupiedRanges() {
	o.updateOccupiedChunkRanges()
	o.UpdateOccupiedVoxelRanges()
}

func (o *Object) updateOccupiedChunkRanges() {
	var lo, hi [3]int
	found := false
	for ci := 0; ci < o.chunkCounts[0]; ci++ {
		for cj := 0; cj < o.chunkCounts[1]; cj++ {
			for ck := 0; ck < o.chunkCounts[2]; ck++ {
				if o.chunks[LinearChunkIndex(ci, cj, ck, o.chunkStrides)].IsEmpty() {
					continue
				}
				idx := [3]int{ci, cj, ck}
				if !found {
					lo, hi = idx, idx
					found = true
					continue
				}
				for a := 0; a < 3; a++ {
					if idx[a] < lo[a] {
						lo[a] = idx[a]
					}
					if idx[a] > hi[a] {
						hi[a] = idx[a]
					}
				}
			}
		}
	}
	if !found {
		o.occupiedChunkRanges = [3]halfOpenRange{}
		return
	}
	for a := 0; a < 3; a++ {
		o.occupiedChunkRanges[a] = halfOpenRange{lo[a], hi[a] + 1}
	}
}

// UpdateOccupiedVoxelRanges searches each axis/side for the first occupied
// voxel using a short-circuit scan over the extremal chunk slab, snapping to
// chunk extents when the scanned chunk is Uniform. Callers must ensure chunk
// ranges are fresh (Design Notes §9, Open Question 2); UpdateOccupiedRanges
// does this for them.
func (o *Object) UpdateOccupiedVoxelRanges() {
	if o.occupiedChunkRanges[0].empty() {
		o.occupiedVoxelRanges = [3]halfOpenRange{}
		return
	}
	for axis := Axis(0); axis < 3; axis++ {
		lo := o.findOccupiedVoxelBound(axis, SideDn)
		hi := o.findOccupiedVoxelBound(axis, SideUp) + 1
		o.occupiedVoxelRanges[axis] = halfOpenRange{lo, hi}
	}
}

// findOccupiedVoxelBound finds the extremal occupied voxel index on one
// axis/side by scanning the extremal chunk slab and stopping at the first
// non-empty voxel encountered.
func (o *Object) findOccupiedVoxelBound(axis Axis, side Side) int {
	chunkRange := o.occupiedChunkRanges[axis]
	chunkIdx := chunkRange.Lo
	if side == SideUp {
		chunkIdx = chunkRange.Hi - 1
	}

	other1 := (axis + 1) % 3
	other2 := (axis + 2) % 3
	r1 := o.occupiedChunkRanges[other1]
	r2 := o.occupiedChunkRanges[other2]

	best := -1
	better := func(v int) bool {
		if best == -1 {
			return true
		}
		if side == SideDn {
			return v < best
		}
		return v > best
	}

	for c1 := r1.Lo; c1 < r1.Hi; c1++ {
		for c2 := r2.Lo; c2 < r2.Hi; c2++ {
			var ci, cj, ck int
			coords := [3]int{}
			coords[axis] = chunkIdx
			coords[other1] = c1
			coords[other2] = c2
			ci, cj, ck = coords[0], coords[1], coords[2]
			chunk := o.chunks[LinearChunkIndex(ci, cj, ck, o.chunkStrides)]
			if chunk.IsEmpty() {
				continue
			}
			origin := ChunkOrigin(ci, cj, ck)
			if chunk.IsUniform() {
				extremum := origin[axis]
				if side == SideUp {
					extremum += ChunkSize - 1
				}
				if better(extremum) {
					best = extremum
				}
				continue
			}
			voxels := o.NonUniformChunkVoxels(chunk)
			start, end, step := 0, ChunkSize, 1
			if side == SideUp {
				start, end, step = ChunkSize-1, -1, -1
			}
		scanAxis:
			for a := start; a != end; a += step {
				for b1 := 0; b1 < ChunkSize; b1++ {
					for b2 := 0; b2 < ChunkSize; b2++ {
						local := [3]int{}
						local[axis] = a
						local[other1] = b1
						local[other2] = b2
						v := voxels[LinearInChunkIndex(local[0], local[1], local[2])]
						if !v.IsEmpty() {
							extremum := origin[axis] + a
							if better(extremum) {
								best = extremum
							}
							break scanAxis
						}
					}
				}
			}
		}
	}
	return best
}

// validateOccupiedVoxelRanges is the brute-force, tight variant used for
// fuzzing/testing (spec.md §4.4, §11 supplemented features): it walks every
// voxel rather than short-circuiting per chunk slab.
func (o *Object) validateOccupiedVoxelRanges() [3]halfOpenRange {
	var lo, hi [3]int
	found := false
	o.ForEachOccupiedChunk(func(ci, cj, ck int, c Chunk) {
		switch {
		case c.IsEmpty():
			return
		case c.IsUniform():
			origin := ChunkOrigin(ci, cj, ck)
			for ii := 0; ii < ChunkSize; ii++ {
				for jj := 0; jj < ChunkSize; jj++ {
					for kk := 0; kk < ChunkSize; kk++ {
						pos := [3]int{origin[0] + ii, origin[1] + jj, origin[2] + kk}
						if !found {
							lo, hi = pos, pos
							found = true
						} else {
							for a := 0; a < 3; a++ {
								if pos[a] < lo[a] {
									lo[a] = pos[a]
								}
								if pos[a] > hi[a] {
									hi[a] = pos[a]
								}
							}
						}
					}
				}
			}
		default:
			o.ForEachVoxelInNonUniformChunk(ci, cj, ck, c, func(i, j, k int, v Voxel) {
				if v.IsEmpty() {
					return
				}
				pos := [3]int{i, j, k}
				if !found {
					lo, hi = pos, pos
					found = true
					return
				}
				for a := 0; a < 3; a++ {
					if pos[a] < lo[a] {
						lo[a] = pos[a]
					}
					if pos[a] > hi[a] {
						hi[a] = pos[a]
					}
				}
			})
		}
	})
	if !found {
		return [3]halfOpenRange{}
	}
	var out [3]halfOpenRange
	for a := 0; a < 3; a++ {
		out[a] = halfOpenRange{lo[a], hi[a] + 1}
	}
	return out
}
