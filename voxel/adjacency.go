package voxel

// This file is the adjacency & obscuredness engine: the intra-chunk
// adjacency sweep, the inter-chunk face-reconciliation dispatch table, and
// Uniform-to-NonUniform promotion.

// ComputeAllDerivedState performs, in order: per-chunk internal adjacency,
// then chunk boundary adjacencies and split-detection registration. The
// internal-adjacency pass also registers intra-chunk split connections
// between adjacent non-empty voxels, folding local-connected-region
// discovery for non-uniform chunks into the same sweep rather than a
// separate pass over the same data.
func (o *Object) ComputeAllDerivedState() {
	o.UpdateInternalAdjacenciesForAllChunks()
	o.UpdateAllChunkBoundaryAdjacencies()
}

// UpdateInternalAdjacenciesForAllChunks iterates every non-uniform chunk's
// voxels once, setting all 6-bit adjacency flags exactly in a single pass
// rather than six per-direction passes.
func (o *Object) UpdateInternalAdjacenciesForAllChunks() {
	for idx := range o.chunks {
		c := o.chunks[idx]
		if !c.IsNonUniform() {
			continue
		}
		voxels := o.NonUniformChunkVoxels(c)
		base := DataOffsetStartVoxelIndex(c.DataOffset())
		updateInternalAdjacency(voxels, o.split, base)
	}
}

func updateInternalAdjacency(voxels []Voxel, split *splitDetector, base int) {
	for ii := 0; ii < ChunkSize; ii++ {
		for jj := 0; jj < ChunkSize; jj++ {
			for kk := 0; kk < ChunkSize; kk++ {
				curIdx := LinearInChunkIndex(ii, jj, kk)
				if ii+1 < ChunkSize {
					reconcileInternalPair(voxels, split, base, curIdx, LinearInChunkIndex(ii+1, jj, kk), AxisX)
				}
				if jj+1 < ChunkSize {
					reconcileInternalPair(voxels, split, base, curIdx, LinearInChunkIndex(ii, jj+1, kk), AxisY)
				}
				if kk+1 < ChunkSize {
					reconcileInternalPair(voxels, split, base, curIdx, LinearInChunkIndex(ii, jj, kk+1), AxisZ)
				}
			}
		}
	}
}

// reconcileInternalPair touches one voxel pair exactly once, writing both
// directions' adjacency bits from that single visit.
func reconcileInternalPair(voxels []Voxel, split *splitDetector, base, curIdx, upIdx int, axis Axis) {
	cur := &voxels[curIdx]
	up := &voxels[upIdx]
	if cur.IsEmpty() {
		up.SetAdjacent(axis, SideDn, false)
		return
	}
	if up.IsEmpty() {
		cur.SetAdjacent(axis, SideUp, false)
		return
	}
	cur.SetAdjacent(axis, SideUp, true)
	up.SetAdjacent(axis, SideDn, true)
	split.UpdateForNonEmptyAdjacentVoxel(base+curIdx, base+upIdx)
}

// UpdateAllChunkBoundaryAdjacencies covers all upper-face adjacencies by
// iterating every chunk cell and reconciling with its +X, +Y, +Z neighbor
// (or the virtual outside Empty chunk when there is none), then separately
// reconciles the three lower-boundary planes of the object against the
// virtual outside.
func (o *Object) UpdateAllChunkBoundaryAdjacencies() {
	for ci := 0; ci < o.chunkCounts[0]; ci++ {
		for cj := 0; cj < o.chunkCounts[1]; cj++ {
			for ck := 0; ck < o.chunkCounts[2]; ck++ {
				linear := LinearChunkIndex(ci, cj, ck, o.chunkStrides)
				o.reconcileUpperNeighbor(ci, cj, ck, linear, AxisX)
				o.reconcileUpperNeighbor(ci, cj, ck, linear, AxisY)
				o.reconcileUpperNeighbor(ci, cj, ck, linear, AxisZ)
			}
		}
	}

	o.reconcileLowerBoundaryPlane(AxisX)
	o.reconcileLowerBoundaryPlane(AxisY)
	o.reconcileLowerBoundaryPlane(AxisZ)
}

func (o *Object) reconcileUpperNeighbor(ci, cj, ck, linear int, axis Axis) {
	coords := [3]int{ci, cj, ck}
	coords[axis]++
	upperLinear := -1
	if coords[axis] < o.chunkCounts[axis] {
		upperLinear = LinearChunkIndex(coords[0], coords[1], coords[2], o.chunkStrides)
	}
	o.reconcileChunkPair(linear, upperLinear, axis)
}

func (o *Object) reconcileLowerBoundaryPlane(axis Axis) {
	other1 := (axis + 1) % 3
	other2 := (axis + 2) % 3
	counts := o.chunkCounts
	for c1 := 0; c1 < counts[other1]; c1++ {
		for c2 := 0; c2 < counts[other2]; c2++ {
			coords := [3]int{}
			coords[axis] = 0
			coords[other1] = c1
			coords[other2] = c2
			linear := LinearChunkIndex(coords[0], coords[1], coords[2], o.chunkStrides)
			o.reconcileChunkPair(-1, linear, axis)
		}
	}
}

// reconcileChunkPair is the full dispatch table over (Empty, Uniform,
// NonUniform) x (Empty, Uniform, NonUniform). lowerLinear/upperLinear are
// chunk linear indices, or -1 for the virtual Empty chunk outside the grid.
func (o *Object) reconcileChunkPair(lowerLinear, upperLinear int, axis Axis) {
	lower := o.chunkOrVirtualEmpty(lowerLinear)
	upper := o.chunkOrVirtualEmpty(upperLinear)

	switch {
	case lower.IsEmpty() && upper.IsEmpty():
		return
	case lower.IsUniform() && upper.IsUniform():
		o.split.UpdateMutualConnectionsForUniformChunks(lowerLinear, upperLinear)
	case lower.IsUniform() && upper.IsEmpty():
		o.promoteUniformAdjacentToVirtualEmpty(lowerLinear, axis, SideUp)
	case lower.IsEmpty() && upper.IsUniform():
		o.promoteUniformAdjacentToVirtualEmpty(upperLinear, axis, SideDn)
	case lower.IsNonUniform() && upper.IsEmpty():
		o.reconcileNonUniformAgainstVirtualEmpty(lowerLinear, axis, SideUp)
	case lower.IsEmpty() && upper.IsNonUniform():
		o.reconcileNonUniformAgainstVirtualEmpty(upperLinear, axis, SideDn)
	case lower.IsNonUniform() && upper.IsUniform():
		o.reconcileNonUniformAgainstUniform(lowerLinear, upperLinear, axis)
	case lower.IsUniform() && upper.IsNonUniform():
		o.reconcileUniformAgainstNonUniform(lowerLinear, upperLinear, axis)
	default:
		o.reconcileNonUniformAgainstNonUniform(lowerLinear, upperLinear, axis)
	}

	if lowerLinear >= 0 {
		o.markInvalidatedLinear(lowerLinear)
	}
	if upperLinear >= 0 {
		o.markInvalidatedLinear(upperLinear)
	}
}

func (o *Object) chunkOrVirtualEmpty(linear int) Chunk {
	if linear < 0 {
		return NewEmptyChunk()
	}
	return o.chunks[linear]
}

func (o *Object) markInvalidatedLinear(linear int) {
	ci, cj, ck := ChunkIndicesFromLinear(linear, o.chunkCounts)
	o.markInvalidated(ci, cj, ck)
}

// promoteUniformAdjacentToVirtualEmpty handles the Uniform|Empty and
// Empty|Uniform cases: promote the Uniform chunk, clear its outward-facing
// bits on the touching face, remove its C7 connections on that face, and
// mark that face unobscured.
func (o *Object) promoteUniformAdjacentToVirtualEmpty(chunkLinear int, axis Axis, touchingSide Side) {
	offset := o.promote(chunkLinear)
	c := &o.chunks[chunkLinear]
	voxels := o.voxels
	forEachFaceVoxel(offset, axis, touchingSide, func(i int) {
		voxels[i].SetAdjacent(axis, touchingSide, false)
	})
	o.split.RemoveConnectionsForNonUniformChunk(offset, axis, touchingSide)
	markFaceUnobscured(c, axis, touchingSide)
}

// reconcileNonUniformAgainstVirtualEmpty handles the NonUniform|Empty and
// Empty|NonUniform cases.
func (o *Object) reconcileNonUniformAgainstVirtualEmpty(chunkLinear int, axis Axis, touchingSide Side) {
	c := &o.chunks[chunkLinear]
	offset := c.DataOffset()
	dist := c.FaceDistribution(axis, touchingSide)
	if dist != FaceEmpty {
		voxels := o.voxels
		forEachFaceVoxel(offset, axis, touchingSide, func(i int) {
			voxels[i].SetAdjacent(axis, touchingSide, false)
		})
		o.split.RemoveConnectionsForNonUniformChunk(offset, axis, touchingSide)
	}
	markFaceUnobscured(c, axis, touchingSide)
}

func markFaceUnobscured(c *Chunk, axis Axis, side Side) {
	if side == SideUp {
		c.MarkUpperFaceUnobscured(axis)
	} else {
		c.MarkLowerFaceUnobscured(axis)
	}
}

func markFaceObscured(c *Chunk, axis Axis, side Side) {
	if side == SideUp {
		c.MarkUpperFaceObscured(axis)
	} else {
		c.MarkLowerFaceObscured(axis)
	}
}

// reconcileNonUniformAgainstUniform handles the NonUniform|Uniform case:
// lower is NonUniform, upper is Uniform.
func (o *Object) reconcileNonUniformAgainstUniform(lowerLinear, upperLinear int, axis Axis) {
	lc := &o.chunks[lowerLinear]
	offset := lc.DataOffset()
	dist := lc.FaceDistribution(axis, SideUp)

	// Any promotion of upper must happen before voxel slices are taken,
	// since it may grow (and reallocate) the shared voxel arena.
	var upperOffset int
	if dist == FaceEmpty || dist == FaceMixed {
		upperOffset = o.promote(upperLinear)
	}

	if dist != FaceEmpty {
		voxels := o.voxels
		forEachFaceVoxel(offset, axis, SideUp, func(i int) {
			if !voxels[i].IsEmpty() {
				voxels[i].SetAdjacent(axis, SideUp, true)
			}
		})
		o.split.UpdateConnectionsFromNonUniformChunkToUniformChunk(offset, upperLinear, axis, SideUp, voxels)
	}
	markFaceObscured(lc, axis, SideUp)

	switch dist {
	case FaceFull:
		voxels := o.voxels
		o.split.UpdateConnectionsFromUniformChunkToNonUniformChunk(upperLinear, offset, axis, SideUp, voxels)
	case FaceEmpty:
		uc := &o.chunks[upperLinear]
		uvoxels := o.voxels
		forEachFaceVoxel(upperOffset, axis, SideDn, func(i int) {
			uvoxels[i].SetAdjacent(axis, SideDn, false)
		})
		o.split.RemoveConnectionsForNonUniformChunk(upperOffset, axis, SideDn)
		markFaceUnobscured(uc, axis, SideDn)
	default: // Mixed
		uc := &o.chunks[upperLinear]
		lvoxels := o.NonUniformChunkVoxels(*lc)
		uvoxels := o.NonUniformChunkVoxels(*uc)
		o.reconcileFaceHalfLowerReactsToUpper(lvoxels, offset, uvoxels, upperOffset, axis)
		o.reconcileFaceHalfUpperReactsToLower(lvoxels, offset, uvoxels, upperOffset, axis)
		markFaceUnobscured(uc, axis, SideDn)
	}
}

// reconcileUniformAgainstNonUniform handles the Uniform|NonUniform case:
// lower is Uniform, upper is NonUniform. Symmetric to the function above.
func (o *Object) reconcileUniformAgainstNonUniform(lowerLinear, upperLinear int, axis Axis) {
	uc := &o.chunks[upperLinear]
	offset := uc.DataOffset()
	dist := uc.FaceDistribution(axis, SideDn)

	var lowerOffset int
	if dist == FaceEmpty || dist == FaceMixed {
		lowerOffset = o.promote(lowerLinear)
	}

	if dist != FaceEmpty {
		voxels := o.voxels
		forEachFaceVoxel(offset, axis, SideDn, func(i int) {
			if !voxels[i].IsEmpty() {
				voxels[i].SetAdjacent(axis, SideDn, true)
			}
		})
		o.split.UpdateConnectionsFromNonUniformChunkToUniformChunk(offset, lowerLinear, axis, SideDn, voxels)
	}
	markFaceObscured(uc, axis, SideDn)

	switch dist {
	case FaceFull:
		voxels := o.voxels
		o.split.UpdateConnectionsFromUniformChunkToNonUniformChunk(lowerLinear, offset, axis, SideDn, voxels)
	case FaceEmpty:
		lc := &o.chunks[lowerLinear]
		lvoxels := o.voxels
		forEachFaceVoxel(lowerOffset, axis, SideUp, func(i int) {
			lvoxels[i].SetAdjacent(axis, SideUp, false)
		})
		o.split.RemoveConnectionsForNonUniformChunk(lowerOffset, axis, SideUp)
		markFaceUnobscured(lc, axis, SideUp)
	default: // Mixed
		lc := &o.chunks[lowerLinear]
		lvoxels := o.NonUniformChunkVoxels(*lc)
		uvoxels := o.NonUniformChunkVoxels(*uc)
		o.reconcileFaceHalfLowerReactsToUpper(lvoxels, lowerOffset, uvoxels, offset, axis)
		o.reconcileFaceHalfUpperReactsToLower(lvoxels, lowerOffset, uvoxels, offset, axis)
		markFaceUnobscured(lc, axis, SideUp)
	}
}

// reconcileNonUniformAgainstNonUniform handles the NonUniform|NonUniform
// case: for each direction, branch on the opposite chunk's face
// distribution, then set obscuredness on both chunks.
func (o *Object) reconcileNonUniformAgainstNonUniform(lowerLinear, upperLinear int, axis Axis) {
	lc := &o.chunks[lowerLinear]
	uc := &o.chunks[upperLinear]
	lowerOffset := lc.DataOffset()
	upperOffset := uc.DataOffset()
	lowerDist := lc.FaceDistribution(axis, SideUp)
	upperDist := uc.FaceDistribution(axis, SideDn)

	lvoxels := o.NonUniformChunkVoxels(*lc)
	uvoxels := o.NonUniformChunkVoxels(*uc)

	// lower reacts to upper's distribution
	switch upperDist {
	case FaceEmpty:
		forEachFaceVoxel(lowerOffset, axis, SideUp, func(i int) { o.voxels[i].SetAdjacent(axis, SideUp, false) })
		o.split.RemoveConnectionsForNonUniformChunk(lowerOffset, axis, SideUp)
	case FaceFull:
		forEachFaceVoxel(lowerOffset, axis, SideUp, func(i int) {
			if !o.voxels[i].IsEmpty() {
				o.voxels[i].SetAdjacent(axis, SideUp, true)
			}
		})
		rep := o.split.firstFaceVoxelNode(upperOffset, axis, SideDn)
		o.split.UpdateConnectionsWithFullFace(lowerOffset, axis, SideUp, o.voxels, rep)
	default: // Mixed
		o.reconcileFaceHalfLowerReactsToUpper(lvoxels, lowerOffset, uvoxels, upperOffset, axis)
	}

	// upper reacts to lower's distribution
	switch lowerDist {
	case FaceEmpty:
		forEachFaceVoxel(upperOffset, axis, SideDn, func(i int) { o.voxels[i].SetAdjacent(axis, SideDn, false) })
		o.split.RemoveConnectionsForNonUniformChunk(upperOffset, axis, SideDn)
	case FaceFull:
		forEachFaceVoxel(upperOffset, axis, SideDn, func(i int) {
			if !o.voxels[i].IsEmpty() {
				o.voxels[i].SetAdjacent(axis, SideDn, true)
			}
		})
		rep := o.split.firstFaceVoxelNode(lowerOffset, axis, SideUp)
		o.split.UpdateConnectionsWithFullFace(upperOffset, axis, SideDn, o.voxels, rep)
	default: // Mixed
		o.reconcileFaceHalfUpperReactsToLower(lvoxels, lowerOffset, uvoxels, upperOffset, axis)
	}

	if upperDist == FaceFull {
		markFaceObscured(lc, axis, SideUp)
	} else {
		markFaceUnobscured(lc, axis, SideUp)
	}
	if lowerDist == FaceFull {
		markFaceObscured(uc, axis, SideDn)
	} else {
		markFaceUnobscured(uc, axis, SideDn)
	}
}

// reconcileFaceHalfLowerReactsToUpper is the per-voxel reconciliation sweep
// of spec.md §4.6 run in the lower-reacts-to-upper direction: for each
// non-empty lower-face voxel, set its outward bit and register a C7
// connection when the matching upper-face voxel is also non-empty,
// otherwise clear the bit.
func (o *Object) reconcileFaceHalfLowerReactsToUpper(lvoxels []Voxel, lowerOffset int, uvoxels []Voxel, upperOffset int, axis Axis) {
	lowerStart := DataOffsetStartVoxelIndex(lowerOffset)
	upperStart := DataOffsetStartVoxelIndex(upperOffset)
	for a := 0; a < ChunkSize; a++ {
		for b := 0; b < ChunkSize; b++ {
			li, ui := facePairLocal(axis, a, b)
			if lvoxels[li].IsEmpty() {
				continue
			}
			if uvoxels[ui].IsEmpty() {
				lvoxels[li].SetAdjacent(axis, SideUp, false)
				continue
			}
			lvoxels[li].SetAdjacent(axis, SideUp, true)
			o.split.UpdateForNonEmptyAdjacentVoxel(lowerStart+li, upperStart+ui)
		}
	}
}

// reconcileFaceHalfUpperReactsToLower is the symmetric sweep in the
// upper-reacts-to-lower direction.
func (o *Object) reconcileFaceHalfUpperReactsToLower(lvoxels []Voxel, lowerOffset int, uvoxels []Voxel, upperOffset int, axis Axis) {
	lowerStart := DataOffsetStartVoxelIndex(lowerOffset)
	upperStart := DataOffsetStartVoxelIndex(upperOffset)
	for a := 0; a < ChunkSize; a++ {
		for b := 0; b < ChunkSize; b++ {
			li, ui := facePairLocal(axis, a, b)
			if uvoxels[ui].IsEmpty() {
				continue
			}
			if lvoxels[li].IsEmpty() {
				uvoxels[ui].SetAdjacent(axis, SideDn, false)
				continue
			}
			uvoxels[ui].SetAdjacent(axis, SideDn, true)
			o.split.UpdateForNonEmptyAdjacentVoxel(lowerStart+li, upperStart+ui)
		}
	}
}

// promote converts chunkLinear from Uniform to NonUniform (Design Notes §9,
// "Promotion without compaction"): it appends CHUNK_VOXEL_COUNT copies of
// the representative voxel to the arena, computes the new data_offset, sets
// face distributions to all-Full and flags to fully obscured, and transfers
// the uniform chunk's split-detection component into the new voxel data.
func (o *Object) promote(chunkLinear int) int {
	c := &o.chunks[chunkLinear]
	if !c.IsUniform() {
		panic("voxel: promote called on a non-Uniform chunk")
	}
	rep := c.UniformVoxel()
	offset := len(o.voxels) / ChunkVoxelCount
	for i := 0; i < ChunkVoxelCount; i++ {
		o.voxels = append(o.voxels, rep)
	}
	*c = Chunk{
		kind: kindNonUniform,
		offset: offset,
		faceDist: [3][2]FaceDistribution{
			{FaceFull, FaceFull},
			{FaceFull, FaceFull},
			{FaceFull, FaceFull},
		},
		flags: FullyObscured,
		split: SplitHandle(chunkLinear),
	}
	o.split.ConvertUniformChunkToNonUniform(chunkLinear, offset)
	updateInternalAdjacency(o.NonUniformChunkVoxels(*c), o.split, DataOffsetStartVoxelIndex(offset))
	o.markInvalidatedLinear(chunkLinear)
	o.logger.Debugf("voxel: promoted chunk %d to NonUniform at data_offset=%d", chunkLinear, offset)
	return offset
}
