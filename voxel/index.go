package voxel

// Index algebra (C1). All conversions here are pure bit operations; no
// caller should ever scan a chunk or the object to locate a voxel or chunk.

const inChunkMask = ChunkSize - 1

// ChunkAndLocalIndices decomposes a global voxel index along one axis into
// its chunk index and in-chunk index.
func ChunkAndLocalIndices(v int) (chunkIdx, localIdx int) {
	return v >> LogChunkSize, v & inChunkMask
}

// ChunkIndices decomposes a global voxel position into chunk-space indices.
func ChunkIndices(i, j, k int) (ci, cj, ck int) {
	return i >> LogChunkSize, j >> LogChunkSize, k >> LogChunkSize
}

// LocalIndices decomposes a global voxel position into its in-chunk indices.
func LocalIndices(i, j, k int) (ii, jj, kk int) {
	return i & inChunkMask, j & inChunkMask, k & inChunkMask
}

// ChunkStridesFromCounts precomputes [cy*cz, cz, 1], the strides used by
// LinearChunkIndex.
func ChunkStridesFromCounts(counts [3]int) [3]int {
	return [3]int{counts[1] * counts[2], counts[2], 1}
}

// LinearChunkIndex maps 3D chunk indices to the flat, x-major offset into an
// object's chunk slice.
func LinearChunkIndex(ci, cj, ck int, strides [3]int) int {
	return ci*strides[0] + cj*strides[1] + ck*strides[2]
}

// ChunkIndicesFromLinear is the inverse of LinearChunkIndex.
func ChunkIndicesFromLinear(idx int, counts [3]int) (ci, cj, ck int) {
	ck = idx % counts[2]
	rest := idx / counts[2]
	cj = rest % counts[1]
	ci = rest / counts[1]
	return
}

// LinearInChunkIndex maps in-chunk indices to the linear position of a voxel
// within a chunk's CHUNK_VOXEL_COUNT-sized window ((ii<<2L)|(jj<<L)|kk).
func LinearInChunkIndex(ii, jj, kk int) int {
	return (ii << (2 * LogChunkSize)) | (jj << LogChunkSize) | kk
}

// LocalIndicesFromLinear is the inverse of LinearInChunkIndex.
func LocalIndicesFromLinear(linear int) (ii, jj, kk int) {
	kk = linear & inChunkMask
	jj = (linear >> LogChunkSize) & inChunkMask
	ii = linear >> (2 * LogChunkSize)
	return
}

// DataOffsetStartVoxelIndex converts a NonUniform chunk's data_offset into
// the absolute index of its first voxel in the object's voxel arena.
func DataOffsetStartVoxelIndex(dataOffset int) int {
	return dataOffset << (3 * LogChunkSize)
}

// ChunkOrigin returns the global voxel-space origin (lowest corner) of a
// chunk given its chunk-space indices.
func ChunkOrigin(ci, cj, ck int) [3]int {
	return [3]int{ci << LogChunkSize, cj << LogChunkSize, ck << LogChunkSize}
}

// faceLocalLinear returns the in-chunk linear index of the face position
// (a, b) on the given axis/side, where a, b range over the other two axes
// in ascending axis order.
func faceLocalLinear(axis Axis, side Side, a, b int) int {
	fixed := 0
	if side == SideUp {
		fixed = ChunkSize - 1
	}
	var ii, jj, kk int
	switch axis {
	case AxisX:
		ii, jj, kk = fixed, a, b
	case AxisY:
		ii, jj, kk = a, fixed, b
	default:
		ii, jj, kk = a, b, fixed
	}
	return LinearInChunkIndex(ii, jj, kk)
}

// facePairLocal returns the matching local linear indices of position (a, b)
// on a chunk's upper face and its upper neighbor's lower face along axis.
func facePairLocal(axis Axis, a, b int) (lowerLocal, upperLocal int) {
	return faceLocalLinear(axis, SideUp, a, b), faceLocalLinear(axis, SideDn, a, b)
}
