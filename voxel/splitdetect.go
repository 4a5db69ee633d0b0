package voxel

// splitDetector is the split-detection index (C7): it records which chunks
// are connected through non-empty face adjacency. Design Notes §9 suggests a
// union-find over per-chunk components, augmented with per-voxel surface
// components for NonUniform chunk faces; this implementation instead keeps
// an explicit, removable edge set between node ids and rebuilds a union-find
// from it lazily on query, because several C7 operations ("remove
// connections for a face") must genuinely sever edges, something a plain
// union-find cannot do without rebuilding anyway. The node-id space is two
// disjoint ranges within one flat int32 space:
//
//   - [0, chunkCount)            — one id per chunk, used while that chunk
//     is the Uniform variant (its node represents the whole chunk).
//   - [chunkCount, chunkCount+N) — one id per voxel arena slot, used for
//     the voxels of NonUniform chunks.
//
// Both ranges are stable for the lifetime of an object: chunkCount never
// changes, and voxel arena slots are never reused or moved (Design Notes §9,
// "promotion without compaction").
type splitDetector struct {
	chunkCount int
	edges      map[edgeKey]struct{}

	// lazily rebuilt union-find cache
	dirty  bool
	parent map[int32]int32
}

type edgeKey struct{ a, b int32 }

func newSplitDetector(chunkCount int) *splitDetector {
	return &splitDetector{
		chunkCount: chunkCount,
		edges:      make(map[edgeKey]struct{}),
		dirty:      true,
	}
}

func normalizeEdge(a, b int32) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// chunkNode returns the node id representing a chunk while it is Uniform.
func (d *splitDetector) chunkNode(chunkLinearIdx int) int32 { return int32(chunkLinearIdx) }

// voxelNode returns the node id representing one arena voxel slot.
func (d *splitDetector) voxelNode(arenaVoxelIdx int) int32 {
	return int32(d.chunkCount) + int32(arenaVoxelIdx)
}

func (d *splitDetector) addEdge(a, b int32) {
	if a == b {
		return
	}
	d.edges[normalizeEdge(a, b)] = struct{}{}
	d.dirty = true
}

func (d *splitDetector) removeEdgesTouching(nodes []int32) {
	if len(nodes) == 0 {
		return
	}
	touch := make(map[int32]struct{}, len(nodes))
	for _, n := range nodes {
		touch[n] = struct{}{}
	}
	for k := range d.edges {
		if _, ok := touch[k.a]; ok {
			delete(d.edges, k)
			continue
		}
		if _, ok := touch[k.b]; ok {
			delete(d.edges, k)
		}
	}
	d.dirty = true
}

// UpdateMutualConnectionsForUniformChunks unions two adjacent Uniform
// chunks' components.
func (d *splitDetector) UpdateMutualConnectionsForUniformChunks(a, b int) {
	d.addEdge(d.chunkNode(a), d.chunkNode(b))
}

// UpdateConnectionsFromUniformChunkToNonUniformChunk unions a Uniform
// chunk's component with every non-empty voxel on the given face of a
// NonUniform chunk.
func (d *splitDetector) UpdateConnectionsFromUniformChunkToNonUniformChunk(uniformChunkIdx int, dataOffset int, axis Axis, side Side, voxels []Voxel) {
	u := d.chunkNode(uniformChunkIdx)
	forEachFaceVoxel(dataOffset, axis, side, func(arenaIdx int) {
		if !voxels[arenaIdx].IsEmpty() {
			d.addEdge(u, d.voxelNode(arenaIdx))
		}
	})
}

// UpdateConnectionsFromNonUniformChunkToUniformChunk is the symmetric
// counterpart used when the NonUniform chunk is the reconciliation's
// "current" side.
func (d *splitDetector) UpdateConnectionsFromNonUniformChunkToUniformChunk(dataOffset int, uniformChunkIdx int, axis Axis, side Side, voxels []Voxel) {
	d.UpdateConnectionsFromUniformChunkToNonUniformChunk(uniformChunkIdx, dataOffset, axis, side, voxels)
}

// UpdateConnectionsWithFullFace handles the case where the opposite chunk's
// face is fully filled: every non-empty voxel on this face joins a single
// face-level component, represented by the first face voxel on the opposite
// side.
func (d *splitDetector) UpdateConnectionsWithFullFace(dataOffset int, axis Axis, side Side, voxels []Voxel, otherRepresentative int32) {
	forEachFaceVoxel(dataOffset, axis, side, func(arenaIdx int) {
		if !voxels[arenaIdx].IsEmpty() {
			d.addEdge(d.voxelNode(arenaIdx), otherRepresentative)
		}
	})
}

// UpdateForNonEmptyAdjacentVoxel unions two specific matched voxels on
// either side of a Mixed face (the per-voxel reconciliation cursor of
// spec.md §4.6/§4.7).
func (d *splitDetector) UpdateForNonEmptyAdjacentVoxel(arenaIdxA, arenaIdxB int) {
	d.addEdge(d.voxelNode(arenaIdxA), d.voxelNode(arenaIdxB))
}

// RemoveConnectionsForNonUniformChunk severs all cross-face connections
// recorded for one face of a NonUniform chunk. Edges between two voxels of
// the same chunk are kept.
func (d *splitDetector) RemoveConnectionsForNonUniformChunk(dataOffset int, axis Axis, side Side) {
	start := DataOffsetStartVoxelIndex(dataOffset)
	lo, hi := d.voxelNode(start), d.voxelNode(start+ChunkVoxelCount)
	face := make(map[int32]struct{}, ChunkSize*ChunkSize)
	forEachFaceVoxel(dataOffset, axis, side, func(arenaIdx int) {
		face[d.voxelNode(arenaIdx)] = struct{}{}
	})
	outside := func(n int32) bool { return n < lo || n >= hi }
	for k := range d.edges {
		_, aOnFace := face[k.a]
		_, bOnFace := face[k.b]
		if (aOnFace && outside(k.b)) || (bOnFace && outside(k.a)) {
			delete(d.edges, k)
		}
	}
	d.dirty = true
}

// RemoveConnectionsForUniformChunk severs every connection recorded for a
// Uniform chunk's node. The adjacency engine does not call it.
func (d *splitDetector) RemoveConnectionsForUniformChunk(chunkIdx int) {
	d.removeEdgesTouching([]int32{d.chunkNode(chunkIdx)})
}

// ConvertUniformChunkToNonUniform transfers a promoted Uniform chunk's
// component membership into its newly allocated NonUniform voxel data, by
// linking the old chunk node to the first voxel of the new allocation.
// Internal adjacency reconciliation (run immediately after promotion) links
// the rest of the new voxels together.
func (d *splitDetector) ConvertUniformChunkToNonUniform(chunkIdx int, newDataOffset int) {
	d.addEdge(d.chunkNode(chunkIdx), d.voxelNode(DataOffsetStartVoxelIndex(newDataOffset)))
}

// SameComponent reports whether two nodes are connected, rebuilding the
// lazily cached union-find from the current edge set if needed.
func (d *splitDetector) SameComponent(a, b int32) bool {
	d.rebuildIfDirty()
	return d.find(a) == d.find(b)
}

func (d *splitDetector) rebuildIfDirty() {
	if !d.dirty {
		return
	}
	d.parent = make(map[int32]int32, len(d.edges)*2)
	for k := range d.edges {
		d.union(k.a, k.b)
	}
	d.dirty = false
}

func (d *splitDetector) find(x int32) int32 {
	p, ok := d.parent[x]
	if !ok {
		d.parent[x] = x
		return x
	}
	if p == x {
		return x
	}
	root := d.find(p)
	d.parent[x] = root
	return root
}

func (d *splitDetector) union(a, b int32) {
	ra, rb := d.find(a), d.find(b)
	if ra != rb {
		d.parent[ra] = rb
	}
}

// firstFaceVoxelNode returns the node id of the first voxel on the given
// face, in face-iteration order, for use as the single representative of a
// fully filled face.
func (d *splitDetector) firstFaceVoxelNode(dataOffset int, axis Axis, side Side) int32 {
	start := DataOffsetStartVoxelIndex(dataOffset)
	return d.voxelNode(start + faceLocalLinear(axis, side, 0, 0))
}

// forEachFaceVoxel invokes fn with the arena index of every voxel on the
// given face of the NonUniform chunk at dataOffset.
func forEachFaceVoxel(dataOffset int, axis Axis, side Side, fn func(arenaIdx int)) {
	start := DataOffsetStartVoxelIndex(dataOffset)
	for a := 0; a < ChunkSize; a++ {
		for b := 0; b < ChunkSize; b++ {
			fn(start + faceLocalLinear(axis, side, a, b))
		}
	}
}
