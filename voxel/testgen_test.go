package voxel

// predicateGenerator is a test-only Generator that fills voxels by global
// position predicate, used where the scenario needs exact per-voxel control
// (e.g. a hand-placed plus-sign) rather than the geometric predicates
// primitives.go's shapeGenerator evaluates against a voxel's center.
type predicateGenerator struct {
	gridShape   [3]int
	voxelExtent float32
	material    MaterialID
	fill        func(i, j, k int) bool
}

func (g *predicateGenerator) VoxelExtent() float32                 { return g.voxelExtent }
func (g *predicateGenerator) GridShape() [3]int                    { return g.gridShape }
func (g *predicateGenerator) TotalBufferSize() int                 { return 0 }
func (g *predicateGenerator) CreateBuffersIn(arena *Arena) Buffers { return Buffers{} }

func (g *predicateGenerator) GenerateChunk(buffers Buffers, voxels []Voxel, chunkOrigin [3]int) {
	for ii := 0; ii < ChunkSize; ii++ {
		for jj := 0; jj < ChunkSize; jj++ {
			for kk := 0; kk < ChunkSize; kk++ {
				v := NewEmptyVoxel()
				if g.fill(chunkOrigin[0]+ii, chunkOrigin[1]+jj, chunkOrigin[2]+kk) {
					v = NewMaximallyInsideVoxel(g.material)
				}
				voxels[LinearInChunkIndex(ii, jj, kk)] = v
			}
		}
	}
}

func newPredicateGenerator(gridShape [3]int, material MaterialID, fill func(i, j, k int) bool) Generator {
	return &predicateGenerator{gridShape: gridShape, voxelExtent: 0.25, material: material, fill: fill}
}
