package voxel

import "testing"

func TestGenerateEmptyGrid(t *testing.T) {
	g := newPredicateGenerator([3]int{0, 0, 0}, 1, func(i, j, k int) bool { return false })
	o := Generate(g, nil)
	if o.TotalChunkCount() != 0 {
		t.Errorf("TotalChunkCount() = %d, want 0", o.TotalChunkCount())
	}
	if !o.ContainsOnlyEmptyVoxels() {
		t.Error("an empty-shape object should report ContainsOnlyEmptyVoxels")
	}
	if !o.IsEffectivelyEmpty() {
		t.Error("an empty-shape object should report IsEffectivelyEmpty")
	}
}

func TestGeneratorGridShapeMustBeAllZeroOrAllPositive(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("a mixed-sign grid shape should panic")
		}
	}()
	g := newPredicateGenerator([3]int{16, 0, 16}, 1, func(i, j, k int) bool { return false })
	Generate(g, nil)
}

func TestShapeProperty(t *testing.T) {
	g := newPredicateGenerator([3]int{33, 17, 1}, 1, func(i, j, k int) bool { return i == 0 && j == 0 && k == 0 })
	o := Generate(g, nil)
	counts := o.ChunkCounts()
	if counts != [3]int{3, 2, 1} {
		t.Fatalf("ChunkCounts() = %v, want [3 2 1]", counts)
	}
	total := counts[0] * counts[1] * counts[2]
	if o.TotalChunkCount() != total {
		t.Errorf("TotalChunkCount() = %d, want %d", o.TotalChunkCount(), total)
	}
	if len(o.Chunks()) != total {
		t.Errorf("len(Chunks()) = %d, want %d", len(o.Chunks()), total)
	}
	wantVoxelLen := ChunkVoxelCount * countNonUniform(o)
	if len(o.Voxels()) != wantVoxelLen {
		t.Errorf("len(Voxels()) = %d, want %d", len(o.Voxels()), wantVoxelLen)
	}
}

func countNonUniform(o *Object) int {
	n := 0
	o.ForEachChunk(func(ci, cj, ck int, c Chunk) {
		if c.IsNonUniform() {
			n++
		}
	})
	return n
}

func TestSingleVoxelAtOrigin(t *testing.T) {
	g := newPredicateGenerator([3]int{1, 1, 1}, 9, func(i, j, k int) bool { return i == 0 && j == 0 && k == 0 })
	o := Generate(g, nil)

	if o.ChunkCounts() != [3]int{1, 1, 1} {
		t.Fatalf("ChunkCounts() = %v, want [1 1 1]", o.ChunkCounts())
	}
	ranges := o.OccupiedVoxelRanges()
	want := [3][2]int{{0, 1}, {0, 1}, {0, 1}}
	if ranges != want {
		t.Errorf("OccupiedVoxelRanges() = %v, want %v", ranges, want)
	}
	if o.StoredVoxelCount() != ChunkVoxelCount {
		t.Errorf("StoredVoxelCount() = %d, want %d (chunk must be NonUniform)", o.StoredVoxelCount(), ChunkVoxelCount)
	}
	v, ok := o.GetVoxel(0, 0, 0)
	if !ok || v.IsEmpty() {
		t.Fatal("GetVoxel(0,0,0) should return the non-empty voxel")
	}
	for axis := Axis(0); axis < 3; axis++ {
		for side := Side(0); side < 2; side++ {
			if v.HasAdjacent(axis, side) {
				t.Errorf("isolated voxel should have no adjacency, got set on axis %d side %d", axis, side)
			}
		}
	}
}

func TestOneFullyFilledChunkIsPromotedToNonUniform(t *testing.T) {
	// A single chunk spanning the whole grid touches the virtual outside
	// (treated as Empty, Property 4) on all six faces, so it cannot stay
	// obscured: it is promoted to NonUniform during derived-state
	// computation even though FromVoxels classifies its raw content as
	// Uniform. See DESIGN.md, "Scenarios S3/S4/S5".
	g := newPredicateGenerator([3]int{16, 16, 16}, 1, func(i, j, k int) bool { return true })
	o := Generate(g, nil)

	c := o.GetChunk(0, 0, 0)
	if !c.IsNonUniform() {
		t.Fatal("a fully filled chunk exposed on every face should be promoted to NonUniform")
	}
	for axis := Axis(0); axis < 3; axis++ {
		for side := Side(0); side < 2; side++ {
			if c.FaceDistribution(axis, side) != FaceFull {
				t.Errorf("axis %d side %d face distribution = %v, want FaceFull", axis, side, c.FaceDistribution(axis, side))
			}
			if c.IsObscured(axis, side) {
				t.Errorf("axis %d side %d should be unobscured: it borders the outside of the grid", axis, side)
			}
		}
	}
	if o.StoredVoxelCount() != ChunkVoxelCount {
		t.Errorf("StoredVoxelCount() = %d, want %d", o.StoredVoxelCount(), ChunkVoxelCount)
	}
	ranges := o.OccupiedVoxelRanges()
	want := [3][2]int{{0, 16}, {0, 16}, {0, 16}}
	if ranges != want {
		t.Errorf("OccupiedVoxelRanges() = %v, want %v", ranges, want)
	}
	v, ok := o.GetVoxel(7, 7, 7)
	if !ok {
		t.Fatal("GetVoxel(7,7,7) should be non-empty")
	}
	if !v.HasFlags(FullAdjacency) {
		t.Error("an interior voxel copied from the Uniform representative should carry full adjacency")
	}
	min, max := o.ComputeAABB()
	wantMax := float32(4.0)
	if max.X() != wantMax || max.Y() != wantMax || max.Z() != wantMax {
		t.Errorf("AABB max = %v, want (%v,%v,%v)", max, wantMax, wantMax, wantMax)
	}
	if min.X() != 0 || min.Y() != 0 || min.Z() != 0 {
		t.Errorf("AABB min = %v, want origin", min)
	}
}

func TestOffsetUniformChunk(t *testing.T) {
	// The single occupied chunk at (1,1,1) borders the grid edge on three
	// faces and a literal Empty sibling chunk on the other three, so like
	// TestOneFullyFilledChunkIsPromotedToNonUniform it cannot remain Uniform:
	// every neighbor it has is either outside the grid or genuinely Empty,
	// never Full. See DESIGN.md, "Scenarios S3/S4/S5".
	g := newPredicateGenerator([3]int{32, 32, 32}, 1, func(i, j, k int) bool {
		return i >= 16 && i < 32 && j >= 16 && j < 32 && k >= 16 && k < 32
	})
	o := Generate(g, nil)

	if o.ChunkCounts() != [3]int{2, 2, 2} {
		t.Fatalf("ChunkCounts() = %v, want [2 2 2]", o.ChunkCounts())
	}
	o.ForEachChunk(func(ci, cj, ck int, c Chunk) {
		if c.IsUniform() {
			t.Errorf("chunk (%d,%d,%d) is fully exposed and should not remain Uniform", ci, cj, ck)
		}
	})
	occupied := o.GetChunk(1, 1, 1)
	if !occupied.IsNonUniform() {
		t.Fatal("the sole occupied chunk should classify NonUniform after derived-state computation")
	}
	ranges := o.OccupiedVoxelRanges()
	want := [3][2]int{{16, 32}, {16, 32}, {16, 32}}
	if ranges != want {
		t.Errorf("OccupiedVoxelRanges() = %v, want %v", ranges, want)
	}
	min, max := o.ComputeAABB()
	if min.X() != 4 || min.Y() != 4 || min.Z() != 4 {
		t.Errorf("AABB min = %v, want (4,4,4)", min)
	}
	if max.X() != 8 || max.Y() != 8 || max.Z() != 8 {
		t.Errorf("AABB max = %v, want (8,8,8)", max)
	}
}

func TestGetVoxelOutOfBoundsAndEmpty(t *testing.T) {
	g := newPredicateGenerator([3]int{16, 16, 16}, 1, func(i, j, k int) bool { return i < 8 })
	o := Generate(g, nil)

	if _, ok := o.GetVoxel(-1, 0, 0); ok {
		t.Error("negative index should report not-ok")
	}
	if _, ok := o.GetVoxel(1000, 0, 0); ok {
		t.Error("far out-of-bounds index should report not-ok")
	}
	if _, ok := o.GetVoxel(8, 0, 0); ok {
		t.Error("an empty in-bounds voxel should report not-ok")
	}
	if v, ok := o.GetVoxel(0, 0, 0); !ok || v.IsEmpty() {
		t.Error("a filled in-bounds voxel should report ok and non-empty")
	}
}

func TestGetChunkOutOfBoundsReturnsEmpty(t *testing.T) {
	g := newPredicateGenerator([3]int{16, 16, 16}, 1, func(i, j, k int) bool { return true })
	o := Generate(g, nil)
	if !o.GetChunk(5, 5, 5).IsEmpty() {
		t.Error("an out-of-bounds chunk index should return the Empty variant")
	}
}

func TestNonUniformChunkVoxelsPanicsOnStaleHandle(t *testing.T) {
	g := newPredicateGenerator([3]int{16, 16, 16}, 1, func(i, j, k int) bool { return i < 8 })
	o := Generate(g, nil)
	c := o.GetChunk(0, 0, 0)
	defer func() {
		if recover() == nil {
			t.Fatal("a data_offset beyond the arena should panic")
		}
	}()
	stale := c
	// Force an out-of-range offset by constructing via setDataOffset.
	stale.setDataOffset(1000)
	o.NonUniformChunkVoxels(stale)
}

func TestIsEffectivelyEmptyThreshold(t *testing.T) {
	// NonEmptyVoxelThreshold = 8: fewer than 8 occupied voxels stays
	// effectively empty, 8 or more does not.
	below := newPredicateGenerator([3]int{16, 16, 16}, 1, func(i, j, k int) bool {
		return i == 0 && j == 0 && k < 7
	})
	o := Generate(below, nil)
	if !o.IsEffectivelyEmpty() {
		t.Error("7 occupied voxels should be effectively empty")
	}

	atThreshold := newPredicateGenerator([3]int{16, 16, 16}, 1, func(i, j, k int) bool {
		return i == 0 && j == 0 && k < 8
	})
	o2 := Generate(atThreshold, nil)
	if o2.IsEffectivelyEmpty() {
		t.Error("8 occupied voxels should not be effectively empty")
	}
}

func TestValidateOccupiedVoxelRangesAgreesWithFastPath(t *testing.T) {
	g := newPredicateGenerator([3]int{48, 48, 48}, 1, func(i, j, k int) bool {
		return i >= 5 && i < 40 && j >= 3 && j < 20 && k >= 10 && k < 44
	})
	o := Generate(g, nil)
	fast := o.OccupiedVoxelRanges()
	tight := o.validateOccupiedVoxelRanges()
	want := [3][2]int{{tight[0].Lo, tight[0].Hi}, {tight[1].Lo, tight[1].Hi}, {tight[2].Lo, tight[2].Hi}}
	if fast != want {
		t.Errorf("short-circuit OccupiedVoxelRanges() = %v, want tight %v", fast, want)
	}
}

func TestGenerateWithoutDerivedStateThenCompute(t *testing.T) {
	g := newPredicateGenerator([3]int{32, 16, 16}, 1, func(i, j, k int) bool { return i < 16 })
	staged := GenerateWithoutDerivedState(g, nil)
	staged.ComputeAllDerivedState()

	direct := Generate(g, nil)

	v1, ok1 := staged.GetVoxel(15, 0, 0)
	v2, ok2 := direct.GetVoxel(15, 0, 0)
	if ok1 != ok2 || v1 != v2 {
		t.Errorf("staged derived-state computation disagrees with direct Generate: %v/%v vs %v/%v", v1, ok1, v2, ok2)
	}
}

func TestComputeAllDerivedStateIdempotent(t *testing.T) {
	g := newPredicateGenerator([3]int{32, 16, 16}, 1, func(i, j, k int) bool { return i < 20 })
	o := Generate(g, nil)
	before := append([]Voxel(nil), o.Voxels()...)
	beforeChunks := append([]Chunk(nil), o.Chunks()...)
	o.ComputeAllDerivedState()
	after := o.Voxels()
	afterChunks := o.Chunks()
	if len(before) != len(after) {
		t.Fatalf("voxel arena length changed on a repeated ComputeAllDerivedState: %d vs %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("voxel %d changed on a repeated ComputeAllDerivedState: %v vs %v", i, before[i], after[i])
		}
	}
	for i := range beforeChunks {
		if beforeChunks[i] != afterChunks[i] {
			t.Fatalf("chunk %d changed on a repeated ComputeAllDerivedState", i)
		}
	}
}

func TestInvalidatedMeshChunkIndicesAndSynchronize(t *testing.T) {
	g := newPredicateGenerator([3]int{32, 16, 16}, 1, func(i, j, k int) bool { return i < 16 })
	o := Generate(g, nil)
	if len(o.InvalidatedMeshChunkIndices()) == 0 {
		t.Fatal("a fresh generation with a chunk boundary should invalidate at least one chunk's mesh")
	}
	o.MarkChunkMeshesSynchronized()
	if len(o.InvalidatedMeshChunkIndices()) != 0 {
		t.Error("MarkChunkMeshesSynchronized should clear the invalidated set")
	}
}
