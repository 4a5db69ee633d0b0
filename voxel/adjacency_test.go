package voxel

import "testing"

// bruteForceAdjacentFlags recomputes what a voxel's adjacency flags should be
// by looking up its six neighbors directly through GetVoxel, independent of
// the incrementally maintained flags under test (spec.md §11 "ValidateAdjacencies").
func bruteForceAdjacentFlags(o *Object, i, j, k int) VoxelFlags {
	var want VoxelFlags
	neighbors := [6]struct {
		axis Axis
		side Side
		di, dj, dk int
	}{
		{AxisX, SideDn, -1, 0, 0}, {AxisX, SideUp, 1, 0, 0},
		{AxisY, SideDn, 0, -1, 0}, {AxisY, SideUp, 0, 1, 0},
		{AxisZ, SideDn, 0, 0, -1}, {AxisZ, SideUp, 0, 0, 1},
	}
	for _, n := range neighbors {
		if v, ok := o.GetVoxel(i+n.di, j+n.dj, k+n.dk); ok && !v.IsEmpty() {
			want |= AdjacencyFlag(n.axis, n.side)
		}
	}
	return want
}

func validateAdjacenciesExact(t *testing.T, o *Object) {
	t.Helper()
	o.ForEachOccupiedChunk(func(ci, cj, ck int, c Chunk) {
		if !c.IsNonUniform() {
			return
		}
		o.ForEachVoxelInNonUniformChunk(ci, cj, ck, c, func(i, j, k int, v Voxel) {
			if v.IsEmpty() {
				return
			}
			want := bruteForceAdjacentFlags(o, i, j, k)
			got := v.Flags & FullAdjacency
			if got != want {
				t.Errorf("voxel (%d,%d,%d): adjacency flags = %v, want %v", i, j, k, got, want)
			}
		})
	})
}

func validateObscurednessExact(t *testing.T, o *Object) {
	t.Helper()
	counts := o.ChunkCounts()
	o.ForEachChunk(func(ci, cj, ck int, c Chunk) {
		if c.IsEmpty() {
			return
		}
		for axis := Axis(0); axis < 3; axis++ {
			for _, side := range []Side{SideDn, SideUp} {
				coords := [3]int{ci, cj, ck}
				if side == SideUp {
					coords[axis]++
				} else {
					coords[axis]--
				}
				var neighbor Chunk
				if coords[axis] < 0 || coords[axis] >= counts[axis] {
					neighbor = NewEmptyChunk()
				} else {
					neighbor = o.GetChunk(coords[0], coords[1], coords[2])
				}
				wantObscured := neighbor.FaceDistribution(axis, side.Other()) == FaceFull
				gotObscured := c.IsObscured(axis, side)
				if c.IsUniform() && !wantObscured {
					t.Errorf("chunk (%d,%d,%d) is Uniform but its axis %d side %d neighbor face is not Full", ci, cj, ck, axis, side)
				}
				if c.IsNonUniform() && gotObscured != wantObscured {
					t.Errorf("chunk (%d,%d,%d) axis %d side %d: IsObscured = %v, want %v", ci, cj, ck, axis, side, gotObscured, wantObscured)
				}
			}
		}
	})
}

func TestAdjacencyAndObscurednessExactnessAcrossConfigurations(t *testing.T) {
	configs := []Generator{
		newPredicateGenerator([3]int{32, 32, 32}, 1, func(i, j, k int) bool {
			return i >= 10 && i < 22 && j >= 10 && j < 22 && k >= 10 && k < 22
		}),
		newPredicateGenerator([3]int{32, 16, 16}, 1, func(i, j, k int) bool { return i < 20 }),
		newPredicateGenerator([3]int{16, 16, 16}, 1, func(i, j, k int) bool {
			return (i+j+k)%3 == 0
		}),
		newPredicateGenerator([3]int{3, 3, 3}, 1, func(i, j, k int) bool {
			return i == 1 && j == 1 && k == 1 ||
				(i == 0 && j == 1 && k == 1) || (i == 2 && j == 1 && k == 1) ||
				(i == 1 && j == 0 && k == 1) || (i == 1 && j == 2 && k == 1) ||
				(i == 1 && j == 1 && k == 0) || (i == 1 && j == 1 && k == 2)
		}),
	}
	for idx, g := range configs {
		o := Generate(g, nil)
		validateAdjacenciesExact(t, o)
		validateObscurednessExact(t, o)
		_ = idx
	}
}

func TestPromotionOnSparseNeighborDemotesUniform(t *testing.T) {
	// A fully filled chunk next to a nearly-empty neighbor chunk must not
	// stay Uniform: the neighbor's touching face distribution is not Full,
	// so reconciliation must promote the fully filled chunk.
	g := newPredicateGenerator([3]int{32, 16, 16}, 1, func(i, j, k int) bool {
		if i < 16 {
			return true
		}
		return i == 16 && j == 0 && k == 0
	})
	o := Generate(g, nil)
	c := o.GetChunk(0, 0, 0)
	if c.IsUniform() {
		t.Fatal("a chunk touching a non-Full neighbor face must be promoted to NonUniform")
	}
	if !c.IsNonUniform() {
		t.Fatalf("expected NonUniform, got variant with kind discriminant other than Uniform/Empty")
	}
	if c.FaceDistribution(AxisX, SideUp) != FaceFull {
		t.Errorf("+X face distribution = %v, want FaceFull", c.FaceDistribution(AxisX, SideUp))
	}
	if c.IsObscured(AxisX, SideUp) {
		t.Error("+X face should be unobscured: the neighbor's -X face is Mixed, not Full")
	}
}

func TestInteriorUniformChunkStaysUniformAndConnected(t *testing.T) {
	// A chunk fully surrounded on all six sides by other filled chunks (no
	// face borders the outside of the grid, real or virtual) is the only
	// configuration where a Uniform chunk survives derived-state
	// computation: its neighbors all present a Full face. A filled region
	// touching the grid boundary anywhere is always demoted (see
	// TestOneFullyFilledChunkIsPromotedToNonUniform, DESIGN.md "Scenarios S3/S4/S5").
	g := newPredicateGenerator([3]int{48, 48, 48}, 1, func(i, j, k int) bool { return true })
	o := Generate(g, nil)

	center := o.GetChunk(1, 1, 1)
	if !center.IsUniform() {
		t.Fatal("a chunk fully interior to a larger filled region should stay Uniform")
	}
	for axis := Axis(0); axis < 3; axis++ {
		for side := Side(0); side < 2; side++ {
			if !center.IsObscured(axis, side) {
				t.Errorf("interior Uniform chunk axis %d side %d should remain obscured", axis, side)
			}
		}
	}
	neighbor := o.GetChunk(0, 1, 1)
	if !neighbor.IsObscured(AxisX, SideUp) {
		t.Error("the neighbor's face touching the interior chunk should also be obscured")
	}
	if !o.split.SameComponent(o.split.chunkNode(LinearChunkIndex(1, 1, 1, o.chunkStrides)), o.split.chunkNode(LinearChunkIndex(0, 1, 1, o.chunkStrides))) {
		t.Error("the interior Uniform chunk and its neighbor should be connected in the split-detection index")
	}
}

func TestPlusSignManualScenario(t *testing.T) {
	// S6: non-empty voxels at (1,1,1) and its six axial neighbors only.
	fill := map[[3]int]bool{
		{1, 1, 1}: true,
		{0, 1, 1}: true, {2, 1, 1}: true,
		{1, 0, 1}: true, {1, 2, 1}: true,
		{1, 1, 0}: true, {1, 1, 2}: true,
	}
	g := newPredicateGenerator([3]int{3, 3, 3}, 1, func(i, j, k int) bool {
		return fill[[3]int{i, j, k}]
	})
	o := Generate(g, nil)

	center, ok := o.GetVoxel(1, 1, 1)
	if !ok {
		t.Fatal("center voxel should be non-empty")
	}
	if !center.HasFlags(FullAdjacency) {
		t.Errorf("center voxel flags = %v, want FullAdjacency", center.Flags)
	}

	arms := []struct {
		pos        [3]int
		axis       Axis
		sideToward Side
	}{
		{[3]int{0, 1, 1}, AxisX, SideUp},
		{[3]int{2, 1, 1}, AxisX, SideDn},
		{[3]int{1, 0, 1}, AxisY, SideUp},
		{[3]int{1, 2, 1}, AxisY, SideDn},
		{[3]int{1, 1, 0}, AxisZ, SideUp},
		{[3]int{1, 1, 2}, AxisZ, SideDn},
	}
	for _, arm := range arms {
		v, ok := o.GetVoxel(arm.pos[0], arm.pos[1], arm.pos[2])
		if !ok {
			t.Fatalf("arm voxel %v should be non-empty", arm.pos)
		}
		if v.AdjacentCount() != 1 {
			t.Errorf("arm voxel %v has %d adjacency flags set, want exactly 1", arm.pos, v.AdjacentCount())
		}
		if !v.HasAdjacent(arm.axis, arm.sideToward) {
			t.Errorf("arm voxel %v should have its adjacency flag set toward the center", arm.pos)
		}
	}

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				if fill[[3]int{i, j, k}] {
					continue
				}
				if _, ok := o.GetVoxel(i, j, k); ok {
					t.Errorf("voxel (%d,%d,%d) should be empty", i, j, k)
				}
			}
		}
	}
}
