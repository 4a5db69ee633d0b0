package voxel

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// shapeGenerator implements Generator over a boolean point-containment
// predicate evaluated at each voxel's center: a contained voxel receives the
// given material at SDFMaximallyInside, every other voxel is empty. This
// mirrors the fill-by-predicate style of Sphere/Cube/Cone/Pyramid/Point,
// generalized into one Generator rather than one free function per shape
// operating on a mutable volume.
type shapeGenerator struct {
	gridShape   [3]int
	voxelExtent float32
	material    MaterialID
	contains    func(center mgl32.Vec3) bool
}

func (s *shapeGenerator) VoxelExtent() float32                 { return s.voxelExtent }
func (s *shapeGenerator) GridShape() [3]int                    { return s.gridShape }
func (s *shapeGenerator) TotalBufferSize() int                 { return 0 }
func (s *shapeGenerator) CreateBuffersIn(arena *Arena) Buffers { return Buffers{} }

func (s *shapeGenerator) GenerateChunk(buffers Buffers, voxels []Voxel, chunkOrigin [3]int) {
	for ii := 0; ii < ChunkSize; ii++ {
		for jj := 0; jj < ChunkSize; jj++ {
			for kk := 0; kk < ChunkSize; kk++ {
				center := mgl32.Vec3{
					float32(chunkOrigin[0]+ii) + 0.5,
					float32(chunkOrigin[1]+jj) + 0.5,
					float32(chunkOrigin[2]+kk) + 0.5,
				}
				v := NewEmptyVoxel()
				if s.contains(center) {
					v = NewMaximallyInsideVoxel(s.material)
				}
				voxels[LinearInChunkIndex(ii, jj, kk)] = v
			}
		}
	}
}

// NewSphereGenerator fills a sphere of the given radius centered at center,
// in voxel-space coordinates.
func NewSphereGenerator(gridShape [3]int, voxelExtent float32, center mgl32.Vec3, radius float32, material MaterialID) Generator {
	r2 := radius * radius
	return &shapeGenerator{
		gridShape:   gridShape,
		voxelExtent: voxelExtent,
		material:    material,
		contains: func(p mgl32.Vec3) bool {
			return p.Sub(center).LenSqr() <= r2
		},
	}
}

// NewCubeGenerator fills the axis-aligned box [minB, maxB] in voxel-space
// coordinates.
func NewCubeGenerator(gridShape [3]int, voxelExtent float32, minB, maxB mgl32.Vec3, material MaterialID) Generator {
	return &shapeGenerator{
		gridShape:   gridShape,
		voxelExtent: voxelExtent,
		material:    material,
		contains: func(p mgl32.Vec3) bool {
			return p.X() >= minB.X() && p.X() <= maxB.X() &&
				p.Y() >= minB.Y() && p.Y() <= maxB.Y() &&
				p.Z() >= minB.Z() && p.Z() <= maxB.Z()
		},
	}
}

// NewConeGenerator fills a cone from base (center of the base circle) to
// tip (apex) with the given base radius.
func NewConeGenerator(gridShape [3]int, voxelExtent float32, base, tip mgl32.Vec3, radius float32, material MaterialID) Generator {
	heightVec := tip.Sub(base)
	height := heightVec.Len()
	axis := heightVec.Normalize()
	return &shapeGenerator{
		gridShape:   gridShape,
		voxelExtent: voxelExtent,
		material:    material,
		contains: func(p mgl32.Vec3) bool {
			if height < 1e-5 {
				return false
			}
			v := p.Sub(base)
			distOnAxis := v.Dot(axis)
			if distOnAxis < 0 || distOnAxis > height {
				return false
			}
			radiusAtDist := radius * (1.0 - distOnAxis/height)
			distToAxis2 := v.LenSqr() - distOnAxis*distOnAxis
			return distToAxis2 <= radiusAtDist*radiusAtDist
		},
	}
}

// NewPyramidGenerator fills a square pyramid from base to tip with the given
// base side length.
func NewPyramidGenerator(gridShape [3]int, voxelExtent float32, base, tip mgl32.Vec3, size float32, material MaterialID) Generator {
	heightVec := tip.Sub(base)
	height := heightVec.Len()
	axis := heightVec.Normalize()
	up := mgl32.Vec3{0, 1, 0}
	if math.Abs(float64(axis.Dot(up))) > 0.99 {
		up = mgl32.Vec3{1, 0, 0}
	}
	right := axis.Cross(up).Normalize()
	forward := right.Cross(axis).Normalize()
	halfSize := size * 0.5
	return &shapeGenerator{
		gridShape:   gridShape,
		voxelExtent: voxelExtent,
		material:    material,
		contains: func(p mgl32.Vec3) bool {
			if height < 1e-5 {
				return false
			}
			v := p.Sub(base)
			distOnAxis := v.Dot(axis)
			if distOnAxis < 0 || distOnAxis > height {
				return false
			}
			scale := 1.0 - distOnAxis/height
			s := halfSize * scale
			dx := v.Dot(right)
			dz := v.Dot(forward)
			return float32(math.Abs(float64(dx))) <= s && float32(math.Abs(float64(dz))) <= s
		},
	}
}

// NewPointGenerator fills the single voxel containing point p.
func NewPointGenerator(gridShape [3]int, voxelExtent float32, p mgl32.Vec3, material MaterialID) Generator {
	target := [3]int{
		int(math.Floor(float64(p.X()))),
		int(math.Floor(float64(p.Y()))),
		int(math.Floor(float64(p.Z()))),
	}
	return &shapeGenerator{
		gridShape:   gridShape,
		voxelExtent: voxelExtent,
		material:    material,
		contains: func(q mgl32.Vec3) bool {
			return int(math.Floor(float64(q.X()))) == target[0] &&
				int(math.Floor(float64(q.Y()))) == target[1] &&
				int(math.Floor(float64(q.Z()))) == target[2]
		},
	}
}
