package render

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// maxBatchVertices keeps every draw call addressable by uint16 indices.
const maxBatchVertices = math.MaxUint16 + 1

// MaxSegments is the largest strip that still fits one instance into a batch.
const MaxSegments = (maxBatchVertices - 2) / 2

// Point is a position in world space.
type Point struct {
	X, Y float32
}

// Strip builds the triangle strip covering [-1,1]²: a start corner, two points
// per segment alternating top and bottom, and an end corner.
func Strip(segments int) []Point {
	segments = min(max(segments, 0), MaxSegments)
	points := make([]Point, 0, 2*segments+2)
	points = append(points, Point{-1, -1})
	n := float32(segments)
	for i := 0; i < segments; i++ {
		points = append(points,
			Point{float32(i)/n*2 - 1, 1},
			Point{float32(i+1)/n*2 - 1, -1},
		)
	}
	return append(points, Point{1, 1})
}

// StripIndices turns a strip of n points into a triangle list.
func StripIndices(n int) []uint16 {
	if n < 3 {
		return nil
	}
	indices := make([]uint16, 0, 3*(n-2))
	for i := 0; i+2 < n; i++ {
		indices = append(indices, uint16(i), uint16(i+1), uint16(i+2))
	}
	return indices
}

// Camera is a 2D camera whose view is Fov world units tall.
type Camera struct {
	Center Point
	Fov    float32
}

// ToScreen maps a world point to pixel coordinates on a w×h target.
func (c Camera) ToScreen(p Point, w, h int) (float32, float32) {
	if w <= 0 || h <= 0 || c.Fov <= 0 {
		return 0, 0
	}
	halfH := c.Fov / 2
	halfW := halfH * float32(w) / float32(h)
	nx := (p.X - c.Center.X) / halfW
	ny := (p.Y - c.Center.Y) / halfH
	return (nx + 1) / 2 * float32(w), (1 - ny) / 2 * float32(h)
}

// Batch is one draw call worth of instanced geometry.
type Batch struct {
	Vertices []ebiten.Vertex
	Indices  []uint16
}

// Mesh replicates the strip once per instance. The instance index is passed to
// the shader in the Custom0 vertex attribute. Instances are split over as
// many batches as uint16 indices require.
func Mesh(strip []Point, instances int, cam Camera, w, h int) []Batch {
	if len(strip) < 3 || instances <= 0 {
		return nil
	}

	base := make([]ebiten.Vertex, len(strip))
	for i, p := range strip {
		x, y := cam.ToScreen(p, w, h)
		base[i] = ebiten.Vertex{
			DstX: x, DstY: y,
			SrcX: x, SrcY: y,
			ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
		}
	}
	stripIdx := StripIndices(len(strip))

	perBatch := maxBatchVertices / len(strip)
	var batches []Batch
	for first := 0; first < instances; first += perBatch {
		count := min(perBatch, instances-first)
		b := Batch{
			Vertices: make([]ebiten.Vertex, 0, count*len(base)),
			Indices:  make([]uint16, 0, count*len(stripIdx)),
		}
		for k := 0; k < count; k++ {
			offset := uint16(len(b.Vertices))
			for _, v := range base {
				v.Custom0 = float32(first + k)
				b.Vertices = append(b.Vertices, v)
			}
			for _, idx := range stripIdx {
				b.Indices = append(b.Indices, offset+idx)
			}
		}
		batches = append(batches, b)
	}
	return batches
}
