// internal/stage/bounds.go
//
// Product bounding volumes computed from glTF geometry. Bounds are computed
// once at load time and read by the avatar, camera, and director to scale
// walk targets and framing distances.
package stage

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

// ProductBounds is the world-space bounding volume of one product.
type ProductBounds struct {
	Center mgl32.Vec3
	Size   mgl32.Vec3
	Radius float32
}

// BoundsFromExtents builds bounds from an axis-aligned min/max pair.
func BoundsFromExtents(min, max mgl32.Vec3) ProductBounds {
	size := max.Sub(min)
	return ProductBounds{
		Center: min.Add(size.Mul(0.5)),
		Size:   size,
		Radius: size.Len() / 2,
	}
}

// PlaceholderBounds builds bounds for a product whose model could not be
// read, from the configured fallback size, sitting on the floor.
func PlaceholderBounds(size [3]float32) ProductBounds {
	s := mgl32.Vec3(size)
	return ProductBounds{
		Center: mgl32.Vec3{0, s.Y() / 2, 0},
		Size:   s,
		Radius: s.Len() / 2,
	}
}

// LoadBounds opens a glTF/GLB file and computes the union AABB of every mesh
// primitive's positions. Node transforms are not applied; showroom models
// are exported with baked transforms.
func LoadBounds(path string) (ProductBounds, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return ProductBounds{}, fmt.Errorf("open gltf: %w", err)
	}
	if len(doc.Meshes) == 0 {
		return ProductBounds{}, fmt.Errorf("no meshes in file")
	}

	min := mgl32.Vec3{float32(math.Inf(1)), float32(math.Inf(1)), float32(math.Inf(1))}
	max := mgl32.Vec3{float32(math.Inf(-1)), float32(math.Inf(-1)), float32(math.Inf(-1))}
	found := false

	for _, mesh := range doc.Meshes {
		for _, prim := range mesh.Primitives {
			posIdx, ok := prim.Attributes[gltf.POSITION]
			if !ok {
				continue
			}

			pmin, pmax, err := accessorExtents(doc, filepath.Dir(path), uint32(posIdx))
			if err != nil {
				return ProductBounds{}, fmt.Errorf("read positions: %w", err)
			}

			for axis := 0; axis < 3; axis++ {
				if pmin[axis] < min[axis] {
					min[axis] = pmin[axis]
				}
				if pmax[axis] > max[axis] {
					max[axis] = pmax[axis]
				}
			}
			found = true
		}
	}

	if !found {
		return ProductBounds{}, fmt.Errorf("no position data in meshes")
	}

	return BoundsFromExtents(min, max), nil
}

// accessorExtents returns the min/max of a vec3 accessor, preferring the
// accessor's declared extents and walking the buffer when they are absent.
func accessorExtents(doc *gltf.Document, baseDir string, accessorIdx uint32) (mgl32.Vec3, mgl32.Vec3, error) {
	accessor := doc.Accessors[accessorIdx]

	if len(accessor.Min) == 3 && len(accessor.Max) == 3 {
		return mgl32.Vec3{float32(accessor.Min[0]), float32(accessor.Min[1]), float32(accessor.Min[2])},
			mgl32.Vec3{float32(accessor.Max[0]), float32(accessor.Max[1]), float32(accessor.Max[2])}, nil
	}

	positions, err := readAccessorVec3(doc, baseDir, accessorIdx)
	if err != nil {
		return mgl32.Vec3{}, mgl32.Vec3{}, err
	}
	if len(positions) == 0 {
		return mgl32.Vec3{}, mgl32.Vec3{}, fmt.Errorf("empty position accessor")
	}

	min, max := positions[0], positions[0]
	for _, p := range positions[1:] {
		for axis := 0; axis < 3; axis++ {
			if p[axis] < min[axis] {
				min[axis] = p[axis]
			}
			if p[axis] > max[axis] {
				max[axis] = p[axis]
			}
		}
	}
	return min, max, nil
}

func readAccessorVec3(doc *gltf.Document, baseDir string, accessorIdx uint32) ([]mgl32.Vec3, error) {
	accessor := doc.Accessors[accessorIdx]
	bufferView := doc.BufferViews[*accessor.BufferView]
	buffer := doc.Buffers[bufferView.Buffer]

	data, err := getBufferData(baseDir, buffer)
	if err != nil {
		return nil, err
	}

	offset := int(bufferView.ByteOffset) + int(accessor.ByteOffset)
	count := int(accessor.Count)

	result := make([]mgl32.Vec3, count)
	stride := int(bufferView.ByteStride)
	if stride == 0 {
		stride = 12
	}

	for i := 0; i < count; i++ {
		idx := offset + i*stride
		floats := (*[3]float32)(unsafe.Pointer(&data[idx]))
		result[i] = mgl32.Vec3{floats[0], floats[1], floats[2]}
	}

	return result, nil
}

func getBufferData(baseDir string, buffer *gltf.Buffer) ([]byte, error) {
	// If URI is empty, the data is in the binary chunk (GLB)
	if buffer.URI == "" {
		if len(buffer.Data) > 0 {
			return buffer.Data, nil
		}
		return nil, fmt.Errorf("buffer has no URI and no embedded data")
	}

	if len(buffer.URI) > 5 && buffer.URI[:5] == "data:" {
		return nil, fmt.Errorf("data URI not supported")
	}

	data, err := os.ReadFile(filepath.Join(baseDir, buffer.URI))
	if err != nil {
		return nil, fmt.Errorf("read buffer file: %w", err)
	}

	return data, nil
}
