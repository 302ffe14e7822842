package core

import (
	"context"

	"github.com/paulmach/orb"

	"github.com/atlasforge/globemesh/internal/earcut"
	"github.com/atlasforge/globemesh/internal/logging"
	"github.com/atlasforge/globemesh/model"
)

// TriangulateCountry converts cleaned country geometry into a triangle
// mesh on the render sphere. Each island polygon is triangulated
// independently and concatenated, offsetting face indices by the running
// vertex count so every face references the country's own buffer.
//
// A polygon whose hole-aware triangulation fails is retried with the
// exterior only; if that also fails the polygon is skipped with a warning
// and the remaining polygons still contribute. The returned mesh is nil
// when no polygon produced any triangles, along with the number of
// polygons skipped.
func TriangulateCountry(ctx context.Context, cg model.CountryGeometry, radius float64, log logging.Logger) (*model.Mesh, int) {
	if log == nil {
		log = logging.Noop()
	}

	switch cg.Kind {
	case model.GeometryEmpty, model.GeometryUnsupported:
		return nil, 0
	case model.GeometryPolygon, model.GeometryMultiPolygon:
	}

	mesh := &model.Mesh{Name: cg.Name}
	skipped := 0

	for _, poly := range cg.Polygons {
		rings := flattenRings(poly)
		if rings == nil {
			skipped++
			continue
		}

		used := rings
		tris, err := earcut.Triangulate(used)
		if err != nil && len(rings) > 1 {
			log.Warn(ctx, "triangulation failed with holes; retrying exterior only",
				logging.String("country", cg.ISO3),
				logging.String("error", err.Error()))
			used = rings[:1]
			tris, err = earcut.Triangulate(used)
		}
		if err != nil || len(tris) == 0 {
			log.Warn(ctx, "skipping polygon after triangulation failure",
				logging.String("country", cg.ISO3))
			skipped++
			continue
		}

		offset := len(mesh.Vertices)
		for _, ring := range used {
			for _, pt := range ring {
				mesh.Vertices = append(mesh.Vertices, ProjectToSphere(pt[0], pt[1], radius))
			}
		}
		for i := 0; i+2 < len(tris); i += 3 {
			mesh.Faces = append(mesh.Faces, model.Face{
				offset + tris[i],
				offset + tris[i+1],
				offset + tris[i+2],
			})
		}
	}

	if len(mesh.Faces) == 0 {
		return nil, skipped
	}
	return mesh, skipped
}

// flattenRings normalizes a polygon into the exterior-then-holes ring
// sequence the triangulator consumes. Degenerate holes are dropped with no
// effect on their siblings; a degenerate exterior voids the polygon.
func flattenRings(poly orb.Polygon) []orb.Ring {
	if len(poly) == 0 {
		return nil
	}
	exterior := NormalizeRing(poly[0])
	if len(exterior) < model.MinRingLen {
		return nil
	}
	rings := []orb.Ring{exterior}
	for _, hole := range poly[1:] {
		if normalized := NormalizeRing(hole); len(normalized) >= model.MinRingLen {
			rings = append(rings, normalized)
		}
	}
	return rings
}
