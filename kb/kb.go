package kb

import (
	"fmt"
	"sort"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/atlasforge/globemesh/model"
)

// KnownEnclaves lists countries fully surrounded by a single host country,
// as (enclave, host) ISO3 pairs. Holes matching these are always kept.
var KnownEnclaves = [][2]string{
	{"LSO", "ZAF"}, // Lesotho in South Africa
	{"SMR", "ITA"}, // San Marino in Italy
	{"VAT", "ITA"}, // Vatican City in Italy
}

// ReferenceData bundles the read-only inputs shared by all pipeline
// workers: the enclave host map, centroid lookup, and optional lakes
// index. Built once before the run, never mutated afterwards.
type ReferenceData struct {
	enclavesByHost map[string][]string
	centroids      map[string]orb.Point
	lakes          *LakesIndex
}

// NewReferenceData builds a ReferenceData from the default enclave table.
func NewReferenceData() *ReferenceData {
	return NewReferenceDataFromPairs(KnownEnclaves)
}

// NewReferenceDataFromPairs builds a ReferenceData from explicit
// (enclave, host) pairs, mainly for tests.
func NewReferenceDataFromPairs(pairs [][2]string) *ReferenceData {
	hosts := make(map[string][]string)
	for _, pair := range pairs {
		hosts[pair[1]] = append(hosts[pair[1]], pair[0])
	}
	return &ReferenceData{
		enclavesByHost: hosts,
		centroids:      make(map[string]orb.Point),
	}
}

// EnclavesOf returns the enclave ISO3 codes hosted by the given country.
func (rd *ReferenceData) EnclavesOf(hostISO string) []string {
	return rd.enclavesByHost[hostISO]
}

// ExpectedEnclaveCount returns how many enclaves the host is known to
// surround, which bounds how many holes its cleaned geometry should keep.
func (rd *ReferenceData) ExpectedEnclaveCount(hostISO string) int {
	return len(rd.enclavesByHost[hostISO])
}

// SetCentroid records a representative interior point for a country.
func (rd *ReferenceData) SetCentroid(iso string, pt orb.Point) {
	rd.centroids[iso] = pt
}

// Centroid returns a country's representative point, if known.
func (rd *ReferenceData) Centroid(iso string) (orb.Point, bool) {
	pt, ok := rd.centroids[iso]
	return pt, ok
}

// SetLakes attaches an optional water-body index. A nil index is the
// degraded-but-valid mode where every overlap query answers zero.
func (rd *ReferenceData) SetLakes(idx *LakesIndex) { rd.lakes = idx }

// Lakes returns the water-body index, which may be nil.
func (rd *ReferenceData) Lakes() *LakesIndex { return rd.lakes }

// LakesIndex holds lake polygons with precomputed bounds so overlap
// queries can reject non-candidates cheaply. Queried concurrently, never
// mutated during a run.
type LakesIndex struct {
	lakes  []orb.Polygon
	bounds []orb.Bound
}

// NewLakesIndex indexes the given lake polygons.
func NewLakesIndex(lakes []orb.Polygon) *LakesIndex {
	idx := &LakesIndex{
		lakes:  lakes,
		bounds: make([]orb.Bound, len(lakes)),
	}
	for i, lake := range lakes {
		idx.bounds[i] = lake.Bound()
	}
	return idx
}

// Len returns the number of indexed lakes.
func (x *LakesIndex) Len() int {
	if x == nil {
		return 0
	}
	return len(x.lakes)
}

// overlapSampleGrid is the per-axis resolution of the deterministic sample
// used to estimate hole/lake overlap.
const overlapSampleGrid = 16

// OverlapRatio estimates the fraction of the hole's area covered by
// indexed lakes, using a fixed grid sample of the hole's interior. A nil
// index always reports zero.
func (x *LakesIndex) OverlapRatio(hole orb.Ring) float64 {
	if x == nil || len(x.lakes) == 0 || len(hole) < model.MinRingLen {
		return 0
	}

	bound := hole.Bound()
	var candidates []int
	for i, lb := range x.bounds {
		if lb.Intersects(bound) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return 0
	}

	width := bound.Max[0] - bound.Min[0]
	height := bound.Max[1] - bound.Min[1]
	if width <= 0 || height <= 0 {
		return 0
	}

	insideHole, insideBoth := 0, 0
	for i := 0; i < overlapSampleGrid; i++ {
		for j := 0; j < overlapSampleGrid; j++ {
			pt := orb.Point{
				bound.Min[0] + (float64(i)+0.5)*width/overlapSampleGrid,
				bound.Min[1] + (float64(j)+0.5)*height/overlapSampleGrid,
			}
			if !planar.RingContains(hole, pt) {
				continue
			}
			insideHole++
			for _, c := range candidates {
				if planar.PolygonContains(x.lakes[c], pt) {
					insideBoth++
					break
				}
			}
		}
	}
	if insideHole == 0 {
		return 0
	}
	return float64(insideBoth) / float64(insideHole)
}

// MeshStore collects per-country meshes produced by concurrent workers.
// Workers write distinct ISO keys, so the store only needs an insert
// barrier; duplicate inserts are programming errors and are rejected.
type MeshStore struct {
	mu     sync.RWMutex
	meshes map[string]*model.Mesh
}

// NewMeshStore constructs an empty store.
func NewMeshStore() *MeshStore {
	return &MeshStore{meshes: make(map[string]*model.Mesh)}
}

// Add inserts a country's mesh. It returns an error if the ISO code was
// already written.
func (s *MeshStore) Add(iso string, mesh *model.Mesh) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.meshes[iso]; exists {
		return fmt.Errorf("mesh for %q already stored", iso)
	}
	s.meshes[iso] = mesh
	return nil
}

// Get returns the mesh stored for an ISO code, or nil.
func (s *MeshStore) Get(iso string) *model.Mesh {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meshes[iso]
}

// Len returns the number of stored meshes.
func (s *MeshStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.meshes)
}

// ISOCodes returns the stored country codes in sorted order.
func (s *MeshStore) ISOCodes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	codes := make([]string, 0, len(s.meshes))
	for iso := range s.meshes {
		codes = append(codes, iso)
	}
	sort.Strings(codes)
	return codes
}

// Snapshot returns a copy of the ISO → mesh mapping.
func (s *MeshStore) Snapshot() map[string]*model.Mesh {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*model.Mesh, len(s.meshes))
	for iso, mesh := range s.meshes {
		out[iso] = mesh
	}
	return out
}
