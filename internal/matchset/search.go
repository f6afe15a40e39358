// Package matchset searches for the largest set of toponym to gazetteer
// correspondences that one transform explains.
package matchset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"maponyms/internal/gazetteer"
	"maponyms/pkg/geometry"
)

// ErrNoMatches is returned when no consistent match set of the required
// size exists, including when no name resolved to any coordinate.
var ErrNoMatches = errors.New("no consistent match set found")

// Toponym is a place name with the pixel location it labels.
type Toponym struct {
	Name  string
	Pixel geometry.Point2D
}

// Match pairs one toponym with one of its gazetteer candidates.
type Match struct {
	Toponym   Toponym
	Candidate gazetteer.Candidate
	Residual  float64 // Pixel distance between the toponym and the mapped candidate

	entry, cand int
}

// Result is the winning match set.
type Result struct {
	Matches []Match // In toponym input order
	Family  Family

	// Transform maps projected world coordinates (x = lon*cos(Lat0),
	// y = -lat, degrees) to pixels. Lat0 is the mean latitude of the
	// matched candidates.
	Transform geometry.AffineTransform
	Lat0      float64

	RMS         float64
	MaxResidual float64
}

// Locate maps a pixel back to lon/lat. ok is false for a singular transform.
func (r *Result) Locate(p geometry.Point2D) (lon, lat float64, ok bool) {
	inv, ok := r.Transform.Inverse()
	if !ok {
		return 0, 0, false
	}
	w := inv.Apply(p)
	cosLat := math.Cos(r.Lat0 * math.Pi / 180)
	return w.X / cosLat, -w.Y, true
}

// Config tunes the search.
type Config struct {
	Family        Family
	MaxResidual   float64 // Pixels
	MinMatches    int
	MaxSeeds      int     // Cap on evaluated seeds; 0 means unlimited
	MaxAnisotropy float64 // Affine only: max ratio of singular values
	MaxRefits     int     // Least-squares refinement rounds per seed
}

// DefaultConfig returns default search parameters.
func DefaultConfig() Config {
	return Config{
		Family:        Similarity,
		MaxResidual:   20,
		MinMatches:    3,
		MaxSeeds:      50000,
		MaxAnisotropy: 3,
		MaxRefits:     5,
	}
}

// Searcher finds consistent match sets.
type Searcher struct {
	cfg Config
}

// NewSearcher validates cfg and creates a Searcher.
func NewSearcher(cfg Config) (*Searcher, error) {
	family, err := ParseFamily(string(cfg.Family))
	if err != nil {
		return nil, err
	}
	cfg.Family = family
	if cfg.MaxResidual <= 0 {
		return nil, fmt.Errorf("max residual must be positive, got %g", cfg.MaxResidual)
	}
	if cfg.MinMatches < 1 {
		cfg.MinMatches = 1
	}
	return &Searcher{cfg: cfg}, nil
}

// entry is a toponym that resolved to at least one candidate.
type entry struct {
	toponym Toponym
	cands   []gazetteer.Candidate
}

// frame is every entry's candidates projected around one latitude.
type frame struct {
	lat0  float64
	world [][]geometry.Point2D
}

func newFrame(entries []entry, around []gazetteer.Candidate) frame {
	proj := newProjection(around)
	f := frame{lat0: proj.Lat0, world: make([][]geometry.Point2D, len(entries))}
	for i, e := range entries {
		f.world[i] = make([]geometry.Point2D, len(e.cands))
		for j, c := range e.cands {
			f.world[i][j] = proj.world(c)
		}
	}
	return f
}

type pick struct{ e, c int }

type worldKey struct{ lon, lat float64 }

func keyOf(c gazetteer.Candidate) worldKey { return worldKey{c.Lon, c.Lat} }

// state is the match set one transform explains.
type state struct {
	transform geometry.AffineTransform
	lat0      float64
	matches   []Match
	rms       float64
	max       float64
}

// SearchWithResolver resolves every toponym name and searches the result.
func (s *Searcher) SearchWithResolver(ctx context.Context, r gazetteer.Resolver, toponyms []Toponym, opts gazetteer.ResolveOptions) (*Result, error) {
	names := make([]string, len(toponyms))
	for i, t := range toponyms {
		names[i] = t.Name
	}
	candidates, err := gazetteer.ResolveAll(ctx, r, names, opts)
	if err != nil {
		return nil, fmt.Errorf("resolve toponyms: %w", err)
	}
	return s.Search(toponyms, candidates)
}

// Search returns the largest match set consistent under one transform of
// the configured family. candidates is index-aligned with toponyms; names
// without candidates are skipped.
func (s *Searcher) Search(toponyms []Toponym, candidates [][]gazetteer.Candidate) (*Result, error) {
	if len(toponyms) != len(candidates) {
		return nil, fmt.Errorf("toponym/candidate count mismatch: %d vs %d", len(toponyms), len(candidates))
	}

	var entries []entry
	for i, t := range toponyms {
		if len(candidates[i]) > 0 {
			entries = append(entries, entry{toponym: t, cands: candidates[i]})
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no toponym resolved to any coordinate", ErrNoMatches)
	}

	var best *state
	var seeds int
	s.forEachSeed(entries, func(seed []pick) bool {
		if s.cfg.MaxSeeds > 0 && seeds >= s.cfg.MaxSeeds {
			return false
		}
		seeds++
		if st := s.grow(entries, seed); st != nil && better(st, best) {
			best = st
		}
		return true
	})

	slog.Debug("match set search", "names", len(entries), "seeds", seeds, "best", bestSize(best))

	need := max(s.cfg.MinMatches, s.cfg.Family.minimalSubset())
	if best == nil || len(best.matches) < need {
		return nil, fmt.Errorf("%w: best set has %d of %d required matches", ErrNoMatches, bestSize(best), need)
	}

	return &Result{
		Matches:     best.matches,
		Family:      s.cfg.Family,
		Transform:   best.transform,
		Lat0:        best.lat0,
		RMS:         best.rms,
		MaxResidual: best.max,
	}, nil
}

func bestSize(st *state) int {
	if st == nil {
		return 0
	}
	return len(st.matches)
}

// better reports whether a beats b: more matches, then lower RMS. Equal
// sets keep the earlier seed.
func better(a, b *state) bool {
	if b == nil {
		return true
	}
	if len(a.matches) != len(b.matches) {
		return len(a.matches) > len(b.matches)
	}
	return a.rms < b.rms-1e-9
}

// forEachSeed calls fn with every minimal subset of distinct names and
// distinct world coordinates until fn returns false. Names with fewer
// candidates come first so a seed cap cuts the most ambiguous combinations.
func (s *Searcher) forEachSeed(entries []entry, fn func([]pick) bool) {
	k := s.cfg.Family.minimalSubset()
	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return len(entries[order[a]].cands) < len(entries[order[b]].cands)
	})

	idx := make([]int, 0, k)
	seed := make([]pick, k)

	var combos func(depth int) bool
	combos = func(depth int) bool {
		if depth == k {
			return fn(seed)
		}
		e := idx[depth]
	next:
		for c := range entries[e].cands {
			key := keyOf(entries[e].cands[c])
			for _, p := range seed[:depth] {
				if keyOf(entries[p.e].cands[p.c]) == key {
					continue next
				}
			}
			seed[depth] = pick{e: e, c: c}
			if !combos(depth + 1) {
				return false
			}
		}
		return true
	}

	var subsets func(start int) bool
	subsets = func(start int) bool {
		if len(idx) == k {
			return combos(0)
		}
	next:
		for pos := start; pos < len(order); pos++ {
			i := order[pos]
			for _, j := range idx {
				if entries[j].toponym.Name == entries[i].toponym.Name {
					continue next
				}
			}
			idx = append(idx, i)
			if !subsets(pos + 1) {
				return false
			}
			idx = idx[:len(idx)-1]
		}
		return true
	}

	subsets(0)
}

// grow fits the seed, collects inliers and refines the fit while the set
// does not shrink. The seed frame is centered on the seed's candidates and
// each refit recenters it on the current inliers, so names outside the set
// never change its projection.
func (s *Searcher) grow(entries []entry, seed []pick) *state {
	around := make([]gazetteer.Candidate, len(seed))
	src := make([]geometry.Point2D, len(seed))
	dst := make([]geometry.Point2D, len(seed))
	for i, p := range seed {
		around[i] = entries[p.e].cands[p.c]
	}
	fr := newFrame(entries, around)
	for i, p := range seed {
		src[i] = fr.world[p.e][p.c]
		dst[i] = entries[p.e].toponym.Pixel
	}

	t, err := fitMinimal(s.cfg.Family, src, dst)
	if err != nil || !admissible(s.cfg.Family, t, s.cfg.MaxAnisotropy) {
		return nil
	}
	cur := s.assign(entries, fr, t)

	for iter := 0; iter < s.cfg.MaxRefits; iter++ {
		if len(cur.matches) < s.cfg.Family.minimalSubset() {
			break
		}

		around = around[:0]
		for _, m := range cur.matches {
			around = append(around, m.Candidate)
		}
		fr = newFrame(entries, around)

		src = src[:0]
		dst = dst[:0]
		for _, m := range cur.matches {
			src = append(src, fr.world[m.entry][m.cand])
			dst = append(dst, m.Toponym.Pixel)
		}

		refit, err := fitLeastSquares(s.cfg.Family, src, dst)
		if err != nil || !admissible(s.cfg.Family, refit, s.cfg.MaxAnisotropy) {
			break
		}
		next := s.assign(entries, fr, refit)
		if len(next.matches) < len(cur.matches) {
			break
		}
		if len(next.matches) == len(cur.matches) && next.rms >= cur.rms-1e-9 {
			break
		}
		cur = next
	}
	return cur
}

// assign takes, per name, the candidate with the smallest residual under t
// within tolerance. Pairs are taken greedily by residual so no name and no
// world coordinate is used twice.
func (s *Searcher) assign(entries []entry, fr frame, t geometry.AffineTransform) *state {
	type edge struct {
		e, c int
		r    float64
	}

	var edges []edge
	for ei, e := range entries {
		for ci, w := range fr.world[ei] {
			r := t.Apply(w).Distance(e.toponym.Pixel)
			if r <= s.cfg.MaxResidual {
				edges = append(edges, edge{e: ei, c: ci, r: r})
			}
		}
	}
	sort.SliceStable(edges, func(i, j int) bool { return edges[i].r < edges[j].r })

	usedName := make(map[string]bool)
	usedWorld := make(map[worldKey]bool)
	st := &state{transform: t, lat0: fr.lat0}
	for _, ed := range edges {
		e := entries[ed.e]
		cand := e.cands[ed.c]
		if usedName[e.toponym.Name] || usedWorld[keyOf(cand)] {
			continue
		}
		usedName[e.toponym.Name] = true
		usedWorld[keyOf(cand)] = true
		st.matches = append(st.matches, Match{Toponym: e.toponym, Candidate: cand, Residual: ed.r, entry: ed.e, cand: ed.c})
	}

	sort.Slice(st.matches, func(i, j int) bool { return st.matches[i].entry < st.matches[j].entry })

	var sumSq float64
	for _, m := range st.matches {
		sumSq += m.Residual * m.Residual
		st.max = math.Max(st.max, m.Residual)
	}
	if len(st.matches) > 0 {
		st.rms = math.Sqrt(sumSq / float64(len(st.matches)))
	}
	return st
}
