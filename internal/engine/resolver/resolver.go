// Package resolver computes a mutually compatible version selection for a
// desired mod set, across platforms and transitive dependencies.
package resolver

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/hollowmc/hollow/internal/core/domain"
	"github.com/hollowmc/hollow/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

const (
	// prefetchConcurrency bounds the parallel candidate queries issued for
	// independent worklist entries. Kept modest to stay under platform rate
	// limits.
	prefetchConcurrency = 4

	// maxBacktracks bounds the search. The space is finite, but a
	// pathological graph should fail loudly rather than burn the rate
	// limit.
	maxBacktracks = 1000
)

// originProfile marks constraint edges imposed by the user's desired set.
const originProfile = "profile"

// Resolver turns a ResolutionRequest into a consistent ResolutionResult.
type Resolver struct {
	source ports.VersionSource
	log    ports.Logger
}

// New creates a Resolver querying candidates through source.
func New(source ports.VersionSource, log ports.Logger) *Resolver {
	return &Resolver{source: source, log: log}
}

// Resolve runs the constraint-propagation worklist described below and
// returns the selected versions, or fails deterministically.
//
// Selection state is owned by a single goroutine; only candidate listing
// fans out, bounded by prefetchConcurrency, and results are folded back in
// before any decision is made. Re-running against unchanged platform data
// reproduces the identical result: the worklist order, the candidate
// ordering and the backtracking order are all deterministic.
func (r *Resolver) Resolve(ctx context.Context, req domain.ResolutionRequest) (domain.ResolutionResult, error) {
	s := &search{
		req:         req,
		source:      r.source,
		log:         r.log,
		selected:    make(map[domain.ModReference]domain.ModVersion),
		constraints: make(map[domain.ModReference][]constraintEdge),
		desired:     make(map[domain.ModReference]bool),
		candidates:  make(map[domain.ModReference][]domain.ModVersion),
	}

	// Seed in sorted order so the first run and every rerun walk the same
	// path.
	seeds := make([]domain.DesiredMod, len(req.Mods))
	copy(seeds, req.Mods)
	sort.Slice(seeds, func(i, j int) bool { return seeds[i].Ref.Key() < seeds[j].Ref.Key() })

	for _, m := range seeds {
		s.desired[m.Ref] = true
		if !m.Constraint.IsAny() {
			s.constraints[m.Ref] = append(s.constraints[m.Ref], constraintEdge{
				constraint: m.Constraint,
				origin:     originProfile,
			})
		}
		s.worklist = append(s.worklist, m.Ref)
	}

	if err := s.prefetch(ctx); err != nil {
		return nil, err
	}
	if err := s.run(ctx); err != nil {
		return nil, err
	}

	return s.result(), nil
}

// constraintEdge is one version restriction on a reference, tagged with the
// decision that imposed it so backtracking can retract it.
type constraintEdge struct {
	constraint domain.Constraint
	origin     string
}

// forbiddenPair records that owner's current selection declares itself
// incompatible with target versions matching the constraint.
type forbiddenPair struct {
	owner      domain.ModReference
	target     domain.ModReference
	constraint domain.Constraint
}

// decision is one entry of the explicit backtracking stack: a reference,
// its ordered candidate list and the index currently chosen.
type decision struct {
	ref        domain.ModReference
	candidates []domain.ModVersion
	idx        int
}

type search struct {
	req    domain.ResolutionRequest
	source ports.VersionSource
	log    ports.Logger

	worklist    []domain.ModReference
	selected    map[domain.ModReference]domain.ModVersion
	stack       []decision
	constraints map[domain.ModReference][]constraintEdge
	forbidden   []forbiddenPair
	desired     map[domain.ModReference]bool
	candidates  map[domain.ModReference][]domain.ModVersion
	backtracks  int
}

// prefetch lists candidates for all seed references concurrently. Errors
// surface immediately; the shared candidate map is only read by the
// sequential phase after Wait.
func (s *search) prefetch(ctx context.Context) error {
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(prefetchConcurrency)

	for _, ref := range s.worklist {
		g.Go(func() error {
			cands, err := s.fetchCandidates(ctx, ref)
			if err != nil {
				return err
			}
			mu.Lock()
			s.candidates[ref] = cands
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

// run is the sequential worklist loop. Cancellation is honored between
// items.
func (s *search) run(ctx context.Context) error {
	for len(s.worklist) > 0 {
		if err := ctx.Err(); err != nil {
			return zerr.Wrap(err, "resolution cancelled")
		}

		ref := s.worklist[0]
		s.worklist = s.worklist[1:]

		if v, ok := s.selected[ref]; ok {
			if s.satisfies(ref, v) {
				continue
			}
			// A later decision imposed a constraint the current selection
			// violates.
			if err := s.backtrack(ref); err != nil {
				return err
			}
			continue
		}

		cands, err := s.candidatesFor(ctx, ref)
		if err != nil {
			return err
		}
		if len(cands) == 0 {
			err := zerr.With(zerr.Wrap(domain.ErrNoCompatibleVersion, "no release fits the target environment"), "mod", ref.Key())
			err = zerr.With(err, "loader", string(s.req.Loader))
			return zerr.With(err, "game_version", string(s.req.GameVersion))
		}

		idx := s.firstSatisfying(ref, cands, 0)
		if idx < 0 {
			if err := s.backtrack(ref); err != nil {
				return err
			}
			continue
		}

		s.commit(ref, cands, idx)
	}
	return nil
}

func (s *search) candidatesFor(ctx context.Context, ref domain.ModReference) ([]domain.ModVersion, error) {
	if cands, ok := s.candidates[ref]; ok {
		return cands, nil
	}
	cands, err := s.fetchCandidates(ctx, ref)
	if err != nil {
		return nil, err
	}
	s.candidates[ref] = cands
	return cands, nil
}

func (s *search) fetchCandidates(ctx context.Context, ref domain.ModReference) ([]domain.ModVersion, error) {
	versions, err := s.source.ListVersions(ctx, ref)
	if err != nil {
		return nil, err
	}
	return domain.FilterCompatible(versions, s.req.Loader, s.req.GameVersion), nil
}

// satisfies reports whether v meets every constraint currently known for
// ref and violates no incompatibility in either direction.
func (s *search) satisfies(ref domain.ModReference, v domain.ModVersion) bool {
	for _, edge := range s.constraints[ref] {
		if !edge.constraint.Matches(v.ID) {
			return false
		}
	}

	// Selections of other mods forbidding this one.
	for _, p := range s.forbidden {
		if p.owner == ref {
			continue
		}
		if p.target == ref && p.constraint.Matches(v.ID) {
			if _, ok := s.selected[p.owner]; ok {
				return false
			}
		}
	}

	// v forbidding selections of other mods.
	for _, dep := range v.Dependencies {
		if dep.Relation != domain.RelationIncompatible {
			continue
		}
		target := s.override(dep.Ref)
		if sel, ok := s.selected[target]; ok && target != ref && dep.Constraint.Matches(sel.ID) {
			return false
		}
	}

	return true
}

func (s *search) firstSatisfying(ref domain.ModReference, cands []domain.ModVersion, from int) int {
	for i := from; i < len(cands); i++ {
		if s.satisfies(ref, cands[i]) {
			return i
		}
	}
	return -1
}

// commit selects cands[idx] for ref, pushes the decision and propagates the
// version's declared dependencies into the constraint state and worklist.
func (s *search) commit(ref domain.ModReference, cands []domain.ModVersion, idx int) {
	v := cands[idx]
	s.stack = append(s.stack, decision{ref: ref, candidates: cands, idx: idx})
	s.selected[ref] = v

	origin := ref.Key() + "@" + v.ID

	for _, dep := range v.Dependencies {
		target := s.override(dep.Ref)
		if target == ref {
			// Self-references happen with overrides; a version trivially
			// satisfies itself.
			continue
		}

		switch dep.Relation {
		case domain.RelationRequired:
			s.constraints[target] = append(s.constraints[target], constraintEdge{
				constraint: dep.Constraint,
				origin:     origin,
			})
			s.enqueue(target)

		case domain.RelationOptional:
			// Optional dependencies never pull a mod in on their own, but the
			// edge is recorded unconditionally so it still constrains the
			// target if it joins the selection later for another reason.
			s.constraints[target] = append(s.constraints[target], constraintEdge{
				constraint: dep.Constraint,
				origin:     origin,
			})
			_, alreadySelected := s.selected[target]
			if s.desired[target] || alreadySelected {
				s.enqueue(target)
			}

		case domain.RelationIncompatible:
			s.forbidden = append(s.forbidden, forbiddenPair{
				owner:      ref,
				target:     target,
				constraint: dep.Constraint,
			})
			// If target is already selected in violation, satisfies()
			// rejected this candidate before commit, so no check is needed
			// here; the pair guards future selections of target.
		}
	}
}

// backtrack retracts recent decisions until an alternative selection
// unblocks conflictRef, or fails with the conflicting constraint chain.
func (s *search) backtrack(conflictRef domain.ModReference) error {
	chain := s.describeConstraints(conflictRef)

	for len(s.stack) > 0 {
		s.backtracks++
		if s.backtracks > maxBacktracks {
			err := zerr.With(zerr.Wrap(domain.ErrUnresolvableConflict, "search aborted"), "mod", conflictRef.Key())
			err = zerr.With(err, "chain", chain)
			return zerr.With(err, "reason", "backtracking budget exhausted")
		}

		d := s.stack[len(s.stack)-1]
		s.stack = s.stack[:len(s.stack)-1]
		s.undo(d)

		if idx := s.firstSatisfying(d.ref, d.candidates, d.idx+1); idx >= 0 {
			s.commit(d.ref, d.candidates, idx)
			s.enqueue(conflictRef)
			return nil
		}

		// This reference has no alternative under the remaining
		// constraints; retract deeper and try to re-resolve it later.
		s.enqueue(d.ref)
	}

	err := zerr.With(zerr.Wrap(domain.ErrUnresolvableConflict, "search space exhausted"), "mod", conflictRef.Key())
	return zerr.With(err, "chain", chain)
}

// undo retracts a decision: the selection itself plus every constraint edge
// and forbidden pair its version imposed.
func (s *search) undo(d decision) {
	v := s.selected[d.ref]
	origin := d.ref.Key() + "@" + v.ID
	delete(s.selected, d.ref)

	for ref, edges := range s.constraints {
		kept := edges[:0]
		for _, e := range edges {
			if e.origin != origin {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(s.constraints, ref)
		} else {
			s.constraints[ref] = kept
		}
	}

	kept := s.forbidden[:0]
	for _, p := range s.forbidden {
		if p.owner != d.ref {
			kept = append(kept, p)
		}
	}
	s.forbidden = kept
}

func (s *search) enqueue(ref domain.ModReference) {
	s.worklist = append(s.worklist, ref)
}

func (s *search) override(ref domain.ModReference) domain.ModReference {
	if replacement, ok := s.req.Overrides[ref.ProjectID]; ok {
		return replacement
	}
	return ref
}

// describeConstraints renders the constraint chain for error reporting.
func (s *search) describeConstraints(ref domain.ModReference) string {
	edges := s.constraints[ref]
	if len(edges) == 0 {
		return ref.Key()
	}
	parts := make([]string, 0, len(edges))
	for _, e := range edges {
		parts = append(parts, e.origin+" requires "+ref.Key()+" "+e.constraint.String())
	}
	return strings.Join(parts, "; ")
}

// result prunes selections no longer reachable from the desired set (left
// behind when backtracking retracted their last dependent) and returns the
// final mapping.
func (s *search) result() domain.ResolutionResult {
	reachable := make(map[domain.ModReference]bool)

	roots := make([]domain.ModReference, 0, len(s.desired))
	for ref := range s.desired {
		roots = append(roots, ref)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].Key() < roots[j].Key() })

	var visit func(domain.ModReference)
	visit = func(ref domain.ModReference) {
		v, ok := s.selected[ref]
		if !ok || reachable[ref] {
			return
		}
		reachable[ref] = true
		for _, dep := range v.Dependencies {
			if dep.Relation == domain.RelationIncompatible {
				continue
			}
			target := s.override(dep.Ref)
			if dep.Relation == domain.RelationOptional && !reachable[target] {
				if _, sel := s.selected[target]; !sel {
					continue
				}
			}
			visit(target)
		}
	}
	for _, root := range roots {
		visit(root)
	}

	res := make(domain.ResolutionResult, len(reachable))
	for ref := range reachable {
		res[ref] = s.selected[ref]
	}
	return res
}
