// Package installer turns a resolution result into filesystem changes: it
// diffs the result against the lockfile and applies the difference to the
// mod directory atomically.
package installer

import (
	"sort"

	"github.com/hollowmc/hollow/internal/core/domain"
)

// Plan diffs the resolved version set against the current lockfile and the
// disabled set, producing the steps Apply must perform. Steps are ordered
// by reference key so identical inputs always produce the identical plan.
func Plan(result domain.ResolutionResult, lf *domain.Lockfile, disabled map[domain.ModReference]bool) domain.Plan {
	refs := make([]domain.ModReference, 0, len(result))
	for ref := range result {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Key() < refs[j].Key() })

	var plan domain.Plan

	for _, ref := range refs {
		ver := result[ref]
		wantDisabled := disabled[ref]

		old, exists := lf.Entry(ref)
		if !exists {
			plan.Steps = append(plan.Steps, domain.PlanStep{
				Action:   domain.ActionAdd,
				Ref:      ref,
				Version:  ver,
				Disabled: wantDisabled,
			})
			continue
		}

		// Versions without a declared checksum (release pages) are compared
		// by identifier alone; the lock entry holds the first-use-trust hash
		// no platform value can ever match.
		if old.VersionID != ver.ID || (ver.Checksum != "" && old.Checksum != ver.Checksum) {
			plan.Steps = append(plan.Steps, domain.PlanStep{
				Action:   domain.ActionUpdate,
				Ref:      ref,
				Version:  ver,
				Disabled: wantDisabled,
				Old:      &old,
			})
			continue
		}

		switch {
		case wantDisabled && !old.Disabled:
			plan.Steps = append(plan.Steps, domain.PlanStep{
				Action:   domain.ActionDisable,
				Ref:      ref,
				Version:  ver,
				Disabled: true,
				Old:      &old,
			})
		case !wantDisabled && old.Disabled:
			plan.Steps = append(plan.Steps, domain.PlanStep{
				Action:   domain.ActionEnable,
				Ref:      ref,
				Version:  ver,
				Disabled: false,
				Old:      &old,
			})
		default:
			plan.Steps = append(plan.Steps, domain.PlanStep{
				Action:   domain.ActionNoOp,
				Ref:      ref,
				Version:  ver,
				Disabled: wantDisabled,
				Old:      &old,
			})
		}
	}

	// Anything locked but no longer resolved gets removed.
	for _, entry := range lf.SortedEntries() {
		if _, ok := result[entry.Ref]; ok {
			continue
		}
		old := entry
		plan.Steps = append(plan.Steps, domain.PlanStep{
			Action: domain.ActionRemove,
			Ref:    entry.Ref,
			Old:    &old,
		})
	}

	return plan
}
