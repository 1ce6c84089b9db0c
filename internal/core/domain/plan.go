package domain

import "fmt"

// PlanAction is the kind of mutation a plan step performs on the mod
// directory.
type PlanAction string

const (
	// ActionAdd installs a mod that has no lockfile entry yet.
	ActionAdd PlanAction = "add"
	// ActionUpdate replaces an installed artifact with a different version
	// or checksum.
	ActionUpdate PlanAction = "update"
	// ActionRemove deletes an installed artifact whose reference left the
	// resolution result.
	ActionRemove PlanAction = "remove"
	// ActionDisable renames an installed artifact aside without touching its
	// lockfile membership.
	ActionDisable PlanAction = "disable"
	// ActionEnable undoes a previous disable.
	ActionEnable PlanAction = "enable"
	// ActionNoOp records that the installed state already matches.
	ActionNoOp PlanAction = "noop"
)

// PlanStep is one entry of an install plan.
type PlanStep struct {
	Action PlanAction
	Ref    ModReference
	// Version is the selected version for Add/Update/Disable/Enable/NoOp
	// steps; zero for Remove.
	Version ModVersion
	// Disabled is the desired disabled flag of the resulting lock entry.
	Disabled bool
	// Old is the prior lock entry for Update/Remove/Disable/Enable steps.
	Old *LockEntry
}

// Plan is the ordered set of mutations that turns the locked state into the
// resolved state. Step order is deterministic: sorted by reference key.
type Plan struct {
	Steps []PlanStep
}

// IsNoOp reports whether the plan mutates nothing.
func (p Plan) IsNoOp() bool {
	for _, s := range p.Steps {
		if s.Action != ActionNoOp {
			return false
		}
	}
	return true
}

// Counts tallies steps per action, for reporting.
func (p Plan) Counts() map[PlanAction]int {
	counts := make(map[PlanAction]int)
	for _, s := range p.Steps {
		counts[s.Action]++
	}
	return counts
}

// Summary renders a short human-readable account of the plan.
func (p Plan) Summary() string {
	c := p.Counts()
	return fmt.Sprintf("%d add, %d update, %d remove, %d disable, %d enable, %d unchanged",
		c[ActionAdd], c[ActionUpdate], c[ActionRemove], c[ActionDisable], c[ActionEnable], c[ActionNoOp])
}
