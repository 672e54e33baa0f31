package doctor

import (
	"github.com/jaspreet-dot-casa/devstrap/pkg/steps"
)

// groupDefinition describes one group before its checks run.
type groupDefinition struct {
	ID          string
	Name        string
	Description string
	Step        *steps.Step // Nil for host and access groups
}

// groupDefinitions lists the groups in display order: host first, then one
// group per installer that has probes, then docker access.
func groupDefinitions(plan []steps.Step) []groupDefinition {
	defs := []groupDefinition{{
		ID:          GroupHost,
		Name:        "Host",
		Description: "Debian-family system with sudo",
	}}

	for i := range plan {
		s := &plan[i]
		if len(s.Probes) == 0 {
			continue
		}
		defs = append(defs, groupDefinition{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Step:        s,
		})
	}

	return append(defs, groupDefinition{
		ID:          GroupAccess,
		Name:        "Docker access",
		Description: "Group membership and a reachable daemon",
	})
}

// GetAllGroupIDs returns every group ID for plan in display order.
func GetAllGroupIDs(plan []steps.Step) []string {
	defs := groupDefinitions(plan)
	ids := make([]string, len(defs))
	for i, d := range defs {
		ids[i] = d.ID
	}
	return ids
}
