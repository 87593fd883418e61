package agents

import (
	"sort"

	"equitydesk/pkg/errors"
)

// Desk is the set of agents staffing one research workflow, one per role.
// It is filled once by BuildDesk and only read afterwards.
type Desk struct {
	members map[AgentType]Agent
}

// Member returns the agent holding the given role.
func (d *Desk) Member(role AgentType) (Agent, error) {
	ag, ok := d.members[role]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "no %s on the desk", role)
	}
	return ag, nil
}

// Roles lists staffed roles in name order.
func (d *Desk) Roles() []AgentType {
	roles := make([]AgentType, 0, len(d.members))
	for role := range d.members {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// BuildDesk creates an agent for each requested role from DefaultAgentConfigs.
func (f *Factory) BuildDesk(roles ...AgentType) (*Desk, error) {
	desk := &Desk{members: make(map[AgentType]Agent, len(roles))}
	for _, role := range roles {
		cfg, ok := DefaultAgentConfigs[role]
		if !ok {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "unknown agent type %s", role)
		}
		ag, err := f.CreateAgent(cfg)
		if err != nil {
			return nil, errors.Wrapf(err, "create agent %s", role)
		}
		desk.members[role] = ag
	}
	return desk, nil
}
