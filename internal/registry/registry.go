package registry

import (
	"fmt"
	"strings"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/pkg/util"
)

// FallbackID names the catch-all department every registry must contain.
const FallbackID = "general"

// Registry is the process-wide, read-only department table. Matching is
// a pure scan over the declaration-ordered slice so tie-breaks are
// reproducible: when two departments score equally, the one declared
// first wins.
type Registry struct {
	departments []domain.Department
	byID        map[string]int
	fallback    int
}

// New validates the department list and builds the registry. Validation
// failures are configuration errors and fatal at startup.
func New(departments []domain.Department) (*Registry, error) {
	if len(departments) == 0 {
		return nil, util.NewConfigurationError("department registry is empty", nil)
	}

	reg := &Registry{
		departments: make([]domain.Department, 0, len(departments)),
		byID:        make(map[string]int, len(departments)),
		fallback:    -1,
	}
	for i, dept := range departments {
		id := strings.TrimSpace(dept.ID)
		if id == "" || strings.TrimSpace(dept.Name) == "" {
			return nil, util.NewConfigurationError(fmt.Sprintf("department %d is missing id or name", i), nil)
		}
		if _, dup := reg.byID[id]; dup {
			return nil, util.NewConfigurationError(fmt.Sprintf("duplicate department id %q", id), nil)
		}
		if dept.SLAHours <= 0 {
			return nil, util.NewConfigurationError(fmt.Sprintf("department %q has non-positive sla_hours", id), nil)
		}

		keywords := make([]string, 0, len(dept.Keywords))
		for _, kw := range dept.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
		dept.ID = id
		dept.Keywords = keywords

		if id == FallbackID {
			reg.fallback = len(reg.departments)
		}
		reg.byID[id] = len(reg.departments)
		reg.departments = append(reg.departments, dept)
	}

	if reg.fallback < 0 {
		return nil, util.NewConfigurationError(fmt.Sprintf("registry has no %q fallback department", FallbackID), nil)
	}
	return reg, nil
}

// LookupByID returns the department with the given id.
func (r *Registry) LookupByID(id string) (domain.Department, bool) {
	idx, ok := r.byID[strings.TrimSpace(id)]
	if !ok {
		return domain.Department{}, false
	}
	return r.departments[idx], true
}

// MatchByKeywords returns the department whose keyword set has the most
// case-insensitive substring hits in text. Zero hits yields the fallback.
func (r *Registry) MatchByKeywords(text string) domain.Department {
	lower := strings.ToLower(text)

	best := -1
	bestHits := 0
	for i, dept := range r.departments {
		hits := 0
		for _, kw := range dept.Keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best = i
			bestHits = hits
		}
	}
	if best < 0 {
		return r.departments[r.fallback]
	}
	return r.departments[best]
}

// ResolveNameHint treats a free-text department name from the oracle as
// a lookup hint: exact id or name match first, then substring
// containment in either direction. Multiple substring candidates resolve
// to the first declared.
func (r *Registry) ResolveNameHint(hint string) (domain.Department, bool) {
	hint = strings.ToLower(strings.TrimSpace(hint))
	if hint == "" {
		return domain.Department{}, false
	}

	for _, dept := range r.departments {
		if hint == strings.ToLower(dept.ID) || hint == strings.ToLower(dept.Name) {
			return dept, true
		}
	}
	for _, dept := range r.departments {
		name := strings.ToLower(dept.Name)
		if strings.Contains(name, hint) || strings.Contains(hint, name) {
			return dept, true
		}
	}
	return domain.Department{}, false
}

// Fallback returns the catch-all department.
func (r *Registry) Fallback() domain.Department {
	return r.departments[r.fallback]
}

// All returns the departments in declaration order.
func (r *Registry) All() []domain.Department {
	out := make([]domain.Department, len(r.departments))
	copy(out, r.departments)
	return out
}
