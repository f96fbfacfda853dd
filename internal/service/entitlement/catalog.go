// internal/service/entitlement/catalog.go
package entitlement

import (
	"encoding/json"
	"fmt"
	"os"

	"squadhub-service/internal/domain/entitlement"
	xerrors "squadhub-service/internal/pkg/errors"

	"github.com/go-playground/validator/v10"
)

// Catalog is the static, read-only set of plans.
type Catalog struct {
	plans []entitlement.Plan
	byID  map[string]entitlement.Plan
}

type catalogFile struct {
	Plans []entitlement.Plan `json:"plans" validate:"required,min=1,dive"`
}

// NewCatalog validates plans and indexes them by id. The free plan is mandatory
// because expired trials fall back to it.
func NewCatalog(plans []entitlement.Plan) (*Catalog, error) {
	if err := validator.New().Struct(catalogFile{Plans: plans}); err != nil {
		return nil, fmt.Errorf("invalid plan catalog: %w", err)
	}

	c := &Catalog{byID: make(map[string]entitlement.Plan, len(plans))}
	for _, p := range plans {
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("invalid plan catalog: duplicate plan %q", p.ID)
		}
		c.byID[p.ID] = p
		c.plans = append(c.plans, p)
	}

	free, ok := c.byID[entitlement.PlanFree]
	if !ok {
		return nil, fmt.Errorf("invalid plan catalog: missing %q plan", entitlement.PlanFree)
	}
	if !free.IsFree() {
		return nil, fmt.Errorf("invalid plan catalog: %q plan must have zero price", entitlement.PlanFree)
	}
	return c, nil
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(entitlement.DefaultPlans())
	if err != nil {
		panic(err)
	}
	return c
}

// LoadCatalog reads a JSON catalog file of the form {"plans": [...]}.
// An empty path yields the built-in catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan catalog: %w", err)
	}
	var f catalogFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse plan catalog: %w", err)
	}
	return NewCatalog(f.Plans)
}

// Get returns the plan with id or ErrUnknownPlan.
func (c *Catalog) Get(id string) (entitlement.Plan, error) {
	p, ok := c.byID[id]
	if !ok {
		return entitlement.Plan{}, fmt.Errorf("%w: %q", xerrors.ErrUnknownPlan, id)
	}
	return p, nil
}

// All returns the plans in catalog order.
func (c *Catalog) All() []entitlement.Plan {
	out := make([]entitlement.Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

// Free returns the fallback plan.
func (c *Catalog) Free() entitlement.Plan {
	return c.byID[entitlement.PlanFree]
}
