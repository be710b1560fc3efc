// Package gate is the access control layer of the library API. It combines a
// closed role enumeration with an explicit capability check (Allows) and a
// registry of per-resource policies for ownership rules.
package gate

import "context"

// Gate answers two questions about a Subject: may it reach a route of a given
// capability (Require), and may it act on a particular resource (Authorize).
type Gate struct {
	policies map[string]Policy
}

func NewGate() *Gate {
	return &Gate{policies: make(map[string]Policy)}
}

// Register sets the policy for a resource type such as "loan", replacing any
// earlier one.
func (g *Gate) Register(resourceType string, p Policy) {
	g.policies[resourceType] = p
}

// Require checks the subject's role against a route capability. Anonymous
// routes pass anyone; every other capability needs a signed-in subject
// (ErrUnauthorized) whose role reaches c (ErrForbidden).
func (g *Gate) Require(s Subject, c Capability) error {
	if c == Anonymous {
		return nil
	}
	if s.ID == 0 {
		return ErrUnauthorized
	}
	if !s.Can(c) {
		return ErrForbidden
	}
	return nil
}

// Authorize runs the policy for resourceType. The subject must first hold
// the Authenticated capability, so an unknown role never reaches a policy.
func (g *Gate) Authorize(ctx context.Context, s Subject, action Action, resourceType string, resource any) error {
	if err := g.Require(s, Authenticated); err != nil {
		return err
	}
	p, ok := g.policies[resourceType]
	if !ok {
		return ErrNoPolicyDefined
	}
	if !p.Can(ctx, s, action, resource) {
		return ErrForbidden
	}
	return nil
}

func (g *Gate) Can(ctx context.Context, s Subject, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, s, action, resourceType, resource) == nil
}
