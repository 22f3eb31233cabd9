// Package gate checks typed permissions. A subject is resolved to a Profile
// whose "resource:action" permissions are checked first; a Policy registered
// for the resource may then veto the action for a concrete object.
package gate

import (
	"context"
	"errors"
)

var (
	// ErrUnauthorized means there is no subject or it has no profile.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden means the profile or a policy denies the action.
	ErrForbidden = errors.New("forbidden")
)

// Policy holds object level rules for one resource. obj is nil for list and
// create checks.
type Policy[U any] interface {
	Allow(ctx context.Context, subject U, action Action, obj any) error
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc[U any] func(ctx context.Context, subject U, action Action, obj any) error

func (f PolicyFunc[U]) Allow(ctx context.Context, subject U, action Action, obj any) error {
	return f(ctx, subject, action, obj)
}

// Gate is the central authorization checkpoint.
type Gate[U comparable] struct {
	resolver ProfileResolver[U]
	policies map[Resource]Policy[U]
}

func New[U comparable](resolver ProfileResolver[U]) *Gate[U] {
	return &Gate[U]{resolver: resolver, policies: make(map[Resource]Policy[U])}
}

// Register sets the policy of a resource, replacing any previous one.
func (g *Gate[U]) Register(resource Resource, p Policy[U]) {
	g.policies[resource] = p
}

// Authorize returns nil when subject may perform action on obj. Policy errors
// that do not wrap ErrForbidden are returned wrapped in it, so callers can
// match either the specific reason or the general denial.
func (g *Gate[U]) Authorize(ctx context.Context, subject U, action Action, resource Resource, obj any) error {
	var zero U
	if subject == zero {
		return ErrUnauthorized
	}
	profile, err := g.resolver.Resolve(ctx, subject)
	if err != nil || profile == nil {
		return ErrUnauthorized
	}
	if !profile.HasPermission(NewPermission(resource, action)) {
		return ErrForbidden
	}
	if obj == nil {
		return nil
	}
	p, ok := g.policies[resource]
	if !ok {
		return nil
	}
	if err := p.Allow(ctx, subject, action, obj); err != nil {
		if errors.Is(err, ErrForbidden) {
			return err
		}
		return errors.Join(ErrForbidden, err)
	}
	return nil
}

// Can is Authorize as a bool.
func (g *Gate[U]) Can(ctx context.Context, subject U, action Action, resource Resource, obj any) bool {
	return g.Authorize(ctx, subject, action, resource, obj) == nil
}

// CanProfile checks the profile only, before any object is loaded.
func (g *Gate[U]) CanProfile(ctx context.Context, subject U, action Action, resource Resource) bool {
	return g.Authorize(ctx, subject, action, resource, nil) == nil
}

type subjectKey struct{}

// WithSubject stores the acting subject in ctx.
func WithSubject[U any](ctx context.Context, subject U) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

// SubjectFrom returns the subject stored by WithSubject.
func SubjectFrom[U any](ctx context.Context) (U, bool) {
	s, ok := ctx.Value(subjectKey{}).(U)
	return s, ok
}
