package gate

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Profile is a role holding a set of permissions.
type Profile interface {
	Name() string
	HasPermission(p Permission) bool
	Permissions() []Permission
}

// ProfileResolver finds the profile of a subject. A nil profile with a nil
// error means the subject has none.
type ProfileResolver[U any] interface {
	Resolve(ctx context.Context, subject U) (Profile, error)
}

// StaticProfile is an in-memory profile.
type StaticProfile struct {
	name  string
	perms map[Permission]struct{}
}

func NewStaticProfile(name string, perms ...Permission) *StaticProfile {
	p := &StaticProfile{name: name, perms: make(map[Permission]struct{}, len(perms))}
	for _, perm := range perms {
		p.perms[perm] = struct{}{}
	}
	return p
}

func (p *StaticProfile) Name() string { return p.name }

// Permissions returns the granted permissions in lexical order.
func (p *StaticProfile) Permissions() []Permission {
	out := make([]Permission, 0, len(p.perms))
	for perm := range p.perms {
		out = append(out, perm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (p *StaticProfile) HasPermission(requested Permission) bool {
	for perm := range p.perms {
		if perm.Matches(requested) {
			return true
		}
	}
	return false
}

// StaticResolver maps subjects to fixed profiles.
type StaticResolver[U comparable] struct {
	mu       sync.RWMutex
	profiles map[U]Profile
}

func NewStaticResolver[U comparable]() *StaticResolver[U] {
	return &StaticResolver[U]{profiles: make(map[U]Profile)}
}

func (r *StaticResolver[U]) Set(subject U, p Profile) {
	r.mu.Lock()
	r.profiles[subject] = p
	r.mu.Unlock()
}

func (r *StaticResolver[U]) Resolve(_ context.Context, subject U) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.profiles[subject], nil
}

// CachedResolver keeps resolved profiles for ttl.
type CachedResolver[U comparable] struct {
	inner ProfileResolver[U]
	ttl   time.Duration
	now   func() time.Time

	mu    sync.RWMutex
	cache map[U]cachedProfile
}

type cachedProfile struct {
	profile   Profile
	expiresAt time.Time
}

func NewCachedResolver[U comparable](inner ProfileResolver[U], ttl time.Duration) *CachedResolver[U] {
	return &CachedResolver[U]{
		inner: inner,
		ttl:   ttl,
		now:   time.Now,
		cache: make(map[U]cachedProfile),
	}
}

func (r *CachedResolver[U]) Resolve(ctx context.Context, subject U) (Profile, error) {
	r.mu.RLock()
	entry, ok := r.cache[subject]
	r.mu.RUnlock()
	if ok && r.now().Before(entry.expiresAt) {
		return entry.profile, nil
	}

	p, err := r.inner.Resolve(ctx, subject)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.cache[subject] = cachedProfile{profile: p, expiresAt: r.now().Add(r.ttl)}
	r.mu.Unlock()
	return p, nil
}

// Invalidate drops one subject, e.g. after its profile was reassigned.
func (r *CachedResolver[U]) Invalidate(subject U) {
	r.mu.Lock()
	delete(r.cache, subject)
	r.mu.Unlock()
}

// InvalidateAll drops every cached profile, e.g. after permissions changed.
func (r *CachedResolver[U]) InvalidateAll() {
	r.mu.Lock()
	r.cache = make(map[U]cachedProfile)
	r.mu.Unlock()
}
