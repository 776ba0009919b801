// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package connectivity

import "sync"

// LifecycleListener observes lifecycle transitions.
type LifecycleListener interface {
	EnteredForeground()
	EnteredBackground()
}

// ListenerFuncs adapts plain functions to LifecycleListener. Nil fields are skipped.
type ListenerFuncs struct {
	Foreground func()
	Background func()
}

func (f ListenerFuncs) EnteredForeground() {
	if f.Foreground != nil {
		f.Foreground()
	}
}

func (f ListenerFuncs) EnteredBackground() {
	if f.Background != nil {
		f.Background()
	}
}

// Registration is the handle returned by Registry.Add. Removal is by handle
// identity, so the same listener may be registered more than once.
type Registration struct {
	listener LifecycleListener
}

// Registry keeps lifecycle listeners in registration order.
type Registry struct {
	mu   sync.Mutex
	regs []*Registration
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers l and returns its handle.
func (r *Registry) Add(l LifecycleListener) *Registration {
	reg := &Registration{listener: l}
	r.mu.Lock()
	r.regs = append(r.regs, reg)
	r.mu.Unlock()
	return reg
}

// Remove unregisters the handle. Unknown or nil handles are ignored.
func (r *Registry) Remove(reg *Registration) {
	if reg == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.regs {
		if existing == reg {
			r.regs = append(r.regs[:i:i], r.regs[i+1:]...)
			return
		}
	}
}

// Len returns the number of registrations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.regs)
}

// NotifyForeground calls EnteredForeground on every listener in order.
func (r *Registry) NotifyForeground() {
	for _, reg := range r.snapshot() {
		reg.listener.EnteredForeground()
	}
}

// NotifyBackground calls EnteredBackground on every listener in order.
func (r *Registry) NotifyBackground() {
	for _, reg := range r.snapshot() {
		reg.listener.EnteredBackground()
	}
}

func (r *Registry) snapshot() []*Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Registration(nil), r.regs...)
}
