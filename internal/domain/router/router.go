// Package router assigns transactions to per-account-holder output channels.
package router

import "strings"

// DefaultChannel is used when multi-account routing is disabled.
const DefaultChannel = "transactions"

// Holder is an account holder and the markers that identify their accounts
// in alert text (masked account numbers, card endings).
type Holder struct {
	Name    string
	Markers []string
}

// Router picks an output channel for an alert.
type Router struct {
	enabled bool
	primary string
	holders []Holder
}

// New creates a router. When enabled is false every alert goes to
// DefaultChannel. An empty primary defaults to the first holder.
func New(enabled bool, primary string, holders []Holder) *Router {
	r := &Router{enabled: enabled && len(holders) > 0, primary: primary}
	for _, h := range holders {
		var markers []string
		for _, m := range h.Markers {
			if m = strings.TrimSpace(m); m != "" {
				markers = append(markers, m)
			}
		}
		r.holders = append(r.holders, Holder{Name: h.Name, Markers: markers})
	}
	if r.primary == "" && len(r.holders) > 0 {
		r.primary = r.holders[0].Name
	}
	return r
}

// Disabled returns a router that sends everything to DefaultChannel.
func Disabled() *Router {
	return &Router{}
}

// Enabled reports whether per-holder channels are in use.
func (r *Router) Enabled() bool {
	return r.enabled
}

// DefaultChannel is the channel used when no marker is recognized.
func (r *Router) DefaultChannel() string {
	if !r.enabled {
		return DefaultChannel
	}
	return r.primary
}

// Route scans raw alert text for holder markers. The first holder in
// configuration order with a matching marker wins.
func (r *Router) Route(text string) string {
	if !r.enabled {
		return DefaultChannel
	}
	for _, h := range r.holders {
		for _, m := range h.Markers {
			if strings.Contains(text, m) {
				return h.Name
			}
		}
	}
	return r.primary
}
