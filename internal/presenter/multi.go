// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package presenter

import (
	"github.com/ManuGH/hblink/internal/connectivity"
	"github.com/ManuGH/hblink/internal/link"
)

// Multi shows every status on each of its presenters, in order.
type Multi []connectivity.Presenter

func (m Multi) Show(ev link.Event) connectivity.Notification {
	ns := make(multiNotification, 0, len(m))
	for _, p := range m {
		if n := p.Show(ev); n != nil {
			ns = append(ns, n)
		}
	}
	return ns
}

type multiNotification []connectivity.Notification

func (ns multiNotification) Cancel() {
	for _, n := range ns {
		n.Cancel()
	}
}
