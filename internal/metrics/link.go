// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	linkStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hblink_link_status",
		Help: "Currently presented link status (one-hot by status)",
	}, []string{"status"})

	// EventsTotal counts status events seen by the sequencer by outcome.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hblink_status_events_total",
		Help: "Status events received by the sequencer by outcome",
	}, []string{"outcome"}) // outcome=accepted|stale

	// SessionActionsTotal counts begin/stop/reload/radio_unavailable requests issued to the session.
	SessionActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hblink_session_actions_total",
		Help: "Session actions requested by the controller",
	}, []string{"action"})

	lifecycleState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hblink_lifecycle_state",
		Help: "Current lifecycle state (one-hot by state)",
	}, []string{"state"})

	radioReachable = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hblink_radio_reachable",
		Help: "Whether the managed interface was reachable at the last evaluation (1) or not (0)",
	})

	// ConfigChangesTotal counts config change notifications by outcome.
	ConfigChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hblink_config_changes_total",
		Help: "Configuration change notifications by outcome",
	}, []string{"outcome"}) // outcome=applied|deferred|ignored|reload_failed

	// CuePlaysTotal counts audio cue attempts.
	CuePlaysTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hblink_cue_plays_total",
		Help: "Audio cue playback attempts by cue and outcome",
	}, []string{"cue", "outcome"}) // outcome=played|not_loaded|failed

	wsClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hblink_ws_clients",
		Help: "Connected websocket status clients",
	})

	// HeartbeatsTotal counts heartbeat datagrams by direction.
	HeartbeatsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hblink_heartbeats_total",
		Help: "Heartbeat datagrams sent and echoes received",
	}, []string{"direction"}) // direction=sent|received

	// PlayerSignalsTotal counts signals sent to external cue player process groups.
	PlayerSignalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hblink_player_signals_total",
		Help: "Signals sent to cue player process groups by signal and outcome",
	}, []string{"signal", "outcome"}) // outcome=sent|error
)

var (
	linkStatuses    = []string{"CONNECTED", "NOT_CONNECTED", "RADIO_UNAVAILABLE"}
	lifecycleStates = []string{"foreground", "background"}
)

// SetLinkStatus records the presented link status.
func SetLinkStatus(status string) {
	setOneHot(linkStatus, linkStatuses, status)
}

// SetLifecycleState records the lifecycle state.
func SetLifecycleState(state string) {
	setOneHot(lifecycleState, lifecycleStates, state)
}

// SetRadioReachable records the result of the last reachability evaluation.
func SetRadioReachable(ok bool) {
	if ok {
		radioReachable.Set(1)
		return
	}
	radioReachable.Set(0)
}

// IncSessionAction records a session action.
func IncSessionAction(action string) {
	SessionActionsTotal.WithLabelValues(action).Inc()
}

// IncEvent records a sequencer decision.
func IncEvent(outcome string) {
	EventsTotal.WithLabelValues(outcome).Inc()
}

// IncConfigChange records a config change outcome.
func IncConfigChange(outcome string) {
	ConfigChangesTotal.WithLabelValues(outcome).Inc()
}

// IncCuePlay records an audio cue attempt.
func IncCuePlay(cue, outcome string) {
	CuePlaysTotal.WithLabelValues(cue, outcome).Inc()
}

// IncHeartbeat records a heartbeat datagram.
func IncHeartbeat(direction string) {
	HeartbeatsTotal.WithLabelValues(direction).Inc()
}

// IncPlayerSignal records a signal sent to a player process group.
func IncPlayerSignal(signal, outcome string) {
	PlayerSignalsTotal.WithLabelValues(signal, outcome).Inc()
}

// AddWSClients adjusts the websocket client gauge.
func AddWSClients(delta float64) {
	wsClients.Add(delta)
}

func setOneHot(g *prometheus.GaugeVec, labels []string, active string) {
	for _, l := range labels {
		value := 0.0
		if l == active {
			value = 1.0
		}
		g.WithLabelValues(l).Set(value)
	}
}
