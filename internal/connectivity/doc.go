// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package connectivity decides when the heartbeat session runs and turns the
// session's asynchronous status pushes into one ordered status stream.
//
// Inputs arrive from three independent sources: lifecycle transitions,
// preference changes and radio (interface) changes. The Orchestrator
// serializes them onto one goroutine that drives the Controller. Status
// pushes from the session may arrive from any goroutine and in any order;
// the Sequencer funnels them onto its own goroutine and only presents events
// that are newer than everything presented before.
package connectivity
