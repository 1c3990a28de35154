// Package service provides the business logic layer for astarmaze.
//
// The service package implements:
//   - Multi-session maze management
//   - Endpoint and obstacle editing
//   - Path evaluation with per-session history
//   - Evaluation metrics
//
// Core Interfaces:
//
// MazeService is the main service interface used by the REST API, the
// websocket hub and the MCP proxy. SessionManager handles session creation,
// retrieval, and lifecycle. ConfigManager loads maze configurations.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the search engine. Each session owns one engine.PathGenerator; edits are
// forwarded to it unchanged and Evaluate runs a search against the state at
// that moment. Each session keeps a bounded evaluation history.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	mazeService := service.NewMazeService(sessionMgr, configMgr)
//
//	info, err := mazeService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	mazeService.SetStart(ctx, info.ID, engine.Point{X: 0, Y: 0})
//	mazeService.SetEnd(ctx, info.ID, engine.Point{X: 9, Y: 9})
//	result, err := mazeService.Evaluate(ctx, info.ID)
//
// Metrics:
//
// Evaluations are counted by result (found, no_path, not_ready, error), and
// their duration and expanded node counts are observed as histograms on the
// default Prometheus registry.
package service
