// Package websocket pushes maze updates to browser clients.
//
// A single Hub owns every connection. Clients join a session with the
// ?session= query parameter and only receive messages for that session.
// Incoming frames are read to keep the connection alive but are otherwise
// ignored; all mutations go through the REST API or MCP tools.
//
// Outgoing messages are JSON:
//
//	{"session_id":"a1b2","event":"state_update","state":{...}}
//	{"session_id":"a1b2","event":"path_found","data":{...}}
//
// Broadcasts never block the caller. When the queue is full the message is
// dropped and logged; a client whose send buffer is full is disconnected.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
package websocket
