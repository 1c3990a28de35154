// Package api provides the HTTP REST API for editing mazes and running
// path searches.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a session ({"config_id": "classic"})
//   - GET /api/sessions - List sessions (sort=created|accessed, order, limit)
//   - GET /api/sessions/{id} - Get a session with its maze state
//   - DELETE /api/sessions/{id} - Delete a session
//
// Maze editing:
//   - GET /api/sessions/{id}/state - Current maze state
//   - PUT|DELETE /api/sessions/{id}/start - Set ({"x":0,"y":0}) or clear the start cell
//   - PUT|DELETE /api/sessions/{id}/end - Set or clear the end cell
//   - POST /api/sessions/{id}/obstacles - Add obstacles ({"points":[...]})
//   - DELETE /api/sessions/{id}/obstacles - Remove obstacles
//   - PUT /api/sessions/{id}/obstacles - Replace the whole obstacle set
//   - PUT /api/sessions/{id}/diagonal - Toggle diagonal movement ({"enabled":true})
//   - POST /api/sessions/{id}/clear - Drop endpoints and obstacles
//
// Search:
//   - POST /api/sessions/{id}/evaluate - Run A* between start and end
//   - GET /api/sessions/{id}/history - Paginated evaluation history
//
// Configuration:
//   - GET|POST /api/configs - List or save maze configurations
//   - GET /api/configs/schema - JSON Schema of a configuration document
//   - GET /api/configs/{name} - Get one configuration
//
// Other:
//   - GET /health, GET /metrics (Prometheus), GET /ws?session={id}
//
// Successful edits are pushed to websocket clients of the session as a
// state_update message; evaluations push path_found or no_path.
//
// Errors are returned as {"error": "..."} with these status codes:
//
//	404  unknown session or configuration
//	400  malformed body, point outside the grid, invalid configuration
//	409  start or end missing, session ID already taken
//	422  search expansion budget exhausted
//	500  anything else
package api
