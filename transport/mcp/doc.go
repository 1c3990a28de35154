// Package mcp exposes the maze REST API as Model Context Protocol tools.
//
// The Client holds no state of its own: every tool call becomes one or two
// HTTP requests against the API server, and the JSON answer is turned into
// plain text with an ASCII drawing of the grid ('S' start, 'E' end,
// '#' obstacle, '*' path, '.' free).
//
// Tools:
//   - create_session, list_sessions, get_session
//   - maze_state, set_start, set_end, add_obstacles, remove_obstacles,
//     set_diagonal, clear_maze
//   - evaluate, evaluation_history
//   - list_configs, maze_instructions
//
// Numeric arguments arrive from MCP clients as JSON numbers or strings; they
// are coerced with spf13/cast. Points may be given as {"x":1,"y":2} objects
// or as [1,2] pairs.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
