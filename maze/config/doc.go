// Package config provides configuration management for astarmaze.
//
// The config package handles:
//   - Loading maze configurations from JSON or YAML files
//   - Default configuration selection
//   - Configuration discovery and listing
//   - Saving validated configurations
//
// Configuration Format:
//
// A configuration fixes the shape of a maze and how it is searched:
//
//	name: classic
//	description: Open 20x20 maze
//	width: 20
//	height: 20
//	diagonal: false
//	heuristic: manhattan
//
// The heuristic may be omitted; it then follows the movement mode. Obstacles
// and endpoints are never part of a configuration, they are edited per session.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	mazeConfig, err := manager.LoadConfig("open_diagonal")
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
//
// The default is classic when present, otherwise the first valid file in the
// directory, otherwise engine.DefaultMazeConfig.
package config
