// Package config provides configuration management for the memory match game.
//
// The config package handles:
//   - Loading game configurations from JSON files
//   - Validation through engine.ValidateGameConfig
//   - Default configuration management
//   - Configuration discovery and listing
//
// Configuration Format:
//
// Each configuration is a JSON file in the configs directory. The file name
// without .json is the config ID used when creating sessions. A
// configuration defines exactly ten card symbols, the animation and
// resolution delays in milliseconds, and the player-facing messages:
//
//	{
//	  "name": "Classic",
//	  "description": "Letters A to J",
//	  "symbols": ["A", "B", "C", "D", "E", "F", "G", "H", "I", "J"],
//	  "timing": {"start_delay_ms": 200, "reveal_interval_ms": 30, ...},
//	  "messages": {"victory": "All pairs found in %d moves and %d seconds!"}
//	}
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("relaxed")
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
package config
