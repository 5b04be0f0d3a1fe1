// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/flipfusion/internal/adapters/cas"
	_ "go.trai.ch/flipfusion/internal/adapters/config"
	_ "go.trai.ch/flipfusion/internal/adapters/kv"
	_ "go.trai.ch/flipfusion/internal/adapters/logger"
	_ "go.trai.ch/flipfusion/internal/adapters/metrics"
	_ "go.trai.ch/flipfusion/internal/adapters/telemetry"
	// Register app nodes.
	_ "go.trai.ch/flipfusion/internal/app"
)
