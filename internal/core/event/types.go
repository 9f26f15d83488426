package event

import "github.com/buildsystem/server/internal/world"

// World lifecycle events.

type WorldImported struct {
	Name      string
	Generator world.Generator
	Builder   world.Builder
}

type WorldUnimported struct {
	Name        string
	DataDeleted bool
}

type WorldStatusChanged struct {
	Name string
	From world.Status
	To   world.Status
}
