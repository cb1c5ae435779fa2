package globals

import "github.com/hashicorp/go-hclog"

var AppLogger = hclog.New(&hclog.LoggerOptions{
	Name:  "scrumpoker",
	Level: hclog.LevelFromString("DEBUG"),
})
