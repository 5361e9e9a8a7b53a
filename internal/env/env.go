package env

import (
	"github.com/thatsimonsguy/filtration-controller/internal/config"
)

var Cfg *config.Config
