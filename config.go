package mailroom

import (
	"github.com/caarlos0/env/v11"

	"github.com/dmitrymomot/mailroom/pkg/delivery"
	"github.com/dmitrymomot/mailroom/pkg/pgstore"
	"github.com/dmitrymomot/mailroom/pkg/queue"
	"github.com/dmitrymomot/mailroom/pkg/render"
)

// Config aggregates the configuration of every subsystem. Hosts that load
// config themselves can populate the embedded structs directly; LoadConfig
// reads everything from environment variables.
type Config struct {
	Database pgstore.Config
	Delivery delivery.Config
	Render   render.Config
	Queue    queue.Config
}

// LoadConfig parses the full configuration from environment variables.
func LoadConfig() (Config, error) {
	return env.ParseAs[Config]()
}
