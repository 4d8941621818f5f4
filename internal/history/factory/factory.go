package factory

import (
	"fmt"

	"github.com/teleops/respawn/internal/history"
	"github.com/teleops/respawn/internal/history/postgres"
	"github.com/teleops/respawn/internal/history/sqlite"
)

// New builds a history store for the configured backend type. An empty
// type disables history and returns (nil, nil).
func New(typ, dsn string) (history.Store, error) {
	switch typ {
	case "":
		return nil, nil
	case "sqlite":
		return sqlite.New(dsn)
	case "postgres":
		return postgres.New(dsn)
	default:
		return nil, fmt.Errorf("unknown history type %q (want sqlite or postgres)", typ)
	}
}
