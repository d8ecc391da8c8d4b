package identity

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/memberlink/pkg/config"
)

// New selects the identity driver from config.
func New(cfg *config.Config, log *zap.SugaredLogger) (Verifier, Directory, error) {
	switch cfg.Identity.Driver {
	case config.IdentityDriverFirebase:
		client, err := NewFirebaseAuthClient(context.Background(), cfg.Identity.Firebase)
		if err != nil {
			return nil, nil, err
		}
		fb := NewFirebase(client)
		log.Infow("identity_driver_ready", "driver", cfg.Identity.Driver)
		return fb, fb, nil
	case config.IdentityDriverJWT, "":
		j, err := NewJWT(cfg.Identity.JWTSecret)
		if err != nil {
			return nil, nil, err
		}
		log.Infow("identity_driver_ready", "driver", config.IdentityDriverJWT, "directory", false)
		return j, emptyDirectory{}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported identity driver: %s", cfg.Identity.Driver)
	}
}

var Module = fx.Options(
	fx.Provide(New),
)
