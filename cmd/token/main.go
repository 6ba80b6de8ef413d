// Comando token emite un JWT para cuentas de servicio (integraciones del taller, cargas iniciales).
// Los usuarios finales obtienen su token del servicio de identidad.
//
//	go run ./cmd/token -user svc-importer -company <empresa> -role manager
package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/jhoicas/piano-stock-api/pkg/config"
	"github.com/jhoicas/piano-stock-api/pkg/jwt"
	"github.com/jhoicas/piano-stock-api/pkg/logger"
)

var roles = map[string]bool{"admin": true, "manager": true, "technician": true, "buyer": true}

func main() {
	user := flag.String("user", "", "sub del token (cuenta de servicio)")
	company := flag.String("company", "", "empresa")
	role := flag.String("role", "technician", "admin | manager | technician | buyer")
	ttl := flag.Duration("ttl", 0, "vigencia; 0 usa JWT_EXPIRATION_MINUTES")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: cfg.App.Name + "-token"})

	if !roles[*role] {
		log.Fatal().Str("role", *role).Msg("rol desconocido")
	}
	if *ttl <= 0 {
		*ttl = time.Duration(cfg.JWT.Expiration) * time.Minute
	}

	issuer, err := jwt.NewIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, *ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("JWT_SECRET requerido")
	}
	token, exp, err := issuer.Issue(jwt.Identity{UserID: *user, CompanyID: *company, Role: *role})
	if err != nil {
		log.Fatal().Err(err).Msg("emitir token")
	}
	log.Info().Str("user", *user).Str("company", *company).Str("role", *role).Time("expires_at", exp).Msg("token emitido")
	fmt.Println(token)
}
