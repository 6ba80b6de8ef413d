// Comando migrate aplica el esquema con goose usando las migraciones embebidas.
//
//	go run ./cmd/migrate up
//	go run ./cmd/migrate down
//	go run ./cmd/migrate status
package main

import (
	"context"
	"database/sql"
	"flag"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/jhoicas/piano-stock-api/migrations"
	"github.com/jhoicas/piano-stock-api/pkg/config"
	"github.com/jhoicas/piano-stock-api/pkg/logger"
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: cfg.App.Name + "-migrate"})

	db, err := sql.Open("pgx", cfg.DB.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("abrir conexión")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("cerrar conexión")
		}
	}()

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(log)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal().Err(err).Msg("dialecto goose")
	}

	arguments := flag.Args()
	if len(arguments) == 0 {
		arguments = []string{"up"}
	}
	command, args := arguments[0], arguments[1:]

	if err := goose.RunContext(context.Background(), command, db, ".", args...); err != nil {
		log.Fatal().Err(err).Str("command", command).Msg("goose")
	}
	log.Info().Str("command", command).Msg("migración completada")
}
