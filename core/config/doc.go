// Package config loads application settings from the environment.
//
// A .env file in the working directory is loaded first (overriding the
// process environment), then every field tagged with mapstructure is
// registered in viper with its default tag. Nested keys map to upper-case
// environment variables with dots replaced by underscores, so
// shopify.access_token is read from SHOPIFY_ACCESS_TOKEN.
//
// # Sections
//
//   - server: port, API key, shutdown timeout
//   - log: level and format
//   - database: run history (sqlite or mysql)
//   - storage: report archive bucket (MinIO/S3)
//   - sentos, shopify: credentials of both systems
//   - sync: default run options
//   - ratelimit, transport: throttling and retry tuning
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	factory := syncjob.NewFactory(cfg.Clients(), logg)
package config
