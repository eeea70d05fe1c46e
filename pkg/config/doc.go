// Package config loads env-tagged configuration structs.
//
// It wraps github.com/caarlos0/env/v11 for parsing and github.com/joho/godotenv
// for optional .env files. Every authkit package ships its own Config struct
// (rbac.Config, csrf.Config, pg.Config, redis.Config, clientip.Config,
// logger.Config) which can be loaded independently:
//
//	var cfg csrf.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// A prefix lets one process hold several instances of the same struct:
//
//	var replica pg.Config
//	err := config.Load(&replica, config.WithPrefix("REPLICA_"))
//
// The default .env file in the working directory is read once per process if it
// exists. Variables already present in the environment are never overridden
// by file values.
package config
