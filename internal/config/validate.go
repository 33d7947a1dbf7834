package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks cfg against its struct tags and returns a combined
// error describing every violation found.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: failed %q validation", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("%d validation error(s): %v", len(msgs), msgs)
	}

	switch cfg.Storage.Backend {
	case "badger":
		if cfg.Storage.BadgerDir == "" {
			return fmt.Errorf("storage.badger_dir is required when storage.backend is \"badger\"")
		}
	case "postgres":
		if cfg.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required when storage.backend is \"postgres\"")
		}
	}

	switch cfg.Storage.Blob.Backend {
	case "badger":
		if cfg.Storage.Blob.BadgerDir == "" {
			return fmt.Errorf("storage.blob.badger_dir is required when storage.blob.backend is \"badger\"")
		}
	case "s3":
		if cfg.Storage.Blob.S3.Bucket == "" {
			return fmt.Errorf("storage.blob.s3.bucket is required when storage.blob.backend is \"s3\"")
		}
	}

	return nil
}
