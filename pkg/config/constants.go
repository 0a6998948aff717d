package config

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "PIXELVAULT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "PIXELVAULT_DB_DSN"
	EnvDBHost = "PIXELVAULT_DB_HOST"
	EnvDBUser = "PIXELVAULT_DB_USER"
	EnvDBName = "PIXELVAULT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
