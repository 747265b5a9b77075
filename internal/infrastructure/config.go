package infra

import (
	"encoding/json"
	"fmt"
	"log"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix env prefix for viper
const EnvPrefix = "GEOAPP"

// EnvDevelopment development runtime environment
const EnvDevelopment = "development"

// AppConfig App option object
type AppConfig struct {
	AppID          string        `mapstructure:"app_id" json:"app_id" yaml:"app_id" validate:"required"`            // Application ID
	Host           string        `mapstructure:"host" json:"host" yaml:"host"`                                      // bind host address
	Port           int           `mapstructure:"port" json:"port" yaml:"port"`                                      // bind listen port
	Env            string        `mapstructure:"env" json:"env" yaml:"env" validate:"oneof=development production"` // runtime environment
	RequestTimeout time.Duration `mapstructure:"request_timeout" json:"request_timeout" yaml:"request_timeout"`
	Database       struct {
		Driver   string `mapstructure:"driver" json:"driver" yaml:"driver" validate:"required"`                      // driver name
		Host     string `mapstructure:"host" json:"host" yaml:"host" validate:"required"`                            // server host
		MaxConn  int32  `mapstructure:"maxconn" json:"maxconn" yaml:"maxconn" validate:"min=10"`                     // maximum opening connections number
		Password string `mapstructure:"password" json:"password" yaml:"password" validate:"required"`                // db password
		Port     int    `mapstructure:"port" json:"port" yaml:"port"`                                                // server port
		Protocol string `mapstructure:"protocol" json:"protocol" yaml:"protocol" validate:"omitempty,oneof=tcp udp"` // connection protocol, eg.tcp
		Query    string `mapstructure:"query" json:"query" yaml:"query"`                                             // DSN query parameter
		Schema   string `mapstructure:"schema" json:"schema" yaml:"schema" validate:"required"`                      // use schema
		User     string `mapstructure:"username" json:"username" yaml:"username" validate:"required"`                // db username
	} `mapstructure:"database" json:"database" yaml:"database"`
	Logging struct {
		FilePath string `mapstructure:"file_path" json:"file_path" yaml:"file_path"`                            // log file path
		Level    string `mapstructure:"level" json:"level" yaml:"level" validate:"oneof=debug info warn error"` // global logging level
	} `mapstructure:"logging" json:"logging" yaml:"logging"`
	Auth struct {
		Endpoint  string        `mapstructure:"endpoint" json:"endpoint" yaml:"endpoint"`    // auth service user endpoint, eg.https://auth.example.com/auth/user
		JWTSecret string        `mapstructure:"jwt_secret" json:"-" yaml:"jwt_secret"`       // shared secret for local token validation, skips the auth endpoint round trip
		Timeout   time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`       // auth endpoint request timeout
		CacheTTL  time.Duration `mapstructure:"cache_ttl" json:"cache_ttl" yaml:"cache_ttl"` // verified-token cache TTL, 0 disables caching
	} `mapstructure:"auth" json:"auth" yaml:"auth"`
	Billing struct {
		SecretKey            string `mapstructure:"secret_key" json:"-" yaml:"secret_key" validate:"required"` // billing provider API secret
		PremiumPriceID       string `mapstructure:"premium_price_id" json:"premium_price_id" yaml:"premium_price_id" validate:"required"`
		PremiumAnnualPriceID string `mapstructure:"premium_annual_price_id" json:"premium_annual_price_id" yaml:"premium_annual_price_id"`
	} `mapstructure:"billing" json:"billing" yaml:"billing"`
	SMTP struct {
		Host     string `mapstructure:"host" json:"host" yaml:"host" validate:"required"`
		Port     int    `mapstructure:"port" json:"port" yaml:"port"`
		Username string `mapstructure:"username" json:"username" yaml:"username" validate:"required"`
		Password string `mapstructure:"password" json:"-" yaml:"password" validate:"required"`
		From     string `mapstructure:"from" json:"from" yaml:"from" validate:"required,email"`
		To       string `mapstructure:"to" json:"to" yaml:"to" validate:"required,email"` // contact form recipient
	} `mapstructure:"smtp" json:"smtp" yaml:"smtp"`
	CORS struct {
		Origin string `mapstructure:"origin" json:"origin" yaml:"origin"` // fixed allowed origin
	} `mapstructure:"cors" json:"cors" yaml:"cors"`
	KVStore struct {
		Host     string `mapstructure:"host" json:"host" yaml:"host"`                          // bind host address
		Port     int    `mapstructure:"port" json:"port" yaml:"port"`                          // bind listen port
		Password string `mapstructure:"password" json:"-" yaml:"password" validate:"required"` // password for security reasons
	} `mapstructure:"kv" json:"kv" yaml:"kv"`
	DevOP struct {
		APM bool `mapstructure:"apm" json:"apm" yaml:"apm"`
	} `mapstructure:"devop" json:"devop" yaml:"devop"`
}

// InitConfig init app config using viper
func InitConfig() (*AppConfig, error) {
	// app
	pflag.String("host", "", "binding address")
	pflag.String("app_id", "", "application identifier (required)")
	pflag.String("env", "development", "runtime environment, can be 'development' or 'production'")
	pflag.Int("port", 8081, "listening port")
	pflag.Duration("request_timeout", 30*time.Second, "per request timeout(m, s and h units are supported), eg.30s")

	// database
	pflag.String("database.driver", "postgres", "database driver to use")
	pflag.String("database.host", "127.0.0.1", "database host")
	pflag.Int("database.port", 5432, "database server port")
	pflag.String("database.protocol", "", "connection protocol(if mysql is used, this flag must be set), eg.tcp")
	pflag.String("database.username", "", "database username (required)")
	pflag.String("database.password", "", "database password (required)")
	pflag.String("database.schema", "", "database schema (required)")
	pflag.String("database.query", "", `additional DSN query parameters('?' is auto prefixed), if you work with mysql and wish to
work with time.Time, you may specify "parseTime=true"`)
	pflag.Int32("database.maxconn", 100, `max connection count, if you encounter a "too many connections" error, please consider
increasing the max_connection value of your db server, or lower this value`)

	// logging
	pflag.String("logging.level", "info", "logging level")
	pflag.String("logging.file_path", "", "log to file")

	// auth
	pflag.String("auth.endpoint", "", "auth service user endpoint, used to verify bearer tokens")
	pflag.String("auth.jwt_secret", "", "shared token secret, enables local validation instead of calling auth.endpoint")
	pflag.Duration("auth.timeout", 5*time.Second, "auth endpoint request timeout")
	pflag.Duration("auth.cache_ttl", 0, "verified-token cache TTL, 0 disables caching")

	// billing
	pflag.String("billing.secret_key", "", "billing provider API secret (required)")
	pflag.String("billing.premium_price_id", "", "provider price id the 'premium' alias maps to (required)")
	pflag.String("billing.premium_annual_price_id", "", "provider price id the 'premium_annual' alias maps to")

	// smtp
	pflag.String("smtp.host", "", "SMTP server host (required)")
	pflag.Int("smtp.port", 587, "SMTP server port")
	pflag.String("smtp.username", "", "SMTP username (required)")
	pflag.String("smtp.password", "", "SMTP password (required)")
	pflag.String("smtp.from", "", "contact email sender address (required)")
	pflag.String("smtp.to", "", "contact email recipient address (required)")

	// cors
	pflag.String("cors.origin", "*", "fixed allowed CORS origin")

	// kv storage
	pflag.String("kv.host", "127.0.0.1", "kv host")
	pflag.Int("kv.port", 6379, "kv server port")
	pflag.String("kv.password", "", "kv server password (required)")

	// DevOp
	pflag.Bool("devop.apm", false, "enable apm metrics")

	pflag.Parse()
	viper.BindPFlags(pflag.CommandLine)
	viper.AutomaticEnv()
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var config = new(AppConfig)
	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	if config.Auth.Endpoint == "" && config.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("failed to validate config: \none of auth.endpoint or auth.jwt_secret is required")
	}
	if config.Logging.Level == "debug" {
		if configJSON, err := json.MarshalIndent(config, "", "  "); err == nil {
			log.Printf("App config: %s\n", string(configJSON))
		}
	}
	return config, nil
}

func validateConfig(config *AppConfig) error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("mapstructure")
		if name == "-" || name == "" {
			name = fld.Tag.Get("yaml")
			if name == "-" || name == "" {
				return ""
			}
		}
		return name
	})
	err := validate.Struct(config)
	if _, ok := err.(*validator.InvalidValidationError); ok {
		log.Fatalf("Failed to validate config: %s", err)
	}
	if err == nil {
		return nil
	}

	var msg []string
	for _, field := range err.(validator.ValidationErrors) {
		namespace := field.Namespace()
		fieldName := namespace[strings.IndexByte(namespace, '.')+1:] // trim top level namespace
		switch field.Tag() {
		case "required":
			msg = append(msg, fmt.Sprintf("%s is required", fieldName))
		case "oneof":
			msg = append(msg, fmt.Sprintf("%s must be one of (%s)", fieldName, field.Param()))
		case "email":
			msg = append(msg, fmt.Sprintf("%s must be a valid email address", fieldName))
		default:
			msg = append(msg, fmt.Sprintf("%s failed on '%s'", fieldName, field.Tag()))
		}
	}
	if len(msg) > 0 {
		return fmt.Errorf("failed to validate config: \n%s", strings.Join(msg, "\n"))
	}
	return nil
}
