package config

import (
	"cmp"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	defaultMongoPort    = 27017
	defaultPostgresPort = 5432
	defaultRedshiftPort = 5439
)

type S3 struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"accessKeyID"`
	SecretAccessKey string `yaml:"secretAccessKey"`
}

type MongoDB struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

func (m MongoDB) URI() string {
	return fmt.Sprintf("mongodb://%s:%d", m.Host, m.Port)
}

type Postgres struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		p.Host, p.Port, p.Username, p.Password, p.Database)
}

type Redshift struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	// CredentialsClause is injected verbatim into every COPY statement,
	// e.g. an IAM_ROLE or ACCESS_KEY_ID/SECRET_ACCESS_KEY clause.
	CredentialsClause string `yaml:"credentialsClause"`
}

func (r Redshift) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=require",
		r.Host, r.Port, r.Username, r.Password, r.Database)
}

// Dataset describes one warehouse target and its staging bucket.
type Dataset struct {
	Bucket     string `yaml:"bucket"`
	Schema     string `yaml:"schema"`
	Table      string `yaml:"table"`
	PrimaryKey string `yaml:"primaryKey"`
	InsertOnly bool   `yaml:"insertOnly"`
}

func (d Dataset) validate(name string) error {
	if d.Bucket == "" {
		return fmt.Errorf("dataset %q: bucket is required", name)
	}
	if d.Schema == "" {
		return fmt.Errorf("dataset %q: schema is required", name)
	}
	if d.Table == "" {
		return fmt.Errorf("dataset %q: table is required", name)
	}
	if d.PrimaryKey == "" {
		return fmt.Errorf("dataset %q: primaryKey is required", name)
	}
	return nil
}

type Trades struct {
	Collection string `yaml:"collection"`
	Dataset    `yaml:",inline"`
}

type Transactions struct {
	SourceSchema string `yaml:"sourceSchema"`
	SourceTable  string `yaml:"sourceTable"`
	Dataset      `yaml:",inline"`
}

type Sentry struct {
	DSN string `yaml:"dsn"`
}

type Config struct {
	S3       S3       `yaml:"s3"`
	MongoDB  MongoDB  `yaml:"mongodb"`
	Postgres Postgres `yaml:"postgres"`
	Redshift Redshift `yaml:"redshift"`

	Trades       Trades       `yaml:"trades"`
	Transactions Transactions `yaml:"transactions"`

	Reporting struct {
		Sentry *Sentry `yaml:"sentry"`
	} `yaml:"reporting"`
}

// ReadFileToConfig parses the YAML config at pathToConfig. Values may
// reference environment variables via ${VAR}; they are expanded before
// parsing so secrets stay out of the file.
func ReadFileToConfig(pathToConfig string) (*Config, error) {
	contents, err := os.ReadFile(pathToConfig)
	if err != nil {
		return nil, err
	}

	var config Config
	if err = yaml.Unmarshal([]byte(os.ExpandEnv(string(contents))), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.MongoDB.Port = cmp.Or(config.MongoDB.Port, defaultMongoPort)
	config.Postgres.Port = cmp.Or(config.Postgres.Port, defaultPostgresPort)
	config.Redshift.Port = cmp.Or(config.Redshift.Port, defaultRedshiftPort)
	return &config, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}

	if c.S3.Region == "" {
		return fmt.Errorf("s3: region is required")
	}

	if c.MongoDB.Host == "" {
		return fmt.Errorf("mongodb: host is required")
	}

	if c.MongoDB.Database == "" {
		return fmt.Errorf("mongodb: database is required")
	}

	for _, part := range []struct {
		name string
		host string
	}{
		{name: "postgres", host: c.Postgres.Host},
		{name: "redshift", host: c.Redshift.Host},
	} {
		if part.host == "" {
			return fmt.Errorf("%s: host is required", part.name)
		}
	}

	if c.Trades.Collection == "" {
		return fmt.Errorf(`dataset "trades": collection is required`)
	}

	if err := c.Trades.validate("trades"); err != nil {
		return err
	}

	if c.Transactions.SourceSchema == "" || c.Transactions.SourceTable == "" {
		return fmt.Errorf(`dataset "transactions": sourceSchema and sourceTable are required`)
	}

	return c.Transactions.validate("transactions")
}
