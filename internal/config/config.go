package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StorageMongo    = "mongo"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Addr        string
	Storage     string
	MongoURI    string
	MongoDB     string
	DBAddr      string
	Secret      string `json:"-"`
	Production  bool
	CORSOrigins []string
	DebugFlag   bool
}

const (
	defaultAddr      = ":5000"
	defaultStorage   = StorageMongo
	defaultMongoDB   = "study-shelf"
	defaultMongoHost = "study-shelf-a11.8pqpo.mongodb.net"
	defaultCORS      = "http://localhost:5173"
)

// ReadConfig loads .env when present, then reads the launch flags. Environment
// variables fill in any flag left at its default.
func ReadConfig() (Config, error) {
	_ = godotenv.Load()
	return parse(flag.CommandLine, os.Args[1:], os.Getenv)
}

func parse(fs *flag.FlagSet, args []string, getenv func(string) string) (Config, error) {
	var cfg Config
	var cors string
	fs.StringVar(&cfg.Addr, "addr", defaultAddr, "Server address")
	fs.StringVar(&cfg.Storage, "storage", defaultStorage, "storage backend: mongo, postgres or memory")
	fs.StringVar(&cfg.MongoURI, "mongo", "", "mongodb connection uri")
	fs.StringVar(&cfg.MongoDB, "mongo-db", defaultMongoDB, "mongodb database name")
	fs.StringVar(&cfg.DBAddr, "db", "", "postgres connection address")
	fs.StringVar(&cors, "cors", defaultCORS, "comma separated list of allowed origins")
	fs.BoolVar(&cfg.DebugFlag, "debug", false, "enable debug logger level")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if temp := getenv("PORT"); temp != "" && cfg.Addr == defaultAddr {
		cfg.Addr = ":" + strings.TrimPrefix(temp, ":")
	}
	if temp := getenv("STORAGE_DRIVER"); temp != "" && cfg.Storage == defaultStorage {
		cfg.Storage = temp
	}
	if cfg.MongoURI == "" {
		cfg.MongoURI = mongoURI(getenv)
	}
	if temp := getenv("DB_NAME"); temp != "" && cfg.MongoDB == defaultMongoDB {
		cfg.MongoDB = temp
	}
	if temp := getenv("DB_DSN"); temp != "" && cfg.DBAddr == "" {
		cfg.DBAddr = temp
	}
	if temp := getenv("CORS_ORIGINS"); temp != "" && cors == defaultCORS {
		cors = temp
	}
	cfg.Secret = getenv("ACCESS_TOKEN_SECRET")
	cfg.Production = getenv("APP_ENV") == "production"
	cfg.CORSOrigins = splitList(cors)

	return cfg, cfg.Validate()
}

// mongoURI prefers MONGO_URI and otherwise assembles an Atlas URI from DB_USER and DB_PASSWORD.
func mongoURI(getenv func(string) string) string {
	if uri := getenv("MONGO_URI"); uri != "" {
		return uri
	}
	user, pass := getenv("DB_USER"), getenv("DB_PASSWORD")
	if user == "" || pass == "" {
		return ""
	}
	host := getenv("DB_HOST")
	if host == "" {
		host = defaultMongoHost
	}
	u := url.URL{
		Scheme:   "mongodb+srv",
		User:     url.UserPassword(user, pass),
		Host:     host,
		Path:     "/",
		RawQuery: "retryWrites=true&w=majority&appName=Study-Shelf",
	}
	return u.String()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c Config) Validate() error {
	var errs []error
	if c.Secret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET is required"))
	}
	switch c.Storage {
	case StorageMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("mongo storage needs MONGO_URI or DB_USER and DB_PASSWORD"))
		}
	case StoragePostgres:
		if c.DBAddr == "" {
			errs = append(errs, errors.New("postgres storage needs DB_DSN"))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown storage %q", c.Storage))
	}
	return errors.Join(errs...)
}
