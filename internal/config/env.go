package config

import "time"

type StoreBackend string

const (
	StoreMemory   StoreBackend = "memory"
	StoreRedis    StoreBackend = "redis"
	StoreSQLite   StoreBackend = "sqlite"
	StorePostgres StoreBackend = "postgres"
)

type Server struct {
	Platform string `mapstructure:"PLATFORM" default:"crowelm"`
	Service  string `mapstructure:"SERVICE" default:"gateway"`
	Port     int    `mapstructure:"WEB_PORT" default:"8080"`
	GrpcPort int    `mapstructure:"GRPC_PORT" default:"9090"`
	Env      string `mapstructure:"ENV" default:"dev"`
}

type Backend struct {
	Addr       string        `mapstructure:"CROWELM_API_URL" default:"http://127.0.0.1:8000"`
	Timeout    time.Duration `mapstructure:"CROWELM_API_TIMEOUT" default:"30s"`
	HealthPath string        `mapstructure:"CROWELM_HEALTH_PATH" default:"/health"`
}

type Cache struct {
	Store            StoreBackend  `mapstructure:"CACHE_STORE" default:"sqlite"`
	DefaultTTL       time.Duration `mapstructure:"CACHE_DEFAULT_TTL" default:"5m"`
	FetchTimeout     time.Duration `mapstructure:"CACHE_FETCH_TIMEOUT" default:"30s"`
	PoolSize         int           `mapstructure:"CACHE_POOL_SIZE" default:"64"`
	ReachabilityPoll time.Duration `mapstructure:"CACHE_REACHABILITY_INTERVAL" default:"10s"`
}

type Database struct {
	Host       string `mapstructure:"DATABASE_HOST" default:"localhost"`
	Port       int    `mapstructure:"DATABASE_PORT" default:"5432"`
	Name       string `mapstructure:"DATABASE_NAME" default:"crowelm"`
	User       string `mapstructure:"DATABASE_USER" default:"postgres"`
	Password   string `mapstructure:"DATABASE_PASSWORD" default:"crowelm"`
	SQLitePath string `mapstructure:"DATABASE_SQLITE_PATH" default:"./crowelm.db"`
}

type Redis struct {
	Host     string `mapstructure:"REDIS_HOST" default:"127.0.0.1"`
	Port     int    `mapstructure:"REDIS_PORT" default:"6379"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB" default:"0"`
}

type Log struct {
	LogPath  string `mapstructure:"LOG_PATH" default:"./info.log"`
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
}

type Trace struct {
	Version        string `mapstructure:"TRACE_VERSION" default:"0.0.1"`
	TraceEndpoint  string `mapstructure:"TRACE_TRACEENDPOINT" default:""`
	MetricEndpoint string `mapstructure:"TRACE_METRICENDPOINT" default:""`
}

type Molecule struct {
	PalettePath   string  `mapstructure:"MOLECULE_PALETTE_PATH" default:""`
	BondRule      string  `mapstructure:"MOLECULE_BOND_RULE" default:"distance"`
	BondTolerance float64 `mapstructure:"MOLECULE_BOND_TOLERANCE" default:"0.45"`
	DefaultMode   string  `mapstructure:"MOLECULE_DEFAULT_MODE" default:"ball-stick"`
}
