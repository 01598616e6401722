package config

import (
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/dappmarket/marketplace-core/internal/log"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Env      string
	Index    string
	Debug    bool
	LogPath  string
	ApiPort  string
	ApiHost  string
	Sentry   string

	Market        MarketConfig
	ElasticSearch ElasticSearchConfig
	Amqp          AmqpConfig
	Metadata      MetadataConfig
}

type MarketConfig struct {
	Address      string
	FeeAccount   string
	FeePercent   uint64
	RefundExcess bool
}

type ElasticSearchConfig struct {
	Hosts       []string
	Sniff       bool
	HealthCheck bool
	Debug       bool
	Username    string
	Password    string
	Refresh     string
}

type AmqpConfig struct {
	Uri string
}

type MetadataConfig struct {
	IpfsHosts []string
	Timeout   int
	Retries   int
}

var ipfsHosts = []string{
	"https://gateway.pinata.cloud",
	"https://cloudflare-ipfs.com",
	"https://gateway.ipfs.io",
}

func Init() {
	if err := godotenv.Load(".env"); err != nil {
		zap.L().With(zap.Error(err)).Warn("No .env file loaded")
	}

	log.NewLogger(Get().LogPath, Get().Debug, Get().Sentry)
}

func Get() *Config {
	return &Config{
		Env:     getString("ENV", ""),
		Index:   getString("INDEX_NAME", "marketplace"),
		Debug:   getBool("DEBUG", false),
		LogPath: getString("LOG_PATH", "./var/marketd.log"),
		ApiPort: getString("API_PORT", "8080"),
		ApiHost: getString("API_HOST", "http://localhost:8080"),
		Sentry:  getString("SENTRY_DSN", ""),
		Market: MarketConfig{
			Address:      getString("MARKET_ADDRESS", "0x00000000000000000000000000000000004d4b54"),
			FeeAccount:   getString("MARKET_FEE_ACCOUNT", ""),
			FeePercent:   getUint64("MARKET_FEE_PERCENT", 1),
			RefundExcess: getBool("MARKET_REFUND_EXCESS", false),
		},
		ElasticSearch: ElasticSearchConfig{
			Hosts:       getSlice("ELASTIC_SEARCH_HOSTS", make([]string, 0), ","),
			Sniff:       getBool("ELASTIC_SEARCH_SNIFF", false),
			HealthCheck: getBool("ELASTIC_SEARCH_HEALTH_CHECK", true),
			Debug:       getBool("ELASTIC_SEARCH_DEBUG", false),
			Username:    getString("ELASTIC_SEARCH_USERNAME", ""),
			Password:    getString("ELASTIC_SEARCH_PASSWORD", ""),
			Refresh:     getString("ELASTIC_SEARCH_REFRESH", "wait_for"),
		},
		Amqp: AmqpConfig{
			Uri: getString("AMQP_URI", ""),
		},
		Metadata: MetadataConfig{
			IpfsHosts: getSlice("IPFS_HOSTS", ipfsHosts, ","),
			Timeout:   getInt("IPFS_TIMEOUT", 10),
			Retries:   getInt("METADATA_RETRIES", 3),
		},
	}
}

func getString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func getInt(key string, defaultValue int) int {
	valStr := getString(key, "")
	val, _, err := big.ParseFloat(valStr, 10, 0, big.ToNearestEven)
	if err != nil {
		return defaultValue
	}

	intVal, _ := val.Int64()
	return int(intVal)
}

func getUint64(key string, defaultValue uint64) uint64 {
	valStr := getString(key, "")
	if val, err := strconv.ParseUint(valStr, 10, 64); err == nil {
		return val
	}

	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	valStr := getString(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultValue
}

func getSlice(key string, defaultVal []string, sep string) []string {
	valStr := getString(key, "")
	if valStr == "" {
		return defaultVal
	}

	return strings.Split(valStr, sep)
}
