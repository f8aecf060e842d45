package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/DRSN-tech/cartwhisper/pkg/logger"
	"github.com/jimlawless/whereami"
)

// Режимы хранилища рекомендаций.
const (
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// Бэкенды эмбеддингов.
const (
	EmbedderONNX   = "onnx"
	EmbedderML     = "ml-service"
	EmbedderOllama = "ollama"
)

// Бэкенды ранжирования.
const (
	RankerMemory = "memory"
	RankerQdrant = "qdrant"
)

// Бэкенды кэша.
const (
	CacheRedis  = "redis"
	CacheMemory = "memory"
)

type Config struct {
	Log      *LogCfg
	Http     *HTTPConfig
	Grpc     *GRPCConfig
	Storage  *StorageCfg
	Db       *PGDBCfg
	SQLite   *SQLiteCfg
	Cache    *CacheCfg
	Redis    *RedisCfg
	Qdrant   *QdrantCfg
	Minio    *MinIOCfg
	Kafka    *KafkaCfg
	Embedder *EmbedderCfg
	Ml       *MLServiceCfg
	Onnx     *OnnxCfg
	Ollama   *OllamaCfg
	LLM      *LLMCfg
	Pipeline *PipelineCfg
	Shopify  *ShopifyCfg
	Tracing  *TracingCfg
}

type LogCfg struct {
	Mode  string // dev | prod
	Level string
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	AllowOrigins []string
}

type GRPCConfig struct {
	Enabled     bool
	Port        string
	NetworkMode string
}

type StorageCfg struct {
	Driver string // postgres | sqlite
}

type PGDBCfg struct {
	Host          string
	Port          string
	User          string
	Password      string
	DBName        string
	SSLMode       string
	MigrationsDir string
}

type SQLiteCfg struct {
	Path string
}

type CacheCfg struct {
	Backend  string        // redis | memory
	FreshTTL time.Duration // запись считается свежей
	StaleTTL time.Duration // запись ещё может быть отдана при недоступности БД
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
}

type QdrantCfg struct {
	Port             int
	Host             string
	ApiKey           string
	CollectionPrefix string // префикс временных коллекций прогона
	UseTLS           bool
}

type MinIOCfg struct {
	Enabled           bool
	MinioEndpoint     string // Адрес конечной точки Minio
	BucketName        string // Бакет для выгрузок прогонов
	MinioRootUser     string
	MinioRootPassword string
	MinioUseSSL       bool
	SnapshotDir       string // локальная директория выгрузок, если MinIO выключен
	SnapshotKeep      int    // сколько последних выгрузок магазина хранить, 0: все
}

type KafkaCfg struct {
	Enabled           bool
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

type EmbedderCfg struct {
	Backend    string // onnx | ml-service | ollama
	Dimensions int
}

type MLServiceCfg struct {
	Addr       string
	Model      string
	MaxRetries int
	Timeout    time.Duration
}

type OnnxCfg struct {
	SharedLibraryPath string
	ModelPath         string
	TokenizerPath     string
	MaxSeqLen         int
	OutputName        string
}

type OllamaCfg struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

type LLMCfg struct {
	APIKey         string // если пусто, обогащение выключено
	BaseURL        string
	Model          string
	Temperature    float64
	MaxTokens      int
	Timeout        time.Duration // на один вызов
	MaxRetries     int
	ReasoningLimit int // K первых товаров прогона
	Concurrency    int
}

type PipelineCfg struct {
	Ranker        string // memory | qdrant
	TopN          int
	MinCandidates int
	SyncTimeout   time.Duration
}

type ShopifyCfg struct {
	APIVersion   string
	APISecret    string // для проверки session token, пустой выключает проверку
	APIKey       string
	RatePerSec   float64
	Burst        int
	PageSize     int
	RequestRetry int
}

type TracingCfg struct {
	Exporter    string // "", stdout, otlp
	Endpoint    string
	ServiceName string
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	storage := loadStorageCfg()

	var db *PGDBCfg
	if storage.Driver == StoragePostgres {
		var err error
		db, err = loadPGDBCfg(log)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	cache, err := loadCacheCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	qdrant, err := loadQdrantCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	embedder, err := loadEmbedderCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	ml, err := loadMLServiceCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	onnx, err := loadOnnxCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	ollama, err := loadOllamaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	llm, err := loadLLMCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	pipeline, err := loadPipelineCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	shopify, err := loadShopifyCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	grpc, err := loadGRPCConfig()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Log:      loadLogCfg(),
		Http:     http,
		Grpc:     grpc,
		Storage:  storage,
		Db:       db,
		SQLite:   loadSQLiteCfg(),
		Cache:    cache,
		Redis:    redis,
		Qdrant:   qdrant,
		Minio:    minio,
		Kafka:    kafka,
		Embedder: embedder,
		Ml:       ml,
		Onnx:     onnx,
		Ollama:   ollama,
		LLM:      llm,
		Pipeline: pipeline,
		Shopify:  shopify,
		Tracing:  loadTracingCfg(),
	}, nil
}

// LoadLogCfg читается отдельно: логгер нужен до загрузки остальной конфигурации.
func LoadLogCfg() *LogCfg {
	return loadLogCfg()
}

func loadLogCfg() *LogCfg {
	return &LogCfg{
		Mode:  getEnvOrDefault("LOG_MODE", "dev"),
		Level: getEnvOrDefault("LOG_LEVEL", "info"),
	}
}

func loadStorageCfg() *StorageCfg {
	driver := strings.ToLower(getEnvOrDefault("STORAGE_DRIVER", StoragePostgres))
	if driver != StorageSQLite {
		driver = StoragePostgres
	}
	return &StorageCfg{Driver: driver}
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 10 * time.Minute // синхронизация идёт в рамках запроса
		defaultIdleTimeout  = 60 * time.Second
	)

	port := getEnvOrDefault("HTTP_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:         port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		AllowOrigins: splitList(getEnvOrDefault("CORS_ALLOW_ORIGINS", "https://*.myshopify.com")),
	}, nil
}

func loadGRPCConfig() (*GRPCConfig, error) {
	const (
		defaultPort        = "8091"
		defaultNetworkMode = "tcp"
	)

	enabled, err := parseBoolEnv("GRPC_ENABLED", false)
	if err != nil {
		return nil, e.Wrap("GRPC_ENABLED", err)
	}

	return &GRPCConfig{
		Enabled:     enabled,
		Port:        getEnvOrDefault("GRPC_PORT", defaultPort),
		NetworkMode: getEnvOrDefault("GRPC_NETWORK_MODE", defaultNetworkMode),
	}, nil
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost          = "localhost"
		defaultPort          = "5432"
		defaultSSLMode       = "disable"
		defaultMigrationsDir = "db/migrations"
	)

	user := getEnv("POSTGRES_USER")
	if user == "" {
		err := fmt.Errorf("POSTGRES_USER is required")
		log.Errorf(err, "missing POSTGRES_USER")
		return nil, err
	}

	password := getEnv("POSTGRES_PASSWORD")
	if password == "" {
		err := fmt.Errorf("POSTGRES_PASSWORD is required")
		log.Errorf(err, "missing POSTGRES_PASSWORD")
		return nil, err
	}

	dbName := getEnv("POSTGRES_DB")
	if dbName == "" {
		err := fmt.Errorf("POSTGRES_DB is required")
		log.Errorf(err, "missing POSTGRES_DB")
		return nil, err
	}

	return &PGDBCfg{
		Host:          getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:          getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:          user,
		Password:      password,
		DBName:        dbName,
		SSLMode:       getEnvOrDefault("SSL_MODE", defaultSSLMode),
		MigrationsDir: getEnvOrDefault("MIGRATIONS_DIR", defaultMigrationsDir),
	}, nil
}

// DSN возвращает строку подключения в формате libpq.
func (c *PGDBCfg) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.DBName,
		c.SSLMode,
	)
}

func loadSQLiteCfg() *SQLiteCfg {
	return &SQLiteCfg{
		Path: getEnvOrDefault("SQLITE_PATH", "cartwhisper.db"),
	}
}

func loadCacheCfg(log logger.Logger) (*CacheCfg, error) {
	const (
		defaultFreshTTL = 5 * time.Minute
		defaultStaleTTL = 1 * time.Hour
	)

	backend := strings.ToLower(getEnvOrDefault("CACHE_BACKEND", CacheMemory))
	if backend != CacheRedis {
		backend = CacheMemory
	}

	fresh, err := parseDurationEnv("CACHE_TTL", defaultFreshTTL)
	if err != nil {
		log.Errorf(err, "invalid CACHE_TTL")
		return nil, err
	}

	stale, err := parseDurationEnv("CACHE_STALE_TTL", defaultStaleTTL)
	if err != nil {
		log.Errorf(err, "invalid CACHE_STALE_TTL")
		return nil, err
	}
	if stale < fresh {
		stale = fresh
	}

	return &CacheCfg{
		Backend:  backend,
		FreshTTL: fresh,
		StaleTTL: stale,
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr         = "localhost:6379"
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
	)

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("REDIS_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid REDIS_MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("REDIS_DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("REDIS_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid REDIS_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("REDIS_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid REDIS_WRITE_TIMEOUT")
		return nil, err
	}

	timeout := readTimeout
	if writeTimeout > timeout {
		timeout = writeTimeout
	}

	return &RedisCfg{
		Addr:        getEnvOrDefault("REDIS_ADDR", defaultAddr),
		Password:    getEnv("REDIS_PASSWORD"),
		User:        getEnv("REDIS_USER"),
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
	}, nil
}

func loadQdrantCfg(log logger.Logger) (*QdrantCfg, error) {
	const (
		defaultQdrantGRPCPort = 6334
		defaultUseTLS         = false
	)

	port, err := parseIntEnv("QDRANT_GRPC_PORT", defaultQdrantGRPCPort)
	if err != nil {
		log.Errorf(err, "invalid QDRANT_GRPC_PORT")
		return nil, err
	}

	useTLS, err := parseBoolEnv("QDRANT_USE_TLS", defaultUseTLS)
	if err != nil {
		log.Errorf(err, "invalid QDRANT_USE_TLS")
		return nil, err
	}

	return &QdrantCfg{
		Host:             getEnvOrDefault("QDRANT_HOST", "localhost"),
		Port:             port,
		ApiKey:           getEnv("QDRANT__SERVICE__API_KEY"),
		CollectionPrefix: getEnvOrDefault("QDRANT_COLLECTION_PREFIX", "cartwhisper_run"),
		UseTLS:           useTLS,
	}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL   = false
		defaultEndpoint = "minio:9000"
		defaultBucket   = "cartwhisper-snapshots"
		defaultKeep     = 20
	)

	enabled, err := parseBoolEnv("MINIO_ENABLED", false)
	if err != nil {
		log.Errorf(err, "invalid MINIO_ENABLED")
		return nil, err
	}

	useSSL, err := parseBoolEnv("MINIO_USE_SSL", defaultUseSSL)
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	keep, err := parseIntEnv("SNAPSHOT_KEEP", defaultKeep)
	if err != nil {
		log.Errorf(err, "invalid SNAPSHOT_KEEP")
		return nil, err
	}

	return &MinIOCfg{
		Enabled:           enabled,
		MinioEndpoint:     getEnvOrDefault("MINIO_ENDPOINT", defaultEndpoint),
		BucketName:        getEnvOrDefault("BUCKET_NAME", defaultBucket),
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
		SnapshotDir:       getEnv("SNAPSHOT_DIR"),
		SnapshotKeep:      keep,
	}, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
		defaultTopic             = "cartwhisper.recommendations"
	)

	brokerStr := getEnv("KAFKA_BROKERS")
	if brokerStr == "" {
		return &KafkaCfg{Enabled: false}, nil
	}

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	return &KafkaCfg{
		Enabled:           true,
		Brokers:           splitList(brokerStr),
		Topic:             getEnvOrDefault("KAFKA_TOPIC", defaultTopic),
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
	}, nil
}

func loadEmbedderCfg() (*EmbedderCfg, error) {
	const defaultDimensions = 384 // all-MiniLM-L6-v2

	backend := strings.ToLower(getEnvOrDefault("EMBEDDER_BACKEND", EmbedderONNX))
	switch backend {
	case EmbedderONNX, EmbedderML, EmbedderOllama:
	default:
		return nil, fmt.Errorf("unknown EMBEDDER_BACKEND %q", backend)
	}

	dims, err := parseIntEnv("EMBEDDING_DIMENSIONS", defaultDimensions)
	if err != nil {
		return nil, e.Wrap("EMBEDDING_DIMENSIONS", err)
	}
	if dims <= 0 {
		return nil, fmt.Errorf("EMBEDDING_DIMENSIONS must be positive, got %d", dims)
	}

	return &EmbedderCfg{
		Backend:    backend,
		Dimensions: dims,
	}, nil
}

func loadMLServiceCfg() (*MLServiceCfg, error) {
	const (
		defaultHost       = "ml-service"
		defaultPort       = "50051"
		defaultMaxRetries = 1 // вызовы модели должны падать быстро
		defaultTimeout    = 10 * time.Second
	)

	maxRetries, err := parseIntEnv("ML_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		return nil, e.Wrap("ML_MAX_RETRIES", err)
	}

	timeout, err := parseDurationEnv("ML_TIMEOUT", defaultTimeout)
	if err != nil {
		return nil, e.Wrap("ML_TIMEOUT", err)
	}

	host := getEnvOrDefault("ML_HOST", defaultHost)
	port := getEnvOrDefault("ML_PORT", defaultPort)

	return &MLServiceCfg{
		Addr:       host + ":" + port,
		Model:      getEnvOrDefault("ML_MODEL", "all-MiniLM-L6-v2"),
		MaxRetries: maxRetries,
		Timeout:    timeout,
	}, nil
}

func loadOnnxCfg() (*OnnxCfg, error) {
	const defaultMaxSeqLen = 256

	maxSeqLen, err := parseIntEnv("ONNX_MAX_SEQ_LEN", defaultMaxSeqLen)
	if err != nil {
		return nil, e.Wrap("ONNX_MAX_SEQ_LEN", err)
	}

	return &OnnxCfg{
		SharedLibraryPath: getEnv("ONNXRUNTIME_LIB"),
		ModelPath:         getEnvOrDefault("ONNX_MODEL_PATH", "models/all-MiniLM-L6-v2/model.onnx"),
		TokenizerPath:     getEnvOrDefault("ONNX_TOKENIZER_PATH", "models/all-MiniLM-L6-v2/tokenizer.json"),
		MaxSeqLen:         maxSeqLen,
		OutputName:        getEnvOrDefault("ONNX_OUTPUT_NAME", "last_hidden_state"),
	}, nil
}

func loadOllamaCfg() (*OllamaCfg, error) {
	timeout, err := parseDurationEnv("OLLAMA_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, e.Wrap("OLLAMA_TIMEOUT", err)
	}

	return &OllamaCfg{
		BaseURL: getEnvOrDefault("OLLAMA_URL", "http://localhost:11434"),
		Model:   getEnvOrDefault("OLLAMA_MODEL", "all-minilm:l6-v2"),
		Timeout: timeout,
	}, nil
}

func loadLLMCfg(log logger.Logger) (*LLMCfg, error) {
	const (
		defaultBaseURL        = "https://api.openai.com"
		defaultModel          = "gpt-4o-mini"
		defaultTemperature    = 0.2
		defaultMaxTokens      = 200
		defaultTimeout        = 20 * time.Second
		defaultMaxRetries     = 3
		defaultReasoningLimit = 20
		defaultConcurrency    = 4
	)

	temperature, err := parseFloatEnv("LLM_TEMPERATURE", defaultTemperature)
	if err != nil {
		log.Errorf(err, "invalid LLM_TEMPERATURE")
		return nil, err
	}

	maxTokens, err := parseIntEnv("LLM_MAX_TOKENS", defaultMaxTokens)
	if err != nil {
		log.Errorf(err, "invalid LLM_MAX_TOKENS")
		return nil, err
	}

	timeout, err := parseDurationEnv("LLM_TIMEOUT", defaultTimeout)
	if err != nil {
		log.Errorf(err, "invalid LLM_TIMEOUT")
		return nil, err
	}

	maxRetries, err := parseIntEnv("LLM_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid LLM_MAX_RETRIES")
		return nil, err
	}

	limit, err := parseIntEnv("REASONING_LIMIT", defaultReasoningLimit)
	if err != nil {
		log.Errorf(err, "invalid REASONING_LIMIT")
		return nil, err
	}

	concurrency, err := parseIntEnv("REASONING_CONCURRENCY", defaultConcurrency)
	if err != nil {
		log.Errorf(err, "invalid REASONING_CONCURRENCY")
		return nil, err
	}

	return &LLMCfg{
		APIKey:         getEnv("OPENAI_API_KEY"),
		BaseURL:        strings.TrimRight(getEnvOrDefault("OPENAI_BASE_URL", defaultBaseURL), "/"),
		Model:          getEnvOrDefault("OPENAI_MODEL", defaultModel),
		Temperature:    temperature,
		MaxTokens:      maxTokens,
		Timeout:        timeout,
		MaxRetries:     maxRetries,
		ReasoningLimit: limit,
		Concurrency:    concurrency,
	}, nil
}

func loadPipelineCfg() (*PipelineCfg, error) {
	const (
		defaultTopN          = 10
		defaultMinCandidates = 3
		defaultSyncTimeout   = 10 * time.Minute
	)

	topN, err := parseIntEnv("SIMILARITY_TOP_N", defaultTopN)
	if err != nil {
		return nil, e.Wrap("SIMILARITY_TOP_N", err)
	}

	minCandidates, err := parseIntEnv("MIN_CANDIDATES", defaultMinCandidates)
	if err != nil {
		return nil, e.Wrap("MIN_CANDIDATES", err)
	}

	syncTimeout, err := parseDurationEnv("SYNC_TIMEOUT", defaultSyncTimeout)
	if err != nil {
		return nil, e.Wrap("SYNC_TIMEOUT", err)
	}

	ranker := strings.ToLower(getEnvOrDefault("RANKER_BACKEND", RankerMemory))
	if ranker != RankerMemory && ranker != RankerQdrant {
		return nil, e.Wrap("RANKER_BACKEND", fmt.Errorf("%w: %q", e.ErrIncorrectEnvVariable, ranker))
	}

	return &PipelineCfg{
		Ranker:        ranker,
		TopN:          topN,
		MinCandidates: minCandidates,
		SyncTimeout:   syncTimeout,
	}, nil
}

func loadShopifyCfg() (*ShopifyCfg, error) {
	const (
		defaultAPIVersion = "2024-10"
		defaultRate       = 2.0
		defaultBurst      = 4
		defaultPageSize   = 100
		defaultRetry      = 3
	)

	rate, err := parseFloatEnv("SHOPIFY_RATE_PER_SEC", defaultRate)
	if err != nil {
		return nil, e.Wrap("SHOPIFY_RATE_PER_SEC", err)
	}

	burst, err := parseIntEnv("SHOPIFY_BURST", defaultBurst)
	if err != nil {
		return nil, e.Wrap("SHOPIFY_BURST", err)
	}

	pageSize, err := parseIntEnv("SHOPIFY_PAGE_SIZE", defaultPageSize)
	if err != nil {
		return nil, e.Wrap("SHOPIFY_PAGE_SIZE", err)
	}

	retry, err := parseIntEnv("SHOPIFY_MAX_RETRIES", defaultRetry)
	if err != nil {
		return nil, e.Wrap("SHOPIFY_MAX_RETRIES", err)
	}

	return &ShopifyCfg{
		APIVersion:   getEnvOrDefault("SHOPIFY_API_VERSION", defaultAPIVersion),
		APISecret:    getEnv("SHOPIFY_API_SECRET"),
		APIKey:       getEnv("SHOPIFY_API_KEY"),
		RatePerSec:   rate,
		Burst:        burst,
		PageSize:     pageSize,
		RequestRetry: retry,
	}, nil
}

func loadTracingCfg() *TracingCfg {
	return &TracingCfg{
		Exporter:    strings.ToLower(getEnv("OTEL_EXPORTER")),
		Endpoint:    getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		ServiceName: getEnvOrDefault("OTEL_SERVICE_NAME", "cartwhisper"),
	}
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := getEnv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := getEnv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := getEnv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.Wrap(key, e.ErrIncorrectEnvVariable)
	}

	return intValue, nil
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	v := getEnv(key)
	if v == "" {
		return defaultValue, nil
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultValue, e.Wrap(key, e.ErrIncorrectEnvVariable)
	}

	return f, nil
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	v := getEnv(key)
	if v == "" {
		return defaultValue, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue, e.Wrap(key, e.ErrIncorrectEnvVariable)
	}

	return b, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
