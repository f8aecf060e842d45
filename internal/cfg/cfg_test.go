package cfg

import (
	"errors"
	"testing"
	"time"

	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/DRSN-tech/cartwhisper/pkg/logger"
)

func TestLoadDefaultsWithSQLite(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("EMBEDDER_BACKEND", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("RANKER_BACKEND", "")

	c, err := Load(logger.NewNop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if c.Storage.Driver != StorageSQLite {
		t.Errorf("driver = %q", c.Storage.Driver)
	}
	if c.Db != nil {
		t.Errorf("postgres config must be skipped in sqlite mode")
	}
	if c.Embedder.Backend != EmbedderONNX || c.Embedder.Dimensions != 384 {
		t.Errorf("embedder = %+v", c.Embedder)
	}
	if c.Kafka.Enabled {
		t.Errorf("kafka must be disabled without brokers")
	}
	if c.LLM.Temperature != 0.2 {
		t.Errorf("temperature = %v", c.LLM.Temperature)
	}
	if c.Pipeline.TopN != 10 || c.Pipeline.MinCandidates != 3 || c.Pipeline.Ranker != RankerMemory {
		t.Errorf("pipeline = %+v", c.Pipeline)
	}
	if c.Ml.MaxRetries != 1 {
		t.Errorf("ml retries = %d", c.Ml.MaxRetries)
	}
}

func TestLoadPostgresRequiresCredentials(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("POSTGRES_USER", "")

	if _, err := Load(logger.NewNop()); err == nil {
		t.Fatalf("expected error without POSTGRES_USER")
	}
}

func TestPGDSN(t *testing.T) {
	t.Setenv("POSTGRES_USER", "u")
	t.Setenv("POSTGRES_PASSWORD", "p")
	t.Setenv("POSTGRES_DB", "d")
	t.Setenv("POSTGRES_HOST", "")
	t.Setenv("POSTGRES_PORT", "")
	t.Setenv("SSL_MODE", "")

	c, err := loadPGDBCfg(logger.NewNop())
	if err != nil {
		t.Fatalf("loadPGDBCfg: %v", err)
	}

	want := "host=localhost port=5432 user=u password=p dbname=d sslmode=disable"
	if got := c.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}

func TestParseHelpers(t *testing.T) {
	t.Setenv("X_INT", "abc")
	if _, err := parseIntEnv("X_INT", 1); !errors.Is(err, e.ErrIncorrectEnvVariable) {
		t.Errorf("parseIntEnv err = %v", err)
	}

	t.Setenv("X_DUR", "90s")
	d, err := parseDurationEnv("X_DUR", time.Second)
	if err != nil || d != 90*time.Second {
		t.Errorf("parseDurationEnv = %v, %v", d, err)
	}

	t.Setenv("X_BOOL", "true")
	if b, err := parseBoolEnv("X_BOOL", false); err != nil || !b {
		t.Errorf("parseBoolEnv = %v, %v", b, err)
	}

	if got := splitList(" a, ,b "); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("splitList = %v", got)
	}
}

func TestUnknownEmbedderBackend(t *testing.T) {
	t.Setenv("EMBEDDER_BACKEND", "word2vec")
	if _, err := loadEmbedderCfg(); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestUnknownRankerBackend(t *testing.T) {
	t.Setenv("RANKER_BACKEND", "faiss")
	if _, err := loadPipelineCfg(); !errors.Is(err, e.ErrIncorrectEnvVariable) {
		t.Fatalf("err = %v, want ErrIncorrectEnvVariable", err)
	}
}

func TestCacheStaleNotShorterThanFresh(t *testing.T) {
	t.Setenv("CACHE_TTL", "10m")
	t.Setenv("CACHE_STALE_TTL", "1m")

	c, err := loadCacheCfg(logger.NewNop())
	if err != nil {
		t.Fatalf("loadCacheCfg: %v", err)
	}
	if c.StaleTTL != 10*time.Minute {
		t.Errorf("stale = %v", c.StaleTTL)
	}
}
