package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	_ "net/http/pprof"

	"github.com/cockroachdb/pebble"
	"github.com/valyala/fasthttp"
	"gopkg.in/yaml.v2"

	"github.com/buaazp/fasthttprouter"
	_ "github.com/mattn/go-sqlite3"

	_ "github.com/lib/pq"
)

type Config struct {
	ListenAddr string `yaml:"ListenAddr"`

	// Backend: memory, pebble, sqlite or postgres
	Backend   string         `yaml:"Backend"`
	DBPath    string         `yaml:"DBPath"`
	DBOptions pebble.Options `yaml:"DBOptions"`
	DSN       string         `yaml:"DSN"`

	RecordsTable  string `yaml:"RecordsTable"`
	VersionsTable string `yaml:"VersionsTable"`
	LocksTable    string `yaml:"LocksTable"`

	// which lanes and blocks a partition consists of is deployment
	// policy, not core logic
	Lanes  []string `yaml:"Lanes"`
	Blocks []string `yaml:"Blocks"`

	LockTTLSec    int `yaml:"LockTTLSec"`
	LockRetries   int `yaml:"LockRetries"`
	LockBackoffMS int `yaml:"LockBackoffMS"`
}

func (c *Config) setDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8090"
	}
	if c.RecordsTable == "" {
		c.RecordsTable = "records"
	}
	if c.VersionsTable == "" {
		c.VersionsTable = "versions"
	}
	if c.LocksTable == "" {
		c.LocksTable = "locks"
	}
	if len(c.Lanes) == 0 {
		c.Lanes = []string{"A", "B"}
	}
	if len(c.Blocks) == 0 {
		c.Blocks = []string{"LUNCHA", "LUNCHB", "AFTER"}
	}
	if c.LockTTLSec == 0 {
		c.LockTTLSec = 30
	}
	if c.LockRetries == 0 {
		c.LockRetries = 5
	}
	if c.LockBackoffMS == 0 {
		c.LockBackoffMS = 500
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	err := Start(ctx)
	if err != nil {
		panic(err)
	}
}

var (
	cfg   Config
	locks *LockManager
	coord *Coordinator
)

func openBackend(cfg *Config) (RowStore, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemStore(), nil
	case "pebble":
		db, err := pebble.Open(cfg.DBPath, &cfg.DBOptions)
		if err != nil {
			return nil, err
		}
		return NewPebbleStore(db), nil
	case "sqlite", "postgres":
		driver, dsn := "sqlite3", cfg.DSN
		if cfg.Backend == "postgres" {
			driver = "postgres"
		} else if dsn == "" {
			dsn = cfg.DBPath
		}
		db, err := sql.Open(driver, dsn)
		if err != nil {
			return nil, err
		}
		return NewSQLStore(db, map[string][]string{
			cfg.RecordsTable:  RecordHeaders,
			cfg.VersionsTable: VersionHeaders,
			cfg.LocksTable:    LockHeaders,
		})
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// Setup validates table headers and wires the coordinator on top of rs.
func Setup(rs RowStore) error {
	for _, t := range []struct {
		name    string
		headers []string
	}{
		{cfg.RecordsTable, RecordHeaders},
		{cfg.VersionsTable, VersionHeaders},
		{cfg.LocksTable, LockHeaders},
	} {
		if err := EnsureTable(rs, t.name, t.headers); err != nil {
			return err
		}
	}
	versions := NewVersionStore(rs, cfg.VersionsTable)
	locks = NewLockManager(rs, cfg.LocksTable)
	records := NewRecordStore(rs, cfg.RecordsTable, cfg.Lanes, cfg.Blocks)
	coord = NewCoordinator(versions, locks, records,
		cfg.LockRetries, time.Duration(cfg.LockBackoffMS)*time.Millisecond)
	return nil
}

func newRouter() *fasthttprouter.Router {
	router := fasthttprouter.New()

	router.GET("/partition/:key", LoadHandler)
	router.POST("/partition/:key", CommitHandler)

	router.POST("/partition/:key/lock", LockHandler)
	router.DELETE("/partition/:key/lock", UnlockHandler)
	router.POST("/partition/:key/renew", RenewHandler)

	router.GET("/partition/:key/watch", WatchHandler)

	router.NotFound = func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(404)
	}
	return router
}

func Start(ctx context.Context) error {
	yd, err := os.ReadFile("config.yml")
	if err != nil {
		return err
	}
	err = yaml.Unmarshal(yd, &cfg)
	if err != nil {
		return err
	}
	cfg.setDefaults()
	rs, err := openBackend(&cfg)
	if err != nil {
		return err
	}
	if err := Setup(rs); err != nil {
		return err
	}
	go func() {
		log.Print("START ", cfg.ListenAddr)
		s := fasthttp.Server{
			Handler:                       newRouter().Handler,
			Concurrency:                   100000,
			MaxConnsPerIP:                 100000,
			ReadBufferSize:                10000,
			WriteBufferSize:               10000,
			DisableHeaderNamesNormalizing: true,
			NoDefaultContentType:          true,
			NoDefaultDate:                 true,
			NoDefaultServerHeader:         true,
		}
		err := s.ListenAndServe(cfg.ListenAddr)
		if err != nil {
			panic(err)
		}
	}()

	<-ctx.Done()
	coord.Close()
	return nil
}
