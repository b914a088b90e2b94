package main

import (
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/firmaya/api/pkg/cache"
	"github.com/firmaya/api/pkg/database"
	"github.com/firmaya/api/pkg/routes"
	"github.com/firmaya/api/pkg/zapsign"
)

var (
	redisClient *redis.Client
	db          *gorm.DB

	ADDR,
	REDIS_HOST,
	REDIS_PORT,
	POSTGRES_HOST,
	POSTGRES_PORT,
	POSTGRES_USER,
	POSTGRES_PASSWORD,
	POSTGRES_DB,
	ZAPSIGN_API_KEY,
	ZAPSIGN_DOCUMENT_TEMPLATE_ID,
	ZAPSIGN_WEBHOOK_SECRET,
	APP_URL string

	REQUIRED_ENV = []string{
		"ADDR",
		"REDIS_HOST",
		"REDIS_PORT",
		"POSTGRES_HOST",
		"POSTGRES_PORT",
		"POSTGRES_USER",
		"POSTGRES_PASSWORD",
		"POSTGRES_DB",
		"ZAPSIGN_API_KEY",
		"ZAPSIGN_DOCUMENT_TEMPLATE_ID",
	}
)

func init() {
	godotenv.Load()

	ADDR = os.Getenv("ADDR")
	REDIS_HOST = os.Getenv("REDIS_HOST")
	REDIS_PORT = os.Getenv("REDIS_PORT")
	POSTGRES_HOST = os.Getenv("POSTGRES_HOST")
	POSTGRES_PORT = os.Getenv("POSTGRES_PORT")
	POSTGRES_USER = os.Getenv("POSTGRES_USER")
	POSTGRES_PASSWORD = os.Getenv("POSTGRES_PASSWORD")
	POSTGRES_DB = os.Getenv("POSTGRES_DB")
	ZAPSIGN_API_KEY = os.Getenv("ZAPSIGN_API_KEY")
	ZAPSIGN_DOCUMENT_TEMPLATE_ID = os.Getenv("ZAPSIGN_DOCUMENT_TEMPLATE_ID")
	ZAPSIGN_WEBHOOK_SECRET = os.Getenv("ZAPSIGN_WEBHOOK_SECRET")
	APP_URL = os.Getenv("APP_URL")

	missing := checkenv(REQUIRED_ENV)

	if len(missing) != 0 {
		log.Fatalf(
			"missing %v in env",
			strings.Join(missing, ", "),
		)
	}

	redisClient = redis.NewClient(&redis.Options{
		Addr: REDIS_HOST + ":" + REDIS_PORT,
	})
	cache.InitCounterCache(redisClient)

	pgConnUrl := url.URL{
		User:   url.UserPassword(POSTGRES_USER, POSTGRES_PASSWORD),
		Scheme: "postgres",
		Host:   POSTGRES_HOST + ":" + POSTGRES_PORT,
		Path:   POSTGRES_DB,
		RawQuery: url.Values{
			"sslmode": {"disable"},
		}.Encode(),
	}

	d, err := gorm.Open(postgres.Open(pgConnUrl.String()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v\n", err)
	}

	database.InitDatabase(d)
	db = d
}

func main() {
	zapClient := zapsign.NewClient(ZAPSIGN_API_KEY, ZAPSIGN_DOCUMENT_TEMPLATE_ID)

	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Mount("/", routes.New(db, zapClient, ZAPSIGN_WEBHOOK_SECRET, APP_URL))

	if err := http.ListenAndServe(ADDR, r); err != nil {
		log.Fatalf("failed to start server: %v\n", err)
	}
}

func checkenv(keys []string) []string {
	var missing []string
	for _, key := range keys {
		if val, ok := os.LookupEnv(key); len(val) == 0 || !ok {
			missing = append(missing, key)
		}
	}

	return missing
}
