package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string
	FormsDir    string
	JournalDB   string
	BoardsFile  string
	TokenSecret string
	TokenTTL    time.Duration
	Debug       bool

	// From the environment; never on the command line.
	MondayToken   string
	AdminUser     string
	AdminPassword string
}

func ParseFlags() (cfg Config, err error) {
	// Optional .env for local runs; the deployment sets real env vars.
	godotenv.Load()

	var host string
	flag.StringVar(&host, "host", "0.0.0.0", "listen host name (default 0.0.0.0)")
	var port uint
	flag.UintVar(&port, "port", 5000, "listen port number (default 5000)")
	flag.StringVar(&cfg.FormsDir, "forms-dir", "Forms", "directory for persisted form files (default Forms)")
	flag.StringVar(&cfg.JournalDB, "journal-db", "journal.sqlite", "path to SQLite3 journal file (default journal.sqlite)")
	flag.StringVar(&cfg.BoardsFile, "boards-config", "setup/config.json", "path to board configuration file")
	flag.StringVar(&cfg.TokenSecret, "token-secret", "", "secret key for token encryption and decryption")
	var ttl uint
	flag.UintVar(&ttl, "token-ttl", 120, "token TTL in seconds (default 120)")
	flag.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second

	cfg.MondayToken = os.Getenv("MONDAY_API_TOKEN")
	cfg.AdminUser = os.Getenv("ADMIN_USERNAME")
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret")
	}
	if cfg.MondayToken == "" {
		err = errors.New("missing environment variable MONDAY_API_TOKEN")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
