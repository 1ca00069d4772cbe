package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Store drivers selectable through STORE_DRIVER.
const (
	DriverPGX      = "pgx"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// StoreDriver returns STORE_DRIVER, defaulting to pgx.
func StoreDriver() string {
	d := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_DRIVER")))
	if d == "" {
		return DriverPGX
	}
	return d
}

// PostgresDSN builds a connection URL from the DB_* variables.
func PostgresDSN() string {
	host := os.Getenv("DB_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD")),
		Host:     fmt.Sprintf("%s:%s", host, port),
		Path:     "/" + os.Getenv("DB_NAME"),
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// SQLitePath returns SQLITE_PATH, defaulting to a file next to the binary.
func SQLitePath() string {
	if p := os.Getenv("SQLITE_PATH"); p != "" {
		return p
	}
	return "orderops.db"
}

// ServicesFile returns SERVICES_FILE, defaulting to ../services.yaml.
func ServicesFile() string {
	if p := os.Getenv("SERVICES_FILE"); p != "" {
		return p
	}
	return "../services.yaml"
}

// ArchiveBucket is the S3 bucket import files are copied to; empty disables
// archiving.
func ArchiveBucket() string {
	return os.Getenv("ARCHIVE_BUCKET")
}

func ArchiveRegion() string {
	if r := os.Getenv("AWS_REGION"); r != "" {
		return r
	}
	return "ap-northeast-2"
}

func ArchivePrefix() string {
	return os.Getenv("ARCHIVE_PREFIX")
}
