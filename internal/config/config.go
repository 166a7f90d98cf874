package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types

	"github.com/iliyamo/restaurant-table-reservation/internal/schedule"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The seating schedule carries defaults matching
// the restaurant's standard day so a bare environment still produces a
// working service; identifiers and secrets are required.
type Config struct {
	Env           string // application environment (e.g. "dev", "prod")
	Port          string // HTTP port to listen on
	DBUser        string // database username (optional; memory store when unset)
	DBPass        string // database password (optional)
	DBHost        string // database host address
	DBPort        string // database port number
	DBName        string // database name
	JWTSecret     string // secret used to sign staff JWTs
	AccessTTLMin  int    // staff access token time-to-live in minutes
	BcryptCost    int    // bcrypt cost for hashing the staff password
	StaffUser     string // staff login username
	StaffPassword string // staff login password (hashed at startup)
	QueueEnabled  bool   // publish/consume reservation events over RabbitMQ

	Schedule schedule.Schedule // seating schedule shared by the whole process
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:           must("APP_ENV"),          // environment (dev/test/prod)
		Port:          must("APP_PORT"),         // port to bind the HTTP server
		DBUser:        os.Getenv("DB_USER"),     // database user (optional)
		DBPass:        os.Getenv("DB_PASS"),     // database password (empty allowed)
		DBHost:        os.Getenv("DB_HOST"),     // database host; unset selects the memory store
		DBPort:        getenv("DB_PORT", "3306"),
		DBName:        getenv("DB_NAME", "reservations"),
		JWTSecret:     must("JWT_SECRET"),       // secret used for signing staff JWTs
		AccessTTLMin:  envInt("ACCESS_TOKEN_TTL_MIN", 60),
		BcryptCost:    envInt("BCRYPT_COST", 10),
		StaffUser:     getenv("STAFF_USER", "staff"),
		StaffPassword: must("STAFF_PASSWORD"),   // staff login password
		QueueEnabled:  envBool("QUEUE_ENABLED", false),
		Schedule:      loadSchedule(),
	}
}

// loadSchedule assembles the seating schedule from environment
// variables.  Defaults describe a 12:00-23:00 day with 30-minute
// slots, 90-minute turns and 40 pooled seats.  An invalid schedule is
// a deployment mistake, so it is fatal at startup rather than a
// per-request error.
func loadSchedule() schedule.Schedule {
	s := schedule.Schedule{
		Open:        mustClock(getenv("OPEN_TIME", "12:00")),
		Close:       mustClock(getenv("CLOSE_TIME", "23:00")),
		SlotMinutes: envInt("SLOT_MINUTES", 30),
		TurnMinutes: envInt("TURN_MINUTES", 90),
		TotalSeats:  envInt("TOTAL_SEATS", 40),
	}
	if err := s.Validate(); err != nil {
		log.Fatalf("invalid schedule configuration: %v", err)
	}
	return s
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustClock parses an HH:MM value and halts on malformed input.
func mustClock(s string) schedule.TimeOfDay {
	t, err := schedule.ParseClock(s)
	if err != nil {
		log.Fatalf("invalid clock value %q: %v", s, err)
	}
	return t
}

// getenv returns the environment value for key, or def when unset.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt reads an integer environment variable with a default.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return def
}

// envBool reads a boolean environment variable with a default.
func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return def
}
