package config

import (
	"log"
	"strings"
	"time"

	"babyspa/models"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort     string `mapstructure:"APP_PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	Env         string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	// Redis configuration.
	RedisAddr        string `mapstructure:"REDIS_ADDR"`
	RedisPassword    string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB     int    `mapstructure:"REDIS_CACHE_DB"`
	RedisTaskQueueDB int    `mapstructure:"REDIS_TASK_QUEUE_DB"`

	// Stripe secret key for card advance payments. Empty disables Stripe and
	// card advances are recorded as collected on-site.
	StripeKey string `mapstructure:"STRIPE_KEY"`

	// Scheduling rules.
	SubSlotMinutes         int    `mapstructure:"SUBSLOT_MINUTES"`
	DefaultSessionMinutes  int    `mapstructure:"DEFAULT_SESSION_MINUTES"`
	StaffCapacity          int    `mapstructure:"STAFF_CAPACITY"`
	PortalCapacity         int    `mapstructure:"PORTAL_CAPACITY"`
	BusinessHours          string `mapstructure:"BUSINESS_HOURS"`
	PendingPaymentTTLHours int    `mapstructure:"PENDING_PAYMENT_TTL_HOURS"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_TASK_QUEUE_DB", 1)
	viper.SetDefault("STRIPE_KEY", "")
	viper.SetDefault("SUBSLOT_MINUTES", 30)
	viper.SetDefault("DEFAULT_SESSION_MINUTES", 60)
	viper.SetDefault("STAFF_CAPACITY", 3)
	viper.SetDefault("PORTAL_CAPACITY", 2)
	viper.SetDefault("BUSINESS_HOURS", "Mon,Tue,Wed,Thu,Fri 09:00-19:00; Sat 09:00-14:00")
	viper.SetDefault("PENDING_PAYMENT_TTL_HOURS", 24)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// ScheduleConfig builds the calendar rule tables from the loaded config.
// BUSINESS_HOURS grammar: "Mon,Tue 09:00-19:00; Sat 09:00-14:00".
// Days not listed are closed.
func ScheduleConfig() models.ScheduleConfig {
	cfg := models.ScheduleConfig{
		SubSlotMinutes:         AppConfig.SubSlotMinutes,
		DefaultDurationMinutes: AppConfig.DefaultSessionMinutes,
		StaffCapacity:          AppConfig.StaffCapacity,
		PortalCapacity:         AppConfig.PortalCapacity,
		Hours:                  map[time.Weekday]models.DayHours{},
	}
	for _, group := range strings.Split(AppConfig.BusinessHours, ";") {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}
		fields := strings.Fields(group)
		if len(fields) != 2 {
			log.Fatalf("invalid BUSINESS_HOURS entry %q", group)
		}
		openClose := strings.SplitN(fields[1], "-", 2)
		if len(openClose) != 2 {
			log.Fatalf("invalid BUSINESS_HOURS interval %q", fields[1])
		}
		for _, day := range strings.Split(fields[0], ",") {
			wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(day))]
			if !ok {
				log.Fatalf("invalid BUSINESS_HOURS weekday %q", day)
			}
			cfg.Hours[wd] = models.DayHours{Open: openClose[0], Close: openClose[1]}
		}
	}
	return cfg
}
