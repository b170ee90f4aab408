package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address         string
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
	}

	JournalConfig struct {
		SeedFile           string
		ExcellentThreshold float64
		MinGrade           int
		MaxGrade           int
		StatusVariant      string // basic | extended
		StatusCodes        string // CODE:category[:severity],...
	}

	ExportConfig struct {
		StudentLabel    string
		AverageLabel    string
		AttendanceLabel string
	}

	Config struct {
		Env            string
		Build          string
		Debug          bool
		TestMode       bool
		AppName        string
		WorkDir        string
		RollbarToken   string
		SendgridApiKey string

		defaultFromEmail string

		Server  ServerConfig
		Journal JournalConfig
		Export  ExportConfig
	}
)

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
}

// NewConfig reads the configuration from defaults, `config/.env.<env>` and the environment.
// Environment variables are prefixed with the uppercase env name, e.g. DEV_SERVER_ADDRESS.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "E-Journal")
	v.SetDefault("build", "develop")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("journal.seedFile", "")
	v.SetDefault("journal.excellentThreshold", 4.5)
	v.SetDefault("journal.minGrade", 1)
	v.SetDefault("journal.maxGrade", 5)
	v.SetDefault("journal.statusVariant", "basic")
	v.SetDefault("journal.statusCodes", "")
	v.SetDefault("export.studentLabel", "Ученик")
	v.SetDefault("export.averageLabel", "Средний балл")
	v.SetDefault("export.attendanceLabel", "Посещаемость")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	workDir := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		AppName:          v.GetString("appName"),
		WorkDir:          workDir,
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		defaultFromEmail: v.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Address:         v.GetString("server.address"),
			Host:            v.GetString("server.host"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:  v.GetBool("server.disableReqLogs"),
		},
		Journal: JournalConfig{
			SeedFile:           v.GetString("journal.seedFile"),
			ExcellentThreshold: v.GetFloat64("journal.excellentThreshold"),
			MinGrade:           v.GetInt("journal.minGrade"),
			MaxGrade:           v.GetInt("journal.maxGrade"),
			StatusVariant:      v.GetString("journal.statusVariant"),
			StatusCodes:        v.GetString("journal.statusCodes"),
		},
		Export: ExportConfig{
			StudentLabel:    v.GetString("export.studentLabel"),
			AverageLabel:    v.GetString("export.averageLabel"),
			AttendanceLabel: v.GetString("export.attendanceLabel"),
		},
	}
}
