package core

import (
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	Env      string
	Debug    bool
	TestMode bool
	AppName  string
	Build    string

	SecretKey       []byte
	FrontendBaseURL string
	DefaultFromName string
	DefaultFromAddr string
	SendgridApiKey  string
	RollbarToken    string
	WorkDir         string

	Server struct {
		Host string
		Addr string
	}

	Database struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		DisableTLS    bool
	}

	Redis struct {
		URL string
	}

	Discussions struct {
		BaseURL   string
		SecretKey string
		// SyncWindow bounds how long a membership sync batch may run;
		// LockTTL bounds how long a crashed batch may hold the job lock.
		SyncWindow time.Duration
		LockTTL    time.Duration
	}

	Search struct {
		URL string
	}

	Features struct {
		DiscussionSync bool
	}
}

func (conf *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: conf.DefaultFromName, Address: conf.DefaultFromAddr}
}

func (conf *Config) DatabaseAddress() string {
	return conf.Database.Host + ":" + conf.Database.Port
}

// NewConfig loads the app configuration once: defaults, then an optional
// config/.env.<env> file, then environment variables prefixed with <ENV>_.
// The result is threaded explicitly into services and job entry points.
func NewConfig(workDir string) (*Config, error) {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "MicroMasters")
	v.SetDefault("secretKey", "o7b)#ym+dp7-w&p9y%4wdzmcx0$4q&1!fn7hy(-t+2!30y9=yg")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromName", "MicroMasters")
	v.SetDefault("defaultFromAddr", "noreply@localhost")
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddr", ":8000")
	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbName", "micromasters")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbDisableTLS", true)
	v.SetDefault("redisURL", "redis://localhost:6379/0")
	v.SetDefault("discussionsBaseURL", "http://localhost:8065")
	v.SetDefault("discussionsSyncWindow", 5*time.Minute)
	v.SetDefault("discussionsLockTTL", 6*time.Minute)
	v.SetDefault("searchURL", "http://localhost:9200")
	v.SetDefault("featureDiscussionSync", true)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:             env,
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("testMode"),
		AppName:         v.GetString("appName"),
		Build:           v.GetString("build"),
		SecretKey:       []byte(v.GetString("secretKey")),
		FrontendBaseURL: v.GetString("frontendBaseURL"),
		DefaultFromName: v.GetString("defaultFromName"),
		DefaultFromAddr: v.GetString("defaultFromAddr"),
		SendgridApiKey:  v.GetString("sendgridApiKey"),
		RollbarToken:    v.GetString("rollbarToken"),
		WorkDir:         workDir,
	}
	conf.Server.Host = v.GetString("serverHost")
	conf.Server.Addr = v.GetString("serverAddr")
	conf.Database.Engine = v.GetString("dbEngine")
	conf.Database.Name = v.GetString("dbName")
	conf.Database.User = v.GetString("dbUser")
	conf.Database.Password = v.GetString("dbPassword")
	conf.Database.AdminUser = v.GetString("dbAdminUser")
	conf.Database.AdminPassword = v.GetString("dbAdminPassword")
	conf.Database.Host = v.GetString("dbHost")
	conf.Database.Port = v.GetString("dbPort")
	conf.Database.DisableTLS = v.GetBool("dbDisableTLS")
	conf.Redis.URL = v.GetString("redisURL")
	conf.Discussions.BaseURL = v.GetString("discussionsBaseURL")
	conf.Discussions.SecretKey = v.GetString("discussionsSecretKey")
	conf.Discussions.SyncWindow = v.GetDuration("discussionsSyncWindow")
	conf.Discussions.LockTTL = v.GetDuration("discussionsLockTTL")
	conf.Search.URL = v.GetString("searchURL")
	conf.Features.DiscussionSync = v.GetBool("featureDiscussionSync")
	return conf, nil
}
