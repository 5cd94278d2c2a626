package config

import (
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
	"sigs.k8s.io/yaml"
)

type Config struct {
	// Port Settings
	Host        string `json:"host"`        // The domain name of the server.
	ServerAddr  string `json:"serverAddr"`  // The address the server endpoint binds to.
	MetricsAddr string `json:"metricsAddr"` // The address the metric endpoint binds to.

	Auth struct {
		AccessTokenSecret      string `json:"accessTokenSecret"`
		AccessTokenExpiryHour  int    `json:"accessTokenExpiryHour"`
		RefreshTokenSecret     string `json:"refreshTokenSecret"`
		RefreshTokenExpiryHour int    `json:"refreshTokenExpiryHour"`
	} `json:"auth"`

	Postgres struct {
		Host     string `json:"host"`
		Port     string `json:"port"`
		DBName   string `json:"dbname"`
		User     string `json:"user"`
		Password string `json:"password"`
		SSLMode  string `json:"sslmode"`
		TimeZone string `json:"TimeZone"`
		// Optional read replica, routed through dbresolver when set.
		ReplicaHost string `json:"replicaHost"`
		ReplicaPort string `json:"replicaPort"`
	} `json:"postgres"`

	// Rollout gate thresholds for shadow -> enforcing.
	Rollout struct {
		MinShadowDays   int    `json:"minShadowDays"`   // minimum days in shadow (default 7)
		MinTransactions int64  `json:"minTransactions"` // minimum observed transactions in the window (default 1000)
		SweepSpec       string `json:"sweepSpec"`       // cron spec for the eligibility sweep
	} `json:"rollout"`

	SMTP struct {
		Host     string `json:"host"`
		Port     int    `json:"port"`
		User     string `json:"user"`
		Password string `json:"password"`
		Notify   string `json:"notify"` // receiver for rollout alerts
	} `json:"smtp"`
}

var (
	once   sync.Once
	config *Config
)

func GetConfig() *Config {
	once.Do(func() {
		config = initConfig()
	})
	return config
}

func IsDebugMode() bool {
	return gin.Mode() == gin.DebugMode
}

// initConfig reads the configuration file. In debug mode it reads
// ./etc/debug-config.yaml (or WARDEN_DEBUG_CONFIG_PATH); otherwise the
// config.yaml mounted from the deployment.
func initConfig() *Config {
	config := &Config{}
	var configPath string
	if IsDebugMode() {
		if os.Getenv("WARDEN_DEBUG_CONFIG_PATH") != "" {
			configPath = os.Getenv("WARDEN_DEBUG_CONFIG_PATH")
		} else {
			configPath = "./etc/debug-config.yaml"
		}
	} else {
		configPath = "/etc/config/config.yaml"
	}
	klog.Info("config path: ", configPath)

	if err := readConfig(configPath, config); err != nil {
		klog.Error("init config", err)
		panic(err)
	}
	applyDefaults(config)
	return config
}

func readConfig(filePath string, config *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, config)
}

func applyDefaults(c *Config) {
	if c.Rollout.MinShadowDays == 0 {
		c.Rollout.MinShadowDays = 7
	}
	if c.Rollout.MinTransactions == 0 {
		c.Rollout.MinTransactions = 1000
	}
	if c.Rollout.SweepSpec == "" {
		c.Rollout.SweepSpec = "0 * * * *"
	}
}
