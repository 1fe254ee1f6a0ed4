package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Port    int    `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	Issuer     string `yaml:"issuer"`
	AccessTTL  string `yaml:"access_ttl"`
	RefreshTTL string `yaml:"refresh_ttl"`
}

type OTPConfig struct {
	TTL          string `yaml:"ttl"`
	Length       int    `yaml:"length"`
	MaxAttempts  int    `yaml:"max_attempts"`
	ResendWindow string `yaml:"resend_window"`
}

type LoginConfig struct {
	MaxFailures   int    `yaml:"max_failures"`
	LockoutWindow string `yaml:"lockout_window"`
}

type SessionConfig struct {
	IdleWindow  string `yaml:"idle_window"`
	AbsoluteTTL string `yaml:"absolute_ttl"`
}

type StepUpConfig struct {
	Timeout   string `yaml:"timeout"`
	RulesPath string `yaml:"rules_path"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

type BiometricsConfig struct {
	FaceMatchURL  string  `yaml:"face_match_url"`
	VoiceURL      string  `yaml:"voice_url"`
	Timeout       string  `yaml:"timeout"`
	MinConfidence float64 `yaml:"min_confidence"`
}

type TOTPConfig struct {
	Issuer string `yaml:"issuer"`
}

type CasbinConfig struct {
	ModelPath string `yaml:"model_path"`
}

type ConfigFile struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	JWT        JWTConfig        `yaml:"jwt"`
	OTP        OTPConfig        `yaml:"otp"`
	Login      LoginConfig      `yaml:"login"`
	Session    SessionConfig    `yaml:"session"`
	StepUp     StepUpConfig     `yaml:"stepup"`
	Twilio     TwilioConfig     `yaml:"twilio"`
	Biometrics BiometricsConfig `yaml:"biometrics"`
	TOTP       TOTPConfig       `yaml:"totp"`
	Casbin     CasbinConfig     `yaml:"casbin"`
}

type Config struct {
	Port               string
	GinMode            string
	DSN                string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	JWTSecret          string
	JWTIssuer          string
	AccessTTL          time.Duration
	RefreshTTL         time.Duration
	OTPTTL             time.Duration
	OTPLength          int
	OTPMaxAttempts     int
	OTPResendWindow    time.Duration
	LoginMaxFailures   int
	LoginLockoutWindow time.Duration
	SessionIdleWindow  time.Duration
	SessionAbsoluteTTL time.Duration
	StepUpTimeout      time.Duration
	StepUpRules        []StepUpRule
	TwilioSID          string
	TwilioToken        string
	TwilioFrom         string
	FaceMatchURL       string
	VoiceURL           string
	BiometricsTimeout  time.Duration
	BiometricsMinConf  float64
	TOTPIssuer         string
	CasbinModelPath    string
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func Load() (*Config, error) {
	configFile, err := loadConfigFile(env("BANKAUTH_CONFIG", "config/config.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	parse := func(name, raw string, dst *time.Duration) {
		if err != nil {
			return
		}
		var d time.Duration
		if d, err = time.ParseDuration(raw); err != nil {
			err = fmt.Errorf("invalid %s: %w", name, err)
			return
		}
		*dst = d
	}

	cfg := &Config{
		Port:              fmt.Sprintf("%d", configFile.App.Port),
		GinMode:           configFile.App.GinMode,
		DSN:               configFile.Database.DSN,
		RedisAddr:         configFile.Redis.Addr,
		RedisPassword:     configFile.Redis.Password,
		RedisDB:           configFile.Redis.DB,
		JWTSecret:         configFile.JWT.Secret,
		JWTIssuer:         configFile.JWT.Issuer,
		OTPLength:         configFile.OTP.Length,
		OTPMaxAttempts:    configFile.OTP.MaxAttempts,
		LoginMaxFailures:  configFile.Login.MaxFailures,
		TwilioSID:         configFile.Twilio.AccountSID,
		TwilioToken:       configFile.Twilio.AuthToken,
		TwilioFrom:        configFile.Twilio.FromNumber,
		FaceMatchURL:      configFile.Biometrics.FaceMatchURL,
		VoiceURL:          configFile.Biometrics.VoiceURL,
		BiometricsMinConf: configFile.Biometrics.MinConfidence,
		TOTPIssuer:        configFile.TOTP.Issuer,
		CasbinModelPath:   configFile.Casbin.ModelPath,
	}

	parse("JWT access TTL", configFile.JWT.AccessTTL, &cfg.AccessTTL)
	parse("JWT refresh TTL", configFile.JWT.RefreshTTL, &cfg.RefreshTTL)
	parse("OTP TTL", configFile.OTP.TTL, &cfg.OTPTTL)
	parse("OTP resend window", configFile.OTP.ResendWindow, &cfg.OTPResendWindow)
	parse("login lockout window", configFile.Login.LockoutWindow, &cfg.LoginLockoutWindow)
	parse("session idle window", configFile.Session.IdleWindow, &cfg.SessionIdleWindow)
	parse("session absolute TTL", configFile.Session.AbsoluteTTL, &cfg.SessionAbsoluteTTL)
	parse("step-up timeout", configFile.StepUp.Timeout, &cfg.StepUpTimeout)
	parse("biometrics timeout", configFile.Biometrics.Timeout, &cfg.BiometricsTimeout)
	if err != nil {
		return nil, err
	}

	rules, err := LoadStepUpRules(configFile.StepUp.RulesPath)
	if err != nil {
		return nil, err
	}
	cfg.StepUpRules = rules

	return cfg, nil
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}

	return &config, nil
}
