package main

import (
	"time"

	configlibsql "kuasap-backend/lib/configutil/libsql"
	"kuasap-backend/lib/querycache"
	"kuasap-backend/lib/scrapers/kuasap"
	"kuasap-backend/services/ap"

	"golang.org/x/time/rate"
)

type PortalConfig struct {
	BaseUrl          string   `json:"base_url"`
	TimeoutSeconds   int      `json:"timeout_seconds"`
	RateLimit        float64  `json:"rate_limit"`
	RateBurst        int      `json:"rate_burst"`
	Categories       []string `json:"categories"`
	CloudflareBypass bool     `json:"cloudflare_bypass"`
}

type CacheConfig struct {
	TTLSeconds int `json:"ttl_seconds"`
	Size       int `json:"size"`
}

type SessionsConfig struct {
	IdleTimeoutSeconds int    `json:"idle_timeout_seconds"`
	EvictSchedule      string `json:"evict_schedule"`
}

type SemesterConfig struct {
	Username string `json:"username"`
	Password string `json:"password"`
	QueryId  string `json:"query_id"`
	Years    int    `json:"years"`
}

type Config struct {
	Port     int                 `json:"port"`
	Portal   PortalConfig        `json:"portal"`
	Cache    CacheConfig         `json:"cache"`
	Sessions SessionsConfig      `json:"sessions"`
	Semester SemesterConfig      `json:"semester"`
	News     configlibsql.Struct `json:"news"`

	// SkipNewsSeed leaves an empty news table empty on startup.
	SkipNewsSeed bool `json:"skip_news_seed"`
}

var defaultConfig = Config{
	Port: 14769,
	Portal: PortalConfig{
		BaseUrl:        kuasap.DefaultBaseUrl,
		TimeoutSeconds: int(kuasap.DefaultTimeout.Seconds()),
		RateLimit:      10,
		RateBurst:      20,
		Categories:     kuasap.DefaultCategories,
	},
	Cache: CacheConfig{
		TTLSeconds: int(ap.DefaultCacheTTL.Seconds()),
		Size:       querycache.DefaultSize,
	},
	Sessions: SessionsConfig{
		IdleTimeoutSeconds: int(ap.DefaultIdleTimeout.Seconds()),
		EvictSchedule:      ap.DefaultEvictSchedule,
	},
	Semester: SemesterConfig{
		QueryId: ap.DefaultSemesterQuery,
		Years:   ap.DefaultSemesterYears,
	},
	News: configlibsql.Struct{File: ".data/news.db"},
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func (c Config) clientOptions() kuasap.ClientOptions {
	opts := kuasap.ClientOptions{
		BaseUrl:          c.Portal.BaseUrl,
		Timeout:          seconds(c.Portal.TimeoutSeconds),
		Categories:       c.Portal.Categories,
		CloudflareBypass: c.Portal.CloudflareBypass,
	}
	if c.Portal.RateLimit > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(c.Portal.RateLimit), max(c.Portal.RateBurst, 1))
	}
	return opts
}

func (c Config) apOptions() ap.Options {
	return ap.Options{
		Client:        c.clientOptions(),
		CacheTTL:      seconds(c.Cache.TTLSeconds),
		IdleTimeout:   seconds(c.Sessions.IdleTimeoutSeconds),
		EvictSchedule: c.Sessions.EvictSchedule,
		SemesterAccount: ap.Credentials{
			Username: c.Semester.Username,
			Password: c.Semester.Password,
		},
		SemesterQuery: c.Semester.QueryId,
		SemesterYears: c.Semester.Years,
	}
}

func (c Config) cacheOptions() querycache.Options {
	return querycache.Options{Size: c.Cache.Size}
}
