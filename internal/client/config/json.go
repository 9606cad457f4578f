package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/mzaverin/dropspace/internal/flagx"
	"github.com/mzaverin/dropspace/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so intervals can be given either as strings like "100ms" or
// as integer nanoseconds. Only fields present in the file overlay the runtime
// Config.
type JsonConfig struct {
	RedisAddr            *string         `json:"redis_addr"`
	RedisPassword        *string         `json:"redis_password"`
	RedisDB              *int            `json:"redis_db"`
	Collection           *string         `json:"collection"`
	SessionToken         *string         `json:"session_token"`
	TokenSecret          *string         `json:"token_secret"`
	ShareLinkBase        *string         `json:"share_link_base"`
	ProgressTickInterval *timex.Duration `json:"progress_tick_interval"`
	ProgressStep         *int            `json:"progress_step"`
	TracingEnabled       *bool           `json:"tracing_enabled"`
	OTLPEndpoint         *string         `json:"otlp_endpoint"`
}

// parseJson overlays cfg with values loaded from a JSON file. The file path
// comes from the -c/-config flags; when absent nothing is loaded. Read and
// unmarshal errors panic, matching the intended use at process startup.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.RedisAddr != nil {
		cfg.RedisAddr = *jc.RedisAddr
	}
	if jc.RedisPassword != nil {
		cfg.RedisPassword = *jc.RedisPassword
	}
	if jc.RedisDB != nil {
		cfg.RedisDB = *jc.RedisDB
	}
	if jc.Collection != nil {
		cfg.Collection = *jc.Collection
	}
	if jc.SessionToken != nil {
		cfg.SessionToken = *jc.SessionToken
	}
	if jc.TokenSecret != nil {
		cfg.TokenSecret = *jc.TokenSecret
	}
	if jc.ShareLinkBase != nil {
		cfg.ShareLinkBase = *jc.ShareLinkBase
	}
	if jc.ProgressTickInterval != nil {
		cfg.ProgressTickInterval = time.Duration(jc.ProgressTickInterval.Duration)
	}
	if jc.ProgressStep != nil {
		cfg.ProgressStep = *jc.ProgressStep
	}
	if jc.TracingEnabled != nil {
		cfg.TracingEnabled = *jc.TracingEnabled
	}
	if jc.OTLPEndpoint != nil {
		cfg.OTLPEndpoint = *jc.OTLPEndpoint
	}
}
