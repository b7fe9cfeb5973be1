package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/DoyleJ11/traitors-backend/internal/engine"
)

// Config holds the server configuration.
type Config struct {
	Addr           string `mapstructure:"ADDR"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"` // comma separated websocket origin patterns

	RoleAssignmentSeconds  int `mapstructure:"ROLE_ASSIGNMENT_SECONDS"`
	TraitorMeetingSeconds  int `mapstructure:"TRAITOR_MEETING_SECONDS"`
	GroupDiscussionSeconds int `mapstructure:"GROUP_DISCUSSION_SECONDS"`
	VotingSeconds          int `mapstructure:"VOTING_SECONDS"`
	RecruitmentSeconds     int `mapstructure:"RECRUITMENT_SECONDS"`
	TeardownGraceSeconds   int `mapstructure:"TEARDOWN_GRACE_SECONDS"`

	ChatRatePerSecond float64 `mapstructure:"CHAT_RATE_PER_SECOND"`
	ChatBurst         int     `mapstructure:"CHAT_BURST"`
}

var defaults = map[string]any{
	"ADDR":                     ":8080",
	"LOG_LEVEL":                "info",
	"DATABASE_URL":             "",
	"ALLOWED_ORIGINS":          "",
	"ROLE_ASSIGNMENT_SECONDS":  120,
	"TRAITOR_MEETING_SECONDS":  180,
	"GROUP_DISCUSSION_SECONDS": 300,
	"VOTING_SECONDS":           180,
	"RECRUITMENT_SECONDS":      60,
	"TEARDOWN_GRACE_SECONDS":   30,
	"CHAT_RATE_PER_SECOND":     1.0,
	"CHAT_BURST":               5,
}

// Load reads an optional .env file, then the environment. Environment
// variables win over .env entries.
func Load(envFiles ...string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	for name, secs := range map[string]int{
		"ROLE_ASSIGNMENT_SECONDS":  c.RoleAssignmentSeconds,
		"TRAITOR_MEETING_SECONDS":  c.TraitorMeetingSeconds,
		"GROUP_DISCUSSION_SECONDS": c.GroupDiscussionSeconds,
		"VOTING_SECONDS":           c.VotingSeconds,
		"RECRUITMENT_SECONDS":      c.RecruitmentSeconds,
		"TEARDOWN_GRACE_SECONDS":   c.TeardownGraceSeconds,
	} {
		if secs < 0 {
			return fmt.Errorf("config: %s must not be negative", name)
		}
	}
	if c.ChatRatePerSecond <= 0 || c.ChatBurst <= 0 {
		return fmt.Errorf("config: chat rate and burst must be positive")
	}
	return nil
}

// Rules returns the phase durations for a session of playerCount players.
func (c *Config) Rules(playerCount int) engine.Rules {
	sec := func(n int) time.Duration { return time.Duration(n) * time.Second }
	return engine.Rules{
		PlayerCount:     playerCount,
		RoleAssignment:  sec(c.RoleAssignmentSeconds),
		TraitorMeeting:  sec(c.TraitorMeetingSeconds),
		GroupDiscussion: sec(c.GroupDiscussionSeconds),
		Voting:          sec(c.VotingSeconds),
		Recruitment:     sec(c.RecruitmentSeconds),
	}
}

func (c *Config) TeardownGrace() time.Duration {
	return time.Duration(c.TeardownGraceSeconds) * time.Second
}

func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
