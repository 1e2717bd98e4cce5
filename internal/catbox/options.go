package catbox

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/horgh/config"
	"github.com/pkg/errors"
)

// Options is the server's immutable per-run configuration (C1). It is built
// once at startup and never mutated afterward; every other component reads
// from it but none may write to it.
type Options struct {
	Dialect Dialect `validate:"-"`

	ServerName string `validate:"required"`
	ServerInfo string `validate:"required"`
	ServerPass string // optional
	Version    string `validate:"required"`
	CreatedAt  string `validate:"required"`

	ListenPorts []string `validate:"required,min=1,dive,required"`

	MaxLineLength         int `validate:"required,min=64"`
	MaxNickLength         int `validate:"required,min=1"`
	MaxChannelsPerUser    int `validate:"required,min=1"`
	MaxChannelNameLength  int `validate:"required,min=2"`
	WhowasHistorySize     int `validate:"required,min=1"`

	MOTDLines []string

	WakeupTime time.Duration `validate:"required"`
	PingTime   time.Duration `validate:"required"`
	DeadTime   time.Duration `validate:"required"`

	// SID is the TS6 server ID, overridable with -sid. It is carried through
	// config/flags but otherwise inert: nothing reads it, since server-to-server
	// linking is a reserved extension point (spec.md §9 Open Questions) with no
	// bursting protocol implemented.
	SID string

	// Oper name -> password.
	Opers map[string]string
}

const (
	defaultMaxLineLength        = 512
	defaultMaxChannelsPerUser   = 10
	defaultMaxChannelNameLength = 50
	defaultWhowasHistorySize    = 100
)

var optionsValidator = validator.New()

// LoadOptions reads the flat key=value configuration file the teacher's
// format uses (via horgh/config) and the separate opers file it references,
// then validates and returns an immutable Options.
func LoadOptions(path string) (*Options, error) {
	configMap, err := config.ReadStringMap(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read config")
	}

	required := []string{
		"dialect",
		"listen-host",
		"listen-port",
		"server-name",
		"server-info",
		"version",
		"created-date",
		"motd",
		"max-nick-length",
		"wakeup-time",
		"ping-time",
		"dead-time",
		"opers-config",
	}
	for _, key := range required {
		v, exists := configMap[key]
		if !exists || len(v) == 0 {
			return nil, errors.Errorf("missing or blank required key: %s", key)
		}
	}

	dialect, err := ParseDialect(configMap["dialect"])
	if err != nil {
		return nil, errors.Wrap(err, "invalid dialect")
	}

	opts := &Options{
		Dialect:              dialect,
		ServerName:           configMap["server-name"],
		ServerInfo:           configMap["server-info"],
		ServerPass:           configMap["server-pass"],
		Version:              configMap["version"],
		CreatedAt:            configMap["created-date"],
		SID:                  configMap["ts6-sid"],
		ListenPorts:          []string{configMap["listen-host"] + ":" + configMap["listen-port"]},
		MaxLineLength:        defaultMaxLineLength,
		MaxChannelsPerUser:   defaultMaxChannelsPerUser,
		MaxChannelNameLength: defaultMaxChannelNameLength,
		WhowasHistorySize:    defaultWhowasHistorySize,
	}

	if v, ok := configMap["max-line-length"]; ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Wrap(err, "invalid max-line-length")
		}
		opts.MaxLineLength = n
	}

	if v, ok := configMap["max-channels-per-user"]; ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Wrap(err, "invalid max-channels-per-user")
		}
		opts.MaxChannelsPerUser = n
	}

	if v, ok := configMap["max-channel-name-length"]; ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Wrap(err, "invalid max-channel-name-length")
		}
		opts.MaxChannelNameLength = n
	}

	nickLen, err := strconv.Atoi(configMap["max-nick-length"])
	if err != nil {
		return nil, errors.Wrap(err, "max-nick-length is not valid")
	}
	opts.MaxNickLength = nickLen

	opts.MOTDLines = strings.Split(configMap["motd"], "\\n")

	opts.WakeupTime, err = time.ParseDuration(configMap["wakeup-time"])
	if err != nil {
		return nil, errors.Wrap(err, "wakeup-time is invalid")
	}

	opts.PingTime, err = time.ParseDuration(configMap["ping-time"])
	if err != nil {
		return nil, errors.Wrap(err, "ping-time is invalid")
	}

	opts.DeadTime, err = time.ParseDuration(configMap["dead-time"])
	if err != nil {
		return nil, errors.Wrap(err, "dead-time is invalid")
	}

	opers, err := config.ReadStringMap(configMap["opers-config"])
	if err != nil {
		return nil, errors.Wrap(err, "unable to load opers config")
	}
	opts.Opers = opers

	if err := optionsValidator.Struct(opts); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return opts, nil
}
