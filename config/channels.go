package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Channel is one monitored source channel together with its destination
// discussion chat. The table is static for the lifetime of the process.
type Channel struct {
	Name        string `mapstructure:"name"`
	ChannelID   int64  `mapstructure:"channel_id"`
	ChatID      int64  `mapstructure:"chat_id"`
	Description string `mapstructure:"description"`
}

// ChannelRegistry resolves monitored channels by platform id or by name.
type ChannelRegistry struct {
	ordered     []Channel
	byChannelID map[int64]Channel
	byName      map[string]Channel
}

func NewChannelRegistry(channels []Channel) *ChannelRegistry {
	reg := &ChannelRegistry{
		ordered:     append([]Channel(nil), channels...),
		byChannelID: make(map[int64]Channel, len(channels)),
		byName:      make(map[string]Channel, len(channels)),
	}
	for _, ch := range channels {
		reg.byChannelID[ch.ChannelID] = ch
		reg.byName[ch.Name] = ch
	}
	return reg
}

// LoadChannels reads the channel mapping file (YAML, `channels:` list).
func LoadChannels(path string) (*ChannelRegistry, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read channels file %s: %w", path, err)
	}

	var channels []Channel
	if err := v.UnmarshalKey("channels", &channels); err != nil {
		return nil, fmt.Errorf("failed to parse channels file %s: %w", path, err)
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("channels file %s contains no channels", path)
	}
	return NewChannelRegistry(channels), nil
}

func (r *ChannelRegistry) ByChannelID(channelID int64) (Channel, bool) {
	ch, ok := r.byChannelID[channelID]
	return ch, ok
}

func (r *ChannelRegistry) ByName(name string) (Channel, bool) {
	ch, ok := r.byName[name]
	return ch, ok
}

// All returns channels in file order.
func (r *ChannelRegistry) All() []Channel {
	return append([]Channel(nil), r.ordered...)
}
