package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeChannelsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "channels.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write channels file: %v", err)
	}
	return path
}

func TestLoadChannels(t *testing.T) {
	path := writeChannelsFile(t, `
channels:
  - name: tech
    channel_id: -1001111
    chat_id: -1002222
    description: tech news
  - name: art
    channel_id: -1003333
    chat_id: -1004444
`)

	registry, err := LoadChannels(path)
	if err != nil {
		t.Fatalf("LoadChannels: %v", err)
	}

	all := registry.All()
	if len(all) != 2 {
		t.Fatalf("channels = %d, want 2", len(all))
	}
	if all[0].Name != "tech" || all[1].Name != "art" {
		t.Fatalf("file order not preserved: %v", all)
	}

	channel, ok := registry.ByChannelID(-1001111)
	if !ok {
		t.Fatal("ByChannelID miss for configured channel")
	}
	if channel.ChatID != -1002222 || channel.Description != "tech news" {
		t.Fatalf("unexpected channel: %+v", channel)
	}

	if _, ok := registry.ByChannelID(-42); ok {
		t.Fatal("ByChannelID hit for unknown channel")
	}
	if _, ok := registry.ByName("art"); !ok {
		t.Fatal("ByName miss for configured channel")
	}
}

func TestLoadChannelsMissingFile(t *testing.T) {
	if _, err := LoadChannels(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestLoadChannelsEmptyList(t *testing.T) {
	path := writeChannelsFile(t, "channels: []\n")
	if _, err := LoadChannels(path); err == nil {
		t.Fatal("expected an error for an empty channel list")
	}
}
