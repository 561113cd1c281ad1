package client

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ServerStatus is the server list status returned by Ping.
type ServerStatus struct {
	Version struct {
		Name     string `json:"name"`
		Protocol int    `json:"protocol"`
	} `json:"version"`

	Players struct {
		Max    int `json:"max"`
		Online int `json:"online"`
		Sample []struct {
			Name string `json:"name"`
			ID   string `json:"id"`
		} `json:"sample,omitempty"`
	} `json:"players"`

	// Description is a chat component: a plain string or an object.
	Description json.RawMessage `json:"description"`

	// Favicon is a data URI of a PNG image, if the server has one.
	Favicon string `json:"favicon,omitempty"`

	// Latency is the round trip of the status ping.
	Latency time.Duration `json:"-"`
}

// ParseServerStatus decodes a StatusResponse JSON document.
func ParseServerStatus(data string) (*ServerStatus, error) {
	var s ServerStatus
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("client: invalid status response: %w", err)
	}
	return &s, nil
}

// DescriptionText returns the description with formatting dropped.
func (s *ServerStatus) DescriptionText() string {
	return ChatText(s.Description)
}

type chatComponent struct {
	Text  string            `json:"text"`
	Extra []json.RawMessage `json:"extra"`
}

// ChatText flattens a JSON chat component into plain text. Input that is not
// a component is returned as is.
func ChatText(raw json.RawMessage) string {
	var b strings.Builder
	if !appendChat(&b, raw, 0) {
		return string(raw)
	}
	return b.String()
}

const maxChatDepth = 32

func appendChat(b *strings.Builder, raw json.RawMessage, depth int) bool {
	if depth > maxChatDepth {
		return false
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		b.WriteString(str)
		return true
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, item := range list {
			if !appendChat(b, item, depth+1) {
				return false
			}
		}
		return true
	}
	var comp chatComponent
	if err := json.Unmarshal(raw, &comp); err != nil {
		return false
	}
	b.WriteString(comp.Text)
	for _, item := range comp.Extra {
		if !appendChat(b, item, depth+1) {
			return false
		}
	}
	return true
}
