// Package mqtt publishes bot status and moderation audit entries to an MQTT
// broker, so external consumers (dashboards, archival jobs) can follow the
// moderation stream without touching the store.
package mqtt

import (
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/wardenlabs/warden/pkg/logger"
	"github.com/wardenlabs/warden/pkg/modlog"
)

const (
	// AuditTopic receives one message per completed moderation action.
	AuditTopic = "warden/moderation/audit"
	// StatusTopic receives periodic bot status messages.
	StatusTopic = "warden/status"
)

// MqttCommunicator handles MQTT communication
type MqttCommunicator struct {
	client   mqtt.Client
	clientID string
}

var (
	communicator *MqttCommunicator
	once         sync.Once
)

// Init initializes the global MQTT communicator
func Init(host, port, username, password, clientID string) *MqttCommunicator {
	once.Do(func() {
		communicator = NewMqttCommunicator(host, port, username, password, clientID)
	})
	return communicator
}

// Get returns the global MQTT communicator
func Get() *MqttCommunicator {
	return communicator
}

// NewMqttCommunicator creates a new MQTT communicator
func NewMqttCommunicator(host, port, username, password, clientID string) *MqttCommunicator {
	mc := &MqttCommunicator{
		clientID: clientID,
	}

	uniqueID := fmt.Sprintf("%s_%s", clientID, uuid.New().String())

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%s", host, port)).
		SetClientID(uniqueID).
		SetUsername(username).
		SetPassword(password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(c mqtt.Client) {
			logger.Success(fmt.Sprintf("Connected to MQTT broker as %s", clientID), "MQTT")
		}).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			logger.Error(fmt.Sprintf("MQTT connection lost: %v", err), "MQTT")
		})

	mc.client = mqtt.NewClient(opts)

	token := mc.client.Connect()
	if token.Wait() && token.Error() != nil {
		logger.Error(fmt.Sprintf("MQTT connection error: %v", token.Error()), "MQTT")
	}

	return mc
}

// Destroy closes the MQTT connection
func (mc *MqttCommunicator) Destroy() {
	if mc.client != nil && mc.client.IsConnected() {
		mc.client.Disconnect(250)
		logger.System("MQTT connection closed successfully.", "MQTT")
	} else {
		logger.Warn("MQTT client was not connected, nothing to close.", "MQTT")
	}
}

// IsConnected returns true if connected to the broker
func (mc *MqttCommunicator) IsConnected() bool {
	return mc.client != nil && mc.client.IsConnected()
}

// Publish sends a message to a topic
func (mc *MqttCommunicator) Publish(topic string, payload interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	token := mc.client.Publish(topic, 0, false, jsonData)
	token.Wait()
	return token.Error()
}

// PublishStatus sends a status message to the status topic
func (mc *MqttCommunicator) PublishStatus(online bool, guilds int) error {
	return mc.Publish(StatusTopic, map[string]interface{}{
		"clientId":  mc.clientID,
		"online":    online,
		"guilds":    guilds,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Subscribe subscribes to a topic with a message handler
func (mc *MqttCommunicator) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	token := mc.client.Subscribe(topic, 0, func(c mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	token.Wait()
	return token.Error()
}

// Unsubscribe unsubscribes from a topic
func (mc *MqttCommunicator) Unsubscribe(topic string) error {
	token := mc.client.Unsubscribe(topic)
	token.Wait()
	return token.Error()
}

// auditMessage is the wire form of one moderation audit entry.
type auditMessage struct {
	ID           string `json:"id"`
	GuildID      string `json:"guildId"`
	Action       string `json:"action"`
	TargetID     string `json:"targetId"`
	TargetTag    string `json:"targetTag"`
	ModeratorID  string `json:"moderatorId"`
	ModeratorTag string `json:"moderatorTag"`
	Reason       string `json:"reason,omitempty"`
	DurationSecs int64  `json:"durationSeconds,omitempty"`
	CaseID       int64  `json:"caseId,omitempty"`
	Timestamp    string `json:"timestamp"`
}

// AuditEmitter publishes moderation audit entries to the audit topic. It
// satisfies modlog.Emitter; publish failures are logged and never surfaced
// to the acting moderator.
type AuditEmitter struct {
	Communicator *MqttCommunicator
}

func (a *AuditEmitter) Emit(e modlog.Entry) {
	if a.Communicator == nil || !a.Communicator.IsConnected() {
		return
	}

	msg := auditMessage{
		ID:           e.ID,
		GuildID:      e.GuildID,
		Action:       string(e.Action),
		TargetID:     e.TargetID,
		TargetTag:    e.TargetTag,
		ModeratorID:  e.ModeratorID,
		ModeratorTag: e.ModeratorTag,
		Reason:       e.Reason,
		DurationSecs: int64(e.Duration.Seconds()),
		CaseID:       e.CaseID,
		Timestamp:    e.CreatedAt.UTC().Format(time.RFC3339),
	}

	if err := a.Communicator.Publish(AuditTopic, msg); err != nil {
		logger.Warn(fmt.Sprintf("Failed to publish audit entry %s: %v", e.ID, err), "MQTT")
	}
}

// topicMatch checks if a received topic matches a pattern (with wildcards)
// '+' matches exactly one topic level
// '#' matches zero or more topic levels and must be the last character
func topicMatch(pattern, topic string) bool {
	patternParts := strings.Split(pattern, "/")
	topicParts := strings.Split(topic, "/")

	patternLen := len(patternParts)
	topicLen := len(topicParts)

	for i := 0; i < patternLen; i++ {
		// '#' wildcard matches zero or more remaining levels
		if patternParts[i] == "#" {
			return true
		}

		// If we've run out of topic parts but pattern still has parts (not #)
		if i >= topicLen {
			return false
		}

		// '+' matches exactly one topic level
		if patternParts[i] == "+" {
			continue
		}

		// Exact match required
		if patternParts[i] != topicParts[i] {
			return false
		}
	}

	// Pattern exhausted, topic must also be exhausted for a match
	return patternLen == topicLen
}
