package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/aj9599/rental-billing/database"
	"github.com/aj9599/rental-billing/models"
)

type MQTTConfig struct {
	BrokerURL string
	Topic     string
	Username  string
	Password  string
}

// MQTTCollector listens for smart meter counters and stages them until an
// operator pushes them to the backend as the month's readings.
type MQTTCollector struct {
	db        *sql.DB
	cfg       MQTTConfig
	client    mqtt.Client
	mu        sync.RWMutex
	isRunning bool
	received  int
	rejected  int
	lastSeen  map[int64]time.Time
	stopChan  chan struct{}
}

// MeterMessage is the payload published by the meters. The room may also be
// taken from the topic, e.g. rental/meters/12/reading.
type MeterMessage struct {
	RoomID   *int64          `json:"room_id"`
	Reading  *float64        `json:"reading"`
	Value    *float64        `json:"value"`
	TotalKWh *float64        `json:"total_kwh"`
	ReadAt   json.RawMessage `json:"read_at"`
}

var ErrInvalidMeterMessage = errors.New("invalid meter message")

func NewMQTTCollector(db *sql.DB, cfg MQTTConfig) *MQTTCollector {
	return &MQTTCollector{
		db:       db,
		cfg:      cfg,
		lastSeen: make(map[int64]time.Time),
		stopChan: make(chan struct{}),
	}
}

func (mc *MQTTCollector) Start() {
	if mc.cfg.BrokerURL == "" {
		log.Println("[MQTT] No MQTT broker configured, meter intake disabled")
		return
	}

	mc.mu.Lock()
	if mc.isRunning {
		mc.mu.Unlock()
		return
	}
	mc.isRunning = true
	mc.mu.Unlock()

	log.Println("=== MQTT Collector Starting ===")

	opts := mqtt.NewClientOptions()
	opts.AddBroker(mc.cfg.BrokerURL)
	opts.SetClientID(fmt.Sprintf("rental-billing-%d", time.Now().Unix()))
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetWriteTimeout(10 * time.Second)
	opts.SetOnConnectHandler(mc.onConnect)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("[MQTT] WARNING: Connection lost to %s: %v - will reconnect", mc.cfg.BrokerURL, err)
	})
	if mc.cfg.Username != "" {
		opts.SetUsername(mc.cfg.Username)
		opts.SetPassword(mc.cfg.Password)
	}

	client := mqtt.NewClient(opts)
	mc.mu.Lock()
	mc.client = client
	mc.mu.Unlock()

	log.Printf("[MQTT] Connecting to broker at %s...", mc.cfg.BrokerURL)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Printf("[MQTT] ERROR: Failed to connect: %v", token.Error())
	}

	go mc.monitorConnection()
}

func (mc *MQTTCollector) Stop() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if !mc.isRunning {
		return
	}
	mc.isRunning = false
	if mc.client != nil && mc.client.IsConnected() {
		mc.client.Disconnect(250)
	}
	close(mc.stopChan)
	log.Println("[MQTT] Collector stopped")
}

func (mc *MQTTCollector) onConnect(client mqtt.Client) {
	log.Printf("[MQTT] Connected, subscribing to %s", mc.cfg.Topic)
	token := client.Subscribe(mc.cfg.Topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		if err := mc.HandleMessage(context.Background(), msg.Topic(), msg.Payload()); err != nil {
			log.Printf("[MQTT] WARNING: Dropped message on %s: %v", msg.Topic(), err)
		}
	})
	if token.Wait() && token.Error() != nil {
		log.Printf("[MQTT] ERROR: Subscribe to %s failed: %v", mc.cfg.Topic, token.Error())
	}
}

func (mc *MQTTCollector) monitorConnection() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-mc.stopChan:
			return
		case <-ticker.C:
			mc.mu.RLock()
			client := mc.client
			mc.mu.RUnlock()
			if client != nil && !client.IsConnected() {
				log.Printf("[MQTT] Client disconnected from %s, attempting to reconnect...", mc.cfg.BrokerURL)
				if token := client.Connect(); token.Wait() && token.Error() != nil {
					log.Printf("[MQTT] Failed to reconnect: %v", token.Error())
				}
			}
		}
	}
}

// HandleMessage parses one publication and stages it.
func (mc *MQTTCollector) HandleMessage(ctx context.Context, topic string, payload []byte) error {
	reading, err := ParseMeterMessage(topic, payload, time.Now())
	if err != nil {
		mc.mu.Lock()
		mc.rejected++
		mc.mu.Unlock()
		return err
	}

	if err := database.StageReading(ctx, mc.db, reading); err != nil {
		return fmt.Errorf("stage reading for room %d: %w", reading.RoomID, err)
	}

	mc.mu.Lock()
	mc.received++
	mc.lastSeen[reading.RoomID] = reading.ReceivedAt
	mc.mu.Unlock()
	return nil
}

// ParseMeterMessage accepts {room_id, reading|value|total_kwh, read_at}. The
// counter is rounded to whole kWh; read_at may be RFC 3339 or Unix millis.
func ParseMeterMessage(topic string, payload []byte, now time.Time) (models.StagedMeterReading, error) {
	var msg MeterMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return models.StagedMeterReading{}, fmt.Errorf("%w: %v", ErrInvalidMeterMessage, err)
	}

	var roomID int64
	if msg.RoomID != nil {
		roomID = *msg.RoomID
	} else {
		roomID = roomFromTopic(topic)
	}
	if roomID <= 0 {
		return models.StagedMeterReading{}, fmt.Errorf("%w: no room id", ErrInvalidMeterMessage)
	}

	var value *float64
	for _, v := range []*float64{msg.Reading, msg.Value, msg.TotalKWh} {
		if v != nil {
			value = v
			break
		}
	}
	if value == nil || *value < 0 || math.IsNaN(*value) {
		return models.StagedMeterReading{}, fmt.Errorf("%w: no counter value", ErrInvalidMeterMessage)
	}

	readAt, err := parseReadAt(msg.ReadAt, now)
	if err != nil {
		return models.StagedMeterReading{}, err
	}

	return models.StagedMeterReading{
		RoomID:     roomID,
		Value:      int64(math.Round(*value)),
		Source:     "mqtt:" + topic,
		ReadAt:     readAt,
		ReceivedAt: now,
	}, nil
}

func roomFromTopic(topic string) int64 {
	for _, part := range strings.Split(topic, "/") {
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			return id
		}
	}
	return 0
}

func parseReadAt(raw json.RawMessage, now time.Time) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return now, nil
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(ms), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: read_at %q", ErrInvalidMeterMessage, s)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: read_at", ErrInvalidMeterMessage)
}

func (mc *MQTTCollector) GetConnectionStatus() map[string]interface{} {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	connected := mc.client != nil && mc.client.IsConnected()
	recent := 0
	for _, seen := range mc.lastSeen {
		if time.Since(seen) < time.Hour {
			recent++
		}
	}

	return map[string]interface{}{
		"mqtt_enabled":          mc.cfg.BrokerURL != "",
		"mqtt_broker_connected": connected,
		"mqtt_topic":            mc.cfg.Topic,
		"mqtt_received":         mc.received,
		"mqtt_rejected":         mc.rejected,
		"mqtt_recent_rooms":     recent,
	}
}
