// Package mqtt 向消息总线推送奖励事件
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TopicRewardCredited 奖励入账事件主题，不含前缀
const TopicRewardCredited = "rewards/credited"

// disconnectQuiesce 断开前等待在途消息的毫秒数
const disconnectQuiesce = 250

// ErrNotConnected 尚未连接或连接已断开
var ErrNotConnected = errors.New("mqtt 未连接")

// Config 连接参数，时间类字段单位为秒
type Config struct {
	Broker         string
	ClientIDPrefix string
	Username       string
	Password       string
	KeepAlive      int
	AutoReconnect  bool
	ConnectTimeout int
	QoS            byte
	Retained       bool
	TopicPrefix    string
}

// Client 只发布不订阅的 MQTT 客户端
type Client struct {
	config *Config
	client mqtt.Client
	log    *zap.Logger
}

// NewClient 创建客户端，需调用 Connect 后才能发布
func NewClient(config *Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{config: config, log: log.Named("mqtt")}
}

// Topic 拼接主题前缀
func (c *Client) Topic(name string) string {
	return c.config.TopicPrefix + strings.TrimPrefix(name, "/")
}

func (c *Client) options() *mqtt.ClientOptions {
	cfg := c.config
	return mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientIDPrefix + uuid.NewString()[:8]).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetKeepAlive(time.Duration(cfg.KeepAlive) * time.Second).
		SetConnectTimeout(time.Duration(cfg.ConnectTimeout) * time.Second).
		SetAutoReconnect(cfg.AutoReconnect).
		SetOnConnectHandler(func(mqtt.Client) {
			c.log.Info("已连接 MQTT Broker", zap.String("broker", cfg.Broker))
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			c.log.Warn("MQTT 连接断开", zap.Error(err))
		}).
		SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
			c.log.Info("正在重连 MQTT Broker")
		})
}

// Connect 连接 Broker，ctx 取消时放弃等待
func (c *Client) Connect(ctx context.Context) error {
	c.client = mqtt.NewClient(c.options())
	return wait(ctx, c.client.Connect(), "连接")
}

// Disconnect 断开连接，未连接时无操作
func (c *Client) Disconnect() {
	if !c.IsConnected() {
		return
	}
	c.client.Disconnect(disconnectQuiesce)
	c.log.Info("已断开 MQTT 连接")
}

func (c *Client) IsConnected() bool {
	return c.client != nil && c.client.IsConnected()
}

// Publish 使用后台 context 发布
func (c *Client) Publish(topic string, payload interface{}) error {
	return c.PublishWithContext(context.Background(), topic, payload)
}

// PublishWithContext 发布消息并等待 Broker 确认；payload 为 []byte 或 string 时原样发送，其余编码为 JSON
func (c *Client) PublishWithContext(ctx context.Context, topic string, payload interface{}) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	data, err := encode(payload)
	if err != nil {
		return err
	}
	return wait(ctx, c.client.Publish(topic, c.config.QoS, c.config.Retained, data), "发布")
}

func wait(ctx context.Context, token mqtt.Token, op string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-token.Done():
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt %s失败: %w", op, err)
	}
	return nil
}

func encode(payload interface{}) ([]byte, error) {
	switch v := payload.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("mqtt 消息序列化失败: %w", err)
	}
	return data, nil
}
