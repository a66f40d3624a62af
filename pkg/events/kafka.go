package events

import (
	"context"
	"fmt"
	"strings"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"

	"github.com/j-neeley/DawgPound/config"
)

const flushTimeoutMs = 5000

// KafkaPublisher 基于 confluent-kafka-go 的异步事件发布
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
	logger   *zap.Logger
	done     chan struct{}
}

// NewKafkaPublisher 创建生产者并启动投递报告处理协程
func NewKafkaPublisher(cfg config.KafkaConfig, logger *zap.Logger) (*KafkaPublisher, error) {
	configMap := &kafka.ConfigMap{
		"bootstrap.servers": strings.Join(cfg.Brokers, ","),
		"security.protocol": cfg.Protocol,
		"acks":              "all",
	}
	if cfg.ClientID != "" {
		_ = configMap.SetKey("client.id", cfg.ClientID)
	}

	p, err := kafka.NewProducer(configMap)
	if err != nil {
		return nil, fmt.Errorf("创建 Kafka 生产者失败: %w", err)
	}

	kp := &KafkaPublisher{
		producer: p,
		topic:    cfg.Topic,
		logger:   logger,
		done:     make(chan struct{}),
	}
	go kp.handleDeliveryReports()

	logger.Info("Kafka 生产者已创建", zap.Strings("brokers", cfg.Brokers), zap.String("topic", cfg.Topic))
	return kp, nil
}

// Publish 入队事件，投递结果由后台协程记录
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := e.Encode()
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(e.Key),
		Value:          payload,
		Timestamp:      e.OccurredAt,
		Headers:        []kafka.Header{{Key: "event_type", Value: []byte(e.Type)}},
	}

	if err := p.producer.Produce(msg, nil); err != nil {
		return fmt.Errorf("事件入队失败 (topic %s): %w", p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) handleDeliveryReports() {
	defer close(p.done)
	for ev := range p.producer.Events() {
		switch e := ev.(type) {
		case *kafka.Message:
			if e.TopicPartition.Error != nil {
				p.logger.Warn("事件投递失败",
					zap.String("key", string(e.Key)),
					zap.Error(e.TopicPartition.Error),
				)
			}
		case kafka.Error:
			p.logger.Warn("Kafka 错误", zap.String("code", e.Code().String()), zap.Error(e))
		}
	}
}

// Close 刷新未投递的消息并关闭生产者
func (p *KafkaPublisher) Close() {
	if remaining := p.producer.Flush(flushTimeoutMs); remaining > 0 {
		p.logger.Warn("关闭时仍有未投递事件", zap.Int("remaining", remaining))
	}
	p.producer.Close()
	<-p.done
}
