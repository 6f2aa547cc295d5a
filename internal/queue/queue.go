package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/domain"
)

const (
	SchedulingRunQueue = "scheduling_run_queue"
	EmailQueue         = "email_queue"
)

// Declare 声明持久化队列，重复声明是幂等的
func Declare(ch *amqp.Channel, names ...string) error {
	for _, name := range names {
		_, err := ch.QueueDeclare(
			name,  // 队列名称
			true,  // 是否持久化
			false, // 是否自动删除，设置为 false 可以避免没有消费者的时候自动删除队列
			false, // 是否独占
			false, // 是否不等待
			nil,   // 额外参数
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Consume 声明队列并开始消费，消息需要手动确认
func Consume(ch *amqp.Channel, name string, prefetch int) (<-chan amqp.Delivery, error) {
	if err := Declare(ch, name); err != nil {
		return nil, err
	}
	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			return nil, err
		}
	}

	return ch.Consume(
		name,  // 队列
		"",    // 消费者标识，由 RabbitMQ 自动分配
		false, // 是否自动确认
		false, // 是否独占队列
		false, // no-local，RabbitMQ 不支持
		false, // 是否不等待
		nil,   // 额外参数
	)
}

type Publisher struct {
	ch      *amqp.Channel
	timeout time.Duration
}

func NewPublisher(ch *amqp.Channel, cfg *config.Config) *Publisher {
	return &Publisher{
		ch:      ch,
		timeout: time.Duration(cfg.RabbitMQ.PublishTimeout) * time.Second,
	}
}

func (p *Publisher) PublishJSON(ctx context.Context, queue string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.ch.PublishWithContext(
		ctx,
		"",
		queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// PublishRun 把排班任务投递给 worker
func (p *Publisher) PublishRun(ctx context.Context, runID uuid.UUID) error {
	return p.PublishJSON(ctx, SchedulingRunQueue, domain.RunMessage{RunID: runID})
}

// Notify 把邮件投递给 mail worker
func (p *Publisher) Notify(ctx context.Context, msg domain.MailMessage) error {
	return p.PublishJSON(ctx, EmailQueue, msg)
}

// DecodeRunMessage 解析排班队列中的消息
func DecodeRunMessage(body []byte) (uuid.UUID, error) {
	var msg domain.RunMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return uuid.Nil, err
	}
	if msg.RunID == uuid.Nil {
		return uuid.Nil, ErrEmptyRunID
	}
	return msg.RunID, nil
}
