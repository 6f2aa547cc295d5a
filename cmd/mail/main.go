package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wneessen/go-mail"

	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/mailer"
	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/queue"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 读取配置文件
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 解析邮件模板
	 **********************************************/
	builder, err := mailer.NewBuilder(cfg.Email.SMTP.Username, "./templates")
	if err != nil {
		logger.Error("无法解析邮件模板", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 创建邮件客户端
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		logger.Error("无法创建邮件客户端", slog.String("error", err.Error()))
		return
	}
	defer client.Close()

	// 验证邮件客户端是否连接成功
	clientDialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancel()
	if err := client.DialWithContext(clientDialCtx); err != nil {
		logger.Error("无法连接到邮件服务器", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	// 创建通道
	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	// 消费消息
	msgs, err := queue.Consume(ch, queue.EmailQueue, cfg.RabbitMQ.Prefetch)
	if err != nil {
		logger.Error("无法消费消息", slog.String("error", err.Error()))
		return
	}

	// 监听 CTRL+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// 用于关闭 goroutine 的上下文
	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Error("消息通道已关闭")
					return
				}
				handleDelivery(client, builder, msg)
			}
		}
	}()

	// 等待 CTRL+C 信号
	logger.Info("等待消息...（按 CTRL+C 退出）")
	<-sigChan

	// 优雅退出
	slog.Info("正在关闭 mail worker...")
	cancel()
	wg.Wait() // 等待所有 goroutine 完成
	slog.Info("mail worker 已成功关闭")
}

func handleDelivery(client *mail.Client, builder *mailer.Builder, msg amqp.Delivery) {
	slog.Info("收到消息", slog.String("message", string(msg.Body)))

	// 对邮件信息反序列化
	mailMessage := domain.MailMessage{}
	if err := json.Unmarshal(msg.Body, &mailMessage); err != nil {
		slog.Error("邮件信息反序列化失败", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}

	m, err := builder.Build(mailMessage)
	if err != nil {
		slog.Error("无法构建邮件", slog.String("type", mailMessage.Type), slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}

	// 发送邮件
	if err := client.DialAndSend(m); err != nil {
		slog.Error("邮件发送失败", slog.String("error", err.Error()))
		_ = msg.Nack(false, true) // 将消息重新入队
		return
	}

	// 确认消息
	_ = msg.Ack(false)
}
