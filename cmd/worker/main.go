package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/progress"
	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/queue"
	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/repository"
	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/worker"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 加载配置
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法加载配置文件", "error", err)
		return
	}

	/**********************************************
	 * 连接数据库
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer pingCancel()
	if err := dbpool.PingContext(pingCtx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	/**********************************************
	 * 连接 redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})
	defer rdb.Close()

	redisCtx, redisCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Redis.ConnectTimeout)*time.Second)
	defer redisCancel()
	if err := rdb.Ping(redisCtx).Err(); err != nil {
		logger.Error("无法连接到 redis", "error", err)
		return
	}

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", "error", err)
		return
	}
	defer conn.Close()

	// 消费和投递使用不同的通道
	consumeCh, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", "error", err)
		return
	}
	defer consumeCh.Close()

	publishCh, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", "error", err)
		return
	}
	defer publishCh.Close()

	if err := queue.Declare(publishCh, queue.EmailQueue); err != nil {
		logger.Error("无法声明队列", "error", err)
		return
	}

	msgs, err := queue.Consume(consumeCh, queue.SchedulingRunQueue, cfg.RabbitMQ.Prefetch)
	if err != nil {
		logger.Error("无法消费消息", "error", err)
		return
	}

	w := worker.New(repo, progress.NewTracker(rdb, cfg), queue.NewPublisher(publishCh, cfg), cfg)

	/**********************************************
	 * 处理排班任务
	 **********************************************/
	// 收到 CTRL+C 后取消正在运行的排班，任务会被放回队列
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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
					stop()
					return
				}
				handleDelivery(ctx, w, msg)
			}
		}
	}()

	logger.Info("等待排班任务...（按 CTRL+C 退出）")
	<-ctx.Done()

	// 优雅退出
	logger.Info("正在关闭 worker...")
	wg.Wait()
	logger.Info("worker 已成功关闭")
}

func handleDelivery(ctx context.Context, w *worker.Worker, msg amqp.Delivery) {
	runID, err := queue.DecodeRunMessage(msg.Body)
	if err != nil {
		slog.Error("排班消息反序列化失败", "error", err, "body", string(msg.Body))
		_ = msg.Nack(false, false)
		return
	}

	slog.Info("开始处理排班任务", "run_id", runID)
	start := time.Now()

	err = w.Process(ctx, runID)
	switch {
	case err == nil:
		slog.Info("排班任务处理完成", "run_id", runID, "elapsed", time.Since(start))
		_ = msg.Ack(false)
	case errors.Is(err, context.Canceled):
		// worker 正在退出，放回队列由下一个 worker 继续处理
		slog.Warn("排班任务被中断，重新入队", "run_id", runID)
		_ = msg.Nack(false, true)
	case errors.Is(err, worker.ErrRunConflict):
		// 已经被其他 worker 接手
		slog.Warn("排班任务状态冲突，跳过", "run_id", runID, "error", err)
		_ = msg.Ack(false)
	default:
		slog.Error("无法处理排班任务", "run_id", runID, "error", err)
		_ = msg.Nack(false, false)
	}
}
