package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/queue"
	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/repository"
	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/seed"
	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var randSeed int64
	var constraintsPath string
	var password string
	var opts utils.ConstraintsOptions

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 生成随机约束文件, 2: 在本地运行排班, 3: 生成管理员密码哈希, 4: 插入随机排班任务, 5: 统计排班任务)")
	flag.IntVar(&n, "n", 5, "要插入的排班任务数量")
	flag.Int64Var(&randSeed, "seed", 0, "随机数种子，为 0 时使用当前时间")
	flag.StringVar(&constraintsPath, "constraints", "constraints.json", "约束文件路径")
	flag.StringVar(&password, "password", "", "管理员密码")
	flag.IntVar(&opts.Teams, "teams", 8, "队伍数量")
	flag.IntVar(&opts.Venues, "venues", 2, "场馆数量")
	flag.IntVar(&opts.Days, "days", 3, "每周比赛日数量")
	flag.IntVar(&opts.TimeSlots, "slots", 2, "每天时段数量")
	flag.IntVar(&opts.Weeks, "weeks", 4, "周数")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if randSeed == 0 {
		randSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(randSeed))

	// 前三个操作不需要连接任何外部服务
	switch op {
	case 0:
		slog.Error("未指定操作")
		return
	case 1:
		c := utils.GenerateRandomConstraints(rng, opts)
		if err := seed.WriteConstraints(constraintsPath, c); err != nil {
			slog.Error("无法写入约束文件", slog.String("error", err.Error()))
			return
		}
		slog.Info("生成约束文件成功", slog.String("path", constraintsPath), slog.Int("teams", len(c.Teams)))
		return
	case 2:
		runLocal(constraintsPath, randSeed)
		return
	case 3:
		if password == "" {
			slog.Error("请通过 -password 指定密码")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			slog.Error("无法生成密码哈希", slog.String("error", err.Error()))
			return
		}
		// 直接输出到标准输出，方便写入环境变量
		os.Stdout.WriteString(string(hash) + "\n")
		return
	case 4, 5:
	default:
		slog.Error("指定的操作非法")
		return
	}

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	switch op {
	case 4:
		if n <= 0 {
			slog.Error("请输入合法的排班任务数量")
			return
		}

		conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
		if err != nil {
			slog.Error("无法连接到 RabbitMQ", slog.String("error", err.Error()))
			return
		}
		defer conn.Close()

		ch, err := conn.Channel()
		if err != nil {
			slog.Error("无法创建通道", slog.String("error", err.Error()))
			return
		}
		defer ch.Close()

		if err := queue.Declare(ch, queue.SchedulingRunQueue); err != nil {
			slog.Error("无法声明队列", slog.String("error", err.Error()))
			return
		}

		cnt, err := seed.SeedRandomRuns(context.Background(), repo, queue.NewPublisher(ch, cfg), rng, n, opts, cfg.Admin.Email)
		if err != nil {
			slog.Error("部分排班任务插入失败", slog.String("error", err.Error()))
		}
		slog.Info("插入排班任务成功", slog.Int("count", cnt))
	case 5:
		counts, err := repo.CountSchedulingRunsByStatus()
		if err != nil {
			slog.Error("无法统计排班任务", slog.String("error", err.Error()))
			return
		}
		for status, cnt := range counts {
			slog.Info("排班任务统计", slog.String("status", string(status)), slog.Int("count", cnt))
		}
	}
}

func runLocal(constraintsPath string, randSeed int64) {
	c, err := seed.LoadConstraints(constraintsPath)
	if err != nil {
		slog.Error("无法读取约束文件", slog.String("error", err.Error()))
		return
	}

	p := scheduler.DefaultParameters()
	rp := utils.GenerateRandomRunParameters(rand.New(rand.NewSource(randSeed)))
	rp.PopulationSize = p.PopulationSize
	rp.GenerationsSize = p.GenerationsSize

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	result, err := seed.RunLocal(ctx, *c, rp, 10)
	if err != nil {
		slog.Error("排班失败", slog.String("error", err.Error()))
		return
	}
	slog.Info("排班完成", slog.Duration("elapsed", time.Since(start)), slog.String("selection", rp.SelectionMethod),
		slog.String("crossover", rp.CrossoverMethod), slog.String("mutation", rp.MutationMethod), slog.String("survivor", rp.SurvivorStrategy))

	if err := seed.WriteScheduleTable(os.Stdout, result); err != nil {
		slog.Error("无法输出赛程", slog.String("error", err.Error()))
	}
}
