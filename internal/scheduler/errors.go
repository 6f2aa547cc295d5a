package scheduler

import "errors"

var (
	// ErrConfiguration 表示约束或参数不合法，在入口处或第一次使用时返回，不会重试
	ErrConfiguration = errors.New("配置错误")
	// ErrUnknownStrategy 表示算子名称不在支持的范围内
	ErrUnknownStrategy = errors.New("未知的算子")
	// ErrInvariantViolation 表示某个算子破坏了赛程的结构，属于程序缺陷
	ErrInvariantViolation = errors.New("赛程结构被破坏")
)
