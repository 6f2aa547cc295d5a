package queue

import "errors"

var ErrEmptyRunID = errors.New("消息中缺少排班任务 ID")
