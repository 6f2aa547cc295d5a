package mailer

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"path/filepath"

	"github.com/wneessen/go-mail"

	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/domain"
)

var ErrUnknownMailType = errors.New("不支持的邮件类型")

type mailTemplate struct {
	file    string
	subject string
}

// 每种邮件类型对应的模板文件和标题
var mailTemplates = map[string]mailTemplate{
	domain.MailTypeRunFinished: {
		file:    "run_finished_email.html",
		subject: "赛程编排系统 - 排班任务已结束",
	},
}

type Builder struct {
	from      string
	templates map[string]*template.Template
}

// NewBuilder 从 dir 中解析所有邮件模板，from 为发件人
func NewBuilder(from string, dir string) (*Builder, error) {
	templates := make(map[string]*template.Template, len(mailTemplates))
	for mailType, mt := range mailTemplates {
		tmpl, err := template.ParseFiles(filepath.Join(dir, mt.file))
		if err != nil {
			return nil, fmt.Errorf("无法解析邮件模板 %s: %w", mt.file, err)
		}
		templates[mailType] = tmpl
	}

	return &Builder{from: from, templates: templates}, nil
}

// Build 根据队列中的消息构建邮件
func (b *Builder) Build(m domain.MailMessage) (*mail.Msg, error) {
	mt, ok := mailTemplates[m.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMailType, m.Type)
	}

	data, err := decodeData(m)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(b.from); err != nil {
		return nil, fmt.Errorf("无法设置邮件发件人: %w", err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("无法设置邮件收件人: %w", err)
	}
	if err := msg.SetBodyHTMLTemplate(b.templates[m.Type], data); err != nil {
		return nil, fmt.Errorf("无法设置邮件正文: %w", err)
	}
	msg.Subject(mt.subject)

	return msg, nil
}

// 消息中的 Data 反序列化后是 map，需要再转换成具体的结构体
func decodeData(m domain.MailMessage) (any, error) {
	raw, err := json.Marshal(m.Data)
	if err != nil {
		return nil, err
	}

	switch m.Type {
	case domain.MailTypeRunFinished:
		var data domain.RunFinishedMailData
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("无法解析邮件数据: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMailType, m.Type)
	}
}
