package email

import (
	"context"
	"fmt"
	"time"

	"taskManager/internal/config"
	"taskManager/internal/logger"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Sender - контракт рассылки уведомлений. Письмо о приглашении -
// единственное, чей сбой доводится до вызывающего; остальные отправки
// best-effort на стороне сервисов.
type Sender interface {
	SendInvitation(ctx context.Context, to, groupName, ownerName string) error
	SendTaskAssignment(ctx context.Context, to, taskTitle, groupName, assignerName string) error
	SendDueDateReminder(ctx context.Context, to, taskTitle string, due time.Time) error
}

type SMTPSender struct {
	client *mail.Client
	from   string
}

func NewSMTPSender(cfg config.SMTPConfig) (*SMTPSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("создание SMTP-клиента: %w", err)
	}

	return &SMTPSender{
		client: client,
		from:   cfg.From,
	}, nil
}

func (s *SMTPSender) send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("адрес отправителя: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("адрес получателя: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("отправка письма: %w", err)
	}

	logger.Info("Email: Письмо отправлено")
	return nil
}

func (s *SMTPSender) SendInvitation(ctx context.Context, to, groupName, ownerName string) error {
	subject := "Invitation to join Group: " + groupName
	body := fmt.Sprintf("Hello,\n\n%s has invited you to join their task management group: %s."+
		"\n\nPlease log in to your account to accept the invitation."+
		"\n\nBest regards,\nTask Manager Team", ownerName, groupName)
	return s.send(ctx, to, subject, body)
}

func (s *SMTPSender) SendTaskAssignment(ctx context.Context, to, taskTitle, groupName, assignerName string) error {
	subject := "New Task Assigned: " + taskTitle
	body := fmt.Sprintf("Hello,\n\n%s has assigned a new task to you in group '%s':\n\n"+
		"Task: %s\n\nPlease log in to your dashboard to view the details."+
		"\n\nBest regards,\nTask Manager Team", assignerName, groupName, taskTitle)
	return s.send(ctx, to, subject, body)
}

func (s *SMTPSender) SendDueDateReminder(ctx context.Context, to, taskTitle string, due time.Time) error {
	subject := "Task Due Tomorrow: " + taskTitle
	body := fmt.Sprintf("Hello,\n\nThis is a reminder that your task '%s' is due on %s."+
		"\n\nPlease log in to your dashboard to view the details."+
		"\n\nBest regards,\nTask Manager Team", taskTitle, due.Format("2006-01-02"))
	return s.send(ctx, to, subject, body)
}

// LogSender пишет письма в лог вместо отправки; для локальной
// разработки без SMTP
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) SendInvitation(ctx context.Context, to, groupName, ownerName string) error {
	logger.Info("Email: [dev] приглашение в группу",
		zap.String("to", to),
		zap.String("group", groupName))
	return nil
}

func (s *LogSender) SendTaskAssignment(ctx context.Context, to, taskTitle, groupName, assignerName string) error {
	logger.Info("Email: [dev] назначение задачи",
		zap.String("to", to),
		zap.String("task", taskTitle))
	return nil
}

func (s *LogSender) SendDueDateReminder(ctx context.Context, to, taskTitle string, due time.Time) error {
	logger.Info("Email: [dev] напоминание о сроке",
		zap.String("to", to),
		zap.String("task", taskTitle),
		zap.Time("due", due))
	return nil
}
