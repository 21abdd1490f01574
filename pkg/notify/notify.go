package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// CommentNotice 描述“有人评论了你的照片”这一事件。
type CommentNotice struct {
	OwnerID    int64
	OwnerEmail string
	PhotoID    int64
	PhotoTitle string
	Commenter  string
	Text       string
}

// Notifier 是通知协作者的接口，具体投递方式由实现决定。
type Notifier interface {
	NotifyComment(ctx context.Context, n CommentNotice) error
}

// Notification 是一条已发送的通知。
type Notification struct {
	OwnerID int64     `json:"ownerID"`
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	PhotoID int64     `json:"photoId"`
	Date    time.Time `json:"date"`
}

// Outbox 把通知写入日志并保存在内存中，供界面展示。
type Outbox struct {
	mu     sync.RWMutex
	sent   []Notification
	logger *slog.Logger
	now    func() time.Time
}

var _ Notifier = (*Outbox)(nil)

func NewOutbox(logger *slog.Logger) *Outbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Outbox{logger: logger, now: time.Now}
}

func (o *Outbox) NotifyComment(ctx context.Context, n CommentNotice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	title := n.PhotoTitle
	if title == "" {
		title = fmt.Sprintf("#%d", n.PhotoID)
	}
	msg := Notification{
		OwnerID: n.OwnerID,
		To:      n.OwnerEmail,
		Subject: fmt.Sprintf("New comment on %s", title),
		Body:    fmt.Sprintf("%s commented: %s", n.Commenter, n.Text),
		PhotoID: n.PhotoID,
		Date:    o.now(),
	}

	o.logger.Info("发送评论通知",
		"to", msg.To,
		"ownerID", msg.OwnerID,
		"subject", msg.Subject,
		"body", msg.Body,
	)

	o.mu.Lock()
	o.sent = append(o.sent, msg)
	o.mu.Unlock()
	return nil
}

// For 按发送顺序返回某个所有者收到的通知。
func (o *Outbox) For(ownerID int64) []Notification {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := []Notification{}
	for _, n := range o.sent {
		if n.OwnerID == ownerID {
			out = append(out, n)
		}
	}
	return out
}
