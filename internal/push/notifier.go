// Package push отправляет Web Push уведомления о новых заказах в подписанные
// админ-браузеры. Подписки хранятся в Postgres (repository.PushRepository).
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/pixelcraft/internal/logger"
	"github.com/pixelcraft/internal/model"
	"github.com/pixelcraft/internal/repository"
)

// Notifier — рассылка пушей по всем подпискам. Если ключи не заданы, методы no-op.
type Notifier struct {
	repo  *repository.PushRepository
	vapid *webpush.Options
}

// NewNotifier создаёт рассыльщик. keys == nil — пуши отключены.
func NewNotifier(repo *repository.PushRepository, keys *VAPIDKeys, subscriberEmail string) *Notifier {
	if keys == nil || keys.PrivateKey == "" {
		return &Notifier{}
	}
	return &Notifier{
		repo: repo,
		vapid: &webpush.Options{
			Subscriber:      subscriberEmail,
			VAPIDPublicKey:  keys.PublicKey,
			VAPIDPrivateKey: keys.PrivateKey,
			TTL:             3600,
		},
	}
}

// NotifyNewOrder шлёт уведомление о заказе во все подписанные браузеры.
// Мёртвые подписки (404/410 от пуш-сервиса) удаляются по ходу.
func (n *Notifier) NotifyNewOrder(ctx context.Context, o *model.Order) {
	if n.vapid == nil || n.repo == nil {
		return
	}
	subs, err := n.repo.ListAll(ctx)
	if err != nil {
		logger.Errorf("push: list subscriptions: %v", err)
		return
	}
	if len(subs) == 0 {
		return
	}
	payload, _ := json.Marshal(map[string]any{
		"title": fmt.Sprintf("New order #%d", o.ID),
		"body":  o.Service + " — " + o.FullName,
		"data":  map[string]any{"order_id": o.ID},
	})
	sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	for _, sub := range subs {
		wpSub := &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys:     webpush.Keys{P256dh: sub.P256dh, Auth: sub.Auth},
		}
		resp, err := webpush.SendNotificationWithContext(sendCtx, payload, wpSub, n.vapid)
		if err != nil {
			logger.Errorf("push: send %s: %v", truncate(sub.Endpoint, 50), err)
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == 410 || resp.StatusCode == 404 {
			if err := n.repo.DeleteByEndpoint(ctx, sub.Endpoint); err != nil {
				logger.Errorf("push: drop dead endpoint: %v", err)
			}
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
