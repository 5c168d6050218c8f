package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/crowelm/crowelm/pkg/common/code"
	"github.com/crowelm/crowelm/pkg/common/uuid"
	"github.com/crowelm/crowelm/pkg/core/notify"
	"github.com/crowelm/crowelm/pkg/middleware/logger"
	"github.com/crowelm/crowelm/pkg/utils"
	r "github.com/redis/go-redis/v9"
)

// Events broadcasts between gateway processes over redis pub/sub.
type Events struct {
	service string
	actions sync.Map
	subs    sync.Map
	client  *r.Client
	wait    sync.WaitGroup
}

func NewEvents(client *r.Client, service string) notify.MsgCenter {
	return &Events{client: client, service: service}
}

func (e *Events) channel(action notify.Action) string {
	return utils.EventChannel(e.service, string(action))
}

func (e *Events) Registry(ctx context.Context, msgName notify.Action, handleFunc notify.HandleFunc) error {
	if _, ok := e.actions.LoadOrStore(msgName, handleFunc); ok {
		return code.NotifyActionAlreadyRegistryErr.WithMsg(string(msgName))
	}

	name := e.channel(msgName)
	sub := e.client.Subscribe(ctx, name)
	e.subs.Store(msgName, sub)

	e.wait.Add(1)
	utils.SafelyGo(func() {
		defer func() {
			if err := sub.Close(); err != nil {
				logger.Errorf(ctx, "close subscription fail name: %s, err: %+v", name, err)
			}
			e.subs.Delete(msgName)
			e.actions.Delete(msgName)
			e.wait.Done()
		}()

		ch := sub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					logger.Infof(ctx, "exit redis channel name: %s", name)
					return
				}
				if msg == nil {
					continue
				}
				if err := handleFunc(ctx, msg.Payload); err != nil {
					logger.Errorf(ctx, "handle redis msg fail name: %s, err: %+v", name, err)
				}
			case <-ctx.Done():
				logger.Infof(ctx, "exit redis channel name: %s", name)
				return
			}
		}
	}, func(err error) {
		logger.Errorf(ctx, "Registry handle msg err: %+v", err)
	})
	return nil
}

func (e *Events) Broadcast(ctx context.Context, msg *notify.SendMsg) error {
	msg.Timestamp = time.Now().Unix()
	if msg.UUID.IsNil() {
		msg.UUID = uuid.NewV4()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return code.NotifySendMsgErr.WithErr(err)
	}
	if err := e.client.Publish(ctx, e.channel(msg.Channel), data).Err(); err != nil {
		logger.Errorf(ctx, "send msg fail action: %s, err: %+v", msg.Channel, err)
		return code.NotifySendMsgErr.WithErr(err)
	}
	return nil
}

// Close ends every subscription and waits for the handlers to return.
func (e *Events) Close(_ context.Context) error {
	e.subs.Range(func(_, v any) bool {
		_ = v.(*r.PubSub).Close()
		return true
	})
	e.wait.Wait()
	return nil
}
