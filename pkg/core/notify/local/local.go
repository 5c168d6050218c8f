package local

import (
	"context"
	"encoding/json"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/crowelm/crowelm/pkg/common/code"
	"github.com/crowelm/crowelm/pkg/common/uuid"
	"github.com/crowelm/crowelm/pkg/core/notify"
	"github.com/crowelm/crowelm/pkg/middleware/logger"
	"github.com/crowelm/crowelm/pkg/utils"
)

// Local delivers messages to handlers in this process only. It stands in for
// redis events when the gateway runs without redis.
type Local struct {
	actions *haxmap.Map[notify.Action, notify.HandleFunc]
}

func New() notify.MsgCenter {
	return &Local{actions: haxmap.New[notify.Action, notify.HandleFunc]()}
}

func (l *Local) Registry(_ context.Context, msgName notify.Action, handleFunc notify.HandleFunc) error {
	if _, loaded := l.actions.GetOrSet(msgName, handleFunc); loaded {
		return code.NotifyActionAlreadyRegistryErr.WithMsg(string(msgName))
	}
	return nil
}

func (l *Local) Broadcast(ctx context.Context, msg *notify.SendMsg) error {
	msg.Timestamp = time.Now().Unix()
	if msg.UUID.IsNil() {
		msg.UUID = uuid.NewV4()
	}

	handle, ok := l.actions.Get(msg.Channel)
	if !ok {
		return nil
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return code.NotifySendMsgErr.WithErr(err)
	}
	var herr error
	if err := utils.SafelyRun(func() { herr = handle(ctx, string(data)) }); err != nil {
		logger.Errorf(ctx, "local notify handler panic action: %s, err: %+v", msg.Channel, err)
		return code.NotifySendMsgErr.WithErr(err)
	}
	if herr != nil {
		logger.Errorf(ctx, "handle local msg fail action: %s, err: %+v", msg.Channel, herr)
	}
	return nil
}

func (l *Local) Close(_ context.Context) error {
	var names []notify.Action
	l.actions.ForEach(func(name notify.Action, _ notify.HandleFunc) bool {
		names = append(names, name)
		return true
	})
	l.actions.Del(names...)
	return nil
}
