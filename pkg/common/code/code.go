package code

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrCode struct {
	Code   int
	Msg    string
	Status int
	cause  error
}

func newCode(c int, msg string, status int) *ErrCode {
	return &ErrCode{Code: c, Msg: msg, Status: status}
}

func (e *ErrCode) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("code: %d, msg: %s, err: %v", e.Code, e.Msg, e.cause)
	}
	return fmt.Sprintf("code: %d, msg: %s", e.Code, e.Msg)
}

// Is matches on Code so that derived errors (WithMsg, WithErr) still match
// the sentinel they were built from.
func (e *ErrCode) Is(target error) bool {
	t, ok := target.(*ErrCode)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func (e *ErrCode) Unwrap() error {
	return e.cause
}

func (e *ErrCode) WithMsg(msg string) *ErrCode {
	return &ErrCode{Code: e.Code, Msg: msg, Status: e.Status, cause: e.cause}
}

func (e *ErrCode) WithMsgf(format string, args ...any) *ErrCode {
	return e.WithMsg(fmt.Sprintf(format, args...))
}

func (e *ErrCode) WithErr(err error) *ErrCode {
	return &ErrCode{Code: e.Code, Msg: e.Msg, Status: e.Status, cause: err}
}

func (e *ErrCode) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

const Success = 0

var (
	UnknownErr = newCode(10000, "unknown error", http.StatusInternalServerError)
	ParamErr   = newCode(10001, "param error", http.StatusBadRequest)
	UnLogin    = newCode(10002, "not login", http.StatusUnauthorized)

	ValidationErr = newCode(20001, "invalid input", http.StatusUnprocessableEntity)
	NetworkErr    = newCode(20002, "network error", http.StatusBadGateway)
	NotFoundErr   = newCode(20003, "not found", http.StatusNotFound)
	StorageErr    = newCode(20004, "storage error", http.StatusInternalServerError)

	SyncInProgressErr = newCode(30001, "sync already in progress", http.StatusConflict)
	QueuedErr         = newCode(30002, "operation queued for sync", http.StatusAccepted)

	RPCHttpCodeErr = newCode(40002, "backend rejected request", http.StatusBadGateway)
	InvalidToken   = newCode(40003, "invalid token", http.StatusUnauthorized)
	TokenExpired   = newCode(40004, "token expired", http.StatusUnauthorized)

	NotifyActionAlreadyRegistryErr = newCode(50001, "notify action already registered", http.StatusInternalServerError)
	NotifySendMsgErr               = newCode(50002, "notify send msg fail", http.StatusInternalServerError)
)

// IsRetryable reports whether err should be retried at the next natural
// trigger point (next read, reconnect).
func IsRetryable(err error) bool {
	return errors.Is(err, NetworkErr) || errors.Is(err, StorageErr)
}

func As(err error) *ErrCode {
	var c *ErrCode
	if errors.As(err, &c) {
		return c
	}
	return UnknownErr.WithErr(err)
}
