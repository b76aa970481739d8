package errors

import "errors"

var (
	ErrRuleNotFound       = errors.New("sla rule not found")
	ErrInvalidRuleInput   = errors.New("invalid sla rule input")
	ErrRecordNotFound     = errors.New("monitored record not found")
	ErrBreachInsertFailed = errors.New("breach event insert failed")
)
