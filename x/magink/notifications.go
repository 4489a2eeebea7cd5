package magink

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// TxStatus is the lifecycle stage of a sent transaction.
type TxStatus string

const (
	TxStatusPending TxStatus = "pending"
	TxStatusInBlock TxStatus = "in_block"
	TxStatusFailed  TxStatus = "failed"
)

// TxNotification describes a lifecycle transition of a transaction.
type TxNotification struct {
	Method string
	Status TxStatus
	Hash   common.Hash
	Err    error
	At     time.Time
}

// Notifier receives transaction lifecycle notifications. Implementations
// must not block.
type Notifier interface {
	Notify(n TxNotification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n TxNotification)

func (f NotifierFunc) Notify(n TxNotification) { f(n) }

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "tx-notifications").Logger()}
}

func (l *LogNotifier) Notify(n TxNotification) {
	var evt *zerolog.Event
	switch n.Status {
	case TxStatusFailed:
		evt = l.log.Error().Err(n.Err)
	case TxStatusInBlock:
		evt = l.log.Info()
	default:
		evt = l.log.Debug()
	}

	evt.
		Str("method", n.Method).
		Str("status", string(n.Status)).
		Str("tx_hash", n.Hash.Hex()).
		Msg("Transaction status")
}
