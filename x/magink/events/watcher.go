package events

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"github.com/magink/magink/x/magink/contracts"
)

// LogSubscriber is the subscription half of the node client.
type LogSubscriber interface {
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
}

// Watcher streams decoded contract events.
type Watcher struct {
	sub     LogSubscriber
	address common.Address
	decoder *Decoder
	log     zerolog.Logger

	// Account restricts events to one account when non-zero.
	Account common.Address
}

func NewWatcher(sub LogSubscriber, b contracts.Binding, log zerolog.Logger) *Watcher {
	return &Watcher{
		sub:     sub,
		address: b.Address(),
		decoder: NewDecoder(b),
		log:     log.With().Str("component", "event-watcher").Logger(),
	}
}

// Watch subscribes to contract logs and returns decoded events until ctx is
// done or the subscription fails. The returned channel is closed on exit.
func (w *Watcher) Watch(ctx context.Context) (<-chan *Event, error) {
	q := ethereum.FilterQuery{
		Addresses: []common.Address{w.address},
		Topics:    [][]common.Hash{w.decoder.Topics()},
	}
	if w.Account != (common.Address{}) {
		q.Topics = append(q.Topics, []common.Hash{common.BytesToHash(w.Account.Bytes())})
	}

	logs := make(chan types.Log, 64)
	sub, err := w.sub.SubscribeFilterLogs(ctx, q, logs)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to contract logs: %w", err)
	}

	out := make(chan *Event, 64)
	go func() {
		defer close(out)
		defer sub.Unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-sub.Err():
				if ok && err != nil {
					w.log.Error().Err(err).Msg("Log subscription failed")
				}
				return
			case l := <-logs:
				if l.Removed {
					continue
				}
				ev, err := w.decoder.Decode(l)
				if err != nil {
					w.log.Warn().Err(err).Str("tx_hash", l.TxHash.Hex()).Msg("Skipping undecodable log")
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	w.log.Info().Str("contract", w.address.Hex()).Msg("Watching contract events")
	return out, nil
}
