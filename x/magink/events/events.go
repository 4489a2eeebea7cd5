package events

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/magink/magink/x/magink/contracts"
)

// ErrUnknownEvent is returned for logs that are not magink events.
var ErrUnknownEvent = errors.New("unknown event")

// Event is a decoded contract event together with its log position.
type Event struct {
	Name        string         `json:"name"`
	BlockNumber uint64         `json:"block_number"`
	TxHash      common.Hash    `json:"tx_hash"`
	Account     common.Address `json:"account"`

	EraStarted   *contracts.EraStarted   `json:"era_started,omitempty"`
	BadgeClaimed *contracts.BadgeClaimed `json:"badge_claimed,omitempty"`
	NFTClaimed   *contracts.NFTClaimed   `json:"nft_claimed,omitempty"`
}

// Decoder turns raw logs into Events.
type Decoder struct {
	abi abi.ABI
}

func NewDecoder(b contracts.Binding) *Decoder {
	return &Decoder{abi: b.ABI()}
}

// Topics returns the event signatures the decoder understands.
func (d *Decoder) Topics() []common.Hash {
	return []common.Hash{
		d.abi.Events[contracts.EventEraStarted].ID,
		d.abi.Events[contracts.EventBadgeClaimed].ID,
		d.abi.Events[contracts.EventNFTClaimed].ID,
	}
}

// Decode decodes a single log.
func (d *Decoder) Decode(l types.Log) (*Event, error) {
	if len(l.Topics) == 0 {
		return nil, ErrUnknownEvent
	}
	ev, err := d.abi.EventByID(l.Topics[0])
	if err != nil {
		return nil, ErrUnknownEvent
	}

	out := &Event{Name: ev.Name, BlockNumber: l.BlockNumber, TxHash: l.TxHash}

	switch ev.Name {
	case contracts.EventEraStarted:
		var e contracts.EraStarted
		if err := d.unpack(&e, ev.Name, l); err != nil {
			return nil, err
		}
		out.Account, out.EraStarted = e.Account, &e
	case contracts.EventBadgeClaimed:
		var e contracts.BadgeClaimed
		if err := d.unpack(&e, ev.Name, l); err != nil {
			return nil, err
		}
		out.Account, out.BadgeClaimed = e.Account, &e
	case contracts.EventNFTClaimed:
		var e struct {
			Account   common.Address
			Cid       []byte
			MintBlock uint32
		}
		if err := d.unpack(&e, ev.Name, l); err != nil {
			return nil, err
		}
		out.Account = e.Account
		out.NFTClaimed = &contracts.NFTClaimed{Account: e.Account, CID: e.Cid, MintBlock: e.MintBlock}
	default:
		return nil, ErrUnknownEvent
	}

	return out, nil
}

// unpack fills the non-indexed fields from data and the indexed ones from topics.
func (d *Decoder) unpack(dst any, name string, l types.Log) error {
	if len(l.Data) > 0 {
		if err := d.abi.UnpackIntoInterface(dst, name, l.Data); err != nil {
			return fmt.Errorf("failed to unpack %s data: %w", name, err)
		}
	}

	var indexed abi.Arguments
	for _, arg := range d.abi.Events[name].Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if err := abi.ParseTopics(dst, indexed, l.Topics[1:]); err != nil {
		return fmt.Errorf("failed to parse %s topics: %w", name, err)
	}
	return nil
}
