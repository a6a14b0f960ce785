// Package metrics holds the contract spending view: which dataset the chart
// shows (all contracts or one), how the displayed view is derived from the
// two fetched series, and the feed that keeps those series fresh.
package metrics

import (
	"errors"
	"fmt"
	"strings"
)

// GraphMode selects what the chart plots.
type GraphMode string

// ModeSpending plots contract funding and spending.
const ModeSpending GraphMode = "spending"

// GraphModes lists the supported modes.
var GraphModes = []GraphMode{ModeSpending}

// ErrUnknownGraphMode is returned by SetGraphMode for unsupported modes.
var ErrUnknownGraphMode = errors.New("unknown graph mode")

// ContractIDPrefix is stripped from contract ids for display.
const ContractIDPrefix = "fcid:"

// shortIDLen is the length of the abbreviated contract id.
const shortIDLen = 6

// AllContractsLabel names the aggregate view.
const AllContractsLabel = "All contracts"

// ContractRef is a weak reference to a contract. It never owns contract data.
type ContractRef struct {
	ID    string
	Label string
}

// State is the selection state.
type State int

const (
	// Aggregate shows metrics across all contracts.
	Aggregate State = iota
	// SingleContract shows one selected contract.
	SingleContract
)

func (s State) String() string {
	switch s {
	case Aggregate:
		return "aggregate"
	case SingleContract:
		return "contract"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Selection is the metrics view selection. The zero value is not ready for
// use; call NewSelection.
type Selection struct {
	mode     GraphMode
	contract *ContractRef
}

// NewSelection returns the initial selection: spending mode, aggregate view.
func NewSelection() Selection {
	return Selection{mode: ModeSpending}
}

// GraphMode returns the current mode.
func (s Selection) GraphMode() GraphMode {
	return s.mode
}

// SetGraphMode switches the mode. Unknown modes leave the selection as is.
func (s *Selection) SetGraphMode(mode GraphMode) error {
	for _, known := range GraphModes {
		if mode == known {
			s.mode = mode
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownGraphMode, mode)
}

// SelectContract narrows the view to ref, or reverts to the aggregate view
// when ref is nil. The ref is copied.
func (s *Selection) SelectContract(ref *ContractRef) {
	if ref == nil {
		s.contract = nil
		return
	}
	c := *ref
	s.contract = &c
}

// State reports whether the selection is aggregate or single-contract.
func (s Selection) State() State {
	if s.contract == nil {
		return Aggregate
	}
	return SingleContract
}

// Contract returns the selected contract, if any.
func (s Selection) Contract() (ContractRef, bool) {
	if s.contract == nil {
		return ContractRef{}, false
	}
	return *s.contract, true
}

// Key identifies the dataset the selection needs. Fetchers subscribe by key.
func (s Selection) Key() SelectionKey {
	k := SelectionKey{Mode: s.mode}
	if s.contract != nil {
		k.ContractID = s.contract.ID
	}
	return k
}

// TabLabel is the chart tab title for the current selection.
func (s Selection) TabLabel() string {
	if s.contract == nil {
		return AllContractsLabel
	}
	return "Contract " + ShortID(s.contract.ID)
}

// Reconcile drops a selected contract that present no longer reports and
// reverts to the aggregate view. It returns true when it did so.
func (s *Selection) Reconcile(present func(id string) bool) bool {
	if s.contract == nil || present(s.contract.ID) {
		return false
	}
	s.contract = nil
	return true
}

// ShortID strips the contract id prefix and keeps the first six characters.
// The result is for display only; never use it as a lookup key.
func ShortID(id string) string {
	id = strings.TrimPrefix(id, ContractIDPrefix)
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// SelectionKey identifies one dataset: the aggregate series for a mode when
// ContractID is empty, otherwise the series for that contract.
type SelectionKey struct {
	Mode       GraphMode
	ContractID string
}

// IsAggregate reports whether the key names the aggregate series.
func (k SelectionKey) IsAggregate() bool {
	return k.ContractID == ""
}

func (k SelectionKey) String() string {
	if k.IsAggregate() {
		return string(k.Mode) + "/all"
	}
	return string(k.Mode) + "/" + k.ContractID
}
