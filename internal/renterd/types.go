package renterd

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// hastingsPerSiacoin is 10^24.
var hastingsPerSiacoin = new(big.Int).Exp(big.NewInt(10), big.NewInt(24), nil)

// Currency is an amount in hastings. renterd encodes it as a decimal string.
type Currency struct {
	big.Int
}

// UnmarshalJSON accepts "123" and 123.
func (c *Currency) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		c.SetInt64(0)
		return nil
	}
	if _, ok := c.SetString(s, 10); !ok {
		return fmt.Errorf("invalid currency %q", s)
	}
	return nil
}

// MarshalJSON encodes the amount as a decimal string.
func (c Currency) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// Siacoins converts to SC. Precision loss below ~1e-9 SC is fine for
// display.
func (c *Currency) Siacoins() float64 {
	f := new(big.Float).SetInt(&c.Int)
	f.Quo(f, new(big.Float).SetInt(hastingsPerSiacoin))
	sc, _ := f.Float64()
	return sc
}

// NewCurrency returns h hastings.
func NewCurrency(h int64) Currency {
	var c Currency
	c.SetInt64(h)
	return c
}

// Siacoins returns sc whole siacoins in hastings.
func Siacoins(sc int64) Currency {
	var c Currency
	c.Mul(big.NewInt(sc), hastingsPerSiacoin)
	return c
}

// Contract is the subset of renterd's contract metadata the dashboard uses.
type Contract struct {
	ID          string   `json:"id"`
	HostKey     string   `json:"hostKey"`
	HostIP      string   `json:"hostIP,omitempty"`
	State       string   `json:"state"`
	Size        uint64   `json:"size"`
	TotalCost   Currency `json:"totalCost"`
	StartHeight uint64   `json:"startHeight"`
	WindowStart uint64   `json:"windowStart"`
	WindowEnd   uint64   `json:"windowEnd"`
}

// ContractMetric is one periodic sample for one contract.
type ContractMetric struct {
	Timestamp           time.Time `json:"timestamp"`
	ContractID          string    `json:"contractID"`
	HostKey             string    `json:"hostKey"`
	RemainingCollateral Currency  `json:"remainingCollateral"`
	RemainingFunds      Currency  `json:"remainingFunds"`
	RevisionNumber      uint64    `json:"revisionNumber"`
	UploadSpending      Currency  `json:"uploadSpending"`
	DownloadSpending    Currency  `json:"downloadSpending"`
	FundAccountSpending Currency  `json:"fundAccountSpending"`
	DeleteSpending      Currency  `json:"deleteSpending"`
	ListSpending        Currency  `json:"listSpending"`
}

// BusState is the subset of /bus/state the dashboard uses.
type BusState struct {
	StartTime time.Time `json:"startTime"`
	Network   string    `json:"network"`
	Version   string    `json:"version"`
	Commit    string    `json:"commit"`
	OS        string    `json:"os"`
	// Explorer is nil for daemons that predate explorer configuration.
	Explorer *ExplorerState `json:"explorer,omitempty"`
}

// ExplorerState is the daemon's explorer configuration.
type ExplorerState struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url,omitempty"`
}
