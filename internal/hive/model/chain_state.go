package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DynamicGlobalProperties is the subset of get_dynamic_global_properties the indexer reads.
type DynamicGlobalProperties struct {
	HeadBlockNumber          uint64          `json:"head_block_number"`
	HeadBlockID              string          `json:"head_block_id"`
	Time                     Time            `json:"time"`
	LastIrreversibleBlockNum uint64          `json:"last_irreversible_block_num"`
	TotalVestingFundSteem    Asset           `json:"total_vesting_fund_steem"`
	TotalVestingShares       Asset           `json:"total_vesting_shares"`
	Raw                      json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps the raw payload next to the decoded fields.
func (p *DynamicGlobalProperties) UnmarshalJSON(data []byte) error {
	type plain DynamicGlobalProperties
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*p = DynamicGlobalProperties(decoded)
	p.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// Asset is an amount with its symbol. It decodes the legacy "1.000 STEEM"
// string form and the appbase {"amount","precision","nai"} form.
type Asset struct {
	Amount decimal.Decimal
	Symbol string
}

var naiSymbols = map[string]string{
	"@@000000013": "SBD",
	"@@000000021": "STEEM",
	"@@000000037": "VESTS",
}

// ParseAsset parses the legacy string form of an asset.
func ParseAsset(s string) (Asset, error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return Asset{}, fmt.Errorf("invalid asset %q", s)
	}
	amount, err := decimal.NewFromString(parts[0])
	if err != nil {
		return Asset{}, fmt.Errorf("invalid asset amount %q: %w", s, err)
	}
	return Asset{Amount: amount, Symbol: parts[1]}, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Asset) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParseAsset(s)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	}

	var nai struct {
		Amount    string `json:"amount"`
		Precision int32  `json:"precision"`
		NAI       string `json:"nai"`
	}
	if err := json.Unmarshal(data, &nai); err != nil {
		return fmt.Errorf("decode asset: %w", err)
	}
	amount, err := decimal.NewFromString(nai.Amount)
	if err != nil {
		return fmt.Errorf("invalid asset amount %q: %w", nai.Amount, err)
	}
	symbol, ok := naiSymbols[nai.NAI]
	if !ok {
		symbol = nai.NAI
	}
	*a = Asset{Amount: amount.Shift(-nai.Precision), Symbol: symbol}
	return nil
}

// ChainState is the periodically refreshed hive_state row.
type ChainState struct {
	Props         DynamicGlobalProperties
	SteemPerMVest decimal.Decimal
	USDPerSteem   decimal.Decimal
	SBDPerSteem   decimal.Decimal
}

// SteemPerMVest converts the vesting fund ratio to STEEM per million VESTS.
func SteemPerMVest(props DynamicGlobalProperties) (decimal.Decimal, error) {
	mvests := props.TotalVestingShares.Amount.Shift(-6)
	if mvests.IsZero() {
		return decimal.Zero, fmt.Errorf("total vesting shares is zero")
	}
	return props.TotalVestingFundSteem.Amount.Div(mvests).Round(6), nil
}
