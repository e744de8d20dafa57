package types

// ModuleName is the module's registration name, also the store key name.
const ModuleName = "auth"

// Params holds the auth module's parameter subspace entries the
// AnteHandler pipeline reads on every tx.
type Params struct {
	MaxMemoCharacters      uint64 `json:"max_memo_characters"`
	TxSigLimit             uint64 `json:"tx_sig_limit"`
	TxSizeCostPerByte      uint64 `json:"tx_size_cost_per_byte"`
	SigVerifyCostSecp256k1 uint64 `json:"sig_verify_cost_secp256k1"`
	SigVerifyCostEd25519   uint64 `json:"sig_verify_cost_ed25519"`
}

// DefaultParams mirrors cosmos-sdk's auth module defaults.
func DefaultParams() Params {
	return Params{
		MaxMemoCharacters:      256,
		TxSigLimit:             7,
		TxSizeCostPerByte:      10,
		SigVerifyCostSecp256k1: 1000,
		SigVerifyCostEd25519:   590,
	}
}

const ParamsKey = "params"
