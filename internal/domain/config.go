package domain

// RiskLevel enumerates the configured risk appetite
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Valid checks if the risk level is one of the known values
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// TradingConfig is the singleton trading configuration. It is created
// lazily with defaults on first read and updated with partial-patch
// semantics. SellThreshold below BuyThreshold is expected but not enforced.
type TradingConfig struct {
	ID            int64     `json:"id" db:"id"`
	BuyThreshold  float64   `json:"buyThreshold" db:"buy_threshold"`
	SellThreshold float64   `json:"sellThreshold" db:"sell_threshold"`
	AutoTrading   bool      `json:"autoTrading" db:"auto_trading"`
	Notifications bool      `json:"notifications" db:"notifications"`
	RiskLevel     RiskLevel `json:"riskLevel" db:"risk_level"`
}

// DefaultTradingConfig returns the lazily-created defaults
func DefaultTradingConfig() TradingConfig {
	return TradingConfig{
		BuyThreshold:  0.65,
		SellThreshold: 0.40,
		AutoTrading:   true,
		Notifications: true,
		RiskLevel:     RiskMedium,
	}
}

// TradingConfigPatch is a partial update. Nil fields keep their prior value.
type TradingConfigPatch struct {
	BuyThreshold  *float64   `json:"buyThreshold"`
	SellThreshold *float64   `json:"sellThreshold"`
	AutoTrading   *bool      `json:"autoTrading"`
	Notifications *bool      `json:"notifications"`
	RiskLevel     *RiskLevel `json:"riskLevel"`
}

// Validate rejects threshold values outside [0,1] and unknown risk levels
func (p TradingConfigPatch) Validate() error {
	if p.BuyThreshold != nil && (*p.BuyThreshold < 0 || *p.BuyThreshold > 1) {
		return errOutOfRange("buyThreshold", *p.BuyThreshold)
	}
	if p.SellThreshold != nil && (*p.SellThreshold < 0 || *p.SellThreshold > 1) {
		return errOutOfRange("sellThreshold", *p.SellThreshold)
	}
	if p.RiskLevel != nil && !p.RiskLevel.Valid() {
		return errBadEnum("riskLevel", string(*p.RiskLevel))
	}
	return nil
}

// Apply merges the patch into the config in place
func (p TradingConfigPatch) Apply(c *TradingConfig) {
	if p.BuyThreshold != nil {
		c.BuyThreshold = *p.BuyThreshold
	}
	if p.SellThreshold != nil {
		c.SellThreshold = *p.SellThreshold
	}
	if p.AutoTrading != nil {
		c.AutoTrading = *p.AutoTrading
	}
	if p.Notifications != nil {
		c.Notifications = *p.Notifications
	}
	if p.RiskLevel != nil {
		c.RiskLevel = *p.RiskLevel
	}
}
