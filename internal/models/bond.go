package models

import "time"

// BondRecord represents one government bond as supplied by the bond-universe
// provider. Prices, coupons and nominal are in currency units; yields and
// rates are annual percentages.
type BondRecord struct {
	Ticker           string    `json:"ticker" validate:"required"`
	Name             string    `json:"name"`
	Price            float64   `json:"price" validate:"gt=0"`
	Coupon           float64   `json:"coupon" validate:"gt=0"`
	CouponPeriodDays int       `json:"coupon_period_days" validate:"gt=0"`
	MaturityDate     time.Time `json:"maturity_date" validate:"required"`
	Nominal          float64   `json:"nominal" validate:"gt=0"`
	AccruedInterest  float64   `json:"accrued_interest"`
	MarketYTM        float64   `json:"market_ytm"`
	Volume           float64   `json:"volume"`
	Duration         float64   `json:"duration"` // Macaulay duration in days, as reported upstream
}

// RatePoint is one central-bank key-rate observation. The rate provider
// returns these sorted newest-first.
type RatePoint struct {
	Date time.Time `json:"date"`
	Rate float64   `json:"rate"`
}

// RateSchedulePoint is one rate valid from Date onward, used in resolved
// rate schedules and forecast scenarios.
type RateSchedulePoint struct {
	Date time.Time `json:"date"`
	Rate float64   `json:"rate"`
}

// Scenario is a named key-rate forecast loaded from a TOML definition file.
type Scenario struct {
	ID          string              `toml:"id" json:"id" validate:"required"`
	Name        string              `toml:"name" json:"name" validate:"required"`
	Description string              `toml:"description" json:"description"`
	Forecast    []RateSchedulePoint `toml:"forecast" json:"forecast" validate:"required,min=1"`
}
