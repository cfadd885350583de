package market

import (
	"time"

	"github.com/moznion/go-optional"
)

// Bar is a candle enriched with the indicator values a signal rule needs.
//
// Every Prev* field carries the value of the immediately preceding bar so a
// crossing can be decided from a single Bar. Bars are produced by the
// indicator pipeline and treated as read-only by everything downstream.
type Bar struct {
	Time  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64

	PrevClose float64

	RSI     float64
	PrevRSI float64

	BBMid       float64
	BBUpper     float64
	BBLower     float64
	PrevBBMid   float64
	PrevBBUpper float64
	PrevBBLower float64

	// LaggedMid is the Bollinger midline N bars back, when the pipeline
	// was asked for it.
	LaggedMid optional.Option[float64]

	// FastMA and SlowMA feed the trend filter.
	FastMA optional.Option[float64]
	SlowMA optional.Option[float64]
}

// Candle returns the raw OHLC part of the bar.
func (b Bar) Candle() Candle {
	return Candle{
		Time:  b.Time,
		Open:  b.Open,
		High:  b.High,
		Low:   b.Low,
		Close: b.Close,
	}
}
