package utils

import (
	"github.com/shopspring/decimal"
)

// Zfill left-pads str with zeroes to width.
func Zfill(str string, width int) string {
	if len(str) >= width {
		return str
	}
	padding := make([]byte, width-len(str))
	for i := range padding {
		padding[i] = '0'
	}
	return string(padding) + str
}

// Decimal rounds value to exp decimal places.
func Decimal(value float64, exp int32) float64 {
	d := decimal.NewFromFloatWithExponent(value, -2).Round(exp)
	v, _ := d.Float64()
	return v
}
