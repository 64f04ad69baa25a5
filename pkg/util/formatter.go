package util

import (
	"fmt"
	"math"
)

func FormatVoltage(vm, vaRad float64) string {
	return fmt.Sprintf("%7.4f pu %8.3f deg", vm, vaRad*180/math.Pi)
}

func FormatPower(p, q float64) string {
	return fmt.Sprintf("%9.3f MW %9.3f MVAr", p, q)
}

func FormatTemperature(tc float64) string {
	return fmt.Sprintf("%6.1f C", tc)
}

func FormatMismatch(value float64) string {
	if value != 0 && math.Abs(value) < 1e-3 {
		return fmt.Sprintf("%.3e", value)
	}
	return fmt.Sprintf("%.6f", value)
}
