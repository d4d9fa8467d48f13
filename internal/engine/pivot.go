package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"pivotbot/internal/exchange"
	"pivotbot/internal/models"
)

func CalcPivot(daily models.Candle) float64 {
	return (daily.High + daily.Low + daily.Close) / 3
}

func InPivotZone(spot, pivot, buffer float64) bool {
	return math.Abs(spot-pivot) <= buffer
}

// ITMStrike возвращает ближайший страйк в деньгах: для CALL — ниже спота,
// для PUT — выше.
func ITMStrike(spot float64, direction models.Direction) float64 {
	if direction == models.DirectionCall {
		return math.Floor(spot/100) * 100
	}
	return math.Ceil(spot/100) * 100
}

func BiasFromCandle(c models.Candle) models.Bias {
	switch {
	case c.Close > c.Open:
		return models.BiasBullish
	case c.Close < c.Open:
		return models.BiasBearish
	default:
		return models.BiasNeutral
	}
}

func DirectionForBias(bias models.Bias) (models.Direction, bool) {
	switch bias {
	case models.BiasBullish:
		return models.DirectionCall, true
	case models.BiasBearish:
		return models.DirectionPut, true
	default:
		return "", false
	}
}

// NearestWeeklyExpiry выбирает ближайшую экспирацию не позже чем через
// 7 дней после after.
func NearestWeeklyExpiry(instruments []exchange.Instrument, after time.Time) (time.Time, bool) {
	var candidates []time.Time
	seen := map[string]bool{}
	for _, inst := range instruments {
		key := inst.Expiry.Format("2006-01-02")
		if seen[key] {
			continue
		}
		seen[key] = true
		if inst.Expiry.Before(after) {
			continue
		}
		if inst.Expiry.Sub(after) > 7*24*time.Hour {
			continue
		}
		candidates = append(candidates, inst.Expiry)
	}
	if len(candidates) == 0 {
		return time.Time{}, false
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Before(candidates[j]) })
	return candidates[0], true
}

func findOption(instruments []exchange.Instrument, expiry time.Time, strike float64, direction models.Direction) (exchange.Instrument, bool) {
	optType := "CE"
	if direction == models.DirectionPut {
		optType = "PE"
	}
	expiryKey := expiry.Format("2006-01-02")
	for _, inst := range instruments {
		if inst.InstrumentType != optType {
			continue
		}
		if inst.Expiry.Format("2006-01-02") != expiryKey {
			continue
		}
		if math.Abs(inst.StrikePrice-strike) > 1e-6 {
			continue
		}
		return inst, true
	}
	return exchange.Instrument{}, false
}

// syntheticOptionSymbol строит тикер опциона, когда справочник инструментов
// недоступен: NIFTY26AUG22100CE.
func syntheticOptionSymbol(underlying string, expiry time.Time, strike float64, direction models.Direction) string {
	optType := "CE"
	if direction == models.DirectionPut {
		optType = "PE"
	}
	return fmt.Sprintf("%s%s%d%s",
		underlying,
		expiryCode(expiry),
		int(strike),
		optType,
	)
}

func expiryCode(t time.Time) string {
	return t.Format("06") + map[time.Month]string{
		time.January: "JAN", time.February: "FEB", time.March: "MAR",
		time.April: "APR", time.May: "MAY", time.June: "JUN",
		time.July: "JUL", time.August: "AUG", time.September: "SEP",
		time.October: "OCT", time.November: "NOV", time.December: "DEC",
	}[t.Month()]
}
