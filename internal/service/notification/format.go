package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/KNICEX/market-sentry/internal/service/monitor"
)

const timeLayout = "2006-01-02 15:04:05"

// FormatAlert 渲染推送正文
func FormatAlert(event monitor.AlertEvent) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("警报：%s\n", event.Symbol.ToSlashString()))

	switch event.Kind {
	case monitor.KindSpotVolumeSpike:
		sb.WriteString("类型：现货放量\n")
		if spot := event.Spot; spot != nil {
			dir := "上涨"
			if spot.Direction == monitor.DirectionDown {
				dir = "下跌"
			}
			sb.WriteString(fmt.Sprintf("数据：1分钟成交额 %s, %s %s%%, 现价 %s\n",
				spot.Notional.Round(0), dir, spot.PctChange.Abs().Round(2), spot.Close))
			sb.WriteString(fmt.Sprintf("交易所：%s\n", spot.Source))
		}
	case monitor.KindFuturesOIChange:
		sb.WriteString("类型：期货加仓\n")
		if oi := event.OI; oi != nil {
			sb.WriteString(fmt.Sprintf("数据：持仓量 %s -> %s, %d分钟内增长 %s%%\n",
				oi.Prev.Round(0), oi.Current.Round(0),
				int(oi.Window/time.Minute), oi.GrowthPct.Round(2)))
		}
	default:
		sb.WriteString(fmt.Sprintf("类型：%s\n", event.Kind))
	}

	if rec := event.Recommendation; rec != nil {
		sb.WriteString(fmt.Sprintf("建议：%s (评分 %d)\n", rec.Advice, rec.Score))
		if len(rec.Reasons) > 0 {
			sb.WriteString(fmt.Sprintf("依据：%s\n", strings.Join(rec.Reasons, "；")))
		}
	}

	sb.WriteString(fmt.Sprintf("时间：%s", event.CreatedAt.Local().Format(timeLayout)))
	return sb.String()
}
