package notify

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"stockwatch/internal/models"
	"stockwatch/pkg/utils"
)

// BreachNotification builds the notification for a threshold breach.
func BreachNotification(b models.Breach) Notification {
	var emoji, direction string
	switch b.Kind {
	case models.BreachLower:
		emoji = "📉"
		direction = "dropped below"
	case models.BreachUpper:
		emoji = "📈"
		direction = "rose above"
	default:
		emoji = "⚠️"
		direction = "crossed"
	}

	title := fmt.Sprintf("%s Price Alert: %s", emoji, b.Symbol)
	message := fmt.Sprintf(
		"%s %s your threshold.\nCurrent Price: %s\nThreshold: %s",
		b.Symbol, direction, utils.FormatUSD(b.Price), utils.FormatUSD(b.Bound),
	)

	return Notification{
		Type:    NotificationPrice,
		Title:   title,
		Message: message,
		Data: map[string]interface{}{
			"symbol": b.Symbol,
			"kind":   string(b.Kind),
			"price":  b.Price,
			"bound":  b.Bound,
		},
	}
}

// VolumeNotification builds the notification for a volume spike.
func VolumeNotification(symbol string, volume int64, average float64, ratio float64) Notification {
	title := fmt.Sprintf("📊 Volume Spike: %s", symbol)
	message := fmt.Sprintf(
		"Unusual trading activity detected.\nCurrent Volume: %s\nAverage Volume: %s\nRatio: %.1fx",
		utils.FormatVolume(volume),
		humanize.Commaf(average),
		ratio,
	)

	return Notification{
		Type:    NotificationVolume,
		Title:   title,
		Message: message,
		Data: map[string]interface{}{
			"symbol":         symbol,
			"volume":         volume,
			"average_volume": average,
			"ratio":          ratio,
		},
	}
}

// MarketOpenNotification builds the pre-open heads-up notification.
func MarketOpenNotification(openAt time.Time) Notification {
	return Notification{
		Type:  NotificationMarket,
		Title: "🔔 Market Opening Soon",
		Message: fmt.Sprintf("The market opens at %s (%s).",
			openAt.Format("15:04"), openAt.Format("MST")),
		Data: map[string]interface{}{
			"event": "open",
			"at":    openAt.Format(time.RFC3339),
		},
	}
}

// MarketCloseNotification builds the pre-close heads-up notification.
func MarketCloseNotification(closeAt time.Time) Notification {
	return Notification{
		Type:  NotificationMarket,
		Title: "🔔 Market Closing Soon",
		Message: fmt.Sprintf("The market closes at %s (%s).",
			closeAt.Format("15:04"), closeAt.Format("MST")),
		Data: map[string]interface{}{
			"event": "close",
			"at":    closeAt.Format(time.RFC3339),
		},
	}
}
