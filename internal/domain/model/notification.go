package model

import "time"

// 確認メールの処理結果
type NotificationOutcome string

const (
	NotificationSent NotificationOutcome = "sent"
	// 宛先が無いなど送っても意味がない
	NotificationSkipped NotificationOutcome = "skipped"
	// 再試行を使い切って DLQ へ送った
	NotificationDeadLettered NotificationOutcome = "dead_lettered"
)

// 確認メールの処理結果の記録。1注文1件。
// どの結果でも記録があれば再送の対象から外れる
type OrderNotification struct {
	ID         int64               `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID    int64               `gorm:"not null;uniqueIndex" json:"orderId"`
	Outcome    NotificationOutcome `gorm:"type:varchar(20);not null;default:'sent';index" json:"outcome"`
	Recipient  string              `gorm:"type:varchar(255);not null;default:''" json:"recipient"`
	Reason     string              `gorm:"type:text;not null;default:''" json:"reason,omitempty"`
	RecordedAt time.Time           `gorm:"not null" json:"recordedAt"`
}
