package services

import (
	"strconv"
	"time"

	"memoriesbot/internal/models"
)

const (
	daysPerYear = 365
	day         = 24 * time.Hour

	sentByField  = "Sent by: "
	messageField = "Here's the message: "
)

// ElapsedDays counts whole days from pinned to now, truncating toward zero.
func ElapsedDays(now, pinned time.Time) int64 {
	return int64(now.Sub(pinned) / day)
}

// IsAnniversary holds on every non-zero multiple of 365 elapsed days. The
// zero guard keeps a pin from matching on the day it was recorded.
func IsAnniversary(now, pinned time.Time) bool {
	days := ElapsedDays(now, pinned)
	return days != 0 && days%daysPerYear == 0
}

// TimestampToken renders t as a platform timestamp that clients show in local time.
func TimestampToken(t time.Time) string {
	return "<t:" + strconv.FormatInt(t.Unix(), 10) + ":f>"
}

func BuildNotification(record models.PinRecord, author, link string) models.Notification {
	return models.Notification{
		Title: "Memory from " + TimestampToken(record.Timestamp),
		Fields: []models.NotificationField{
			{Name: sentByField, Value: author},
			{Name: messageField, Value: link},
		},
		URL: link,
	}
}
