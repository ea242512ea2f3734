package billing

import "time"

// RechargeValidityDays is the length of the billing window opened by a
// recharge payment.
const RechargeValidityDays = 30

// DaysRemaining computes how many whole days of the billing window remain
// for a customer whose last payment was on lastPayment. Only the calendar
// dates of the inputs matter: both are rebuilt as UTC midnights from their
// own year/month/day, so a payment made today always yields the full window
// regardless of time-of-day or of the locations the two times carry (the
// store scans dates as UTC while the clock runs server-local).
//
// The second return value is false when no payment date is on record; the
// caller must treat that as "unknown", never as expired or current.
// Negative values mean the window lapsed that many days ago; zero means it
// lapses today.
func DaysRemaining(lastPayment *time.Time, today time.Time) (int, bool) {
	if lastPayment == nil {
		return 0, false
	}
	expiry := utcMidnight(*lastPayment).AddDate(0, 0, RechargeValidityDays)
	days := int(expiry.Sub(utcMidnight(today)).Hours() / 24)
	return days, true
}

func utcMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
